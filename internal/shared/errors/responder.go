package errors

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ContentTypeProblemJSON is the media type for problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// internalDetail replaces the raw error of unmapped failures in responses.
const internalDetail = "An unexpected error occurred."

// ErrorMapper converts an application error into a problem. ok is false when the mapper
// does not recognise err.
type ErrorMapper func(err error) (problem ProblemDetail, ok bool)

// ChainedResponder writes problem responses. Errors go through the mappers in order; the
// first match wins and anything unmatched becomes a logged, generic 500.
type ChainedResponder struct {
	baseURI string
	mappers []ErrorMapper
	logger  *slog.Logger
}

// NewChainedResponder prefixes relative problem types with baseURI, if set.
func NewChainedResponder(baseURI string, mappers ...ErrorMapper) *ChainedResponder {
	return &ChainedResponder{baseURI: strings.TrimRight(baseURI, "/"), mappers: mappers}
}

// WithLogger sets the logger used for unmapped errors.
func (r *ChainedResponder) WithLogger(logger *slog.Logger) *ChainedResponder {
	r.logger = logger
	return r
}

// Respond aborts the request with problem. The request path becomes the instance and the
// active trace id, when there is one, is added as "traceId".
func (r *ChainedResponder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.baseURI != "" && strings.HasPrefix(problem.Type, "/") {
		problem.Type = r.baseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		problem = problem.WithExtension("traceId", sc.TraceID().String())
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

func (r *ChainedResponder) RespondError(c *gin.Context, err error) {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			r.Respond(c, problem)
			return
		}
	}
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(c.Request.Context(), "unhandled request error",
		slog.String("http.method", c.Request.Method),
		slog.String("http.path", c.Request.URL.Path),
		slog.String("error", err.Error()))
	r.Respond(c, ErrInternal.WithDetail(internalDetail))
}

func (r *ChainedResponder) BadRequest(c *gin.Context, detail string) {
	r.Respond(c, ErrBadRequest.WithDetail(detail))
}

func (r *ChainedResponder) ValidationFailed(c *gin.Context, fieldErrors map[string]string) {
	r.Respond(c, NewValidationProblem(fieldErrors))
}
