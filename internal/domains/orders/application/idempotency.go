package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
)

// MaxIdempotencyKeyLength bounds client-supplied Idempotency-Key values.
const MaxIdempotencyKeyLength = 255

type fingerprintLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type fingerprintPayload struct {
	UserName  string            `json:"userName"`
	UserEmail string            `json:"userEmail"`
	Lines     []fingerprintLine `json:"lines"`
}

// fingerprintDraft hashes the normalized order, so retries that split or reorder the same
// lines match the original request.
func fingerprintDraft(draft *domain.Order) (string, error) {
	payload := fingerprintPayload{
		UserName:  draft.UserName,
		UserEmail: strings.ToLower(draft.UserEmail),
		Lines:     make([]fingerprintLine, 0, len(draft.Lines)),
	}
	for _, line := range draft.Lines {
		payload.Lines = append(payload.Lines, fingerprintLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	sort.Slice(payload.Lines, func(i, j int) bool { return payload.Lines[i].ProductID < payload.Lines[j].ProductID })
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// replay returns the order recorded under key, or nil when the key is unused.
func (s *Service) replay(ctx context.Context, key, hash string) (*domain.Order, error) {
	record, err := s.idempotency.Get(ctx, key)
	if err != nil || record == nil {
		return nil, err
	}
	if record.RequestHash != hash {
		return nil, ports.ErrIdempotencyConflict
	}
	order, err := s.orders.GetByID(ctx, record.OrderID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ports.ErrIdempotencyConflict
	}
	return order, err
}
