package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
)

// DefaultTopic receives OrderPlaced events when no topic is configured.
const DefaultTopic = "inventory.orders.placed"

var _ ports.Notifier = (*KafkaNotifier)(nil)

// MessageWriter is the subset of *kafka.Writer the notifier needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes OrderPlaced events as JSON, keyed by order id so events of one
// order stay on one partition.
type KafkaNotifier struct {
	writer MessageWriter
	now    func() time.Time
}

// NewKafkaWriter builds a synchronous producer: WriteMessages returns once the broker has
// acknowledged the batch, so callers that retry (the notification workflow) see failures.
func NewKafkaWriter(brokers []string, topic string, logger *slog.Logger) *kafka.Writer {
	return newKafkaWriter(brokers, topic, logger, false)
}

// NewInlineKafkaWriter builds a fire-and-forget producer for publishing on the request
// path. WriteMessages only enqueues; delivery failures surface through Completion logs.
func NewInlineKafkaWriter(brokers []string, topic string, logger *slog.Logger) *kafka.Writer {
	return newKafkaWriter(brokers, topic, logger, true)
}

func newKafkaWriter(brokers []string, topic string, logger *slog.Logger, async bool) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = slog.Default()
	}
	batchTimeout := 500 * time.Millisecond
	if async {
		batchTimeout = 10 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: batchTimeout,
		WriteTimeout: 10 * time.Second,
		Async:        async,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("kafka producer error", slog.Int("messages", len(messages)), slog.String("error", err.Error()))
			}
		},
	}
}

func NewKafkaNotifier(writer MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, now: func() time.Time { return time.Now().UTC() }}
}

// orderPlacedMessage is the wire envelope of an OrderPlaced event.
type orderPlacedMessage struct {
	EventID            string             `json:"eventId"`
	EventType          string             `json:"eventType"`
	OccurredAt         time.Time          `json:"occurredAt"`
	OrderID            int64              `json:"orderId"`
	OrderDate          time.Time          `json:"orderDate"`
	UserName           string             `json:"userName"`
	UserEmail          string             `json:"userEmail"`
	TotalPrice         string             `json:"totalPrice"`
	Lines              []orderLineMessage `json:"lines"`
	LowStockProductIDs []int64            `json:"lowStockProductIds"`
}

type orderLineMessage struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

func (n *KafkaNotifier) OrderPlaced(ctx context.Context, event domain.OrderPlaced) error {
	if n == nil || n.writer == nil {
		return errors.New("kafka order notifier not configured")
	}
	value, err := json.Marshal(newOrderPlacedMessage(event, n.now()))
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("OrderPlaced")},
		},
	})
}

// Close flushes and closes the producer.
func (n *KafkaNotifier) Close() error {
	if n == nil || n.writer == nil {
		return nil
	}
	return n.writer.Close()
}

func newOrderPlacedMessage(event domain.OrderPlaced, at time.Time) orderPlacedMessage {
	lines := make([]orderLineMessage, 0, len(event.Lines))
	for _, line := range event.Lines {
		lines = append(lines, orderLineMessage{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	lowStock := event.LowStockProductIDs
	if lowStock == nil {
		lowStock = []int64{}
	}
	return orderPlacedMessage{
		EventID:            uuid.NewString(),
		EventType:          "OrderPlaced",
		OccurredAt:         at,
		OrderID:            event.OrderID,
		OrderDate:          event.OrderDate,
		UserName:           event.UserName,
		UserEmail:          event.UserEmail,
		TotalPrice:         event.TotalPrice.StringFixed(2),
		Lines:              lines,
		LowStockProductIDs: lowStock,
	}
}
