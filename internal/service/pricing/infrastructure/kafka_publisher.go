package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"pricewise/internal/pkg/mq"
	"pricewise/internal/service/pricing/domain"
)

const priceChangedEventType = "price.decision.recorded"

// PriceChangedEvent 是写入 price-changes 主题的消息体。
type PriceChangedEvent struct {
	EventID           string                `json:"eventId"`
	EventType         string                `json:"eventType"`
	DecisionID        string                `json:"decisionId"`
	ProductID         string                `json:"productId"`
	PreviousPrice     decimal.Decimal       `json:"previousPrice"`
	NewPrice          decimal.Decimal       `json:"newPrice"`
	Confidence        float64               `json:"confidence"`
	Recommendation    domain.Recommendation `json:"recommendation"`
	ConstraintApplied domain.ConstraintKind `json:"constraintApplied"`
	DecidedAt         time.Time             `json:"decidedAt"`
	OccurredAt        time.Time             `json:"occurredAt"`
}

// KafkaDecisionPublisher 按商品 ID 作为 key 发布，保证同一商品的事件有序。
type KafkaDecisionPublisher struct {
	writer mq.MessageWriter
}

func NewKafkaDecisionPublisher(writer mq.MessageWriter) *KafkaDecisionPublisher {
	return &KafkaDecisionPublisher{writer: writer}
}

func (p *KafkaDecisionPublisher) PublishDecision(ctx context.Context, d *domain.PricingDecision) error {
	event := PriceChangedEvent{
		EventID:           uuid.New().String(),
		EventType:         priceChangedEventType,
		DecisionID:        d.ID,
		ProductID:         d.ProductID,
		PreviousPrice:     d.PreviousPrice,
		NewPrice:          d.NewPrice,
		Confidence:        d.Confidence,
		Recommendation:    d.Recommendation,
		ConstraintApplied: d.ConstraintApplied,
		DecidedAt:         d.Timestamp,
		OccurredAt:        time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal price changed event")
	}
	return mq.ProduceMessage(ctx, p.writer, []byte(d.ProductID), body,
		kafka.Header{Key: "event-type", Value: []byte(priceChangedEventType)})
}
