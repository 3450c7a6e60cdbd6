package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// IngestionEvent notifies downstream consumers that a trading day has
// been merged into the store.
type IngestionEvent struct {
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	TradeDate string    `json:"trade_date"`
	Status    string    `json:"status"`
	Records   int64     `json:"records"`
	Timestamp time.Time `json:"timestamp"`
}

// Producer handles publishing events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishBhavcopyIngested publishes one event per committed trading day
func (p *Producer) PublishBhavcopyIngested(ctx context.Context, tradeDate time.Time, status string, records int64) error {
	event := IngestionEvent{
		EventType: "BHAVCOPY_INGESTED",
		Source:    "nse",
		TradeDate: tradeDate.Format("2006-01-02"),
		Status:    status,
		Records:   records,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, event.TradeDate, event)
}

func (p *Producer) publish(ctx context.Context, key string, event IngestionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
