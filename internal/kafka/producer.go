package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jlaster/fund-monitor/internal/models"
)

// Producer handles publishing monitoring events to Kafka
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

// PublishTaskCompleted publishes a successful extraction event
func (p *Producer) PublishTaskCompleted(ctx context.Context, task *models.Task) error {
	event := models.MonitorEvent{
		EventType: models.EventTaskCompleted,
		TaskID:    task.ID,
		TaskType:  task.Type,
		Status:    task.Status,
		Snapshot:  task.Data,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, task.Type, event)
}

// PublishTaskFailed publishes a failed extraction event
func (p *Producer) PublishTaskFailed(ctx context.Context, task *models.Task) error {
	event := models.MonitorEvent{
		EventType: models.EventTaskFailed,
		TaskID:    task.ID,
		TaskType:  task.Type,
		Status:    task.Status,
		Error:     task.Error,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, task.Type, event)
}

// PublishAlertTriggered publishes an alert-fired event
func (p *Producer) PublishAlertTriggered(ctx context.Context, taskID int, alertKind string) error {
	event := models.MonitorEvent{
		EventType: models.EventAlertTriggered,
		TaskID:    taskID,
		TaskType:  models.TaskTypeEBI,
		Alert:     alertKind,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, strconv.Itoa(taskID), event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.MonitorEvent) error {
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
