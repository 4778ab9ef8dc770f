// Package messaging publishes domain events.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/application/ports"
)

// PutEventsAPI is the part of the EventBridge client the publisher needs.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridge accepts at most 10 entries per PutEvents call.
const maxBatchSize = 10

// EventBridgePublisher sends events to an EventBridge bus.
type EventBridgePublisher struct {
	client   PutEventsAPI
	eventBus string
	source   string
	logger   *zap.Logger
}

// NewEventBridgePublisher creates a publisher for eventBus.
func NewEventBridgePublisher(client PutEventsAPI, eventBus, source string, logger *zap.Logger) *EventBridgePublisher {
	if eventBus == "" {
		eventBus = "default"
	}
	if source == "" {
		source = "mesh.graphsync"
	}
	return &EventBridgePublisher{
		client:   client,
		eventBus: eventBus,
		source:   source,
		logger:   logger,
	}
}

// Publish sends events in batches of ten.
func (p *EventBridgePublisher) Publish(ctx context.Context, events ...ports.Event) error {
	for i := 0; i < len(events); i += maxBatchSize {
		end := min(i+maxBatchSize, len(events))
		if err := p.publishBatch(ctx, events[i:end]); err != nil {
			return fmt.Errorf("failed to publish event batch: %w", err)
		}
	}
	return nil
}

func (p *EventBridgePublisher) publishBatch(ctx context.Context, events []ports.Event) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(events))
	for _, event := range events {
		detail, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBus),
			Source:       aws.String(p.source),
			DetailType:   aws.String(event.Type),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.Timestamp),
		})
	}

	output, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to put events: %w", err)
	}

	if output.FailedEntryCount > 0 {
		for i, entry := range output.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("EventBridge rejected event",
					zap.Int("index", i),
					zap.String("code", aws.ToString(entry.ErrorCode)),
					zap.String("message", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", output.FailedEntryCount)
	}

	p.logger.Debug("Published events", zap.Int("count", len(entries)), zap.String("bus", p.eventBus))
	return nil
}

// LogPublisher writes events to the log. It is the default outside AWS.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, events ...ports.Event) error {
	for _, e := range events {
		p.logger.Info("Domain event",
			zap.String("type", e.Type),
			zap.String("dataset", e.DatasetID),
			zap.Time("timestamp", e.Timestamp),
			zap.Any("payload", e.Payload),
		)
	}
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...ports.Event) error { return nil }
