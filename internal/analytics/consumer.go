package analytics

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/miniurl/miniurl/internal/shortener"
	"go.uber.org/zap"
)

// Consumer consumes visit events, enriches them with geolocation, and
// persists the resulting visits. Enrichment failures degrade to Unknown
// fields; only a persistence failure Nacks the message for redelivery.
type Consumer struct {
	subscriber message.Subscriber
	visits     shortener.VisitRepository
	geo        shortener.Geolocator
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a new visit analytics consumer.
func NewConsumer(
	subscriber message.Subscriber,
	visits shortener.VisitRepository,
	geo shortener.Geolocator,
	logger *zap.Logger,
) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		visits:     visits,
		geo:        geo,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start begins consuming visit events.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, TopicVisitRecorded)
	if err != nil {
		return err
	}

	go c.consumeLoop(ctx, msgs)

	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			c.handleVisit(ctx, msg)
		}
	}
}

func (c *Consumer) handleVisit(ctx context.Context, msg *message.Message) {
	var event VisitEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("failed to unmarshal visit event",
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	loc := c.geo.Lookup(ctx, event.ClientIP)

	visit := &shortener.Visit{
		ID:          uuid.New(),
		ShortLinkID: event.ShortLinkID,
		City:        loc.City,
		Region:      loc.Region,
		Country:     loc.Country,
	}

	if err := c.visits.InsertVisit(ctx, visit); err != nil {
		c.logger.Error("failed to save visit",
			zap.String("code", event.Code),
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	msg.Ack()

	c.logger.Debug("visit recorded",
		zap.String("code", event.Code),
		zap.String("country", visit.Country),
	)
}

// Shutdown stops the consumer and waits for in-flight messages to complete.
func (c *Consumer) Shutdown() error {
	if c.cancel != nil {
		c.cancel()
	}

	<-c.done

	return nil
}
