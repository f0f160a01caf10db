package usecase

import (
	"context"

	"PanelPulse/internal/domain/models"
	drepo "PanelPulse/internal/domain/repository"
	mid "PanelPulse/internal/middleware"
)

// EventCollector reads narrative events from the upstream feed and routes
// them through the intake into the pipeline.
type EventCollector struct {
	stream  drepo.EventStream
	intake  *mid.EventIntake
	metrics drepo.Metrics
}

// NewEventCollector creates a new EventCollector.
func NewEventCollector(stream drepo.EventStream, intake *mid.EventIntake, metrics drepo.Metrics) *EventCollector {
	return &EventCollector{stream: stream, intake: intake, metrics: metrics}
}

// IsConnected returns true if the feed is connected.
func (c *EventCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects, subscribes, and begins consuming the feed. Events missed
// before the subscription took effect are recovered via Backfill.
func (c *EventCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.intake.Start(ctx)
	c.backfill(ctx)
	evCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, evCh, errCh)
	return nil
}

func (c *EventCollector) backfill(ctx context.Context) {
	events, err := c.stream.Backfill(ctx)
	if err != nil {
		c.metrics.RecordError("feed_backfill")
		return
	}
	for _, e := range events {
		_ = c.intake.Submit(ctx, e)
	}
}

func (c *EventCollector) consume(ctx context.Context, evCh <-chan *models.NarrativeEvent, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("feed_stream")
				if rerr := c.stream.Reconnect(ctx); rerr == nil {
					// cover the window the socket was down, then resume
					// reading from the new connection
					c.backfill(ctx)
					evCh, errCh = c.stream.Read(ctx)
				}
			}
		case e := <-evCh:
			if e == nil {
				continue
			}
			_ = c.intake.Submit(ctx, e)
		}
	}
}

// Shutdown stops the intake and closes the feed.
func (c *EventCollector) Shutdown(ctx context.Context) error {
	c.intake.Stop()
	return c.stream.Close()
}
