package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PanelPulse/internal/domain/models"
	domrepo "PanelPulse/internal/domain/repository"
)

// Proc is the minimal event processor interface the intake needs.
type Proc interface {
	ProcessEvent(ctx context.Context, e *models.NarrativeEvent) error
}

// EventIntake sits between event producers and the pipeline. It validates,
// throttles per event type, and buffers events when the pipeline is
// temporarily failing, retrying with backoff.
type EventIntake struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.NarrativeEvent
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[models.EventType]time.Time
}

// IntakeOption configures EventIntake.
type IntakeOption func(*EventIntake)

// WithMaxRPS sets the max accepted events per second per event type.
func WithMaxRPS(n int) IntakeOption {
	return func(p *EventIntake) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) IntakeOption {
	return func(p *EventIntake) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewEventIntake creates a new intake.
func NewEventIntake(proc Proc, metrics domrepo.Metrics, opts ...IntakeOption) *EventIntake {
	p := &EventIntake{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[models.EventType]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.NarrativeEvent, p.bufSize)
	return p
}

// Start launches background flushing of buffered events.
func (p *EventIntake) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case e := <-p.bufCh:
				if e == nil {
					continue
				}
				if err := p.proc.ProcessEvent(ctx, e); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("intake_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- e:
					default:
						p.metrics.RecordError("intake_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *EventIntake) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Submit validates, throttles, and forwards the event to the pipeline,
// buffering on processing errors.
func (p *EventIntake) Submit(ctx context.Context, e *models.NarrativeEvent) error {
	start := time.Now()
	if err := validateEvent(e); err != nil {
		p.metrics.RecordError("intake_validate")
		return err
	}
	if !p.allow(e.Type, start) {
		p.metrics.RecordError("intake_throttle")
		return nil
	}

	if err := p.proc.ProcessEvent(ctx, e); err != nil {
		p.metrics.RecordError("intake_process")
		select {
		case p.bufCh <- e:
		default:
			p.metrics.RecordError("intake_buffer_full")
		}
		return fmt.Errorf("intake downstream: %w", err)
	}
	p.metrics.RecordLatency("intake_submit", time.Since(start).Seconds())
	return nil
}

// BufferDepth reports how many events await retry.
func (p *EventIntake) BufferDepth() int { return len(p.bufCh) }

func validateEvent(e *models.NarrativeEvent) error {
	if e == nil {
		return fmt.Errorf("event nil")
	}
	if e.ID == "" {
		return fmt.Errorf("event id empty")
	}
	switch e.Type {
	case models.EventStoryBeat:
		if e.StoryBeat == nil {
			return fmt.Errorf("story beat payload missing")
		}
	case models.EventComicIssue:
		if e.Comic == nil {
			return fmt.Errorf("comic issue payload missing")
		}
	case models.EventCharacterUpdate:
		if e.Character == nil {
			return fmt.Errorf("character payload missing")
		}
	case models.EventMediaPerformance:
		if e.Media == nil {
			return fmt.Errorf("media payload missing")
		}
	case models.EventTimelineTransition:
		if e.Transition == nil {
			return fmt.Errorf("transition payload missing")
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

func (p *EventIntake) allow(t models.EventType, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[t]
	if last.IsZero() || now.Sub(last) >= time.Second/time.Duration(p.maxRPS) {
		p.lastSeen[t] = now
		return true
	}
	return false
}
