package narrativefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"PanelPulse/internal/domain/models"
	drepo "PanelPulse/internal/domain/repository"
	xhttp "PanelPulse/pkg/http"

	"github.com/gorilla/websocket"
)

// Client implements an EventStream backed by the narrative feed WebSocket,
// with a REST endpoint for catching up on events missed while disconnected.
type Client struct {
	apiKey         string
	websocketURL   string
	restURL        string
	channels       []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	rest      *xhttp.Client
	conn      *websocket.Conn
	connected bool
}

// New creates a new narrative feed EventStream. restURL may be empty, in
// which case Backfill is a no-op.
func New(apiKey, websocketURL, restURL string, channels []string, reconnectDelay, pingInterval time.Duration) drepo.EventStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		restURL:        restURL,
		channels:       channels,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		rest:           xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("narrativefeed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("narrativefeed: connected")
	return nil
}

// Subscribe subscribes to configured event channels.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("narrativefeed not connected")
	}
	for _, ch := range c.channels {
		msg := map[string]string{"type": "subscribe", "channel": ch}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", ch, err)
		}
		log.Printf("narrativefeed: subscribed %s", ch)
	}
	return nil
}

type feedEvent struct {
	ID         string                     `json:"id"`
	EventType  string                     `json:"event_type"`
	OccurredAt int64                      `json:"occurred_at"` // unix seconds
	StoryBeat  *models.StoryBeat          `json:"story_beat,omitempty"`
	Comic      *models.ComicIssue         `json:"comic_issue,omitempty"`
	Character  *models.CharacterUpdate    `json:"character_update,omitempty"`
	Media      *models.MediaPerformance   `json:"media_performance,omitempty"`
	Transition *models.TimelineTransition `json:"timeline_transition,omitempty"`
}

type feedMessage struct {
	Type string      `json:"type"`
	Data []feedEvent `json:"data"`
}

func (d feedEvent) toEvent() *models.NarrativeEvent {
	occurred := time.Now()
	if d.OccurredAt > 0 {
		occurred = time.Unix(d.OccurredAt, 0)
	}
	return &models.NarrativeEvent{
		ID:         d.ID,
		Type:       models.EventType(d.EventType),
		OccurredAt: occurred,
		StoryBeat:  d.StoryBeat,
		Comic:      d.Comic,
		Character:  d.Character,
		Media:      d.Media,
		Transition: d.Transition,
	}
}

// Backfill pulls recent events over the feed's REST endpoint. Used after
// connect and reconnect to cover the window the socket was down.
func (c *Client) Backfill(ctx context.Context) ([]*models.NarrativeEvent, error) {
	if c.restURL == "" {
		return nil, nil
	}

	var m feedMessage
	err := c.rest.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.restURL + "/events/recent",
		QueryParams: map[string][]string{"token": {c.apiKey}},
	}, &m)
	if err != nil {
		return nil, fmt.Errorf("narrativefeed backfill: %w", err)
	}

	out := make([]*models.NarrativeEvent, 0, len(m.Data))
	for _, d := range m.Data {
		out = append(out, d.toEvent())
	}
	return out, nil
}

// Read streams narrative events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.NarrativeEvent, <-chan error) {
	events := make(chan *models.NarrativeEvent, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(events)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("narrativefeed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("narrativefeed read: %w", err)
					return
				}
				var m feedMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-event frames
					continue
				}
				if m.Type != "event" {
					continue
				}
				for _, d := range m.Data {
					select {
					case events <- d.toEvent():
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return events, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
