package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/gramportal/internal/notify"
	"github.com/zulandar/gramportal/internal/portal"
)

const (
	heartbeatInterval = 15 * time.Second
	pushTimeout       = 30 * time.Second
)

// broker fans portal events out to connected event-stream clients. Slow
// clients miss events rather than block the writer.
type broker struct {
	mu      sync.Mutex
	clients map[chan portal.Event]struct{}
}

func newBroker() *broker {
	return &broker{clients: make(map[chan portal.Event]struct{})}
}

func (b *broker) subscribe() chan portal.Event {
	ch := make(chan portal.Event, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *broker) unsubscribe(ch chan portal.Event) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
}

func (b *broker) publish(ev portal.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

// eventStream streams portal events as server-sent events.
func (h *handlers) eventStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := h.events.subscribe()
	defer h.events.unsubscribe(ch)

	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case ev := <-ch:
			writeSSE(c.Writer, string(ev.Type), ev)
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}

// SubmissionPayload turns a requirement or issue event into a push payload.
// Other events report false.
func SubmissionPayload(ev portal.Event) (notify.Payload, bool) {
	var title string
	switch ev.Type {
	case portal.EventRequirementSubmitted:
		title = "New requirement: " + ev.Title
	case portal.EventIssueReported:
		title = "Issue reported: " + ev.Title
	default:
		return notify.Payload{}, false
	}
	body := ev.Priority + " priority"
	if ev.Village != "" {
		body += " in " + ev.Village
	}
	return notify.Payload{Title: title, Body: body, URL: "./#requirements"}, true
}

// PushOnSubmission returns a portal subscriber that pushes requirement and
// issue submissions through n. Delivery runs in the background.
func PushOnSubmission(n *notify.Notifier) func(portal.Event) {
	return func(ev portal.Event) {
		p, ok := SubmissionPayload(ev)
		if !ok {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
			defer cancel()
			res := n.Push(ctx, p)
			if len(res.Failed) > 0 {
				log.Printf("server: push %s %s: failed sinks %v", ev.Type, ev.ID, res.Failed)
			}
		}()
	}
}
