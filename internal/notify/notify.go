// Package notify renders push payloads into notifications and fans them out
// to delivery sinks.
package notify

import (
	"context"
	"log"
	"net/url"
	"strings"
)

// Defaults applied to empty payload fields.
const (
	DefaultTitle = "PM-AJAY Update"
	DefaultBody  = "New update from PM-AJAY Portal"
	DefaultURL   = "./"
)

// Action is a button offered on a notification.
type Action string

const (
	ActionView    Action = "view"
	ActionDismiss Action = "dismiss"
)

// Payload is an inbound push message.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Field is a key-value pair shown alongside a notification.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Notification is a rendered payload ready for delivery.
type Notification struct {
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	URL     string   `json:"url"`  // as given in the payload
	Link    string   `json:"link"` // URL resolved against the portal origin
	Color   string   `json:"color,omitempty"`
	Fields  []Field  `json:"fields,omitempty"`
	Actions []Action `json:"actions"`
}

// Render fills payload defaults and attaches the view and dismiss actions.
func Render(p Payload) Notification {
	n := Notification{
		Title:   p.Title,
		Body:    p.Body,
		URL:     p.URL,
		Actions: []Action{ActionView, ActionDismiss},
	}
	if strings.TrimSpace(n.Title) == "" {
		n.Title = DefaultTitle
	}
	if strings.TrimSpace(n.Body) == "" {
		n.Body = DefaultBody
	}
	if strings.TrimSpace(n.URL) == "" {
		n.URL = DefaultURL
	}
	n.Link = n.URL
	return n
}

// Click returns the URL to open when action is chosen. Dismiss closes the
// notification without opening anything; a click on the body opens the
// portal root.
func Click(n Notification, action Action) (string, bool) {
	switch action {
	case ActionView:
		return n.URL, true
	case ActionDismiss:
		return "", false
	default:
		return DefaultURL, true
	}
}

// Sink delivers notifications to one channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Result reports which sinks accepted a notification.
type Result struct {
	Notification Notification `json:"notification"`
	Delivered    []string     `json:"delivered"`
	Failed       []string     `json:"failed"`
}

// Notifier fans notifications out to every sink. Delivery is best-effort:
// sink errors are logged and recorded, never returned.
type Notifier struct {
	origin *url.URL
	sinks  []Sink
}

// NewNotifier returns a Notifier resolving relative links against origin.
func NewNotifier(origin string, sinks ...Sink) *Notifier {
	n := &Notifier{sinks: sinks}
	if origin != "" {
		if u, err := url.Parse(strings.TrimRight(origin, "/") + "/"); err == nil {
			n.origin = u
		} else {
			log.Printf("notify: parse origin %q: %v", origin, err)
		}
	}
	return n
}

// Sinks returns the number of configured sinks.
func (n *Notifier) Sinks() int { return len(n.sinks) }

// Push renders p and sends it to every sink.
func (n *Notifier) Push(ctx context.Context, p Payload) Result {
	return n.Send(ctx, Render(p))
}

// Send delivers an already rendered notification to every sink.
func (n *Notifier) Send(ctx context.Context, note Notification) Result {
	note.Link = n.resolve(note.URL)
	res := Result{Notification: note, Delivered: []string{}, Failed: []string{}}
	for _, s := range n.sinks {
		if err := s.Send(ctx, note); err != nil {
			log.Printf("notify: %s: %v", s.Name(), err)
			res.Failed = append(res.Failed, s.Name())
			continue
		}
		res.Delivered = append(res.Delivered, s.Name())
	}
	return res
}

func (n *Notifier) resolve(ref string) string {
	if n.origin == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return n.origin.ResolveReference(u).String()
}
