package discord

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/gramportal/internal/notify"
)

// --- Mock session ---

type mockSession struct {
	mu       sync.Mutex
	sent     []sentMessage
	sendErrs []error // returned in order, one per call
}

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sendErrs) > 0 {
		err := m.sendErrs[0]
		m.sendErrs = m.sendErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	m.sent = append(m.sent, sentMessage{channelID: channelID, data: data})
	return &discordgo.Message{ID: "M1", ChannelID: channelID}, nil
}

func rateLimited() error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
}

func newTestSink(t *testing.T, sess *mockSession) *Sink {
	t.Helper()
	s, err := New(SinkOpts{ChannelID: "CH1", Session: sess})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.baseBackoff = time.Millisecond
	s.maxBackoff = 5 * time.Millisecond
	return s
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(SinkOpts{ChannelID: "CH1"}); err == nil {
		t.Error("expected error without bot token or session")
	}
	if _, err := New(SinkOpts{Session: &mockSession{}}); err == nil {
		t.Error("expected error without channel")
	}
}

func TestSend_Embed(t *testing.T) {
	sess := &mockSession{}
	s := newTestSink(t, sess)
	n := notify.Notification{
		Title:  "Village advanced",
		Body:   "Rampur is now VDP Approved",
		Link:   "http://portal.test/villages",
		Color:  "#4CAF50",
		Fields: []notify.Field{{Name: "District", Value: "Sitapur"}},
	}
	if err := s.Send(context.Background(), n); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sess.sent) != 1 || sess.sent[0].channelID != "CH1" {
		t.Fatalf("sent = %+v", sess.sent)
	}
	embed := sess.sent[0].data.Embeds[0]
	if embed.Title != n.Title || embed.Description != n.Body || embed.URL != n.Link {
		t.Errorf("embed = %+v", embed)
	}
	if embed.Color != 0x4CAF50 {
		t.Errorf("Color = %#x, want 0x4caf50", embed.Color)
	}
	if len(embed.Fields) != 1 || !embed.Fields[0].Inline {
		t.Errorf("fields = %+v", embed.Fields)
	}
}

func TestNotificationToEmbed_RelativeLinkDropped(t *testing.T) {
	embed := notificationToEmbed(notify.Notification{Title: "t", Link: "./"})
	if embed.URL != "" {
		t.Errorf("URL = %q, want empty for relative link", embed.URL)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"#FF9800", 0xFF9800},
		{"2e7d32", 0x2E7D32},
		{"#666", 0x666666},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseHexColor(tt.in); got != tt.want {
			t.Errorf("parseHexColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestSend_RetriesRateLimit(t *testing.T) {
	sess := &mockSession{sendErrs: []error{rateLimited(), rateLimited()}}
	s := newTestSink(t, sess)
	if err := s.Send(context.Background(), notify.Render(notify.Payload{})); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sess.sent) != 1 {
		t.Errorf("sent %d, want 1", len(sess.sent))
	}
}

func TestSend_GivesUpAfterMaxRetries(t *testing.T) {
	sess := &mockSession{sendErrs: []error{rateLimited(), rateLimited(), rateLimited(), rateLimited()}}
	s := newTestSink(t, sess)
	if err := s.Send(context.Background(), notify.Render(notify.Payload{})); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestSend_OtherErrorNotRetried(t *testing.T) {
	sess := &mockSession{sendErrs: []error{errors.New("missing access"), nil}}
	s := newTestSink(t, sess)
	if err := s.Send(context.Background(), notify.Render(notify.Payload{})); err == nil {
		t.Fatal("expected error")
	}
	if len(sess.sent) != 0 {
		t.Errorf("sent %d, want 0", len(sess.sent))
	}
}
