// Package slack delivers portal notifications to a Slack channel.
package slack

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/gramportal/internal/notify"
)

// maxRetries is the max number of retries for rate-limited API calls.
const maxRetries = 3

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Sink posts notifications as Slack attachments.
type Sink struct {
	client    slackClient
	channelID string
}

// SinkOpts holds parameters for creating a Slack Sink.
type SinkOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string
	// For testing: inject a mock client instead of real Slack API.
	Client slackClient
}

// New creates a Slack Sink.
func New(opts SinkOpts) (*Sink, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel id is required")
	}
	client := opts.Client
	if client == nil {
		client = slackapi.New(opts.BotToken)
	}
	return &Sink{client: client, channelID: opts.ChannelID}, nil
}

// Name implements notify.Sink.
func (s *Sink) Name() string { return "slack" }

// Send implements notify.Sink.
func (s *Sink) Send(ctx context.Context, n notify.Notification) error {
	options := buildMessageOptions(n)
	err := retryOnRateLimit(ctx, func() error {
		_, _, postErr := s.client.PostMessage(s.channelID, options...)
		return postErr
	})
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// buildMessageOptions renders a notification as fallback text plus one
// attachment.
func buildMessageOptions(n notify.Notification) []slackapi.MsgOption {
	return []slackapi.MsgOption{
		slackapi.MsgOptionText(n.Title, false),
		slackapi.MsgOptionAttachments(notificationToAttachment(n)),
	}
}

// notificationToAttachment converts a Notification to a Slack Attachment.
func notificationToAttachment(n notify.Notification) slackapi.Attachment {
	att := slackapi.Attachment{
		Title:     n.Title,
		TitleLink: n.Link,
		Text:      n.Body,
		Color:     n.Color,
		Fallback:  n.Title,
	}
	for _, f := range n.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: true,
		})
	}
	return att
}

// retryOnRateLimit calls fn and retries with backoff on Slack rate limit errors.
// It respects context cancellation and the RetryAfter duration from Slack.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}
