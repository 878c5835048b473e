// Package queue persists form submissions made while the sync endpoint is
// unreachable and replays them once connectivity returns.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/gramportal/internal/models"
	"gorm.io/gorm"
)

// Submission is a queued form submission.
type Submission struct {
	Token         string          `json:"token"`
	Tag           string          `json:"tag"`
	Kind          string          `json:"kind"`
	Payload       json.RawMessage `json:"payload"`
	Attempts      int             `json:"attempts"`
	LastError     string          `json:"lastError,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastAttemptAt *time.Time      `json:"lastAttemptAt,omitempty"`
	DeadAt        *time.Time      `json:"deadAt,omitempty"`
}

// Deliverer hands a submission to the remote side. A nil error confirms
// delivery.
type Deliverer interface {
	Deliver(ctx context.Context, s Submission) error
}

// RejectedError reports a submission the endpoint refused outright.
// Retrying the same payload cannot succeed, so Flush dead-letters it.
type RejectedError struct {
	Status int
	Err    error
}

func (e *RejectedError) Error() string { return e.Err.Error() }
func (e *RejectedError) Unwrap() error { return e.Err }

// Defaults applied by New.
const (
	DefaultMaxAttempts    = 10
	DefaultDeliverTimeout = 30 * time.Second
)

// FlushResult summarises one flush pass.
type FlushResult struct {
	Delivered    int
	Failed       int
	DeadLettered int
}

// Queue stores submissions as QueuedSubmission rows keyed by a retry token.
type Queue struct {
	db  *gorm.DB
	tag string
	now func() time.Time

	// MaxAttempts is the number of failed deliveries after which an entry
	// is dead-lettered. Zero or less disables the limit.
	MaxAttempts int
	// DeliverTimeout bounds each Deliver call. Zero or less disables it.
	DeliverTimeout time.Duration

	flushMu sync.Mutex
}

// New returns a Queue over db whose entries carry tag.
func New(db *gorm.DB, tag string) *Queue {
	return &Queue{
		db:             db,
		tag:            tag,
		now:            time.Now,
		MaxAttempts:    DefaultMaxAttempts,
		DeliverTimeout: DefaultDeliverTimeout,
	}
}

// Tag returns the sync tag entries are filed under.
func (q *Queue) Tag() string { return q.tag }

// Enqueue stores payload for later delivery and returns the queued entry.
func (q *Queue) Enqueue(ctx context.Context, kind string, payload any) (*Submission, error) {
	if kind == "" {
		return nil, fmt.Errorf("queue: kind is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("queue: encode %s payload: %w", kind, err)
	}
	row := models.QueuedSubmission{
		Token:     uuid.NewString(),
		Tag:       q.tag,
		Kind:      kind,
		Payload:   string(data),
		CreatedAt: q.now(),
	}
	if err := q.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("queue: enqueue %s: %w", kind, err)
	}
	s := fromRow(row)
	return &s, nil
}

// Pending returns every live queued entry for the tag, oldest first.
func (q *Queue) Pending(ctx context.Context) ([]Submission, error) {
	return q.list(ctx, "dead_at IS NULL", "pending")
}

// DeadLetters returns the entries Flush gave up on, oldest first.
func (q *Queue) DeadLetters(ctx context.Context) ([]Submission, error) {
	return q.list(ctx, "dead_at IS NOT NULL", "dead letters")
}

// Revive puts a dead-lettered entry back in the pending queue with its
// attempt count reset.
func (q *Queue) Revive(ctx context.Context, token string) error {
	res := q.db.WithContext(ctx).Model(&models.QueuedSubmission{}).
		Where("tag = ? AND token = ? AND dead_at IS NOT NULL", q.tag, token).
		Updates(map[string]interface{}{"dead_at": nil, "attempts": 0})
	if res.Error != nil {
		return fmt.Errorf("queue: revive %s: %w", token, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("queue: revive %s: no dead-lettered entry", token)
	}
	return nil
}

func (q *Queue) list(ctx context.Context, cond, what string) ([]Submission, error) {
	var rows []models.QueuedSubmission
	if err := q.db.WithContext(ctx).Where("tag = ?", q.tag).Where(cond).
		Order("created_at ASC, token ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("queue: list %s: %w", what, err)
	}
	out := make([]Submission, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	return out, nil
}

// Flush attempts delivery of every pending entry in order. An entry is
// removed only after d confirms it; failures record the error and stay
// queued unless the endpoint rejected the entry or it ran out of
// attempts, in which case it is dead-lettered. Concurrent flushes are
// serialised.
func (q *Queue) Flush(ctx context.Context, d Deliverer) (FlushResult, error) {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	var res FlushResult
	pending, err := q.Pending(ctx)
	if err != nil {
		return res, err
	}
	for _, s := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		derr := q.deliver(ctx, d, s)
		if derr == nil {
			if err := q.db.WithContext(ctx).Where("token = ?", s.Token).
				Delete(&models.QueuedSubmission{}).Error; err != nil {
				return res, fmt.Errorf("queue: remove delivered %s: %w", s.Token, err)
			}
			res.Delivered++
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		now := q.now()
		updates := map[string]interface{}{
			"attempts":        gorm.Expr("attempts + ?", 1),
			"last_error":      derr.Error(),
			"last_attempt_at": now,
		}
		var rejected *RejectedError
		if errors.As(derr, &rejected) || (q.MaxAttempts > 0 && s.Attempts+1 >= q.MaxAttempts) {
			updates["dead_at"] = now
			res.DeadLettered++
			log.Printf("queue: dead-letter %s %s after %d attempts: %v", s.Kind, s.Token, s.Attempts+1, derr)
		} else {
			res.Failed++
			log.Printf("queue: deliver %s %s: %v", s.Kind, s.Token, derr)
		}
		if err := q.db.WithContext(ctx).Model(&models.QueuedSubmission{}).
			Where("token = ?", s.Token).
			Updates(updates).Error; err != nil {
			return res, fmt.Errorf("queue: record failure for %s: %w", s.Token, err)
		}
	}
	return res, nil
}

func (q *Queue) deliver(ctx context.Context, d Deliverer, s Submission) error {
	if q.DeliverTimeout <= 0 {
		return d.Deliver(ctx, s)
	}
	dctx, cancel := context.WithTimeout(ctx, q.DeliverTimeout)
	defer cancel()
	return d.Deliver(dctx, s)
}

func fromRow(r models.QueuedSubmission) Submission {
	return Submission{
		Token:         r.Token,
		Tag:           r.Tag,
		Kind:          r.Kind,
		Payload:       json.RawMessage(r.Payload),
		Attempts:      r.Attempts,
		LastError:     r.LastError,
		CreatedAt:     r.CreatedAt,
		LastAttemptAt: r.LastAttemptAt,
		DeadAt:        r.DeadAt,
	}
}
