package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/zulandar/gramportal/internal/lifecycle"
	"github.com/zulandar/gramportal/internal/queue"
)

// tokenTTL bounds how long a delivered retry token is remembered.
const tokenTTL = 24 * time.Hour

// tokenLedger remembers retry tokens that were already applied so a
// redelivered submission is acknowledged without being applied twice.
type tokenLedger struct {
	c *gocache.Cache
}

func newTokenLedger() *tokenLedger {
	return &tokenLedger{c: gocache.New(tokenTTL, time.Hour)}
}

// claim reports whether token is new, recording it if so.
func (l *tokenLedger) claim(token string) bool {
	return l.c.Add(token, struct{}{}, gocache.DefaultExpiration) == nil
}

func (l *tokenLedger) release(token string) {
	l.c.Delete(token)
}

// submission is the delivery target of the deferred queue.
func (h *handlers) submission(c *gin.Context) {
	env, ok := bindInput[queue.Envelope](c)
	if !ok {
		return
	}
	if env.Token == "" {
		respond(c, 0, nil, &lifecycle.ValidationError{Field: "token", Reason: "is required"})
		return
	}
	if !h.tokens.claim(env.Token) {
		c.JSON(http.StatusOK, gin.H{"token": env.Token, "duplicate": true})
		return
	}

	entity, err := h.p.Apply(env.Kind, env.Payload)
	if err != nil && statusFor(err) != http.StatusInsufficientStorage {
		// Nothing was applied; a later delivery may try again.
		h.tokens.release(env.Token)
	}
	if err != nil {
		respond(c, 0, entity, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": env.Token, "kind": env.Kind, "entity": entity})
}
