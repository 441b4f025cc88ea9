// Package events keeps an append-only log of campaign writes.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindInitialize Kind = "initialize"
	KindCreate     Kind = "create"
	KindDonate     Kind = "donate"
	KindWithdraw   Kind = "withdraw"
)

// Event is one write attempted through the service. Failed writes are
// recorded too, with Error set and no Signature.
type Event struct {
	ID        string    `bson:"_id" json:"id"`
	Campaign  string    `bson:"campaign" json:"campaign"`
	Kind      Kind      `bson:"kind" json:"kind"`
	Actor     string    `bson:"actor" json:"actor"`
	Amount    uint64    `bson:"amount,omitempty" json:"amount,omitempty"`
	Signature string    `bson:"signature,omitempty" json:"signature,omitempty"`
	Error     string    `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Store persists events. List returns the newest events for a campaign first.
type Store interface {
	Record(ctx context.Context, e *Event) error
	List(ctx context.Context, campaign string, limit int) ([]*Event, error)
}

const DefaultListLimit = 50

// prepare assigns an id and timestamp to events that lack them. Ids are
// version 7 uuids so they sort in creation order.
func prepare(e *Event) {
	if e.ID == "" {
		if id, err := uuid.NewV7(); err == nil {
			e.ID = id.String()
		} else {
			e.ID = uuid.NewString()
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
