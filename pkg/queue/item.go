package queue

import (
	"time"

	"github.com/google/uuid"
)

// Item is the on-disk QueueItem<P>. State transitions are constrained to
// (isClosed, isLocked): (F,F) -> (F,T) -> (T,F), and a closed item is
// never reopened.
type Item[P any] struct {
	ID          string     `bson:"_id"`
	CreatedUTC  time.Time  `bson:"createdUtc"`
	Payload     P          `bson:"payload"`
	PayloadType string     `bson:"payloadType"`
	IsClosed    bool       `bson:"isClosed"`
	IsLocked    bool       `bson:"isLocked"`
	LockedUTC   *time.Time `bson:"lockedUtc,omitempty"`
	ClosedUTC   *time.Time `bson:"closedUtc,omitempty"`
}

func newItemID() string {
	return uuid.NewString()
}
