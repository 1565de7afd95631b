package position

import (
	"time"

	"github.com/google/uuid"

	"worldwidewaves/pkg/geo"
)

// Update is a single position fix.
type Update struct {
	Position geo.Point `json:"position"`
	Accuracy float64   `json:"accuracy"` // meters, 0 when the source does not report one
	Time     time.Time `json:"time"`
}

// Source is a live stream of position updates. Consumers subscribe for a
// private channel and must unsubscribe when done. Accuracy metadata is
// carried through untouched; interpreting it is up to the consumer.
type Source interface {
	// Subscribe registers a consumer and returns its id and channel.
	// The channel is closed by Unsubscribe.
	Subscribe() (uuid.UUID, <-chan Update)
	// Unsubscribe removes a consumer. Unknown ids are ignored.
	Unsubscribe(id uuid.UUID)
	// Last returns the most recent fix. ok is false before the first one.
	Last() (Update, bool)
}
