// README: Rider location tracking types.
package location

import (
	"time"

	"gasline/internal/types"
)

type Update struct {
	RiderID  types.ID
	Position types.Point
}

type Snapshot struct {
	RiderID    types.ID
	Position   types.Point
	RecordedAt time.Time
}
