// README: Push event envelope and room naming shared by hub and subscribers.
package push

import (
	"encoding/json"
	"fmt"

	"gasline/internal/types"
)

// Event is the wire payload pushed to dashboards: {type, order|data}.
type Event struct {
	Type  string          `json:"type"`
	Order json.RawMessage `json:"order,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Rooms are role- and user-scoped; every client joins role_<role> and
// user_<uid> on connect.
func RoleRoom(role string) string {
	return fmt.Sprintf("role_%s", role)
}

func UserRoom(uid types.ID) string {
	return fmt.Sprintf("user_%s", string(uid))
}
