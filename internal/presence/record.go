package presence

import (
	"strconv"

	"social-service/internal/models"
)

// Redis hash field names of a presence record.
const (
	fieldOnline   = "online"
	fieldLastSeen = "last_seen"
	fieldLocation = "location"
)

// fieldsFromRecord renders a presence record as redis hash fields.
func fieldsFromRecord(p models.Presence) map[string]interface{} {
	online := "0"
	if p.Online {
		online = "1"
	}
	return map[string]interface{}{
		fieldOnline:   online,
		fieldLastSeen: strconv.FormatInt(p.LastSeen, 10),
		fieldLocation: p.Location,
	}
}

// recordFromFields parses redis hash fields back into a presence record.
// A missing record (empty map) reads as offline with no last-seen, per the
// subscription contract.
func recordFromFields(fields map[string]string) models.Presence {
	var p models.Presence
	if len(fields) == 0 {
		return p
	}
	p.Online = fields[fieldOnline] == "1"
	p.LastSeen, _ = strconv.ParseInt(fields[fieldLastSeen], 10, 64)
	p.Location = fields[fieldLocation]
	return p
}
