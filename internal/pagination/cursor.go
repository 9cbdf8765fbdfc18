package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidCursor is returned when a cursor token cannot be decoded or
// refers to a resume point the caller never received.
var ErrInvalidCursor = errors.New("invalid cursor")

// DefaultPageSize is used when a list request does not name a limit.
const DefaultPageSize = 20

// MaxPageSize caps the limit a caller may request.
const MaxPageSize = 100

// Cursor is the resume point for a keyset-paginated query. Collections are
// ordered by (created_at DESC, id DESC); the id breaks timestamp ties so the
// sort key is strictly totally ordered and pages never duplicate or skip
// items of an unmodified collection.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"id"`
}

// Encode renders the cursor as an opaque token.
func Encode(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses a token produced by Encode. The empty token decodes to the
// zero cursor, meaning "first page".
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return Cursor{}, ErrInvalidCursor
	}
	return c, nil
}

// IsFirst reports whether the cursor marks the start of the collection.
func (c Cursor) IsFirst() bool {
	return c.ID == "" && c.CreatedAt.IsZero()
}

// Page describes the outcome of one fetch. HasMore is a heuristic: a full
// page is assumed to have a successor, so when the collection size is an
// exact multiple of the page size the last real page still reports
// HasMore=true and the following fetch returns zero items, flipping it.
type Page struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// PageOf derives page metadata from the number of items returned, the
// requested page size, and the sort key of the last returned item.
func PageOf(returned, pageSize int, last Cursor) Page {
	if returned == 0 {
		return Page{}
	}
	return Page{
		NextCursor: Encode(last),
		HasMore:    returned == pageSize,
	}
}

// ClampSize normalizes a caller-supplied page size.
func ClampSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}
