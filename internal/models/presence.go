package models

// Presence is the liveness record for a user. LastSeen is epoch
// milliseconds; zero means the user has never connected.
type Presence struct {
	Online   bool   `json:"online"`
	LastSeen int64  `json:"last_seen"`
	Location string `json:"location,omitempty"`
}
