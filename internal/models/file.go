package models

// FileMeta describes an uploaded blob.
type FileMeta struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Name string `json:"name"`
}
