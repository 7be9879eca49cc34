package models

import "time"

// DocumentInfo is filesystem metadata for an extraction input document.
type DocumentInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"` // "pdf" or "text"
	Extension  string    `json:"extension"`
	ModifiedAt time.Time `json:"modified_at"`
}
