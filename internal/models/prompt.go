package models

import "time"

// PromptBlock is a single titled section of a prompt version.
type PromptBlock struct {
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	Comment *string `json:"comment,omitempty"`
}

// PromptVersion is a snapshot of a prompt. Versions are immutable only by
// convention: updates overwrite the file in place and parent_id is an
// informational back-reference, never validated against storage.
type PromptVersion struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Blocks      []PromptBlock `json:"blocks"`
	CreatedAt   time.Time     `json:"created_at"`
	ParentID    *string       `json:"parent_id"`
	Tags        []string      `json:"tags"`
}

// IndexEntry returns the lightweight metadata mirrored into the prompts
// collection index.
func (p *PromptVersion) IndexEntry() map[string]any {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"created_at":  p.CreatedAt.UTC().Format(time.RFC3339),
		"parent_id":   p.ParentID,
		"tags":        tags,
	}
}
