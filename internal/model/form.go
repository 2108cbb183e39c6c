package model

import (
	"time"
)

// DefaultTitle is substituted when a form is saved with an empty title.
const DefaultTitle = "Untitled Form"

// FormDocument is the unit persisted and shared: ordered fields plus
// form-level metadata. ID and ShareToken are absent until first save.
type FormDocument struct {
	ID                     int64         `json:"id,omitempty"`
	OwnerID                int           `json:"owner_id,omitempty"`
	Title                  string        `json:"title"`
	Description            string        `json:"description,omitempty"`
	Theme                  string        `json:"theme"`
	AllowMultipleResponses bool          `json:"allow_multiple_responses"`
	RequireEmail           bool          `json:"require_email"`
	ShareToken             string        `json:"share_token,omitempty"`
	Fields                 []FieldConfig `json:"fields"`
	CreatedAt              time.Time     `json:"created_at,omitempty"`
	UpdatedAt              time.Time     `json:"updated_at,omitempty"`
}

// FieldByUID returns the field with the given uid, or nil.
func (d *FormDocument) FieldByUID(uid string) *FieldConfig {
	for i := range d.Fields {
		if d.Fields[i].UID == uid {
			return &d.Fields[i]
		}
	}
	return nil
}

// FieldByID returns the field with the given persistence id, or nil.
func (d *FormDocument) FieldByID(id int64) *FieldConfig {
	for i := range d.Fields {
		if d.Fields[i].ID == id {
			return &d.Fields[i]
		}
	}
	return nil
}

// FormSummary is the list-view projection of a form.
type FormSummary struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	ShareToken    string    `json:"share_token"`
	FieldCount    int       `json:"field_count"`
	ResponseCount int       `json:"response_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SaveFormRequest is the payload for creating or updating a form.
// Fields arrive in editor shape; option-bearing attributes are normalized
// on decode by OptionList/ImageList.
type SaveFormRequest struct {
	Title                  string        `json:"title" binding:"omitempty,max=255"`
	Description            string        `json:"description" binding:"omitempty,max=5000"`
	Theme                  string        `json:"theme" binding:"omitempty,max=64"`
	AllowMultipleResponses *bool         `json:"allow_multiple_responses" binding:"omitempty"`
	RequireEmail           *bool         `json:"require_email" binding:"omitempty"`
	Fields                 []FieldConfig `json:"fields" binding:"omitempty,dive"`
}
