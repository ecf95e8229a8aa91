package model

import (
	"encoding/json"
	"time"
)

// Survey is the stored survey definition: identity fields plus the schema
// document as an opaque JSON blob. The blob is what schema.Parse consumes.
type Survey struct {
	ID        string          `json:"id"`
	RefID     string          `json:"refid"`
	Name      string          `json:"name"`
	SecName   string          `json:"secname,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SurveyInfo is the listing shape: identity only, no definition blob.
type SurveyInfo struct {
	RefID     string    `json:"refid"`
	Name      string    `json:"name"`
	SecName   string    `json:"secname,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateSurveyRequest struct {
	RefID   string          `json:"refid"`
	Name    string          `json:"name"`
	SecName string          `json:"secname"`
	Data    json.RawMessage `json:"data"`
}

// UpdateSurveyRequest carries a partial update; absent fields keep their
// stored value.
type UpdateSurveyRequest struct {
	Name    string          `json:"name"`
	SecName *string         `json:"secname"`
	Data    json.RawMessage `json:"data"`
}

// Response is one submitted answer document for a survey.
type Response struct {
	ID        string          `json:"id"`
	RefID     string          `json:"refid"`
	Name      string          `json:"name,omitempty"`
	SecName   string          `json:"secname,omitempty"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

type CreateResponseRequest struct {
	RefID   string          `json:"refid"`
	Name    string          `json:"name"`
	SecName string          `json:"secname"`
	Data    json.RawMessage `json:"data"`
}

type BulkResponseRequest struct {
	Responses []CreateResponseRequest `json:"responses"`
}
