// Package questionnaire manages event types, their questions, and the answers
// an external party submits through the portal.
package questionnaire

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "lumina/pkg/domain-errors"
)

// Response status values. Once validated, the answer map is immutable.
const (
	StatusDraft     = "draft"
	StatusValidated = "validated"
)

// Question types supported by the portal form.
const (
	QuestionText        = "text"
	QuestionTextarea    = "textarea"
	QuestionSelect      = "select"
	QuestionMultiSelect = "multiselect"
	QuestionDate        = "date"
)

// Question describes one field of an event type's questionnaire.
type Question struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// EventType groups the questions asked for one kind of engagement.
type EventType struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Name       string
	Questions  []Question
	CreatedAt  time.Time
}

// Answer holds one submitted answer. Scalar answers carry a single value;
// multi-select answers carry several.
type Answer struct {
	Values []string
	Array  bool
}

// UnmarshalJSON accepts both a bare string and an array of strings.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		a.Values = []string{single}
		a.Array = false
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	a.Values = many
	a.Array = true
	return nil
}

// MarshalJSON preserves the submitted shape.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Array {
		return json.Marshal(a.Values)
	}
	if len(a.Values) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(a.Values[0])
}

// Join flattens the answer for substitution; array values are joined with ", ".
func (a Answer) Join() string {
	return strings.Join(a.Values, ", ")
}

// IsEmpty reports whether the answer carries no usable content.
func (a Answer) IsEmpty() bool {
	for _, v := range a.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Answers maps question keys to submitted answers.
type Answers map[string]Answer

// Response is one questionnaire submission per (link, event type).
type Response struct {
	ID          uuid.UUID
	LinkID      uuid.UUID
	EventTypeID uuid.UUID
	Answers     Answers
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsValidated reports whether the response has been frozen.
func (r Response) IsValidated() bool {
	return r.Status == StatusValidated
}

// CheckComplete verifies every required question has a non-empty answer.
func (r Response) CheckComplete(questions []Question) error {
	for _, q := range questions {
		if !q.Required {
			continue
		}
		answer, ok := r.Answers[q.Key]
		if !ok || answer.IsEmpty() {
			return dErrors.New(dErrors.CodeValidation, "missing required answer: "+q.Key)
		}
	}
	return nil
}
