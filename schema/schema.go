// Package schema holds the plain-data definition of a survey: pages,
// questions, choices and validators. It is shared by the builder and the
// preview runtime and carries no evaluation logic of its own.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

type QuestionType string

const (
	TypeText         QuestionType = "text"
	TypeComment      QuestionType = "comment"
	TypeRadioGroup   QuestionType = "radiogroup"
	TypeCheckbox     QuestionType = "checkbox"
	TypeDropdown     QuestionType = "dropdown"
	TypeRating       QuestionType = "rating"
	TypeBoolean      QuestionType = "boolean"
	TypeMatrix       QuestionType = "matrix"
	TypeFile         QuestionType = "file"
	TypeExpression   QuestionType = "expression"
	TypePanelDynamic QuestionType = "paneldynamic"
)

type ValidatorType string

const (
	ValidatorText       ValidatorType = "text"
	ValidatorNumeric    ValidatorType = "numeric"
	ValidatorRegex      ValidatorType = "regex"
	ValidatorEmail      ValidatorType = "email"
	ValidatorExpression ValidatorType = "expression"
)

// TypeInfo describes one entry of the fixed question type catalog.
type TypeInfo struct {
	Type     QuestionType `json:"type"`
	Label    string       `json:"label"`
	Category string       `json:"category"`
}

var QuestionTypes = []TypeInfo{
	{TypeText, "Text Input", "Input"},
	{TypeComment, "Long Text", "Input"},
	{TypeRadioGroup, "Single Choice", "Choice"},
	{TypeCheckbox, "Multiple Choice", "Choice"},
	{TypeDropdown, "Dropdown", "Choice"},
	{TypeRating, "Rating", "Advanced"},
	{TypeBoolean, "Yes / No", "Advanced"},
	{TypeMatrix, "Matrix", "Advanced"},
	{TypeFile, "File Upload", "Advanced"},
	{TypeExpression, "Calculated", "Advanced"},
	{TypePanelDynamic, "Repeat Group", "Advanced"},
}

var validatorTypes = map[ValidatorType]bool{
	ValidatorText:       true,
	ValidatorNumeric:    true,
	ValidatorRegex:      true,
	ValidatorEmail:      true,
	ValidatorExpression: true,
}

func (t QuestionType) Valid() bool {
	for _, ti := range QuestionTypes {
		if ti.Type == t {
			return true
		}
	}
	return false
}

func (t QuestionType) IsChoice() bool {
	return t == TypeRadioGroup || t == TypeCheckbox || t == TypeDropdown
}

func (t QuestionType) Label() string {
	for _, ti := range QuestionTypes {
		if ti.Type == t {
			return ti.Label
		}
	}
	return string(t)
}

func (t ValidatorType) Valid() bool {
	return validatorTypes[t]
}

type Choice struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

type Validator struct {
	Type       ValidatorType `json:"type"`
	MinLength  *int          `json:"minLength,omitempty"`
	MaxLength  *int          `json:"maxLength,omitempty"`
	MinValue   *float64      `json:"minValue,omitempty"`
	MaxValue   *float64      `json:"maxValue,omitempty"`
	Regex      string        `json:"regex,omitempty"`
	Text       string        `json:"text,omitempty"`
	Expression string        `json:"expression,omitempty"`
}

type Question struct {
	Type        QuestionType `json:"type"`
	Name        string       `json:"name"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	IsRequired  bool         `json:"isRequired,omitempty"`
	VisibleIf   string       `json:"visibleIf,omitempty"`

	InputType string   `json:"inputType,omitempty"`
	Choices   []Choice `json:"choices,omitempty"`
	Columns   []Choice `json:"columns,omitempty"`
	Rows      []Choice `json:"rows,omitempty"`
	RateMin   *int     `json:"rateMin,omitempty"`
	RateMax   *int     `json:"rateMax,omitempty"`

	Expression string      `json:"expression,omitempty"`
	Validators []Validator `json:"validators,omitempty"`

	TemplateElements []Question `json:"templateElements,omitempty"`
	PanelCount       *int       `json:"panelCount,omitempty"`
	MinPanelCount    *int       `json:"minPanelCount,omitempty"`
	MaxPanelCount    *int       `json:"maxPanelCount,omitempty"`
}

type Page struct {
	Name     string     `json:"name"`
	Elements []Question `json:"elements"`
}

type Survey struct {
	Pages []Page `json:"pages"`
}

// New returns a survey with the single empty page every survey starts from.
func New() Survey {
	return Survey{Pages: []Page{{Name: "Page 1", Elements: []Question{}}}}
}

func Parse(data []byte) (Survey, error) {
	var s Survey
	if err := json.Unmarshal(data, &s); err != nil {
		return Survey{}, fmt.Errorf("parse survey: %w", err)
	}
	return s, nil
}

func (s Survey) Bytes() ([]byte, error) {
	return json.Marshal(s)
}

var (
	ErrUnknownType    = errors.New("unknown question type")
	ErrBoundsInverted = errors.New("min bound greater than max bound")
)

// SetType replaces the question type, rejecting values outside the fixed
// enumeration. Fields belonging to the previous type are left in place.
func (q *Question) SetType(t QuestionType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	q.Type = t
	return nil
}

// SetRateBounds sets the rating range, enforcing min <= max.
func (q *Question) SetRateBounds(min, max int) error {
	if min > max {
		return fmt.Errorf("%w: rateMin %d > rateMax %d", ErrBoundsInverted, min, max)
	}
	q.RateMin, q.RateMax = &min, &max
	return nil
}

// SetLengthBounds sets the text length range of a text validator.
// Either bound may be nil (unbounded).
func (v *Validator) SetLengthBounds(min, max *int) error {
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("%w: minLength %d > maxLength %d", ErrBoundsInverted, *min, *max)
	}
	v.MinLength, v.MaxLength = min, max
	return nil
}

// SetValueBounds sets the numeric range of a numeric validator.
func (v *Validator) SetValueBounds(min, max *float64) error {
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("%w: minValue %v > maxValue %v", ErrBoundsInverted, *min, *max)
	}
	v.MinValue, v.MaxValue = min, max
	return nil
}

// Answers is the in-progress or submitted answer set, keyed by question name.
// Value shapes depend on the question type: scalar, []any (checkbox) or
// map[string]any (matrix). Absent keys mean unanswered.
type Answers map[string]any

func (a Answers) Raw(name string) any {
	if a == nil {
		return nil
	}
	return a[name]
}

// String returns the answer coerced to its display string, "" when unanswered.
func (a Answers) String(name string) string {
	return Stringify(a.Raw(name))
}

// Stringify coerces an answer value to a string: nil becomes "", slices
// join their elements with commas, numbers drop trailing zeros.
func Stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case []string:
		s := ""
		for i, e := range v {
			if i > 0 {
				s += ","
			}
			s += e
		}
		return s
	case []any:
		s := ""
		for i, e := range v {
			if i > 0 {
				s += ","
			}
			s += Stringify(e)
		}
		return s
	default:
		return fmt.Sprint(v)
	}
}

// IsEmptyValue reports whether an answer counts as unanswered: nil, an
// empty string form, or an array with no elements.
func IsEmptyValue(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return Stringify(v) == ""
	}
}
