// Package preview interprets a survey definition against a live answer
// set: visibility conditions, calculated values, per-page validation and
// page navigation. It is the same runtime the mobile client implements;
// here it backs the in-browser preview.
package preview

import (
	"surveyforge/condition"
	"surveyforge/expr"
	"surveyforge/schema"
	"surveyforge/validate"
)

// Session is one fill-in session over a loaded definition. Answers live
// only as long as the session; submission is the caller's concern.
type Session struct {
	pages     []schema.Page
	pageIndex int
	answers   schema.Answers
	errors    map[string]string
}

func NewSession(s schema.Survey) *Session {
	return &Session{
		pages:   s.Pages,
		answers: schema.Answers{},
		errors:  map[string]string{},
	}
}

func (s *Session) PageCount() int { return len(s.pages) }

func (s *Session) PageIndex() int { return s.pageIndex }

func (s *Session) CurrentPage() schema.Page {
	if s.pageIndex < 0 || s.pageIndex >= len(s.pages) {
		return schema.Page{}
	}
	return s.pages[s.pageIndex]
}

// Errors holds the field-level messages from the last ValidatePage call.
func (s *Session) Errors() map[string]string { return s.errors }

func (s *Session) Answers() schema.Answers { return s.answers }

func (s *Session) Answer(name string) any { return s.answers.Raw(name) }

func (s *Session) Set(name string, value any) {
	s.answers[name] = value
}

// IsVisible evaluates the question's visibleIf against the current
// answers. A question with no condition is always visible.
func (s *Session) IsVisible(q schema.Question) bool {
	if q.VisibleIf == "" {
		return true
	}
	return condition.Evaluate(q.VisibleIf, s.answers)
}

// VisibleQuestions returns the current page's questions after visibility
// filtering, in render order.
func (s *Session) VisibleQuestions() []schema.Question {
	var out []schema.Question
	for _, q := range s.CurrentPage().Elements {
		if s.IsVisible(q) {
			out = append(out, q)
		}
	}
	return out
}

// --- checkbox answers ---

func (s *Session) IsChecked(name, value string) bool {
	arr, ok := s.answers.Raw(name).([]string)
	if !ok {
		return false
	}
	for _, v := range arr {
		if v == value {
			return true
		}
	}
	return false
}

func (s *Session) ToggleCheckbox(name, value string, checked bool) {
	arr, _ := s.answers.Raw(name).([]string)
	if checked {
		if !s.IsChecked(name, value) {
			arr = append(arr, value)
		}
	} else {
		for i, v := range arr {
			if v == value {
				arr = append(arr[:i], arr[i+1:]...)
				break
			}
		}
	}
	s.answers[name] = arr
}

// --- matrix answers ---

func (s *Session) MatrixValue(name, row string) string {
	m, ok := s.answers.Raw(name).(map[string]any)
	if !ok {
		return ""
	}
	return schema.Stringify(m[row])
}

func (s *Session) SetMatrixValue(name, row, col string) {
	m, ok := s.answers.Raw(name).(map[string]any)
	if !ok {
		m = map[string]any{}
		s.answers[name] = m
	}
	m[row] = col
}

// --- file ---

// SetFileName records the chosen file's name as the answer of a file
// question. The upload itself is the embedding UI's concern; the answer
// document only ever carries the name.
func (s *Session) SetFileName(name, fileName string) {
	s.answers[name] = fileName
}

func (s *Session) FileName(name string) string {
	return s.answers.String(name)
}

// --- rating ---

// RatingRange expands a rating question's bounds into the selectable
// values, defaulting to 1..5.
func RatingRange(q schema.Question) []int {
	min, max := 1, 5
	if q.RateMin != nil {
		min = *q.RateMin
	}
	if q.RateMax != nil {
		max = *q.RateMax
	}
	var out []int
	for i := min; i <= max; i++ {
		out = append(out, i)
	}
	return out
}

// --- calculated questions ---

// ExpressionValue computes the display value of an expression question
// against the current answers.
func (s *Session) ExpressionValue(q schema.Question) string {
	return expr.Evaluate(q.Expression, s.answers)
}

// --- validation and navigation ---

// ValidatePage runs the validation engine over the visible questions of
// the current page, stores the messages for display, and reports whether
// the page may be left.
func (s *Session) ValidatePage() bool {
	s.errors = validate.Page(s.CurrentPage(), s.answers)
	return len(s.errors) == 0
}

// ValidateAll runs validation over every page without moving the cursor,
// returning all field-level messages. Useful for a final review screen.
func (s *Session) ValidateAll() map[string]string {
	errs := map[string]string{}
	for _, p := range s.pages {
		for name, msg := range validate.Page(p, s.answers) {
			errs[name] = msg
		}
	}
	return errs
}

// NextPage advances when the current page validates; it reports whether
// the move happened.
func (s *Session) NextPage() bool {
	if !s.ValidatePage() {
		return false
	}
	if s.pageIndex < len(s.pages)-1 {
		s.pageIndex++
		return true
	}
	return false
}

// PreviousPage always succeeds; going back never re-validates.
func (s *Session) PreviousPage() {
	if s.pageIndex > 0 {
		s.pageIndex--
	}
}

// Complete validates the final page and, on success, returns a snapshot of
// the collected answers.
func (s *Session) Complete() (schema.Answers, bool) {
	if !s.ValidatePage() {
		return nil, false
	}
	out := schema.Answers{}
	for k, v := range s.answers {
		out[k] = v
	}
	return out, true
}
