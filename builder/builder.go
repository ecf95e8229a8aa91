// Package builder is the in-memory editing session over a survey
// definition: page and question operations, auto-generated question names
// and the round-trip between the stored visibleIf string and the condition
// list being edited.
package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"surveyforge/condition"
	"surveyforge/schema"
)

var (
	ErrLastPage        = errors.New("a survey must keep at least one page")
	ErrMissingName     = errors.New("survey name is required")
	ErrMissingRefID    = errors.New("survey key is required")
	ErrNoSelection     = errors.New("no question selected")
	ErrIndexOutOfRange = errors.New("index out of range")
)

var reDigits = regexp.MustCompile(`\d+`)

// Session is one builder editing session. It owns its working copy of the
// pages; nothing else mutates them while the session is alive.
type Session struct {
	Name    string
	RefID   string
	SecName string

	pages         []schema.Page
	pageIndex     int
	questionIndex int

	editing []condition.Compare
	counter int
}

// NewSession starts an empty session with the single starting page.
func NewSession() *Session {
	return &Session{
		pages:         schema.New().Pages,
		questionIndex: -1,
	}
}

// Load replaces the session's working pages with a stored definition and
// recomputes the name counter from the highest numeric suffix in use, so
// newly added questions keep getting fresh names.
func (s *Session) Load(survey schema.Survey) {
	if len(survey.Pages) > 0 {
		s.pages = survey.Pages
		max := 0
		for _, p := range s.pages {
			for _, q := range p.Elements {
				if m := reDigits.FindString(q.Name); m != "" {
					if n, err := strconv.Atoi(m); err == nil && n > max {
						max = n
					}
				}
			}
		}
		s.counter = max
	}
	s.pageIndex = 0
	s.clearSelection()
}

func (s *Session) Pages() []schema.Page { return s.pages }

func (s *Session) PageIndex() int { return s.pageIndex }

func (s *Session) CurrentPage() *schema.Page { return &s.pages[s.pageIndex] }

// SelectedQuestion returns the question under the cursor, nil when nothing
// is selected.
func (s *Session) SelectedQuestion() *schema.Question {
	if s.questionIndex < 0 || s.questionIndex >= len(s.CurrentPage().Elements) {
		return nil
	}
	return &s.CurrentPage().Elements[s.questionIndex]
}

func (s *Session) SelectedIndex() int { return s.questionIndex }

func (s *Session) clearSelection() {
	s.questionIndex = -1
	s.editing = nil
}

// SelectPage moves the cursor to another page, dropping the question
// selection.
func (s *Session) SelectPage(index int) error {
	if index < 0 || index >= len(s.pages) {
		return ErrIndexOutOfRange
	}
	s.pageIndex = index
	s.clearSelection()
	return nil
}

// AddPage appends a new page and selects it.
func (s *Session) AddPage() {
	s.pages = append(s.pages, schema.Page{
		Name:     fmt.Sprintf("Page %d", len(s.pages)+1),
		Elements: []schema.Question{},
	})
	s.pageIndex = len(s.pages) - 1
	s.clearSelection()
}

// RemovePage deletes a page. The last remaining page cannot be removed.
func (s *Session) RemovePage(index int) error {
	if len(s.pages) <= 1 {
		return ErrLastPage
	}
	if index < 0 || index >= len(s.pages) {
		return ErrIndexOutOfRange
	}
	s.pages = append(s.pages[:index], s.pages[index+1:]...)
	if s.pageIndex >= len(s.pages) {
		s.pageIndex = len(s.pages) - 1
	}
	s.clearSelection()
	return nil
}

// AddQuestion appends a question of the given type to the current page,
// assigns it a fresh q<N> name and the type's default sub-fields, and
// selects it.
func (s *Session) AddQuestion(t schema.QuestionType) (*schema.Question, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", schema.ErrUnknownType, t)
	}
	s.counter++
	q := schema.Question{
		Type:  t,
		Name:  fmt.Sprintf("q%d", s.counter),
		Title: fmt.Sprintf("New %s Question", t.Label()),
	}
	applyTypeDefaults(&q, true)
	page := s.CurrentPage()
	page.Elements = append(page.Elements, q)
	s.SelectQuestion(len(page.Elements) - 1)
	return s.SelectedQuestion(), nil
}

// SelectQuestion moves the question cursor and loads the question's
// visibleIf into the editable condition list.
func (s *Session) SelectQuestion(index int) {
	page := s.CurrentPage()
	if index < 0 || index >= len(page.Elements) {
		s.clearSelection()
		return
	}
	s.questionIndex = index
	s.editing = condition.Parse(page.Elements[index].VisibleIf)
}

// RemoveQuestion deletes a question, shifting the selection to keep it on
// the same question when one below the removed index was selected.
func (s *Session) RemoveQuestion(index int) error {
	page := s.CurrentPage()
	if index < 0 || index >= len(page.Elements) {
		return ErrIndexOutOfRange
	}
	page.Elements = append(page.Elements[:index], page.Elements[index+1:]...)
	switch {
	case s.questionIndex == index:
		s.clearSelection()
	case s.questionIndex > index:
		s.questionIndex--
	}
	return nil
}

// DuplicateQuestion deep-copies a question, gives the copy a fresh name,
// inserts it right after the original and selects it.
func (s *Session) DuplicateQuestion(index int) (*schema.Question, error) {
	page := s.CurrentPage()
	if index < 0 || index >= len(page.Elements) {
		return nil, ErrIndexOutOfRange
	}
	copied, err := deepCopy(page.Elements[index])
	if err != nil {
		return nil, err
	}
	s.counter++
	copied.Name = fmt.Sprintf("q%d", s.counter)

	page.Elements = append(page.Elements, schema.Question{})
	copy(page.Elements[index+2:], page.Elements[index+1:])
	page.Elements[index+1] = copied
	s.SelectQuestion(index + 1)
	return s.SelectedQuestion(), nil
}

// MoveQuestion reorders the current page's questions (drag and drop). The
// selection follows the moved question to its new index.
func (s *Session) MoveQuestion(from, to int) error {
	page := s.CurrentPage()
	if from < 0 || from >= len(page.Elements) || to < 0 || to >= len(page.Elements) {
		return ErrIndexOutOfRange
	}
	q := page.Elements[from]
	page.Elements = append(page.Elements[:from], page.Elements[from+1:]...)
	page.Elements = append(page.Elements, schema.Question{})
	copy(page.Elements[to+1:], page.Elements[to:])
	page.Elements[to] = q
	if s.questionIndex == from {
		s.questionIndex = to
	}
	return nil
}

// ChangeType switches the selected question's type, filling in any
// defaults the new type needs. Fields from the previous type are kept; the
// save-time compaction is what keeps persisted documents clean.
func (s *Session) ChangeType(t schema.QuestionType) error {
	q := s.SelectedQuestion()
	if q == nil {
		return ErrNoSelection
	}
	if err := q.SetType(t); err != nil {
		return err
	}
	applyTypeDefaults(q, false)
	return nil
}

func applyTypeDefaults(q *schema.Question, fresh bool) {
	switch {
	case q.Type.IsChoice():
		if len(q.Choices) == 0 {
			q.Choices = defaultChoices("option", "Option", choiceCount(fresh))
		}
	case q.Type == schema.TypeRating:
		if q.RateMin == nil {
			q.SetRateBounds(1, 5)
		}
	case q.Type == schema.TypeMatrix:
		if len(q.Columns) == 0 {
			q.Columns = defaultChoices("col", "Column", choiceCount(fresh))
			q.Rows = defaultChoices("row", "Row", 2)
		}
	case q.Type == schema.TypeText:
		if q.InputType == "" {
			q.InputType = "text"
		}
	case q.Type == schema.TypePanelDynamic:
		if q.TemplateElements == nil {
			q.TemplateElements = []schema.Question{}
			one, ten := 1, 10
			q.PanelCount, q.MinPanelCount, q.MaxPanelCount = &one, &one, &ten
		}
	}
}

// New questions get three default choices, a type change backfills two.
func choiceCount(fresh bool) int {
	if fresh {
		return 3
	}
	return 2
}

func defaultChoices(valuePrefix, textPrefix string, n int) []schema.Choice {
	choices := make([]schema.Choice, n)
	for i := range choices {
		choices[i] = schema.Choice{
			Value: fmt.Sprintf("%s%d", valuePrefix, i+1),
			Text:  fmt.Sprintf("%s %d", textPrefix, i+1),
		}
	}
	return choices
}

func deepCopy(q schema.Question) (schema.Question, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return schema.Question{}, err
	}
	var out schema.Question
	if err := json.Unmarshal(data, &out); err != nil {
		return schema.Question{}, err
	}
	return out, nil
}

// Save validates the session's identity fields and returns the compacted
// definition ready for the persistence collaborator. Nothing is written on
// failure.
func (s *Session) Save() (schema.Survey, error) {
	if s.Name == "" {
		return schema.Survey{}, ErrMissingName
	}
	if s.RefID == "" {
		return schema.Survey{}, ErrMissingRefID
	}
	return schema.Survey{Pages: s.pages}.Compact(), nil
}
