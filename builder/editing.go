package builder

import (
	"fmt"

	"surveyforge/condition"
	"surveyforge/schema"
)

// Choice, matrix axis and validator helpers all operate on the selected
// question and silently do nothing without a selection, mirroring how the
// editing surface behaves when no property panel is open.

func (s *Session) AddChoice() {
	q := s.SelectedQuestion()
	if q == nil {
		return
	}
	n := len(q.Choices) + 1
	q.Choices = append(q.Choices, schema.Choice{
		Value: fmt.Sprintf("option%d", n),
		Text:  fmt.Sprintf("Option %d", n),
	})
}

func (s *Session) RemoveChoice(index int) {
	q := s.SelectedQuestion()
	if q == nil || index < 0 || index >= len(q.Choices) {
		return
	}
	q.Choices = append(q.Choices[:index], q.Choices[index+1:]...)
}

func (s *Session) AddMatrixColumn() {
	q := s.SelectedQuestion()
	if q == nil {
		return
	}
	n := len(q.Columns) + 1
	q.Columns = append(q.Columns, schema.Choice{
		Value: fmt.Sprintf("col%d", n),
		Text:  fmt.Sprintf("Column %d", n),
	})
}

func (s *Session) RemoveMatrixColumn(index int) {
	q := s.SelectedQuestion()
	if q == nil || index < 0 || index >= len(q.Columns) {
		return
	}
	q.Columns = append(q.Columns[:index], q.Columns[index+1:]...)
}

func (s *Session) AddMatrixRow() {
	q := s.SelectedQuestion()
	if q == nil {
		return
	}
	n := len(q.Rows) + 1
	q.Rows = append(q.Rows, schema.Choice{
		Value: fmt.Sprintf("row%d", n),
		Text:  fmt.Sprintf("Row %d", n),
	})
}

func (s *Session) RemoveMatrixRow(index int) {
	q := s.SelectedQuestion()
	if q == nil || index < 0 || index >= len(q.Rows) {
		return
	}
	q.Rows = append(q.Rows[:index], q.Rows[index+1:]...)
}

func (s *Session) AddValidator() {
	q := s.SelectedQuestion()
	if q == nil {
		return
	}
	q.Validators = append(q.Validators, schema.Validator{Type: schema.ValidatorText})
}

func (s *Session) RemoveValidator(index int) {
	q := s.SelectedQuestion()
	if q == nil || index < 0 || index >= len(q.Validators) {
		return
	}
	q.Validators = append(q.Validators[:index], q.Validators[index+1:]...)
}

// Conditions exposes the working condition list for the selected question.
// While editing, this list is the authoritative form; the visibleIf string
// is rebuilt from it after every change.
func (s *Session) Conditions() []condition.Compare { return s.editing }

func (s *Session) AddCondition() {
	if s.SelectedQuestion() == nil {
		return
	}
	s.editing = append(s.editing, condition.Compare{Op: condition.OpEqual})
}

func (s *Session) RemoveCondition(index int) {
	if index < 0 || index >= len(s.editing) {
		return
	}
	s.editing = append(s.editing[:index], s.editing[index+1:]...)
	s.RebuildVisibleIf()
}

// SetCondition replaces one condition row and immediately rebuilds the
// stored string, keeping both forms in sync.
func (s *Session) SetCondition(index int, c condition.Compare) {
	if index < 0 || index >= len(s.editing) {
		return
	}
	s.editing[index] = c
	s.RebuildVisibleIf()
}

// RebuildVisibleIf serializes the condition list back onto the selected
// question. Rows without a field are skipped.
func (s *Session) RebuildVisibleIf() {
	q := s.SelectedQuestion()
	if q == nil {
		return
	}
	q.VisibleIf = condition.Serialize(s.editing)
}

// AllQuestionNames lists every question name in the survey except the
// selected question's own, for the condition field picker.
func (s *Session) AllQuestionNames() []string {
	selected := s.SelectedQuestion()
	var names []string
	for _, p := range s.pages {
		for _, q := range p.Elements {
			if selected != nil && q.Name == selected.Name {
				continue
			}
			names = append(names, q.Name)
		}
	}
	return names
}

// ChoicesFor returns the choice list of the named question, so condition
// values can be picked from the referenced question's options.
func (s *Session) ChoicesFor(name string) []schema.Choice {
	for _, p := range s.pages {
		for _, q := range p.Elements {
			if q.Name == name && len(q.Choices) > 0 {
				return q.Choices
			}
		}
	}
	return nil
}
