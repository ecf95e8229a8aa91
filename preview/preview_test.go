package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyforge/schema"
)

func intp(n int) *int { return &n }

func carSurvey() schema.Survey {
	return schema.Survey{Pages: []schema.Page{{
		Name: "Page 1",
		Elements: []schema.Question{
			{Type: schema.TypeBoolean, Name: "hasCar", Title: "Do you own a car?"},
			{
				Type: schema.TypeText, Name: "carModel", Title: "Which model?",
				VisibleIf: "{hasCar} = 'true'", IsRequired: true,
			},
		},
	}}}
}

func TestVisibilityReactsToAnswers(t *testing.T) {
	s := NewSession(carSurvey())

	visible := s.VisibleQuestions()
	require.Len(t, visible, 1)
	assert.Equal(t, "hasCar", visible[0].Name)

	s.Set("hasCar", true)
	visible = s.VisibleQuestions()
	require.Len(t, visible, 2)
	assert.Equal(t, "carModel", visible[1].Name)

	s.Set("hasCar", false)
	require.Len(t, s.VisibleQuestions(), 1)
}

func TestValidationSkipsHiddenRequired(t *testing.T) {
	s := NewSession(carSurvey())

	// carModel is hidden, so its required rule does not block completion
	answers, ok := s.Complete()
	require.True(t, ok)
	assert.Empty(t, answers)

	s.Set("hasCar", true)
	_, ok = s.Complete()
	require.False(t, ok)
	assert.Equal(t, "This field is required", s.Errors()["carModel"])

	s.Set("carModel", "Civic")
	answers, ok = s.Complete()
	require.True(t, ok)
	assert.Equal(t, "Civic", answers["carModel"])
}

func TestCompleteReturnsASnapshot(t *testing.T) {
	s := NewSession(carSurvey())
	s.Set("hasCar", false)

	answers, ok := s.Complete()
	require.True(t, ok)

	s.Set("hasCar", true)
	assert.Equal(t, false, answers["hasCar"])
}

func TestNextPageBlockedUntilValid(t *testing.T) {
	s := NewSession(schema.Survey{Pages: []schema.Page{
		{Name: "Page 1", Elements: []schema.Question{
			{Type: schema.TypeText, Name: "name", IsRequired: true},
		}},
		{Name: "Page 2", Elements: []schema.Question{
			{Type: schema.TypeText, Name: "email"},
		}},
	}})

	assert.False(t, s.NextPage())
	assert.Equal(t, 0, s.PageIndex())
	assert.NotEmpty(t, s.Errors())

	s.Set("name", "Ada")
	assert.True(t, s.NextPage())
	assert.Equal(t, 1, s.PageIndex())
	assert.Empty(t, s.Errors())

	// no page after the last one
	assert.False(t, s.NextPage())
	assert.Equal(t, 1, s.PageIndex())

	s.PreviousPage()
	assert.Equal(t, 0, s.PageIndex())
	s.PreviousPage()
	assert.Equal(t, 0, s.PageIndex())
}

func TestCheckboxToggle(t *testing.T) {
	s := NewSession(schema.Survey{Pages: []schema.Page{{Name: "Page 1"}}})

	assert.False(t, s.IsChecked("opts", "a"))
	s.ToggleCheckbox("opts", "a", true)
	s.ToggleCheckbox("opts", "b", true)
	assert.True(t, s.IsChecked("opts", "a"))
	assert.True(t, s.IsChecked("opts", "b"))
	// checking twice does not duplicate the entry
	s.ToggleCheckbox("opts", "a", true)
	assert.Equal(t, []string{"a", "b"}, s.Answer("opts"))

	s.ToggleCheckbox("opts", "a", false)
	assert.False(t, s.IsChecked("opts", "a"))
	assert.Equal(t, []string{"b"}, s.Answer("opts"))
}

func TestMatrixAnswers(t *testing.T) {
	s := NewSession(schema.Survey{Pages: []schema.Page{{Name: "Page 1"}}})

	assert.Equal(t, "", s.MatrixValue("grid", "row1"))
	s.SetMatrixValue("grid", "row1", "col2")
	s.SetMatrixValue("grid", "row2", "col1")
	assert.Equal(t, "col2", s.MatrixValue("grid", "row1"))
	assert.Equal(t, "col1", s.MatrixValue("grid", "row2"))

	s.SetMatrixValue("grid", "row1", "col3")
	assert.Equal(t, "col3", s.MatrixValue("grid", "row1"))
}

func TestRatingRange(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4, 5}, RatingRange(schema.Question{Type: schema.TypeRating}))
	assert.Equal(t, []int{2, 3, 4}, RatingRange(schema.Question{
		Type: schema.TypeRating, RateMin: intp(2), RateMax: intp(4),
	}))
}

func TestFileName(t *testing.T) {
	s := NewSession(schema.Survey{Pages: []schema.Page{{Name: "Page 1"}}})
	assert.Equal(t, "", s.FileName("attachment"))
	s.SetFileName("attachment", "receipt.pdf")
	assert.Equal(t, "receipt.pdf", s.FileName("attachment"))
}

func TestValidateAllSpansPages(t *testing.T) {
	s := NewSession(schema.Survey{Pages: []schema.Page{
		{Name: "Page 1", Elements: []schema.Question{
			{Type: schema.TypeText, Name: "name", IsRequired: true},
		}},
		{Name: "Page 2", Elements: []schema.Question{
			{Type: schema.TypeText, Name: "email", IsRequired: true},
		}},
	}})

	errs := s.ValidateAll()
	assert.Len(t, errs, 2)

	s.Set("name", "Ada")
	s.Set("email", "ada@example.com")
	assert.Empty(t, s.ValidateAll())
}

func TestExpressionValue(t *testing.T) {
	s := NewSession(schema.Survey{Pages: []schema.Page{{Name: "Page 1"}}})
	q := schema.Question{Type: schema.TypeExpression, Name: "total", Expression: "{price} * {qty}"}

	assert.Equal(t, "0", s.ExpressionValue(q))

	s.Set("price", "2.5")
	s.Set("qty", "4")
	assert.Equal(t, "10", s.ExpressionValue(q))

	s.Set("qty", "oops")
	assert.Equal(t, "Error", s.ExpressionValue(q))
}
