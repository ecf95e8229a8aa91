package schema

// Compact returns a minimized deep copy of the survey, the form handed to
// the persistence layer on save: every optional field that is unset, empty
// or still at its neutral default is dropped, keeping stored documents
// small and diff-friendly.
func (s Survey) Compact() Survey {
	out := Survey{Pages: make([]Page, len(s.Pages))}
	for i, p := range s.Pages {
		out.Pages[i] = Page{Name: p.Name, Elements: compactQuestions(p.Elements)}
	}
	return out
}

func compactQuestions(qs []Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = compactQuestion(q)
	}
	return out
}

func compactQuestion(q Question) Question {
	c := Question{Type: q.Type, Name: q.Name, Title: q.Title}
	c.IsRequired = q.IsRequired
	c.VisibleIf = q.VisibleIf
	c.Description = q.Description
	c.Placeholder = q.Placeholder
	if q.InputType != "" && q.InputType != "text" {
		c.InputType = q.InputType
	}
	if len(q.Choices) > 0 {
		c.Choices = append([]Choice(nil), q.Choices...)
	}
	if len(q.Columns) > 0 {
		c.Columns = append([]Choice(nil), q.Columns...)
	}
	if len(q.Rows) > 0 {
		c.Rows = append([]Choice(nil), q.Rows...)
	}
	if q.RateMin != nil {
		c.RateMin = intPtr(*q.RateMin)
	}
	if q.RateMax != nil {
		c.RateMax = intPtr(*q.RateMax)
	}
	c.Expression = q.Expression
	if len(q.Validators) > 0 {
		c.Validators = make([]Validator, len(q.Validators))
		for i, v := range q.Validators {
			c.Validators[i] = compactValidator(v)
		}
	}
	if len(q.TemplateElements) > 0 {
		c.TemplateElements = compactQuestions(q.TemplateElements)
	}
	if q.PanelCount != nil {
		c.PanelCount = intPtr(*q.PanelCount)
	}
	if q.MinPanelCount != nil {
		c.MinPanelCount = intPtr(*q.MinPanelCount)
	}
	if q.MaxPanelCount != nil {
		c.MaxPanelCount = intPtr(*q.MaxPanelCount)
	}
	return c
}

// compactValidator keeps only the fields meaningful for the validator's
// own type, so a validator edited back and forth carries no leftovers.
func compactValidator(v Validator) Validator {
	c := Validator{Type: v.Type, Text: v.Text}
	switch v.Type {
	case ValidatorText:
		c.MinLength, c.MaxLength = copyIntPtr(v.MinLength), copyIntPtr(v.MaxLength)
	case ValidatorNumeric:
		c.MinValue, c.MaxValue = copyFloatPtr(v.MinValue), copyFloatPtr(v.MaxValue)
	case ValidatorRegex:
		c.Regex = v.Regex
	case ValidatorExpression:
		c.Expression = v.Expression
	}
	return c
}

func intPtr(n int) *int { return &n }

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	return intPtr(*p)
}

func copyFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	f := *p
	return &f
}
