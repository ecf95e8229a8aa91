// Package validate runs the per-question answer checks: the required rule
// first, then the question's validators in declared order, short-circuiting
// on the first failure. All functions are total; a result of "" means valid.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"surveyforge/condition"
	"surveyforge/schema"
)

const (
	MsgRequired        = "This field is required"
	MsgNotANumber      = "Must be a number"
	MsgPatternMismatch = "Does not match the required pattern"
	MsgInvalidPattern  = "Invalid validation pattern"
	MsgInvalidEmail    = "Please enter a valid email address"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Question checks one question's current answer and returns the first
// failing message, or "" when the answer is acceptable. An optional
// unanswered question is always valid.
func Question(q schema.Question, ans schema.Answers) string {
	raw := ans.Raw(q.Name)
	str := schema.Stringify(raw)

	if q.IsRequired && schema.IsEmptyValue(raw) {
		return MsgRequired
	}
	if raw == nil || str == "" {
		return ""
	}

	for _, v := range q.Validators {
		if msg := runValidator(v, str); msg != "" {
			return msg
		}
	}
	return ""
}

// Page validates every currently-visible question on the page and returns
// the field-level messages keyed by question name. Invisible questions are
// never validated, whatever their required/validator configuration.
func Page(p schema.Page, ans schema.Answers) map[string]string {
	errs := map[string]string{}
	for _, q := range p.Elements {
		if q.VisibleIf != "" && !condition.Evaluate(q.VisibleIf, ans) {
			continue
		}
		if msg := Question(q, ans); msg != "" {
			errs[q.Name] = msg
		}
	}
	return errs
}

func runValidator(v schema.Validator, str string) string {
	switch v.Type {
	case schema.ValidatorText:
		length := len([]rune(str))
		if v.MinLength != nil && length < *v.MinLength {
			return orDefault(v.Text, fmt.Sprintf("Minimum length is %d characters", *v.MinLength))
		}
		if v.MaxLength != nil && length > *v.MaxLength {
			return orDefault(v.Text, fmt.Sprintf("Maximum length is %d characters", *v.MaxLength))
		}

	case schema.ValidatorNumeric:
		num, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return orDefault(v.Text, MsgNotANumber)
		}
		if v.MinValue != nil && num < *v.MinValue {
			return orDefault(v.Text, fmt.Sprintf("Minimum value is %s", formatBound(*v.MinValue)))
		}
		if v.MaxValue != nil && num > *v.MaxValue {
			return orDefault(v.Text, fmt.Sprintf("Maximum value is %s", formatBound(*v.MaxValue)))
		}

	case schema.ValidatorRegex:
		if v.Regex == "" {
			return ""
		}
		re, err := regexp.Compile(v.Regex)
		if err != nil {
			// A broken pattern is an authoring error, not a mismatch,
			// and is not overridable by the custom message.
			return MsgInvalidPattern
		}
		if !re.MatchString(str) {
			return orDefault(v.Text, MsgPatternMismatch)
		}

	case schema.ValidatorEmail:
		if !emailPattern.MatchString(str) {
			return orDefault(v.Text, MsgInvalidEmail)
		}
	}
	return ""
}

func orDefault(custom, fallback string) string {
	if custom != "" {
		return custom
	}
	return fallback
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
