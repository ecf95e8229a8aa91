// Package expr computes the display value of calculated questions.
// {field} references are substituted with the current answers, then the
// result is run through a small arithmetic evaluator. The evaluator is
// deliberately self-contained: numbers, + - * / and parentheses, nothing
// else, so a stored formula can never execute host code.
package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"surveyforge/schema"
)

// ErrorValue is the sentinel shown when a formula cannot be evaluated.
const ErrorValue = "Error"

// Evaluate substitutes answers into the formula and evaluates it.
// Unanswered fields substitute as 0, the numeric default of an arithmetic
// formula. Any parse or evaluation failure yields ErrorValue; the function
// is total.
func Evaluate(expression string, ans schema.Answers) string {
	if expression == "" {
		return ""
	}
	substituted := Substitute(expression, ans)
	v, err := eval(substituted)
	if err != nil {
		return ErrorValue
	}
	return formatNumber(v)
}

// Substitute replaces every {name} occurrence with the stringified answer,
// or "0" when the field is unanswered.
func Substitute(expression string, ans schema.Answers) string {
	var b strings.Builder
	for i := 0; i < len(expression); {
		if expression[i] != '{' {
			b.WriteByte(expression[i])
			i++
			continue
		}
		end := strings.IndexByte(expression[i:], '}')
		if end < 0 {
			b.WriteString(expression[i:])
			break
		}
		name := expression[i+1 : i+end]
		if !isIdent(name) {
			b.WriteByte('{')
			i++
			continue
		}
		if raw := ans.Raw(name); raw != nil {
			b.WriteString(schema.Stringify(raw))
		} else {
			b.WriteString("0")
		}
		i += end + 1
	}
	return b.String()
}

func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// eval runs a recursive-descent parse of
//
//	expr   := term (('+'|'-') term)*
//	term   := factor (('*'|'/') factor)*
//	factor := number | '(' expr ')' | '-' factor
func eval(src string) (float64, error) {
	t := &tokenizer{src: src}
	v, err := parseSum(t)
	if err != nil {
		return 0, err
	}
	t.skipSpace()
	if !t.done() {
		return 0, fmt.Errorf("unexpected %q", t.peek())
	}
	return v, nil
}

func parseSum(t *tokenizer) (float64, error) {
	v, err := parseTerm(t)
	if err != nil {
		return 0, err
	}
	for {
		t.skipSpace()
		switch {
		case t.accept('+'):
			rhs, err := parseTerm(t)
			if err != nil {
				return 0, err
			}
			v += rhs
		case t.accept('-'):
			rhs, err := parseTerm(t)
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func parseTerm(t *tokenizer) (float64, error) {
	v, err := parseFactor(t)
	if err != nil {
		return 0, err
	}
	for {
		t.skipSpace()
		switch {
		case t.accept('*'):
			rhs, err := parseFactor(t)
			if err != nil {
				return 0, err
			}
			v *= rhs
		case t.accept('/'):
			rhs, err := parseFactor(t)
			if err != nil {
				return 0, err
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func parseFactor(t *tokenizer) (float64, error) {
	t.skipSpace()
	if t.accept('-') {
		v, err := parseFactor(t)
		return -v, err
	}
	if t.accept('(') {
		v, err := parseSum(t)
		if err != nil {
			return 0, err
		}
		t.skipSpace()
		if !t.accept(')') {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		return v, nil
	}
	return t.number()
}

type tokenizer struct {
	src string
	pos int
}

func (t *tokenizer) done() bool {
	return t.pos >= len(t.src)
}

func (t *tokenizer) peek() byte {
	if t.done() {
		return 0
	}
	return t.src[t.pos]
}

func (t *tokenizer) skipSpace() {
	for !t.done() && unicode.IsSpace(rune(t.src[t.pos])) {
		t.pos++
	}
}

func (t *tokenizer) accept(c byte) bool {
	if !t.done() && t.src[t.pos] == c {
		t.pos++
		return true
	}
	return false
}

func (t *tokenizer) number() (float64, error) {
	start := t.pos
	for !t.done() && (isDigit(t.src[t.pos]) || t.src[t.pos] == '.') {
		t.pos++
	}
	if t.pos == start {
		return 0, fmt.Errorf("expected number at %d", start)
	}
	return strconv.ParseFloat(t.src[start:t.pos], 64)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			return false
		}
	}
	return true
}
