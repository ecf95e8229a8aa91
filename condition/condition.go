// Package condition implements the visibility expression language used by
// question visibleIf fields: clauses of the form {field} op 'value' joined
// by a single conjunction kind. Parsing is lenient and evaluation fails
// open, so a malformed or legacy expression never hides a question.
package condition

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"surveyforge/schema"
)

type Operator string

const (
	OpEqual       Operator = "="
	OpNotEqual    Operator = "!="
	OpNotEqualAlt Operator = "<>"
	OpGreater     Operator = ">"
	OpLess        Operator = "<"
	OpGreaterEq   Operator = ">="
	OpLessEq      Operator = "<="
	OpContains    Operator = "contains"
	OpNotContains Operator = "notcontains"
	OpEmpty       Operator = "empty"
	OpNotEmpty    Operator = "notempty"
)

// Operators lists the full operator set in the order the builder offers it.
var Operators = []Operator{
	OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEq, OpLessEq,
	OpContains, OpNotContains, OpEmpty, OpNotEmpty,
}

// symbolOps is ordered longest first so ">=" wins over ">".
var symbolOps = []Operator{OpGreaterEq, OpLessEq, OpNotEqual, OpNotEqualAlt, OpEqual, OpGreater, OpLess}

var wordOps = map[string]Operator{
	"contains":    OpContains,
	"notcontains": OpNotContains,
	"empty":       OpEmpty,
	"notempty":    OpNotEmpty,
}

// Expr is a parsed visibility predicate.
type Expr interface {
	Eval(ans schema.Answers) bool
}

// Compare is a single {field} op 'value' clause. It doubles as the
// builder's working representation of one condition row.
type Compare struct {
	Field string   `json:"field"`
	Op    Operator `json:"operator"`
	Value string   `json:"value"`
}

// And is true iff every clause is true.
type And []Expr

// Or is true if any clause is true.
type Or []Expr

// tautology stands in for an unparseable clause: evaluation fails open.
type tautology struct{}

func (tautology) Eval(schema.Answers) bool { return true }

func (a And) Eval(ans schema.Answers) bool {
	for _, e := range a {
		if !e.Eval(ans) {
			return false
		}
	}
	return true
}

func (o Or) Eval(ans schema.Answers) bool {
	for _, e := range o {
		if e.Eval(ans) {
			return true
		}
	}
	return false
}

func (c Compare) Eval(ans schema.Answers) bool {
	raw := ans.Raw(c.Field)
	actual := schema.Stringify(raw)

	switch c.Op {
	case OpEqual:
		return actual == c.Value
	case OpNotEqual, OpNotEqualAlt:
		return actual != c.Value
	case OpGreater:
		return toFloat(actual) > toFloat(c.Value)
	case OpLess:
		return toFloat(actual) < toFloat(c.Value)
	case OpGreaterEq:
		return toFloat(actual) >= toFloat(c.Value)
	case OpLessEq:
		return toFloat(actual) <= toFloat(c.Value)
	case OpContains:
		return strings.Contains(actual, c.Value)
	case OpNotContains:
		return !strings.Contains(actual, c.Value)
	case OpEmpty:
		return schema.IsEmptyValue(raw)
	case OpNotEmpty:
		return !schema.IsEmptyValue(raw)
	}
	return true
}

// toFloat coerces for the ordering operators. Anything non-numeric becomes
// NaN, so comparisons against unanswered or textual fields are false.
func toFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Evaluate parses and evaluates a visibleIf expression against the current
// answers. The empty expression is always true (no condition, always
// visible), and so is any expression that cannot be parsed.
func Evaluate(expr string, ans schema.Answers) bool {
	return Tree(expr).Eval(ans)
}

// Tree parses an expression into its AST. Or-splitting takes precedence
// over and-splitting; mixing both conjunction kinds in one expression is
// not supported and degrades to the or interpretation.
func Tree(expr string) Expr {
	if strings.TrimSpace(expr) == "" {
		return tautology{}
	}
	if parts := splitBare(expr, "or"); len(parts) > 1 {
		or := make(Or, len(parts))
		for i, p := range parts {
			or[i] = clauseOrTautology(p)
		}
		return or
	}
	if parts := splitBare(expr, "and"); len(parts) > 1 {
		and := make(And, len(parts))
		for i, p := range parts {
			and[i] = clauseOrTautology(p)
		}
		return and
	}
	return clauseOrTautology(expr)
}

func clauseOrTautology(s string) Expr {
	if c, ok := parseClause(s); ok {
		return c
	}
	return tautology{}
}

// Parse extracts the flat condition list the builder edits. Clauses that
// do not match the pattern are skipped; fully unparseable non-empty text
// yields zero conditions.
func Parse(expr string) []Compare {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	var conds []Compare
	for _, orPart := range splitBare(expr, "or") {
		for _, part := range splitBare(orPart, "and") {
			if c, ok := parseClause(part); ok {
				conds = append(conds, c)
			}
		}
	}
	return conds
}

// Serialize renders a condition list back to its stored string form,
// joined with literal " and ". Values are always single-quoted except for
// the valueless empty/notempty operators.
func Serialize(conds []Compare) string {
	var parts []string
	for _, c := range conds {
		if c.Field == "" {
			continue
		}
		switch c.Op {
		case OpEmpty, OpNotEmpty:
			parts = append(parts, "{"+c.Field+"} "+string(c.Op))
		default:
			parts = append(parts, "{"+c.Field+"} "+string(c.Op)+" '"+c.Value+"'")
		}
	}
	return strings.Join(parts, " and ")
}

// splitBare splits on a conjunction word appearing outside single quotes,
// delimited by whitespace on both sides. Case-insensitive.
func splitBare(s, word string) []string {
	var parts []string
	inQuote := false
	start := 0
	n := len(word)
	for i := 0; i+n <= len(s); i++ {
		if s[i] == '\'' {
			inQuote = !inQuote
			continue
		}
		if inQuote || !strings.EqualFold(s[i:i+n], word) {
			continue
		}
		before := i > 0 && isSpaceAt(s, i-1)
		after := i+n < len(s) && isSpaceAt(s, i+n)
		if before && after {
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + n
			i += n - 1
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

func isSpaceAt(s string, i int) bool {
	return unicode.IsSpace(rune(s[i]))
}

// parseClause scans a single {field} op value clause.
func parseClause(s string) (Compare, bool) {
	p := &scanner{src: s}
	p.skipSpace()
	if !p.accept('{') {
		return Compare{}, false
	}
	field := p.ident()
	if field == "" || !p.accept('}') {
		return Compare{}, false
	}
	p.skipSpace()

	var op Operator
	for _, cand := range symbolOps {
		if p.acceptString(string(cand)) {
			op = cand
			break
		}
	}
	if op == "" {
		word := strings.ToLower(p.ident())
		var ok bool
		if op, ok = wordOps[word]; !ok {
			return Compare{}, false
		}
	}

	if op == OpEmpty || op == OpNotEmpty {
		return Compare{Field: field, Op: op}, true
	}

	p.skipSpace()
	var value string
	if p.accept('\'') {
		value = p.until('\'')
	} else {
		value = strings.TrimSpace(p.rest())
	}
	return Compare{Field: field, Op: op, Value: value}, true
}

type scanner struct {
	src string
	pos int
}

func (p *scanner) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *scanner) accept(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *scanner) acceptString(s string) bool {
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *scanner) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

// until consumes up to the next occurrence of c, or the rest of the input
// when the closing character is missing (lenient).
func (p *scanner) until(c byte) string {
	start := p.pos
	for p.pos < len(p.src) {
		if p.src[p.pos] == c {
			s := p.src[start:p.pos]
			p.pos++
			return s
		}
		p.pos++
	}
	return p.src[start:]
}

func (p *scanner) rest() string {
	return p.src[p.pos:]
}
