package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"surveyforge/schema"
)

func TestEvaluateAddition(t *testing.T) {
	ans := schema.Answers{"a": "2", "b": "3"}
	assert.Equal(t, "5", Evaluate("{a} + {b}", ans))
}

func TestEvaluateMissingFieldDefaultsToZero(t *testing.T) {
	ans := schema.Answers{"a": "2"}
	assert.Equal(t, "2", Evaluate("{a} + {b}", ans))
}

func TestEvaluatePrecedenceAndParens(t *testing.T) {
	ans := schema.Answers{"a": "2", "b": "3"}
	assert.Equal(t, "14", Evaluate("2 + {b} * 4", ans))
	assert.Equal(t, "20", Evaluate("(2 + {b}) * 4", ans))
	assert.Equal(t, "-2", Evaluate("-{a}", ans))
	assert.Equal(t, "1.5", Evaluate("{b} / {a}", ans))
}

func TestEvaluateNumericAnswerTypes(t *testing.T) {
	// numbers that arrived as JSON floats substitute without a trailing .0
	ans := schema.Answers{"n": float64(4)}
	assert.Equal(t, "8", Evaluate("{n} * 2", ans))
}

func TestEvaluateErrorSentinel(t *testing.T) {
	assert.Equal(t, "Error", Evaluate("{a} +", schema.Answers{"a": "1"}))
	assert.Equal(t, "Error", Evaluate("(1 + 2", nil))
	// a textual answer makes the formula non-arithmetic
	assert.Equal(t, "Error", Evaluate("{name} + 1", schema.Answers{"name": "ab"}))
}

func TestEvaluateDivisionByZero(t *testing.T) {
	assert.Equal(t, "Infinity", Evaluate("{a} / 0", schema.Answers{"a": "1"}))
	assert.Equal(t, "-Infinity", Evaluate("{a} / 0", schema.Answers{"a": "-1"}))
}

func TestEvaluateEmptyExpression(t *testing.T) {
	assert.Equal(t, "", Evaluate("", schema.Answers{"a": "1"}))
}

func TestSubstitute(t *testing.T) {
	ans := schema.Answers{"a": "2", "flag": true}
	assert.Equal(t, "2 + 0", Substitute("{a} + {b}", ans))
	assert.Equal(t, "true", Substitute("{flag}", ans))
	// braces that are not a field reference pass through
	assert.Equal(t, "{not a ref}", Substitute("{not a ref}", ans))
}
