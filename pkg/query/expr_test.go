package query

import (
	"testing"

	"github.com/adfharrison1/go-filedb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRejectsInvalid(t *testing.T) {
	for _, src := range []string{"", "   ", "age >=", "1 + 2"} {
		_, err := Compile(src)
		assert.ErrorIs(t, err, ErrInvalidExpression, "expression %q", src)
	}
}

func TestProgramMatch(t *testing.T) {
	id, err := domain.ParseIdentifier("0123456789abcdef")
	require.NoError(t, err)

	adult := domain.Document{"name": "Alice", "age": float64(30), "tags": []interface{}{"admin", "ops"}}
	child := domain.Document{"name": "Bob", "age": float64(9)}
	nameless := domain.Document{"age": float64(40)}

	tests := []struct {
		name string
		expr string
		doc  domain.Document
		want bool
	}{
		{"comparison true", "age >= 18", adult, true},
		{"comparison false", "age >= 18", child, false},
		{"conjunction", `age > 18 && name == "Alice"`, adult, true},
		{"membership", `"admin" in tags`, adult, true},
		{"missing field is nil", "name == nil", nameless, true},
		{"identifier", `_id == "0123456789abcdef"`, child, true},
		{"runtime error is no match", `name.first == "A"`, adult, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(id, tt.doc))
			assert.Equal(t, tt.expr, p.String())
		})
	}
}

func TestAnd(t *testing.T) {
	id := domain.NewIdentifier()
	doc := domain.Document{"age": float64(30), "city": "Paris"}

	prog, err := Compile("age > 20")
	require.NoError(t, err)

	assert.True(t, And()(id, doc))
	assert.True(t, And(nil, prog.Predicate())(id, doc))
	assert.True(t, And(prog.Predicate(), Filter{"city": "paris"}.Predicate())(id, doc))
	assert.False(t, And(prog.Predicate(), Filter{"city": "Rome"}.Predicate())(id, doc))
}
