package query

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// ErrInvalidExpression is returned for expressions that do not compile.
var ErrInvalidExpression = errors.New("invalid expression")

// Program is a compiled boolean expression over a document. The environment
// is the document's fields plus the identifier under domain.IDField, e.g.
//
//	age >= 18 && city == "Paris"
type Program struct {
	source  string
	program *vm.Program
	logger  *slog.Logger
}

// Compile compiles a boolean expression. Fields missing from a document
// evaluate to nil.
func Compile(source string) (*Program, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("%w: expression must not be empty", ErrInvalidExpression)
	}
	program, err := expr.Compile(source, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpression, err)
	}
	return &Program{source: source, program: program, logger: slog.Default()}, nil
}

// String returns the expression source.
func (p *Program) String() string {
	return p.source
}

// Eval runs the expression against one document.
func (p *Program) Eval(id domain.Identifier, doc domain.Document) (bool, error) {
	env := make(map[string]interface{}, len(doc)+1)
	for k, v := range doc {
		env[k] = v
	}
	env[domain.IDField] = id.String()

	out, err := expr.Run(p.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", p.source, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: result is %T, not bool", p.source, out)
	}
	return matched, nil
}

// Match is Eval with evaluation errors counted as a non-match, for use as a
// predicate.
func (p *Program) Match(id domain.Identifier, doc domain.Document) bool {
	matched, err := p.Eval(id, doc)
	if err != nil {
		p.logger.Debug("expression did not evaluate", "id", id.String(), "err", err)
		return false
	}
	return matched
}

// Predicate returns p.Match as a domain.Predicate.
func (p *Program) Predicate() domain.Predicate {
	return p.Match
}

// And combines predicates; nil entries are ignored and no predicates at all
// selects everything.
func And(preds ...domain.Predicate) domain.Predicate {
	var active []domain.Predicate
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	return func(id domain.Identifier, doc domain.Document) bool {
		for _, p := range active {
			if !p(id, doc) {
				return false
			}
		}
		return true
	}
}
