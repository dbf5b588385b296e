package engine

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// newGuardEnv creates the CEL environment for optional per-rule guard
// expressions. Guards see the record the evaluator is matching.
func newGuardEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("payin", cel.DoubleType),
		cel.Variable("bracket", cel.StringType),
		cel.Variable("lob", cel.StringType),
		cel.Variable("segment", cel.StringType),
		cel.Variable("location", cel.StringType),
		cel.Variable("remarks", cel.StringType),
		cel.Variable("company", cel.StringType),
	)
}

// compileGuard compiles a guard expression, requiring a boolean result.
func compileGuard(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: guard %q: %v", domain.ErrInvalidRule, expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("%w: guard %q must return bool, got %s", domain.ErrInvalidRule, expr, ast.OutputType())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: guard %q: %v", domain.ErrInvalidRule, expr, err)
	}
	return program, nil
}

// guardActivation builds the variable bindings for one record.
func guardActivation(rec *domain.PolicyRecord, lob domain.LOB, company string) map[string]any {
	return map[string]any{
		"payin":    rec.PayinValue,
		"bracket":  string(rec.PayinCategory),
		"lob":      string(lob),
		"segment":  rec.Segment,
		"location": rec.Location,
		"remarks":  rec.Remarks,
		"company":  company,
	}
}

// evalGuard runs a compiled guard. Evaluation errors fail closed: a rule
// whose guard cannot be evaluated does not match.
func evalGuard(program cel.Program, activation map[string]any) bool {
	out, _, err := program.Eval(activation)
	if err != nil {
		return false
	}
	b, ok := out.(types.Bool)
	return ok && bool(b)
}
