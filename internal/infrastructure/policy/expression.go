// Package policy implements the system-wide capability restriction
// switch as a configurable predicate over capability definitions.
package policy

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
)

// capabilityEnv defines the variables available to restriction expressions.
type capabilityEnv struct {
	Name       string `expr:"name"`
	Group      string `expr:"group"`
	Authority  string `expr:"authority"`
	Protection string `expr:"protection"`
}

// ExpressionPolicy marks capabilities restricted when the configured
// predicate matches their definition.
type ExpressionPolicy struct {
	program *vm.Program
	logger  *slog.Logger
}

var _ capabilities.RestrictionPolicy = (*ExpressionPolicy)(nil)

// NewExpressionPolicy compiles the predicate up front so malformed
// expressions fail at startup. An empty expression yields a policy that
// matches nothing.
func NewExpressionPolicy(expression string, logger *slog.Logger) (*ExpressionPolicy, error) {
	if logger == nil {
		logger = slog.Default()
	}

	p := &ExpressionPolicy{logger: logger}
	if expression == "" {
		return p, nil
	}

	program, err := expr.Compile(expression, expr.Env(capabilityEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile restriction expression: %w", err)
	}
	p.program = program
	return p, nil
}

// Restricted evaluates the predicate against one capability definition.
// Evaluation failures log a warning and report unrestricted.
func (p *ExpressionPolicy) Restricted(meta capabilities.CapabilityMeta) bool {
	if p.program == nil {
		return false
	}

	env := capabilityEnv{
		Name:       meta.Name,
		Group:      meta.Group,
		Authority:  meta.Authority,
		Protection: string(meta.Protection),
	}

	output, err := expr.Run(p.program, env)
	if err != nil {
		p.logger.Warn("restriction expression failed",
			"capability", meta.Name,
			"error", err)
		return false
	}

	restricted, ok := output.(bool)
	return ok && restricted
}
