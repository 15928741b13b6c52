package engine

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"pricewise/internal/service/pricing/domain"
)

// CategoryRule 是一个针对商品求值的 CEL 布尔表达式，
// 例如 `category == "travel"` 表示天气因子只对旅游类商品生效。
type CategoryRule struct {
	expr string
	prg  cel.Program
}

// NewCategoryRule 编译表达式，可用变量：product_id, category, demand_level。
func NewCategoryRule(expr string) (*CategoryRule, error) {
	env, err := cel.NewEnv(
		cel.Variable("product_id", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("demand_level", cel.StringType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cel env")
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, errors.Wrapf(iss.Err(), "compile rule %q", expr)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "build program for rule %q", expr)
	}
	return &CategoryRule{expr: expr, prg: prg}, nil
}

func (r *CategoryRule) String() string { return r.expr }

// Matches 对商品求值。nil 规则对所有商品都成立。
func (r *CategoryRule) Matches(p *domain.Product) (bool, error) {
	if r == nil {
		return true, nil
	}
	out, _, err := r.prg.Eval(map[string]any{
		"product_id":   p.ID,
		"category":     p.Category,
		"demand_level": string(p.DemandLevel),
	})
	if err != nil {
		return false, errors.Wrapf(err, "evaluate rule %q", r.expr)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("rule %q returned %T", r.expr, out.Value())
	}
	return matched, nil
}
