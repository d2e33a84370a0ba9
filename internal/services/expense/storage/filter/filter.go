// Package filter translates AIP-160 filter expressions over expenses into
// SQL WHERE fragments.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/pennywise/internal/platform/money"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/shopspring/decimal"
	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// SQLCondition is a WHERE clause fragment with positional parameters.
type SQLCondition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition filters nothing.
func (c SQLCondition) Empty() bool {
	return strings.TrimSpace(c.Clause) == ""
}

// ErrInvalidFilter marks filters that fail to parse or reference unsupported
// fields, functions, or values.
var ErrInvalidFilter = errors.New("invalid filter")

type field struct {
	column  string
	convert func(any) (any, error)
}

var fields = map[string]field{
	"category":    {column: "category", convert: categoryValue},
	"date":        {column: "date", convert: dateValue},
	"amount":      {column: "amount_cents", convert: centsValue},
	"description": {column: "description", convert: stringValue},
}

var comparisons = []string{
	filtering.FunctionEquals,
	filtering.FunctionNotEquals,
	filtering.FunctionLessThan,
	filtering.FunctionLessEquals,
	filtering.FunctionGreaterThan,
	filtering.FunctionGreaterEquals,
}

// Declarations returns the identifiers an expense filter may reference.
// amount compares against both float and integer literals.
func Declarations() (*filtering.Declarations, error) {
	opts := []filtering.DeclarationOption{
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("category", filtering.TypeString),
		filtering.DeclareIdent("date", filtering.TypeString),
		filtering.DeclareIdent("amount", filtering.TypeFloat),
		filtering.DeclareIdent("description", filtering.TypeString),
	}
	for _, fn := range comparisons {
		opts = append(opts, filtering.DeclareFunction(
			fn,
			filtering.NewFunctionOverload(fn+"_float_int", filtering.TypeBool, filtering.TypeFloat, filtering.TypeInt),
		))
	}
	return filtering.NewDeclarations(opts...)
}

// Parse parses an expense filter such as
// `category = "Food" AND amount >= 10.0 AND date >= "2025-01-01"`.
// An empty filter yields an empty condition.
func Parse(filterStr string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}
	decls, err := Declarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if parsed.CheckedExpr == nil {
		return SQLCondition{}, nil
	}
	cond, err := translateExpr(parsed.CheckedExpr.GetExpr())
	if err != nil {
		return SQLCondition{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return cond, nil
}

func translateExpr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}
	call, ok := e.GetExprKind().(*expr.Expr_CallExpr)
	if !ok {
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", e.GetExprKind())
	}
	return translateCall(call.CallExpr)
}

func translateCall(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.GetFunction() {
	case filtering.FunctionAnd, "_&&_":
		return translateJunction(call.GetArgs(), "AND")
	case filtering.FunctionOr, "_||_":
		return translateJunction(call.GetArgs(), "OR")
	case filtering.FunctionNot, "!_":
		return translateNot(call.GetArgs())
	case filtering.FunctionEquals, "_==_":
		return translateComparison(call.GetArgs(), "=")
	case filtering.FunctionNotEquals, "_!=_":
		return translateComparison(call.GetArgs(), "!=")
	case filtering.FunctionLessThan, "_<_":
		return translateComparison(call.GetArgs(), "<")
	case filtering.FunctionLessEquals, "_<=_":
		return translateComparison(call.GetArgs(), "<=")
	case filtering.FunctionGreaterThan, "_>_":
		return translateComparison(call.GetArgs(), ">")
	case filtering.FunctionGreaterEquals, "_>=_":
		return translateComparison(call.GetArgs(), ">=")
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.GetFunction())
	}
}

func translateJunction(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}
	left, err := translateExpr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	right, err := translateExpr(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	params := make([]any, 0, len(left.Params)+len(right.Params))
	params = append(params, left.Params...)
	params = append(params, right.Params...)
	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: params,
	}, nil
}

func translateNot(args []*expr.Expr) (SQLCondition, error) {
	if len(args) != 1 {
		return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
	}
	inner, err := translateExpr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{Clause: fmt.Sprintf("(NOT %s)", inner.Clause), Params: inner.Params}, nil
}

func translateComparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return SQLCondition{}, fmt.Errorf("comparison must start with a field name")
	}
	name := ident.IdentExpr.GetName()
	f, ok := fields[name]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", name)
	}
	constant, ok := args[1].GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return SQLCondition{}, fmt.Errorf("field %s must be compared with a literal", name)
	}
	raw, err := constValue(constant.ConstExpr)
	if err != nil {
		return SQLCondition{}, err
	}
	value, err := f.convert(raw)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("field %s: %w", name, err)
	}
	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", f.column, op),
		Params: []any{value},
	}, nil
}

func constValue(c *expr.Constant) (any, error) {
	switch kind := c.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

func stringValue(raw any) (any, error) {
	value, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", raw)
	}
	return value, nil
}

func categoryValue(raw any) (any, error) {
	value, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", raw)
	}
	category, err := domain.ParseCategory(value)
	if err != nil {
		return nil, err
	}
	return string(category), nil
}

func dateValue(raw any) (any, error) {
	value, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", raw)
	}
	date, err := domain.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return date.Format(domain.DateLayout), nil
}

func centsValue(raw any) (any, error) {
	var amount decimal.Decimal
	switch value := raw.(type) {
	case float64:
		amount = decimal.NewFromFloat(value)
	case int64:
		amount = decimal.NewFromInt(value)
	case uint64:
		parsed, err := decimal.NewFromString(strconv.FormatUint(value, 10))
		if err != nil {
			return nil, err
		}
		amount = parsed
	default:
		return nil, fmt.Errorf("expected number, got %T", raw)
	}
	if !amount.Equal(amount.Round(money.Places)) {
		return nil, fmt.Errorf("amount must have at most %d decimal places", money.Places)
	}
	cents, err := money.ToCents(amount)
	if err != nil {
		return nil, err
	}
	return cents, nil
}
