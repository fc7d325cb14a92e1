package glbuild

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glshade/glexpr"
)

// Context is the state threaded through expression translation.
type Context struct {
	// This is the light or material instance the expression belongs to.
	This any
	// Name is the name of the uniform holding the instance, i.e. "ParallelLight1".
	Name string
	// AllowMaterial permits computed values of the [glexpr.MaterialParam] parameter.
	AllowMaterial bool
	// AllowLight permits computed values of the [glexpr.LightParam] parameter.
	AllowLight bool
}

func (ctx *Context) allowsParam(name string) bool {
	return ctx.AllowMaterial && name == glexpr.MaterialParam || ctx.AllowLight && name == glexpr.LightParam
}

// ExprError is returned when an expression cannot be translated to GLSL.
type ExprError struct {
	Expr glexpr.Expr
	Msg  string
}

func (e *ExprError) Error() string {
	if e.Expr == nil {
		return "expression shape not supported: " + e.Msg
	}
	return fmt.Sprintf("expression shape not supported: %s: %s", e.Msg, e.Expr.String())
}

func exprErr(e glexpr.Expr, msg string, args ...any) error {
	return &ExprError{Expr: e, Msg: fmt.Sprintf(msg, args...)}
}

// AppendExpr appends the GLSL translation of e to dst.
func AppendExpr(dst []byte, ctx Context, e glexpr.Expr) ([]byte, error) {
	return appendExpr(dst, &ctx, e, true)
}

// top is set for the outermost expression of a statement, where
// blend formulas are written without enclosing parentheses.
func appendExpr(b []byte, ctx *Context, e glexpr.Expr, top bool) (_ []byte, err error) {
	switch n := e.(type) {
	case *glexpr.Binary:
		return appendBinary(b, ctx, n, n.Op, n.X, n.Y)

	case *glexpr.Conditional:
		b = append(b, '(')
		if b, err = appendExpr(b, ctx, n.Test, false); err != nil {
			return b, err
		}
		b = append(b, " ? "...)
		if b, err = appendExpr(b, ctx, n.Then, false); err != nil {
			return b, err
		}
		b = append(b, " : "...)
		if b, err = appendExpr(b, ctx, n.Else, false); err != nil {
			return b, err
		}
		return append(b, ')'), nil

	case *glexpr.Constant:
		if n.T == glexpr.TypeStruct {
			if n.Value != ctx.This {
				return b, exprErr(e, "instance other than %s referenced", ctx.Name)
			}
			return append(b, ctx.Name...), nil
		}
		b, err = AppendLiteral(b, n.Value)
		if err != nil {
			return b, exprErr(e, "%s", err)
		}
		return b, nil

	case *glexpr.Member:
		return appendMember(b, ctx, n)

	case *glexpr.Call:
		return appendCall(b, ctx, n, top)

	case *glexpr.Unary:
		switch n.Op {
		case glexpr.OpNeg:
			b = append(b, '-')
		case glexpr.OpConvert:
		default:
			return b, exprErr(e, "unknown unary operator")
		}
		return appendExpr(b, ctx, n.X, false)

	case *glexpr.Construct:
		glsl := n.T.GLSL()
		if glsl == "" || n.T == glexpr.TypeVoid {
			return b, exprErr(e, "cannot construct %s", n.T)
		}
		b = append(b, glsl...)
		return appendArgs(b, ctx, n.Args)

	case *glexpr.Param:
		return b, exprErr(e, "free parameter %q not permitted", n.Name)

	case nil:
		return b, exprErr(nil, "nil expression")
	}
	return b, exprErr(e, "unknown node %T", e)
}

func appendBinary(b []byte, ctx *Context, e glexpr.Expr, op glexpr.BinaryOp, x, y glexpr.Expr) (_ []byte, err error) {
	sym := op.Symbol()
	if sym == "" {
		return b, exprErr(e, "unknown binary operator")
	}
	if op == glexpr.OpMul && x.Type() == glexpr.TypeVec3 && y.Type() == glexpr.TypeVec3 {
		b = append(b, "dot("...)
		if b, err = appendExpr(b, ctx, x, false); err != nil {
			return b, err
		}
		b = append(b, ", "...)
		if b, err = appendExpr(b, ctx, y, false); err != nil {
			return b, err
		}
		return append(b, ')'), nil
	}
	b = append(b, '(')
	if b, err = appendExpr(b, ctx, x, false); err != nil {
		return b, err
	}
	b = append(b, ' ')
	b = append(b, sym...)
	b = append(b, ' ')
	if b, err = appendExpr(b, ctx, y, false); err != nil {
		return b, err
	}
	return append(b, ')'), nil
}

func appendMember(b []byte, ctx *Context, m *glexpr.Member) (_ []byte, err error) {
	switch m.Kind {
	case glexpr.MemberContext:
		if glexpr.ContextType(m.Name) == glexpr.TypeVoid {
			return b, exprErr(m, "unknown surface value %q", m.Name)
		}
		if err = checkOwner(ctx, m, m.X, false); err != nil {
			return b, err
		}
		return append(b, SanitizeName(m.Name)...), nil

	case glexpr.MemberComputed:
		if err = checkOwner(ctx, m, m.X, true); err != nil {
			return b, err
		}
		return append(b, SanitizeName(m.Name)...), nil

	case glexpr.MemberStripAlpha:
		if b, err = appendExpr(b, ctx, m.X, false); err != nil {
			return b, err
		}
		return append(b, ".xyz"...), nil

	case glexpr.MemberConstant:
		glsl := m.T.GLSL()
		if glsl == "" || len(m.Tensor) != m.T.Components() {
			return b, exprErr(m, "bad constant of type %s with %d components", m.T, len(m.Tensor))
		}
		if len(m.Tensor) == 1 {
			return AppendFloat(b, '-', '.', m.Tensor[0]), nil
		}
		b = append(b, glsl...)
		b = append(b, '(')
		b = appendFloatList(b, m.Tensor...)
		return append(b, ')'), nil

	case glexpr.MemberField:
		if b, err = appendExpr(b, ctx, m.X, false); err != nil {
			return b, err
		}
		b = append(b, '.')
		return append(b, SanitizeName(m.Name)...), nil
	}
	return b, exprErr(m, "unknown member kind %d", m.Kind)
}

// checkOwner verifies the owner of a context or computed value
// is the current instance or, if permitted, the material parameter.
func checkOwner(ctx *Context, e, owner glexpr.Expr, allowParams bool) error {
	switch o := owner.(type) {
	case *glexpr.Constant:
		if o.T == glexpr.TypeStruct && o.Value == ctx.This {
			return nil
		}
	case *glexpr.Param:
		if allowParams && ctx.allowsParam(o.Name) {
			return nil
		}
		return exprErr(e, "free parameter %q not permitted", o.Name)
	}
	return exprErr(e, "owner must be %s", ctx.Name)
}

func appendCall(b []byte, ctx *Context, c *glexpr.Call, top bool) (_ []byte, err error) {
	switch c.Kind {
	case glexpr.CallTexture:
		if len(c.Args) != 2 {
			return b, exprErr(c, "texture sample needs instance and uv")
		}
		if err = checkOwner(ctx, c, c.Args[0], false); err != nil {
			return b, err
		}
		b = append(b, "texture("...)
		b = append(b, ctx.Name...)
		b = append(b, '.')
		b = append(b, TextureField...)
		b = append(b, ", "...)
		if b, err = appendExpr(b, ctx, c.Args[1], false); err != nil {
			return b, err
		}
		b = append(b, ')')
		if c.DiscardAlpha {
			b = append(b, ".rgb"...)
		}
		return b, nil

	case glexpr.CallValueOf:
		if len(c.Args) != 1 {
			return b, exprErr(c, "value unwrap needs one argument")
		}
		b = append(b, '(')
		if b, err = appendExpr(b, ctx, c.Args[0], false); err != nil {
			return b, err
		}
		return append(b, ')'), nil

	case glexpr.CallBlend:
		if len(c.Args) != 2 {
			return b, exprErr(c, "blend needs two arguments")
		}
		if !top {
			b = append(b, '(')
		}
		b = append(b, "white3 - (white3 - "...)
		if b, err = appendExpr(b, ctx, c.Args[0], false); err != nil {
			return b, err
		}
		b = append(b, ") * (white3 - "...)
		if b, err = appendExpr(b, ctx, c.Args[1], false); err != nil {
			return b, err
		}
		b = append(b, ')')
		if !top {
			b = append(b, ')')
		}
		return b, nil

	case glexpr.CallMath:
		fn, ok := MathFunc(c.Name)
		if !ok {
			return b, exprErr(c, "unknown math function %q", c.Name)
		}
		b = append(b, fn...)
		return appendArgs(b, ctx, c.Args)

	case glexpr.CallMethod:
		if !c.Decl.IsBuiltin() {
			return b, exprErr(c, "method %q on non builtin type %s", c.Name, c.Decl)
		}
		b = append(b, strings.ToLower(c.Name)...)
		return appendArgs(b, ctx, c.Args)

	case glexpr.CallOperator:
		if !c.Decl.IsBuiltin() {
			return b, exprErr(c, "operator %q on non builtin type %s", c.Name, c.Decl)
		}
		switch len(c.Args) {
		case 1:
			switch c.Name {
			case "Negate":
				b = append(b, '-')
			case "Plus":
			default:
				return b, exprErr(c, "unknown unary operator method %q", c.Name)
			}
			return appendExpr(b, ctx, c.Args[0], false)
		case 2:
			op, ok := glexpr.OperatorMethod(c.Name)
			if !ok {
				return b, exprErr(c, "unknown operator method %q", c.Name)
			}
			return appendBinary(b, ctx, c, op, c.Args[0], c.Args[1])
		}
		return b, exprErr(c, "operator method %q with %d arguments", c.Name, len(c.Args))
	}
	return b, exprErr(c, "unknown call kind %d", c.Kind)
}

func appendArgs(b []byte, ctx *Context, args []glexpr.Expr) (_ []byte, err error) {
	b = append(b, '(')
	for i, arg := range args {
		if i > 0 {
			b = append(b, ", "...)
		}
		if b, err = appendExpr(b, ctx, arg, false); err != nil {
			return b, err
		}
	}
	return append(b, ')'), nil
}

var mathFuncs = map[string]string{
	"Abs":      "abs",
	"Acos":     "acos",
	"Acosh":    "acosh",
	"Asin":     "asin",
	"Asinh":    "asinh",
	"Atan":     "atan",
	"Atan2":    "atan",
	"Ceiling":  "ceil",
	"Clamp":    "clamp",
	"Cos":      "cos",
	"Cosh":     "cosh",
	"Exp":      "exp",
	"Floor":    "floor",
	"Log":      "log",
	"Log2":     "log2",
	"Max":      "max",
	"Min":      "min",
	"Pow":      "pow",
	"Round":    "round",
	"Sign":     "sign",
	"Sin":      "sin",
	"Sinh":     "sinh",
	"Sqrt":     "sqrt",
	"Atanh":    "atanh",
	"Tan":      "tan",
	"Tanh":     "tanh",
	"Truncate": "trunc",
}

// MathFunc returns the GLSL intrinsic for a math library function name.
func MathFunc(name string) (string, bool) {
	fn, ok := mathFuncs[name]
	return fn, ok
}

// AppendLiteral appends the GLSL literal of a host value.
func AppendLiteral(b []byte, v any) ([]byte, error) {
	switch v := v.(type) {
	case float32:
		return AppendFloat(b, '-', '.', v), nil
	case float64:
		return AppendFloat(b, '-', '.', float32(v)), nil
	case int32:
		return strconv.AppendInt(b, int64(v), 10), nil
	case int:
		return strconv.AppendInt(b, int64(v), 10), nil
	case bool:
		return strconv.AppendBool(b, v), nil
	case ms2.Vec:
		b = append(b, "vec2("...)
		b = appendFloatList(b, v.X, v.Y)
		return append(b, ')'), nil
	case ms3.Vec:
		b = append(b, "vec3("...)
		b = appendFloatList(b, v.X, v.Y, v.Z)
		return append(b, ')'), nil
	case glexpr.Vec4:
		b = append(b, "vec4("...)
		b = appendFloatList(b, v.X, v.Y, v.Z, v.W)
		return append(b, ')'), nil
	}
	return b, fmt.Errorf("no GLSL literal for %T", v)
}

func appendFloatList(b []byte, v ...float32) []byte {
	for i := range v {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = AppendFloat(b, '-', '.', v[i])
	}
	return b
}
