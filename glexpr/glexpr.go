// Package glexpr implements a small typed expression tree used to describe
// how lights and materials compute their outputs. Trees are built once with the
// constructor functions in this package and later translated to GLSL by glbuild
// or evaluated on the host by gleval.
package glexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// Names of the surface context values available to every light and material.
const (
	SurfacePosition  = "SurfacePosition"
	SurfaceNormal    = "SurfaceNormal"
	SurfaceTextureUv = "SurfaceTextureUv"
	CameraPosition   = "CameraPosition"
)

// Free parameter names. MaterialParam is permitted in light expressions and
// refers to the material being lit. LightParam is permitted in the remission
// of a material and refers to the light lighting it.
const (
	MaterialParam = "material"
	LightParam    = "light"
)

// Expr is a node of an expression tree. The set of implementations is closed:
// [*Binary], [*Conditional], [*Constant], [*Member], [*Call], [*Unary], [*Construct] and [*Param].
type Expr interface {
	// Type returns the static type of the value the expression evaluates to.
	Type() Type
	// AppendString appends a human readable form of the expression, used in diagnostics.
	AppendString(b []byte) []byte
	String() string
	isExpr()
}

type BinaryOp uint8

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var binaryOpSymbols = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAnd: "&&", OpOr: "||",
}

// Symbol returns the operator's symbol, which is the same on host and in GLSL.
// It returns the empty string for an invalid operator.
func (op BinaryOp) Symbol() string {
	if int(op) >= len(binaryOpSymbols) {
		return ""
	}
	return binaryOpSymbols[op]
}

func (op BinaryOp) String() string {
	if s := op.Symbol(); s != "" {
		return s
	}
	return "BinaryOp(" + strconv.Itoa(int(op)) + ")"
}

// IsComparison reports whether op yields a boolean from two operands.
func (op BinaryOp) IsComparison() bool { return op >= OpEq && op <= OpOr }

type UnaryOp uint8

const (
	// OpNeg is arithmetic negation.
	OpNeg UnaryOp = iota + 1
	// OpConvert is a numeric conversion. It is transparent in GLSL.
	OpConvert
)

type MemberKind uint8

const (
	// MemberField is a plain data field read off X.
	MemberField MemberKind = iota
	// MemberContext is a surface context value, see [SurfacePosition] and friends.
	MemberContext
	// MemberComputed refers to a computed property of X, held in a shader local.
	MemberComputed
	// MemberStripAlpha reads the first three components of a 4 component color.
	MemberStripAlpha
	// MemberConstant is a named compile-time constant tensor such as a unit vector.
	MemberConstant
)

type CallKind uint8

const (
	// CallMethod is a method whose declaring type is a builtin vector, color, point or matrix type.
	CallMethod CallKind = iota
	// CallMath is a call to a function of the math library.
	CallMath
	// CallOperator is an overloaded operator method on a builtin type.
	CallOperator
	// CallTexture samples a material's texture. Args are the owning instance and the uv coordinate.
	CallTexture
	// CallValueOf unwraps a computed value.
	CallValueOf
	// CallBlend combines two light contributions additively without blowing out.
	CallBlend
)

type (
	Binary struct {
		Op   BinaryOp
		X, Y Expr
		T    Type
	}
	Conditional struct {
		Test, Then, Else Expr
	}
	// Constant is a literal value. When T is [TypeStruct] Value is a light
	// or material instance and the constant refers to that instance's uniform.
	Constant struct {
		Value any
		T     Type
	}
	Member struct {
		X    Expr
		Name string
		Kind MemberKind
		T    Type
		// Tensor holds the components of a [MemberConstant].
		Tensor []float32
	}
	Call struct {
		Kind CallKind
		Name string
		// Decl is the declaring type of a [CallMethod] or [CallOperator].
		Decl Type
		Args []Expr
		T    Type
		// DiscardAlpha is used by [CallTexture] to select the RGB channels only.
		DiscardAlpha bool
	}
	Unary struct {
		Op UnaryOp
		X  Expr
		T  Type
	}
	Construct struct {
		T    Type
		Args []Expr
	}
	Param struct {
		Name string
		T    Type
	}
)

func (*Binary) isExpr()      {}
func (*Conditional) isExpr() {}
func (*Constant) isExpr()    {}
func (*Member) isExpr()      {}
func (*Call) isExpr()        {}
func (*Unary) isExpr()       {}
func (*Construct) isExpr()   {}
func (*Param) isExpr()       {}

func (e *Binary) Type() Type      { return e.T }
func (e *Conditional) Type() Type { return e.Then.Type() }
func (e *Constant) Type() Type    { return e.T }
func (e *Member) Type() Type      { return e.T }
func (e *Call) Type() Type        { return e.T }
func (e *Unary) Type() Type       { return e.T }
func (e *Construct) Type() Type   { return e.T }
func (e *Param) Type() Type       { return e.T }

func (e *Binary) String() string      { return string(e.AppendString(nil)) }
func (e *Conditional) String() string { return string(e.AppendString(nil)) }
func (e *Constant) String() string    { return string(e.AppendString(nil)) }
func (e *Member) String() string      { return string(e.AppendString(nil)) }
func (e *Call) String() string        { return string(e.AppendString(nil)) }
func (e *Unary) String() string       { return string(e.AppendString(nil)) }
func (e *Construct) String() string   { return string(e.AppendString(nil)) }
func (e *Param) String() string       { return string(e.AppendString(nil)) }

func (e *Binary) AppendString(b []byte) []byte {
	b = append(b, '(')
	b = e.X.AppendString(b)
	b = append(b, ' ')
	b = append(b, e.Op.String()...)
	b = append(b, ' ')
	b = e.Y.AppendString(b)
	return append(b, ')')
}

func (e *Conditional) AppendString(b []byte) []byte {
	b = append(b, '(')
	b = e.Test.AppendString(b)
	b = append(b, " ? "...)
	b = e.Then.AppendString(b)
	b = append(b, " : "...)
	b = e.Else.AppendString(b)
	return append(b, ')')
}

func (e *Constant) AppendString(b []byte) []byte {
	if e.T == TypeStruct {
		return fmt.Appendf(b, "this(%T)", e.Value)
	}
	return fmt.Appendf(b, "%v", e.Value)
}

func (e *Member) AppendString(b []byte) []byte {
	switch e.Kind {
	case MemberConstant:
		return append(b, e.Name...)
	case MemberStripAlpha:
		b = e.X.AppendString(b)
		return append(b, ".Color3"...)
	}
	b = e.X.AppendString(b)
	b = append(b, '.')
	return append(b, e.Name...)
}

func (e *Call) AppendString(b []byte) []byte {
	switch e.Kind {
	case CallMethod, CallOperator:
		b = append(b, e.Decl.String()...)
		b = append(b, '.')
	case CallMath:
		b = append(b, "Math."...)
	}
	b = append(b, e.Name...)
	b = append(b, '(')
	for i, arg := range e.Args {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = arg.AppendString(b)
	}
	return append(b, ')')
}

func (e *Unary) AppendString(b []byte) []byte {
	switch e.Op {
	case OpNeg:
		b = append(b, '-')
	case OpConvert:
		b = append(b, '(')
		b = append(b, e.T.String()...)
		b = append(b, ')')
	default:
		b = fmt.Appendf(b, "unary%d ", e.Op)
	}
	return e.X.AppendString(b)
}

func (e *Construct) AppendString(b []byte) []byte {
	b = append(b, "new "...)
	b = append(b, e.T.String()...)
	b = append(b, '(')
	for i, arg := range e.Args {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = arg.AppendString(b)
	}
	return append(b, ')')
}

func (e *Param) AppendString(b []byte) []byte { return append(b, e.Name...) }

// Walk traverses e in depth-first pre-order. Children of a node are
// skipped if fn returns false for that node.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *Binary:
		Walk(n.X, fn)
		Walk(n.Y, fn)
	case *Conditional:
		Walk(n.Test, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case *Member:
		Walk(n.X, fn)
	case *Call:
		for _, arg := range n.Args {
			Walk(arg, fn)
		}
	case *Unary:
		Walk(n.X, fn)
	case *Construct:
		for _, arg := range n.Args {
			Walk(arg, fn)
		}
	}
}

// ReferencesContext reports whether e reads the surface context value name
// off a light or material instance.
func ReferencesContext(e Expr, name string) (found bool) {
	Walk(e, func(n Expr) bool {
		if found {
			return false
		}
		m, ok := n.(*Member)
		if ok && m.Kind == MemberContext && m.Name == name && IsInstance(m.X) {
			found = true
		}
		return !found
	})
	return found
}

// IsInstance reports whether e is a constant referring to a light or material instance.
func IsInstance(e Expr) bool {
	c, ok := e.(*Constant)
	return ok && c.T == TypeStruct
}

// Join formats a list of expressions for diagnostics.
func Join(exprs []Expr, sep string) string {
	var sb strings.Builder
	for i, e := range exprs {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(e.String())
	}
	return sb.String()
}
