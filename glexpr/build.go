package glexpr

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// This returns a constant referring to the light or material instance v.
// v should be a pointer so that instance identity is preserved.
func This(v any) *Constant { return &Constant{Value: v, T: TypeStruct} }

func Float(v float32) *Constant            { return &Constant{Value: v, T: TypeFloat} }
func Int(v int32) *Constant                { return &Constant{Value: v, T: TypeInt} }
func Bool(v bool) *Constant                { return &Constant{Value: v, T: TypeBool} }
func Vec2(v ms2.Vec) *Constant             { return &Constant{Value: v, T: TypeVec2} }
func Vec3(v ms3.Vec) *Constant             { return &Constant{Value: v, T: TypeVec3} }
func Point3(v ms3.Vec) *Constant           { return &Constant{Value: v, T: TypePoint3} }
func Color3(v ms3.Vec) *Constant           { return &Constant{Value: v, T: TypeColor3} }
func Color4(v Vec4) *Constant              { return &Constant{Value: v, T: TypeColor4} }
func Parameter(name string, t Type) *Param { return &Param{Name: name, T: t} }

// Field reads the data property name of type t off x.
func Field(x Expr, name string, t Type) *Member {
	return &Member{X: x, Name: name, Kind: MemberField, T: t}
}

// Context reads a surface context value off the instance this.
// name must be one of [SurfacePosition], [SurfaceNormal], [SurfaceTextureUv] or [CameraPosition].
func Context(this Expr, name string) *Member {
	return &Member{X: this, Name: name, Kind: MemberContext, T: ContextType(name)}
}

// ContextType returns the type of the surface context value name, or [TypeVoid] if
// name is not a surface context value.
func ContextType(name string) Type {
	switch name {
	case SurfacePosition, CameraPosition:
		return TypePoint3
	case SurfaceNormal:
		return TypeVec3
	case SurfaceTextureUv:
		return TypeVec2
	}
	return TypeVoid
}

// Computed refers to the computed property name of owner. Owner is either an
// instance or the material parameter of a light expression.
func Computed(owner Expr, name string, t Type) *Member {
	return &Member{X: owner, Name: name, Kind: MemberComputed, T: t}
}

// StripAlpha reads the RGB channels of a 4 component color.
func StripAlpha(x Expr) *Member {
	return &Member{X: x, Name: "Color3", Kind: MemberStripAlpha, T: TypeColor3}
}

// Tensor is a named compile-time constant of type t, inlined as a constructor call.
func Tensor(name string, t Type, components ...float32) *Member {
	return &Member{Name: name, Kind: MemberConstant, T: t, Tensor: components}
}

func UnitX() *Member { return Tensor("Vector3.UnitX", TypeVec3, 1, 0, 0) }
func UnitY() *Member { return Tensor("Vector3.UnitY", TypeVec3, 0, 1, 0) }
func UnitZ() *Member { return Tensor("Vector3.UnitZ", TypeVec3, 0, 0, 1) }
func White() *Member { return Tensor("Color3.White", TypeColor3, 1, 1, 1) }
func Black() *Member { return Tensor("Color3.Black", TypeColor3, 0, 0, 0) }

func NewBinary(op BinaryOp, x, y Expr) *Binary {
	return &Binary{Op: op, X: x, Y: y, T: binaryType(op, x.Type(), y.Type())}
}

func Add(x, y Expr) *Binary { return NewBinary(OpAdd, x, y) }
func Sub(x, y Expr) *Binary { return NewBinary(OpSub, x, y) }

// Mul multiplies x and y. Two 3 component vectors multiply to their inner product.
func Mul(x, y Expr) *Binary { return NewBinary(OpMul, x, y) }
func Div(x, y Expr) *Binary { return NewBinary(OpDiv, x, y) }
func Mod(x, y Expr) *Binary { return NewBinary(OpMod, x, y) }
func Eq(x, y Expr) *Binary  { return NewBinary(OpEq, x, y) }
func Ne(x, y Expr) *Binary  { return NewBinary(OpNe, x, y) }
func Lt(x, y Expr) *Binary  { return NewBinary(OpLt, x, y) }
func Le(x, y Expr) *Binary  { return NewBinary(OpLe, x, y) }
func Gt(x, y Expr) *Binary  { return NewBinary(OpGt, x, y) }
func Ge(x, y Expr) *Binary  { return NewBinary(OpGe, x, y) }
func And(x, y Expr) *Binary { return NewBinary(OpAnd, x, y) }
func Or(x, y Expr) *Binary  { return NewBinary(OpOr, x, y) }

func binaryType(op BinaryOp, x, y Type) Type {
	switch {
	case op.IsComparison():
		return TypeBool
	case op == OpMul && x == TypeVec3 && y == TypeVec3:
		return TypeFloat
	case op == OpSub && x == TypePoint3 && y == TypePoint3:
		return TypeVec3
	case x.IsNumeric() && y.IsNumeric():
		if x == TypeFloat || y == TypeFloat {
			return TypeFloat
		}
		return TypeInt
	case x.IsNumeric():
		return y
	}
	return x
}

func Neg(x Expr) *Unary { return &Unary{Op: OpNeg, X: x, T: x.Type()} }

// Convert converts the numeric value x to t.
func Convert(x Expr, t Type) *Unary { return &Unary{Op: OpConvert, X: x, T: t} }

func Cond(test, then, els Expr) *Conditional {
	return &Conditional{Test: test, Then: then, Else: els}
}

// Math calls the math library function name. The result has the type of the first argument.
func Math(name string, args ...Expr) *Call {
	t := TypeFloat
	if len(args) > 0 {
		t = args[0].Type()
	}
	return &Call{Kind: CallMath, Name: name, Args: args, T: t}
}

func Max(x, y Expr) *Call { return Math("Max", x, y) }
func Min(x, y Expr) *Call { return Math("Min", x, y) }

// Method calls method name declared on the builtin type decl.
func Method(decl Type, name string, result Type, args ...Expr) *Call {
	return &Call{Kind: CallMethod, Name: name, Decl: decl, Args: args, T: result}
}

func Dot(x, y Expr) *Call      { return Method(TypeVec3, "Dot", TypeFloat, x, y) }
func Cross(x, y Expr) *Call    { return Method(TypeVec3, "Cross", TypeVec3, x, y) }
func Normalize(x Expr) *Call   { return Method(TypeVec3, "Normalize", TypeVec3, x) }
func Length(x Expr) *Call      { return Method(TypeVec3, "Length", TypeFloat, x) }
func Reflect(x, n Expr) *Call  { return Method(TypeVec3, "Reflect", TypeVec3, x, n) }
func Distance(x, y Expr) *Call { return Method(TypePoint3, "Distance", TypeFloat, x, y) }

// Operator calls an overloaded operator method such as "Add" or "Negate" on the
// declaring type of its first argument.
func Operator(name string, args ...Expr) *Call {
	var decl, t Type
	if len(args) > 0 {
		decl = args[0].Type()
		t = decl
	}
	if len(args) == 2 {
		if op, ok := OperatorMethod(name); ok {
			t = binaryType(op, args[0].Type(), args[1].Type())
		}
	}
	return &Call{Kind: CallOperator, Name: name, Decl: decl, Args: args, T: t}
}

// OperatorMethod returns the binary operator an overloaded operator method stands for.
func OperatorMethod(name string) (BinaryOp, bool) {
	switch name {
	case "Add":
		return OpAdd, true
	case "Subtract":
		return OpSub, true
	case "Multiply":
		return OpMul, true
	case "Divide":
		return OpDiv, true
	}
	return 0, false
}

// ValueOf unwraps a computed value.
func ValueOf(x Expr) *Call {
	return &Call{Kind: CallValueOf, Name: "ValueOf", Args: []Expr{x}, T: x.Type()}
}

// Blend combines the light contributions a and b with 1-(1-a)*(1-b).
func Blend(a, b Expr) *Call {
	return &Call{Kind: CallBlend, Name: "Blend", Args: []Expr{a, b}, T: TypeColor3}
}

// Texture samples the texture of the material instance this at uv.
func Texture(this, uv Expr, discardAlpha bool) *Call {
	t := TypeColor4
	if discardAlpha {
		t = TypeColor3
	}
	return &Call{Kind: CallTexture, Name: "Texture", Args: []Expr{this, uv}, T: t, DiscardAlpha: discardAlpha}
}

// New constructs a value of type t from its components.
func New(t Type, args ...Expr) *Construct { return &Construct{T: t, Args: args} }
