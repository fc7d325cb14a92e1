// Package gleval evaluates glexpr expression trees on the host with
// float32 arithmetic, following GLSL semantics.
package gleval

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glshade/glbuild"
	"github.com/soypat/glshade/glexpr"
)

// Value is a host value of a scalar, vector or instance.
type Value struct {
	T glexpr.Type
	// V holds the components of numeric values.
	V [4]float32
	B bool
	// Ref is the instance or texture handle of struct and texture values.
	Ref any
}

// Float returns a float value.
func Float(f float32) Value { return Value{T: glexpr.TypeFloat, V: [4]float32{f}} }

// Vec3 returns a value of the 3 component type t.
func Vec3(t glexpr.Type, v ms3.Vec) Value {
	return Value{T: t, V: [4]float32{v.X, v.Y, v.Z}}
}

// Vec3 returns the first three components of v.
func (v Value) Vec3() ms3.Vec { return ms3.Vec{X: v.V[0], Y: v.V[1], Z: v.V[2]} }

// Vec4 returns the four components of v.
func (v Value) Vec4() glexpr.Vec4 { return glexpr.Vec4{X: v.V[0], Y: v.V[1], Z: v.V[2], W: v.V[3]} }

func (v Value) n() int {
	if v.T == glexpr.TypeBool {
		return 1
	}
	return v.T.Components()
}

// ValueOf converts a data property value to a [Value] of type t.
func ValueOf(t glexpr.Type, v any) (Value, error) {
	val := Value{T: t}
	switch v := v.(type) {
	case float32:
		val.V[0] = v
	case float64:
		val.V[0] = float32(v)
	case int32:
		val.V[0] = float32(v)
	case int:
		val.V[0] = float32(v)
	case bool:
		val.B = v
	case ms2.Vec:
		val.V[0], val.V[1] = v.X, v.Y
	case ms3.Vec:
		val.V[0], val.V[1], val.V[2] = v.X, v.Y, v.Z
	case glexpr.Vec4:
		val.V = v.Array()
	default:
		if t != glexpr.TypeTexture && t != glexpr.TypeStruct {
			return val, fmt.Errorf("cannot evaluate %T as %s", v, t)
		}
		val.Ref = v
	}
	return val, nil
}

// SampleFunc samples the texture handle at uv.
type SampleFunc func(handle any, uv ms2.Vec) glexpr.Vec4

// Evaluator evaluates expressions of one light or material instance.
type Evaluator struct {
	// This is the instance the expressions belong to.
	This any
	// Data maps data property names of This to their values.
	Data map[string]Value
	// Locals holds computed values. Like the locals of a fragment shader they
	// are shared between all instances.
	Locals map[string]Value
	// Surface values, keyed by surface value name such as [glexpr.SurfaceNormal].
	Surface map[string]Value
	Sample  SampleFunc
}

var (
	errNilExpr   = errors.New("nil expression")
	errNoSampler = errors.New("texture sampled without sampler")
)

// Eval evaluates e.
func (ev *Evaluator) Eval(e glexpr.Expr) (Value, error) {
	switch n := e.(type) {
	case *glexpr.Binary:
		x, err := ev.Eval(n.X)
		if err != nil {
			return x, err
		}
		y, err := ev.Eval(n.Y)
		if err != nil {
			return y, err
		}
		return binary(n.Op, x, y, n.T)

	case *glexpr.Conditional:
		test, err := ev.Eval(n.Test)
		if err != nil {
			return test, err
		}
		if test.B {
			return ev.Eval(n.Then)
		}
		return ev.Eval(n.Else)

	case *glexpr.Constant:
		if n.T == glexpr.TypeStruct {
			if n.Value != ev.This {
				return Value{}, fmt.Errorf("foreign instance %T", n.Value)
			}
			return Value{T: glexpr.TypeStruct, Ref: n.Value}, nil
		}
		return ValueOf(n.T, n.Value)

	case *glexpr.Member:
		return ev.member(n)

	case *glexpr.Call:
		return ev.call(n)

	case *glexpr.Unary:
		x, err := ev.Eval(n.X)
		if err != nil {
			return x, err
		}
		switch n.Op {
		case glexpr.OpNeg:
			for i := range x.V {
				x.V[i] = -x.V[i]
			}
		case glexpr.OpConvert:
			if n.T == glexpr.TypeInt {
				x.V[0] = math32.Trunc(x.V[0])
			}
			x.T = n.T
		default:
			return x, fmt.Errorf("unknown unary operator %d", n.Op)
		}
		return x, nil

	case *glexpr.Construct:
		return ev.construct(n)

	case *glexpr.Param:
		return Value{}, fmt.Errorf("free parameter %q", n.Name)

	case nil:
		return Value{}, errNilExpr
	}
	return Value{}, fmt.Errorf("unknown node %T", e)
}

func (ev *Evaluator) member(m *glexpr.Member) (Value, error) {
	switch m.Kind {
	case glexpr.MemberContext:
		v, ok := ev.Surface[m.Name]
		if !ok {
			return v, fmt.Errorf("surface value %q not set", m.Name)
		}
		return v, nil

	case glexpr.MemberComputed:
		v, ok := ev.Locals[m.Name]
		if !ok {
			return v, fmt.Errorf("computed value %q read before assignment", m.Name)
		}
		return v, nil

	case glexpr.MemberStripAlpha:
		v, err := ev.Eval(m.X)
		v.V[3] = 0
		v.T = glexpr.TypeColor3
		return v, err

	case glexpr.MemberConstant:
		v := Value{T: m.T}
		copy(v.V[:], m.Tensor)
		return v, nil
	}
	x, err := ev.Eval(m.X)
	if err != nil {
		return x, err
	}
	if x.T == glexpr.TypeStruct {
		v, ok := ev.Data[m.Name]
		if !ok {
			return v, fmt.Errorf("data property %q not found", m.Name)
		}
		return v, nil
	}
	// Swizzle of a single component.
	idx := -1
	if len(m.Name) == 1 {
		switch m.Name[0] {
		case 'x', 'r':
			idx = 0
		case 'y', 'g':
			idx = 1
		case 'z', 'b':
			idx = 2
		case 'w', 'a':
			idx = 3
		}
	}
	if idx < 0 || idx >= x.n() {
		return x, fmt.Errorf("no member %q on %s", m.Name, x.T)
	}
	return Float(x.V[idx]), nil
}

func (ev *Evaluator) args(c *glexpr.Call) ([]Value, error) {
	vals := make([]Value, len(c.Args))
	for i, arg := range c.Args {
		v, err := ev.Eval(arg)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (ev *Evaluator) call(c *glexpr.Call) (Value, error) {
	if c.Kind == glexpr.CallTexture {
		if ev.Sample == nil {
			return Value{}, errNoSampler
		}
		if len(c.Args) != 2 {
			return Value{}, errors.New("texture sample needs instance and uv")
		}
		handle := ev.Data[glbuild.TextureField]
		uv, err := ev.Eval(c.Args[1])
		if err != nil {
			return uv, err
		}
		col := ev.Sample(handle.Ref, ms2.Vec{X: uv.V[0], Y: uv.V[1]})
		v := Value{T: c.T, V: col.Array()}
		if c.DiscardAlpha {
			v.V[3] = 0
		}
		return v, nil
	}
	args, err := ev.args(c)
	if err != nil {
		return Value{}, err
	}
	switch c.Kind {
	case glexpr.CallValueOf:
		if len(args) != 1 {
			return Value{}, errors.New("value unwrap needs one argument")
		}
		return args[0], nil
	case glexpr.CallBlend:
		if len(args) != 2 {
			return Value{}, errors.New("blend needs two arguments")
		}
		return Blend(args[0], args[1]), nil
	case glexpr.CallMath:
		return mathCall(c.Name, args, c.T)
	case glexpr.CallMethod:
		return methodCall(c.Name, args, c.T)
	case glexpr.CallOperator:
		switch {
		case len(args) == 1 && c.Name == "Negate":
			v := args[0]
			for i := range v.V {
				v.V[i] = -v.V[i]
			}
			return v, nil
		case len(args) == 1 && c.Name == "Plus":
			return args[0], nil
		case len(args) == 2:
			op, ok := glexpr.OperatorMethod(c.Name)
			if ok {
				return binary(op, args[0], args[1], c.T)
			}
		}
		return Value{}, fmt.Errorf("unknown operator method %q", c.Name)
	}
	return Value{}, fmt.Errorf("unknown call kind %d", c.Kind)
}

func (ev *Evaluator) construct(c *glexpr.Construct) (Value, error) {
	v := Value{T: c.T}
	n := c.T.Components()
	if n == 0 || n > 4 {
		return v, fmt.Errorf("cannot construct %s", c.T)
	}
	k := 0
	for _, arg := range c.Args {
		a, err := ev.Eval(arg)
		if err != nil {
			return v, err
		}
		for i := 0; i < a.n() && k < n; i++ {
			v.V[k] = a.V[i]
			k++
		}
	}
	if k == 1 {
		// Scalar constructor fills every component.
		for i := 1; i < n; i++ {
			v.V[i] = v.V[0]
		}
	} else if k != n {
		return v, fmt.Errorf("%s constructed from %d components", c.T, k)
	}
	return v, nil
}

// Blend combines two light contributions with 1-(1-a)*(1-b) componentwise.
func Blend(a, b Value) Value {
	v := Value{T: glexpr.TypeColor3}
	for i := 0; i < 3; i++ {
		v.V[i] = 1 - (1-a.V[i])*(1-b.V[i])
	}
	return v
}

func binary(op glexpr.BinaryOp, x, y Value, t glexpr.Type) (Value, error) {
	switch op {
	case glexpr.OpAnd:
		return Value{T: glexpr.TypeBool, B: x.B && y.B}, nil
	case glexpr.OpOr:
		return Value{T: glexpr.TypeBool, B: x.B || y.B}, nil
	case glexpr.OpEq, glexpr.OpNe:
		eq := x.B == y.B && x.V == y.V
		return Value{T: glexpr.TypeBool, B: eq == (op == glexpr.OpEq)}, nil
	case glexpr.OpLt:
		return Value{T: glexpr.TypeBool, B: x.V[0] < y.V[0]}, nil
	case glexpr.OpLe:
		return Value{T: glexpr.TypeBool, B: x.V[0] <= y.V[0]}, nil
	case glexpr.OpGt:
		return Value{T: glexpr.TypeBool, B: x.V[0] > y.V[0]}, nil
	case glexpr.OpGe:
		return Value{T: glexpr.TypeBool, B: x.V[0] >= y.V[0]}, nil
	}
	if op == glexpr.OpMul && x.T == glexpr.TypeVec3 && y.T == glexpr.TypeVec3 {
		return Float(dot(x, y)), nil
	}
	v := Value{T: t}
	n := t.Components()
	for i := 0; i < n && i < 4; i++ {
		a, b := component(x, i), component(y, i)
		switch op {
		case glexpr.OpAdd:
			v.V[i] = a + b
		case glexpr.OpSub:
			v.V[i] = a - b
		case glexpr.OpMul:
			v.V[i] = a * b
		case glexpr.OpDiv:
			v.V[i] = a / b
		case glexpr.OpMod:
			v.V[i] = math32.Mod(a, b)
		default:
			return v, fmt.Errorf("unknown binary operator %d", op)
		}
	}
	if t == glexpr.TypeInt {
		v.V[0] = math32.Trunc(v.V[0])
	}
	return v, nil
}

// component returns the i'th component of v, broadcasting scalars.
func component(v Value, i int) float32 {
	if v.n() == 1 {
		return v.V[0]
	}
	return v.V[i]
}

func dot(x, y Value) float32 {
	return x.V[0]*y.V[0] + x.V[1]*y.V[1] + x.V[2]*y.V[2]
}

func componentwise(args []Value, t glexpr.Type, fn func(a []float32) float32) Value {
	v := Value{T: t}
	n := max(t.Components(), 1)
	a := make([]float32, len(args))
	for i := 0; i < n && i < 4; i++ {
		for j := range args {
			a[j] = component(args[j], i)
		}
		v.V[i] = fn(a)
	}
	return v
}

var mathFuncs = map[string]struct {
	nargs int
	fn    func(a []float32) float32
}{
	"Abs":      {1, func(a []float32) float32 { return math32.Abs(a[0]) }},
	"Acos":     {1, func(a []float32) float32 { return math32.Acos(a[0]) }},
	"Acosh":    {1, func(a []float32) float32 { return math32.Acosh(a[0]) }},
	"Asin":     {1, func(a []float32) float32 { return math32.Asin(a[0]) }},
	"Asinh":    {1, func(a []float32) float32 { return math32.Asinh(a[0]) }},
	"Atan":     {1, func(a []float32) float32 { return math32.Atan(a[0]) }},
	"Atan2":    {2, func(a []float32) float32 { return math32.Atan2(a[0], a[1]) }},
	"Atanh":    {1, func(a []float32) float32 { return math32.Atanh(a[0]) }},
	"Ceiling":  {1, func(a []float32) float32 { return math32.Ceil(a[0]) }},
	"Clamp":    {3, func(a []float32) float32 { return math32.Min(math32.Max(a[0], a[1]), a[2]) }},
	"Cos":      {1, func(a []float32) float32 { return math32.Cos(a[0]) }},
	"Cosh":     {1, func(a []float32) float32 { return math32.Cosh(a[0]) }},
	"Exp":      {1, func(a []float32) float32 { return math32.Exp(a[0]) }},
	"Floor":    {1, func(a []float32) float32 { return math32.Floor(a[0]) }},
	"Log":      {1, func(a []float32) float32 { return math32.Log(a[0]) }},
	"Log2":     {1, func(a []float32) float32 { return math32.Log2(a[0]) }},
	"Max":      {2, func(a []float32) float32 { return math32.Max(a[0], a[1]) }},
	"Min":      {2, func(a []float32) float32 { return math32.Min(a[0], a[1]) }},
	"Pow":      {2, func(a []float32) float32 { return math32.Pow(a[0], a[1]) }},
	"Round":    {1, func(a []float32) float32 { return math32.Round(a[0]) }},
	"Sign":     {1, func(a []float32) float32 { return sign(a[0]) }},
	"Sin":      {1, func(a []float32) float32 { return math32.Sin(a[0]) }},
	"Sinh":     {1, func(a []float32) float32 { return math32.Sinh(a[0]) }},
	"Sqrt":     {1, func(a []float32) float32 { return math32.Sqrt(a[0]) }},
	"Tan":      {1, func(a []float32) float32 { return math32.Tan(a[0]) }},
	"Tanh":     {1, func(a []float32) float32 { return math32.Tanh(a[0]) }},
	"Truncate": {1, func(a []float32) float32 { return math32.Trunc(a[0]) }},
}

func sign(a float32) float32 {
	if a == 0 {
		return 0
	}
	return math32.Copysign(1, a)
}

func mathCall(name string, args []Value, t glexpr.Type) (Value, error) {
	f, ok := mathFuncs[name]
	if !ok {
		return Value{}, fmt.Errorf("unknown math function %q", name)
	} else if len(args) != f.nargs {
		return Value{}, fmt.Errorf("%s takes %d arguments, got %d", name, f.nargs, len(args))
	}
	return componentwise(args, t, f.fn), nil
}

func methodCall(name string, args []Value, t glexpr.Type) (Value, error) {
	need := 1
	switch name {
	case "Dot", "Cross", "Reflect", "Distance":
		need = 2
	}
	if len(args) != need {
		return Value{}, fmt.Errorf("%s takes %d arguments, got %d", name, need, len(args))
	}
	x := args[0]
	switch name {
	case "Dot":
		return Float(dot(x, args[1])), nil
	case "Length":
		return Float(math32.Sqrt(dot(x, x))), nil
	case "Distance":
		d, _ := binary(glexpr.OpSub, x, args[1], glexpr.TypeVec3)
		return Float(math32.Sqrt(dot(d, d))), nil
	case "Normalize":
		l := math32.Sqrt(dot(x, x))
		v := Value{T: t}
		for i := 0; i < 3; i++ {
			v.V[i] = x.V[i] / l
		}
		return v, nil
	case "Cross":
		y := args[1]
		return Value{T: t, V: [4]float32{
			x.V[1]*y.V[2] - x.V[2]*y.V[1],
			x.V[2]*y.V[0] - x.V[0]*y.V[2],
			x.V[0]*y.V[1] - x.V[1]*y.V[0],
		}}, nil
	case "Reflect":
		n := args[1]
		d := 2 * dot(n, x)
		v := Value{T: t}
		for i := 0; i < 3; i++ {
			v.V[i] = x.V[i] - d*n.V[i]
		}
		return v, nil
	}
	return Value{}, fmt.Errorf("unknown method %q", name)
}
