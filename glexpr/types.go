package glexpr

import "fmt"

// Type is the static type of an expression node. Several host types
// share a GLSL representation (colors, points and vectors are all vecN in GLSL)
// but are kept apart here since some operations depend on them,
// i.e. multiplying two [TypeVec3] values is an inner product.
type Type uint8

const (
	TypeVoid Type = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeVec2
	TypeVec3
	TypeVec4
	TypeColor3
	TypeColor4
	TypePoint2
	TypePoint3
	TypeMat2
	TypeMat3
	TypeMat4
	TypeTexture
	// TypeStruct is the type of a light or material instance.
	TypeStruct
	typeEnd
)

var typeInfo = [typeEnd]struct {
	host, glsl string
	comps      int
}{
	TypeVoid:    {"Void", "void", 0},
	TypeBool:    {"Bool", "bool", 1},
	TypeInt:     {"Int", "int", 1},
	TypeFloat:   {"Float", "float", 1},
	TypeVec2:    {"Vector2", "vec2", 2},
	TypeVec3:    {"Vector3", "vec3", 3},
	TypeVec4:    {"Vector4", "vec4", 4},
	TypeColor3:  {"Color3", "vec3", 3},
	TypeColor4:  {"Color4", "vec4", 4},
	TypePoint2:  {"Point2", "vec2", 2},
	TypePoint3:  {"Point3", "vec3", 3},
	TypeMat2:    {"Matrix2", "mat2", 4},
	TypeMat3:    {"Matrix3", "mat3", 9},
	TypeMat4:    {"Matrix4", "mat4", 16},
	TypeTexture: {"Texture", "sampler2D", 1},
	TypeStruct:  {"Struct", "", 0},
}

// String returns the host-side name of the type.
func (t Type) String() string {
	if t >= typeEnd {
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
	return typeInfo[t].host
}

// GLSL returns the GLSL type name. Struct types have no fixed name and return the empty string.
func (t Type) GLSL() string {
	if t >= typeEnd {
		return ""
	}
	return typeInfo[t].glsl
}

// Components returns the number of float or int components of a value of type t.
func (t Type) Components() int {
	if t >= typeEnd {
		return 0
	}
	return typeInfo[t].comps
}

// IsScalar reports whether t is a bool, int or float.
func (t Type) IsScalar() bool { return t == TypeBool || t == TypeInt || t == TypeFloat }

// IsNumeric reports whether t is an int or float.
func (t Type) IsNumeric() bool { return t == TypeInt || t == TypeFloat }

// IsBuiltin reports whether t is one of the vector, color, point or matrix types
// whose methods and operators translate directly to GLSL.
func (t Type) IsBuiltin() bool { return t >= TypeVec2 && t <= TypeMat4 }

// IsVector3 reports whether t is a 3 component vector-like type.
func (t Type) IsVector3() bool { return t == TypeVec3 || t == TypeColor3 || t == TypePoint3 }

// Vec4 is the host value of a 4 component vector or color.
type Vec4 struct {
	X, Y, Z, W float32
}

// Array returns the components of v in order.
func (v Vec4) Array() [4]float32 { return [4]float32{v.X, v.Y, v.Z, v.W} }
