// Package glbind checks the channels of a vertex and fragment shader pair against
// each other and against the values bound before each draw call.
package glbind

import (
	"errors"
	"fmt"

	"github.com/soypat/glshade/glparse"
)

// Stage is a shader stage.
type Stage uint8

const (
	StageVertex Stage = iota + 1
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return "unknown"
}

// Error kinds of [*ChannelError], for use with [errors.Is].
var (
	ErrNotFound     = errors.New("not found")
	ErrWrongKind    = errors.New("has wrong kind")
	ErrMissingInput = errors.New("has no input")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrNotArray     = errors.New("should be an array")
	ErrNotUniform   = errors.New("is not uniform")
	ErrDuplicate    = errors.New("declared twice")
	ErrNoOutput     = errors.New("the fragment shader must have at least one output defining the color")
)

// ChannelError reports a problem with a single channel.
type ChannelError struct {
	Stage   Stage
	Channel string
	Kind    error
	// Detail is optional extra text, i.e. the mismatching types.
	Detail string
}

func (e *ChannelError) Error() string {
	msg := fmt.Sprintf("%s shader channel %s %s", e.Stage, e.Channel, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ChannelError) Unwrap() error { return e.Kind }

// Channel is an entry of the merged channel network.
type Channel struct {
	Name string
	Dir  glparse.Direction
	Var  glparse.Variable
	// Linked is set for an out channel of the vertex stage consumed by
	// an in channel of the fragment stage.
	Linked bool
}

// Validator owns the channel network of a vertex/fragment shader pair and
// the binding state of the current draw.
type Validator struct {
	channels map[string]*Channel
	order    []string
	// vertexDecls are the names declared at the top level of the vertex stage.
	vertexDecls map[string]bool
	bound       map[string]glparse.Direction
}

// NewValidator merges the declarations of the vertex then fragment stage.
// The fragment stage must declare at least one out channel.
func NewValidator(vertex, fragment *glparse.Program) (*Validator, error) {
	v := &Validator{
		channels:    make(map[string]*Channel),
		vertexDecls: make(map[string]bool),
		bound:       make(map[string]glparse.Direction),
	}
	for _, d := range vertex.Decls {
		v.vertexDecls[d.DeclName()] = true
	}
	err := v.ingest(StageVertex, vertex)
	if err != nil {
		return nil, err
	}
	err = v.ingest(StageFragment, fragment)
	if err != nil {
		return nil, err
	}
	if len(v.Outputs()) == 0 {
		return nil, ErrNoOutput
	}
	return v, nil
}

func (v *Validator) ingest(stage Stage, prog *glparse.Program) error {
	for _, c := range prog.Channels() {
		name := c.Var.Name
		if existing, ok := v.channels[name]; ok {
			if stage != StageFragment || c.Dir != glparse.DirIn || existing.Dir != glparse.DirOut || existing.Linked {
				return &ChannelError{Stage: stage, Channel: name, Kind: ErrDuplicate,
					Detail: fmt.Sprintf("%s %s and %s %s", existing.Dir, existing.Var.TypeString(), c.Dir, c.Var.TypeString())}
			}
			if !existing.Var.Same(c.Var) {
				return &ChannelError{Stage: stage, Channel: name, Kind: ErrTypeMismatch,
					Detail: fmt.Sprintf("vertex out %s, fragment in %s", existing.Var.TypeString(), c.Var.TypeString())}
			}
			existing.Linked = true
			continue
		}
		if s, ok := prog.Struct(c.Var.Type); ok {
			for _, m := range s.Members {
				qualified := name + "." + m.Name
				if _, dup := v.channels[qualified]; dup {
					return &ChannelError{Stage: stage, Channel: qualified, Kind: ErrDuplicate}
				}
				v.add(&Channel{Name: qualified, Dir: c.Dir, Var: m})
			}
			continue
		}
		v.add(&Channel{Name: name, Dir: c.Dir, Var: c.Var})
	}
	return nil
}

func (v *Validator) add(c *Channel) {
	v.channels[c.Name] = c
	v.order = append(v.order, c.Name)
}

// stage attributes a channel to the stage declaring it.
func (v *Validator) stage(name string) Stage {
	if v.vertexDecls[name] {
		return StageVertex
	}
	return StageFragment
}

// Lookup returns the network entry named name.
func (v *Validator) Lookup(name string) (Channel, bool) {
	c, ok := v.channels[name]
	if !ok {
		return Channel{}, false
	}
	return *c, true
}

// Channels returns the network entries in declaration order.
func (v *Validator) Channels() []Channel {
	chans := make([]Channel, len(v.order))
	for i, name := range v.order {
		chans[i] = *v.channels[name]
	}
	return chans
}

// Outputs returns the out channels of the fragment stage.
func (v *Validator) Outputs() []Channel {
	var outs []Channel
	for _, name := range v.order {
		c := v.channels[name]
		if c.Dir == glparse.DirOut && !c.Linked && v.stage(name) == StageFragment {
			outs = append(outs, *c)
		}
	}
	return outs
}

// SetUniform records a uniform value bound to name. If checked is set name must be a
// uniform of the network with the given GLSL type and array-ness.
func (v *Validator) SetUniform(name, glslType string, array, checked bool) error {
	if checked {
		c, ok := v.channels[name]
		if !ok {
			return &ChannelError{Stage: v.stage(name), Channel: name, Kind: ErrNotFound}
		}
		if c.Dir != glparse.DirUniform {
			return &ChannelError{Stage: v.stage(name), Channel: name, Kind: ErrNotUniform}
		}
		if c.Var.Type != glslType {
			return &ChannelError{Stage: v.stage(name), Channel: name, Kind: ErrTypeMismatch,
				Detail: fmt.Sprintf("should be of type %s, got %s", c.Var.Type, glslType)}
		}
		if c.Var.Array != array {
			kind := ErrNotArray
			if !c.Var.Array {
				kind = ErrTypeMismatch
			}
			return &ChannelError{Stage: v.stage(name), Channel: name, Kind: kind}
		}
	}
	v.bound[name] = glparse.DirUniform
	return nil
}

// SetAttribute records an enabled vertex attribute.
func (v *Validator) SetAttribute(name string) {
	v.bound[name] = glparse.DirIn
}

// Reset removes the binding of name. If assertExists is set name must be in the network.
func (v *Validator) Reset(name string, assertExists bool) error {
	if assertExists {
		if _, ok := v.channels[name]; !ok {
			return &ChannelError{Stage: v.stage(name), Channel: name, Kind: ErrNotFound}
		}
	}
	delete(v.bound, name)
	return nil
}

// IsBound reports whether name has a value bound.
func (v *Validator) IsBound(name string) bool {
	_, ok := v.bound[name]
	return ok
}

// CheckInputs verifies every channel that needs a value has one of the right kind.
func (v *Validator) CheckInputs() error {
	for _, name := range v.order {
		c := v.channels[name]
		dir, ok := v.bound[name]
		switch {
		case ok && dir != c.Dir:
			return &ChannelError{Stage: v.stage(name), Channel: name, Kind: ErrWrongKind,
				Detail: fmt.Sprintf("declared %s, bound as %s", c.Dir, dir)}
		case !ok && c.Dir != glparse.DirOut:
			return &ChannelError{Stage: v.stage(name), Channel: name, Kind: ErrMissingInput}
		}
	}
	return nil
}
