package glparse

// Direction is the direction of a shader channel.
type Direction uint8

const (
	DirIn Direction = iota + 1
	DirOut
	DirUniform
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirUniform:
		return "uniform"
	}
	return "direction?"
}

// Decl is a top level declaration: [*Struct], [*Channel], [*Define] or [*Procedure].
type Decl interface {
	DeclName() string
	Position() Location
	isDecl()
}

// Variable is a typed name, optionally an array.
type Variable struct {
	Type  string
	Name  string
	Array bool
	Pos   Location
}

// Same reports whether v and w declare the same type, name and array-ness.
func (v Variable) Same(w Variable) bool {
	return v.Type == w.Type && v.Name == w.Name && v.Array == w.Array
}

// TypeString returns the declared type, with a trailing "[]" for arrays.
func (v Variable) TypeString() string {
	if v.Array {
		return v.Type + "[]"
	}
	return v.Type
}

type Struct struct {
	Name    string
	Members []Variable
	Pos     Location
}

// Channel is an in, out or uniform declaration.
type Channel struct {
	Dir  Direction
	Var  Variable
	Flat bool
	// Location is the layout location or -1 if not given.
	Location int
	Pos      Location
}

// Define is a #define pragma. Its replacement is not interpreted.
type Define struct {
	Name  string
	Value string
	Pos   Location
}

// Procedure is a function definition. Its body is skipped.
type Procedure struct {
	ReturnType string
	Name       string
	Pos        Location
}

func (*Struct) isDecl()    {}
func (*Channel) isDecl()   {}
func (*Define) isDecl()    {}
func (*Procedure) isDecl() {}

func (s *Struct) DeclName() string    { return s.Name }
func (c *Channel) DeclName() string   { return c.Var.Name }
func (d *Define) DeclName() string    { return d.Name }
func (p *Procedure) DeclName() string { return p.Name }

func (s *Struct) Position() Location    { return s.Pos }
func (c *Channel) Position() Location   { return c.Pos }
func (d *Define) Position() Location    { return d.Pos }
func (p *Procedure) Position() Location { return p.Pos }

// Program is a parsed shader stage.
type Program struct {
	Version int
	// Profile is the optional profile following the version, i.e. "core".
	Profile string
	Decls   []Decl
}

// Channels returns the channel declarations in source order.
func (p *Program) Channels() []*Channel {
	var chans []*Channel
	for _, d := range p.Decls {
		if c, ok := d.(*Channel); ok {
			chans = append(chans, c)
		}
	}
	return chans
}

// Struct returns the struct declaration named name.
func (p *Program) Struct(name string) (*Struct, bool) {
	for _, d := range p.Decls {
		if s, ok := d.(*Struct); ok && s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Declares reports whether any top level declaration is named name.
func (p *Program) Declares(name string) bool {
	for _, d := range p.Decls {
		if d.DeclName() == name {
			return true
		}
	}
	return false
}
