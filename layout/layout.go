// This file is part of Replay64.
//
// Replay64 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Replay64 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Replay64.  If not, see <https://www.gnu.org/licenses/>.

package layout

import (
	"github.com/tasrun/replay64/curated"
	"golang.org/x/exp/slices"
)

// Error patterns for the layout package. MalformedLayout is a configuration
// error and is fatal to the operation that triggered it. UnknownSymbol is a
// request error and is recoverable.
const (
	MalformedLayout = "layout: malformed: %v"
	UnknownSymbol   = "layout: unknown symbol: %s"
	UnknownConstant = "layout: unknown constant: %s"
)

// Global binds a root symbol to a virtual address and a type.
type Global struct {
	Name string
	Addr uint32
	Type Type
}

// Hooks names the well-known symbols that the rest of the system locates by
// convention. Fields may be left empty when the corresponding facility does
// not exist in the target binary.
type Hooks struct {
	// global holding the in-memory segment table. the type must be an array
	// of structs with srcStart, srcEnd and dstStart fields
	SegmentTable string

	// global holding the fixed-size array of object structs
	ObjectPool string

	// fields of the object struct used for qualifier resolution
	ObjectBehavior string
	ObjectActive   string

	// name of the constant masking the active bit in the ObjectActive field
	ActiveFlag string

	// pointer global to the surface pool and the integer global counting
	// allocated surfaces
	SurfacePool  string
	SurfaceCount string
}

// Layout is the descriptor for the simulated process's memory. It is built
// once at load time and is immutable afterwards. None of the methods on
// Layout mutate it.
type Layout struct {
	// virtual address range of the writable block that snapshots copy
	Base uint32
	Size uint32

	Hooks Hooks

	structs   map[string]*StructType
	globals   map[string]Global
	constants map[string]int64
	labels    map[uint32]string
}

// NewLayout is the preferred method of initialisation for the Layout type.
// The arguments describe the canonical virtual address range of the
// writable memory block.
func NewLayout(base uint32, size uint32) *Layout {
	return &Layout{
		Base:      base,
		Size:      size,
		structs:   make(map[string]*StructType),
		globals:   make(map[string]Global),
		constants: make(map[string]int64),
		labels:    make(map[uint32]string),
	}
}

// AddStruct registers a struct definition.
func (l *Layout) AddStruct(s *StructType) {
	l.structs[s.Name] = s
}

// AddGlobal registers a root symbol.
func (l *Layout) AddGlobal(name string, addr uint32, typ Type) {
	l.globals[name] = Global{Name: name, Addr: addr, Type: typ}
}

// AddConstant registers a named integer constant.
func (l *Layout) AddConstant(name string, value int64) {
	l.constants[name] = value
}

// AddLabel registers a human-readable label for a raw internal address, for
// example the address of a behavior script.
func (l *Layout) AddLabel(addr uint32, label string) {
	l.labels[addr] = label
}

// Struct returns the named struct definition.
func (l *Layout) Struct(name string) (*StructType, error) {
	s, ok := l.structs[name]
	if !ok {
		return nil, curated.Errorf(UnknownSymbol, name)
	}
	return s, nil
}

// Global returns the named root symbol.
func (l *Layout) Global(name string) (Global, error) {
	g, ok := l.globals[name]
	if !ok {
		return Global{}, curated.Errorf(UnknownSymbol, name)
	}
	return g, nil
}

// Constant returns the value of the named constant.
func (l *Layout) Constant(name string) (int64, error) {
	c, ok := l.constants[name]
	if !ok {
		return 0, curated.Errorf(UnknownConstant, name)
	}
	return c, nil
}

// Label returns the label for a raw internal address. The boolean return
// value indicates whether a label exists for the address.
func (l *Layout) Label(addr uint32) (string, bool) {
	s, ok := l.labels[addr]
	return s, ok
}

// GlobalNames returns the names of all root symbols in sorted order.
func (l *Layout) GlobalNames() []string {
	names := make([]string, 0, len(l.globals))
	for n := range l.globals {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// StructNames returns the names of all struct definitions in sorted order.
func (l *Layout) StructNames() []string {
	names := make([]string, 0, len(l.structs))
	for n := range l.structs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Validate checks the descriptor for internal consistency. A failure is a
// configuration error and means the descriptor must not be used.
func (l *Layout) Validate() error {
	if l.Size == 0 {
		return curated.Errorf(MalformedLayout, "writable block has zero size")
	}

	for _, s := range l.structs {
		for _, f := range s.fields {
			if f.Type == nil {
				return curated.Errorf(MalformedLayout,
					curated.Errorf("field %s.%s has no type", s.Name, f.Name))
			}
			if f.Offset+f.Type.Size() > s.size {
				return curated.Errorf(MalformedLayout,
					curated.Errorf("field %s.%s extends past end of struct", s.Name, f.Name))
			}
		}
	}

	for _, g := range l.globals {
		if g.Type == nil {
			return curated.Errorf(MalformedLayout,
				curated.Errorf("global %s has no type", g.Name))
		}
		if a, ok := g.Type.(ArrayType); ok && a.Length <= 0 {
			return curated.Errorf(MalformedLayout,
				curated.Errorf("global %s is an array of non-positive length", g.Name))
		}
	}

	return nil
}
