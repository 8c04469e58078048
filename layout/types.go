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
	"fmt"
	"strings"
)

// Type is the interface to every element type that can appear in a layout.
// The set of implementations is closed: IntType, FloatType, FlagType,
// PointerType, ArrayType and StructType.
type Type interface {
	// Size returns the number of bytes the type occupies in simulated
	// memory.
	Size() uint32

	String() string
}

// IntType is an integer of a declared width and signedness.
type IntType struct {
	Width  uint32
	Signed bool
}

// Size implements the Type interface.
func (t IntType) Size() uint32 {
	return t.Width
}

func (t IntType) String() string {
	if t.Signed {
		return fmt.Sprintf("s%d", t.Width*8)
	}
	return fmt.Sprintf("u%d", t.Width*8)
}

// FloatType is a floating point number of a declared width.
type FloatType struct {
	Width uint32
}

// Size implements the Type interface.
func (t FloatType) Size() uint32 {
	return t.Width
}

func (t FloatType) String() string {
	return fmt.Sprintf("f%d", t.Width*8)
}

// FlagType is a single bit-flag within an underlying integer. Reads decode
// to a boolean against the mask and writes set or clear only the masked
// bits.
type FlagType struct {
	Base IntType
	Mask uint64
}

// Size implements the Type interface.
func (t FlagType) Size() uint32 {
	return t.Base.Size()
}

func (t FlagType) String() string {
	return fmt.Sprintf("flag(%s & %#x)", t.Base.String(), t.Mask)
}

// PointerType is a pointer to a value of the target type. All pointers in
// the simulated process are 32 bits wide.
type PointerType struct {
	Target Type
}

// PointerSize is the width in bytes of every pointer in the simulated
// process.
const PointerSize = 4

// Size implements the Type interface.
func (t PointerType) Size() uint32 {
	return PointerSize
}

func (t PointerType) String() string {
	if t.Target == nil {
		return "ptr"
	}
	return fmt.Sprintf("ptr(%s)", t.Target.String())
}

// ArrayType is a fixed-size array of a single element type. Elements are
// tightly packed so the stride is the element size.
type ArrayType struct {
	Elem   Type
	Length int
}

// Size implements the Type interface.
func (t ArrayType) Size() uint32 {
	if t.Elem == nil {
		return 0
	}
	return t.Elem.Size() * uint32(t.Length)
}

// Stride is the distance in bytes between the start of adjacent elements.
func (t ArrayType) Stride() uint32 {
	if t.Elem == nil {
		return 0
	}
	return t.Elem.Size()
}

func (t ArrayType) String() string {
	return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Length)
}

// Field is a single named field within a StructType.
type Field struct {
	Name   string
	Offset uint32
	Type   Type
}

// StructType is a named aggregate of fields. The declared size may be
// larger than the extent of the declared fields, to account for padding and
// for fields the loader chose not to expose.
type StructType struct {
	Name   string
	size   uint32
	fields []Field
	byName map[string]int
}

// NewStruct creates a StructType with the given name and declared size.
// Fields are added with AddField.
func NewStruct(name string, size uint32) *StructType {
	return &StructType{
		Name:   name,
		size:   size,
		byName: make(map[string]int),
	}
}

// AddField appends a field definition to the struct.
func (t *StructType) AddField(name string, offset uint32, typ Type) *StructType {
	t.byName[name] = len(t.fields)
	t.fields = append(t.fields, Field{Name: name, Offset: offset, Type: typ})
	return t
}

// Field returns the named field. The boolean return value indicates whether
// the field exists.
func (t *StructType) Field(name string) (Field, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[idx], true
}

// Fields returns the fields of the struct in declaration order. The
// returned slice must not be modified.
func (t *StructType) Fields() []Field {
	return t.fields
}

// Size implements the Type interface.
func (t *StructType) Size() uint32 {
	return t.size
}

func (t *StructType) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("struct %s", t.Name))
	return s.String()
}
