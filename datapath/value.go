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

package datapath

import (
	"fmt"
)

// Kind enumerates the forms a decoded value can take. The set is closed;
// callers switch on the kind rather than asking a family of predicates.
type Kind int

// List of valid Kind values.
const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindAddress
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindAddress:
		return "address"
	}
	return "unknown"
}

// Value is a decoded value from simulated memory. Integers of every
// declared width and signedness decode to the Int kind; bit-flags decode to
// the Bool kind; pointer-typed leaves decode to the Address kind, an opaque
// flat address resolvable through the layout's label table.
//
// Value is a pure value type and can be compared with ==.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	addr uint32
}

// IntValue returns a Value of the Int kind.
func IntValue(v int64) Value {
	return Value{kind: KindInt, i: v}
}

// FloatValue returns a Value of the Float kind.
func FloatValue(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

// BoolValue returns a Value of the Bool kind.
func BoolValue(v bool) Value {
	return Value{kind: KindBool, b: v}
}

// AddressValue returns a Value of the Address kind.
func AddressValue(v uint32) Value {
	return Value{kind: KindAddress, addr: v}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Int returns the integer form of the value. Zero for any other kind.
func (v Value) Int() int64 {
	return v.i
}

// Float returns the floating point form of the value. Zero for any other
// kind.
func (v Value) Float() float64 {
	return v.f
}

// Bool returns the boolean form of the value. False for any other kind.
func (v Value) Bool() bool {
	return v.b
}

// Address returns the address form of the value. Zero for any other kind.
func (v Value) Address() uint32 {
	return v.addr
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindAddress:
		return fmt.Sprintf("%08x", v.addr)
	}
	return "?"
}
