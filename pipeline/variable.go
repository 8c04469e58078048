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

package pipeline

import (
	"github.com/tasrun/replay64/datapath"
)

// Variable is a request descriptor: a catalogue name plus the qualifiers
// narrowing which instance of a repeated structure it refers to. Variables
// are values; they own nothing and have no lifecycle.
type Variable struct {
	Name  string
	Frame int

	object   int
	behavior uint32
	surface  int
}

// NewVariable creates a variable request for a catalogue name at a frame,
// with no instance qualifiers.
func NewVariable(name string, frame int) Variable {
	return Variable{
		Name:    name,
		Frame:   frame,
		object:  -1,
		surface: -1,
	}
}

// WithFrame returns a copy of the variable rebound to another frame.
func (v Variable) WithFrame(frame int) Variable {
	v.Frame = frame
	return v
}

// WithObject returns a copy of the variable qualified by an object pool
// slot.
func (v Variable) WithObject(slot int) Variable {
	v.object = slot
	return v
}

// WithObjectBehavior returns a copy of the variable qualified by a
// behavior script address. On its own it selects the single active object
// with that behavior; combined with WithObject it verifies the slot.
func (v Variable) WithObjectBehavior(behavior uint32) Variable {
	v.behavior = behavior
	return v
}

// WithSurface returns a copy of the variable qualified by a surface pool
// index.
func (v Variable) WithSurface(idx int) Variable {
	v.surface = idx
	return v
}

func (v Variable) qualifiers() datapath.Qualifiers {
	q := datapath.None()
	q.Object = v.object
	q.Behavior = v.behavior
	q.Surface = v.surface
	return q
}
