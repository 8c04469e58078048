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

// Package engine defines the interface to the simulation engine: the
// opaque, deterministic step function belonging to the loaded binary. The
// engine itself is an external collaborator; this project only schedules
// it.
package engine

// Input is the record that drives one frame transition. It is the only
// input to the transition function besides the state itself.
type Input struct {
	Buttons uint16
	StickX  int8
	StickY  int8
}

// Engine is the deterministic transition function over the simulated
// process's writable memory.
//
// Implementations must be pure with respect to the buffer: repeated calls
// to Advance() with byte-identical buffers and inputs must produce
// byte-identical results, and no call may have effects beyond the buffer.
// The replay cache relies on this completely.
type Engine interface {
	// StateSize returns the size in bytes of the writable memory block.
	// Every buffer passed to the other functions has exactly this length.
	StateSize() int

	// Static returns the virtual base address and contents of the
	// immutable static region (program code and constants). The returned
	// slice must never change.
	Static() (uint32, []byte)

	// InitialState fills buf with the canonical power-on state. Frame 0 is
	// always reconstructable with this function alone.
	InitialState(buf []byte)

	// Advance mutates buf in place by exactly one frame step, driven by
	// the input record.
	Advance(buf []byte, inp Input)
}
