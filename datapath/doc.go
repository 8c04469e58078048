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

// Package datapath resolves symbolic paths into addresses and typed values
// within a snapshot.
//
// A path names one field of simulated memory:
//
//	mario.pos.x
//	objectPool[3].behaviorSeg
//	surfacePool[].normal.y
//	object.oPosX
//
// The first segment is a global symbol from the layout descriptor, or one
// of the pseudo-roots "object" and "surface" whose base address is supplied
// at resolution time by a qualifier. Subsequent segments are struct field
// lookups, bounds-checked array indices, or pointer dereferences. A bare
// "[]" dereferences a pointer explicitly; accessing a field through a
// pointer dereferences it implicitly.
//
// Paths are compiled once against the layout descriptor and can then be
// resolved against any snapshot. Every dereference applies self-pointer
// rebasing and segment translation for the specific snapshot in hand, so
// nothing about a resolution is ever cached across snapshots.
//
// Buffers reached through a Target are borrowed for the duration of a
// single call.
package datapath
