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

// Package layout describes the memory of a simulated process. The layout
// descriptor is built once by an external loader from the target binary's
// own metadata and is immutable from then on. Everything else in the
// project treats it as a read-only reference.
//
// A layout is a collection of struct definitions, global symbols (name to
// virtual address and type), integer constants and a label table mapping
// raw internal addresses to human-readable names. The label table is only
// ever used for display.
//
// Types are represented by the closed set of implementations of the Type
// interface: IntType, FloatType, FlagType, PointerType, ArrayType and
// StructType. Decoding of actual bytes is the responsibility of the
// datapath package.
//
// The Hooks struct names the small number of well-known symbols that the
// rest of the system needs to locate by convention rather than by request:
// the in-memory segment table and the object/surface pools used for
// qualifier resolution.
package layout
