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

// Package snapshot implements the materialized copy of simulated memory at
// one frame and the address translation that makes such a copy usable.
//
// A snapshot is a byte-exact copy of the process's writable block. The
// block's canonical virtual address range is declared by the layout
// descriptor; pointer values stored inside the block are virtual addresses
// relative to that canonical range, so any pointer whose target falls
// inside the range must be rebased before it can be followed within the
// copy. Pointers outside the range refer to the immutable static region
// (program code and constants) shared by every snapshot.
//
// The second translation problem is the legacy segmented pointer. Some
// pointer values select a logical segment by address-space convention and
// must be translated through the segment table found inside the snapshot
// itself. The table can change at runtime so it is rebuilt every time a
// snapshot is produced and never shared between snapshots.
//
// All multi-byte values in simulated memory are little-endian.
package snapshot
