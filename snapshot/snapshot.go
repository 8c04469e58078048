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

package snapshot

import (
	"fmt"

	"github.com/tasrun/replay64/crunched"
	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/layout"
)

// Region distinguishes the two address spaces a resolved address can point
// into.
type Region int

// List of valid Region values.
const (
	// the snapshot's copy of the writable block. the address offset is
	// relative to the start of the snapshot buffer
	Writable Region = iota

	// the immutable static region shared by all snapshots. the address
	// offset is the raw virtual address
	Static
)

func (r Region) String() string {
	if r == Static {
		return "static"
	}
	return "writable"
}

// Address is the opaque result of address resolution. It is valid for the
// snapshot it was resolved against and may be reused for repeated reads on
// that snapshot without re-resolving the path. It does not keep the
// snapshot alive.
type Address struct {
	Region Region
	Offset uint32
}

func (a Address) String() string {
	return fmt.Sprintf("%s+%08x", a.Region, a.Offset)
}

// Factory is the allocator for a snapshot's backing storage. It decides the
// compression scheme for the slot pool.
type Factory func(size int) crunched.Data

// Snapshot is a byte-exact copy of the simulated process's writable memory
// at one frame. A snapshot's frame number is always consistent with the
// inputs that were replayed to produce it.
//
// Snapshots are exclusively owned by the slot pool. A buffer borrowed with
// Bytes() must never be retained past the borrowing call.
type Snapshot struct {
	frame    int
	base     uint32
	size     uint32
	data     crunched.Data
	segments SegmentTable
}

// New is the preferred method of initialisation for the Snapshot type. The
// contents of buf are copied and the segment table is read from the copy;
// buf is not retained.
func New(frame int, lay *layout.Layout, buf []byte, factory Factory) (*Snapshot, error) {
	if uint32(len(buf)) != lay.Size {
		return nil, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("buffer size does not match layout (%d and %d)", len(buf), lay.Size))
	}

	segments, err := readSegmentTable(lay, buf)
	if err != nil {
		return nil, err
	}

	data := factory(len(buf))
	copy(*data.Data(), buf)

	return &Snapshot{
		frame:    frame,
		base:     lay.Base,
		size:     lay.Size,
		data:     data.Snapshot(),
		segments: segments,
	}, nil
}

// Frame returns the frame index the snapshot materializes.
func (s *Snapshot) Frame() int {
	return s.frame
}

// Segments returns the segment table read when the snapshot was produced.
func (s *Snapshot) Segments() SegmentTable {
	return s.segments
}

// Bytes returns the snapshot's backing buffer, decrunching it if necessary.
// The buffer is borrowed; it must not be retained past the call that
// borrowed it.
func (s *Snapshot) Bytes() []byte {
	return *s.data.Data()
}

// Crunch recompresses the backing buffer. Called by the slot pool when the
// snapshot stops being the most recently used slot.
func (s *Snapshot) Crunch() {
	s.data = s.data.Snapshot()
}

// IsCrunched returns true if the backing buffer is currently compressed.
func (s *Snapshot) IsCrunched() bool {
	return s.data.IsCrunched()
}

// StorageSize returns the uncrunched and current byte size of the backing
// buffer.
func (s *Snapshot) StorageSize() (int, int) {
	return s.data.Size()
}

// Contains returns true if ptr falls inside the canonical virtual range of
// the writable block.
func (s *Snapshot) Contains(ptr uint32) bool {
	return ptr >= s.base && ptr < s.base+s.size
}

// Rebase translates a pointer value captured relative to the canonical
// buffer into an address valid for this snapshot. Values inside the
// canonical range rebase to offsets within the snapshot buffer; values
// outside the range point at the immutable static region and are returned
// unchanged.
//
// Rebasing is applied at every dereference and is never cached across
// snapshots. The relocation target changes per slot.
func (s *Snapshot) Rebase(ptr uint32) Address {
	if s.Contains(ptr) {
		return Address{Region: Writable, Offset: ptr - s.base}
	}
	return Address{Region: Static, Offset: ptr}
}

// Resolve translates a pointer value read from this snapshot into a fully
// resolved address: rebasing first and then, for values outside the
// canonical range, segment translation. A translated segment destination is
// itself a canonical virtual address and is rebased in turn.
func (s *Snapshot) Resolve(ptr uint32) (Address, error) {
	if s.Contains(ptr) {
		return Address{Region: Writable, Offset: ptr - s.base}, nil
	}

	flat, err := s.segments.Translate(ptr)
	if err != nil {
		return Address{}, err
	}

	return s.Rebase(flat), nil
}
