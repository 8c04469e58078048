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
	"encoding/binary"

	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/layout"
)

// MaxSegments is the maximum number of entries in a segment table.
const MaxSegments = 32

// Error patterns for segment translation. OverlappingSegments is a
// configuration error: segment tables must partition the source space and
// an address matched by two entries means the table is corrupt.
const (
	OverlappingSegments = "segment: overlapping entries contain address %08x"
	TableTooLarge       = "segment: table describes more than %d entries"
)

// Segment maps one range of segmented pointer values to a flat destination.
type Segment struct {
	SrcStart uint32
	SrcEnd   uint32
	DstStart uint32
}

// SegmentTable describes how the segmented pointer values found inside one
// snapshot map to flat addresses. A table belongs to exactly one snapshot.
type SegmentTable struct {
	segments []Segment
}

// Add appends an entry to the table.
func (tbl *SegmentTable) Add(seg Segment) error {
	if len(tbl.segments) >= MaxSegments {
		return curated.Errorf(TableTooLarge, MaxSegments)
	}
	tbl.segments = append(tbl.segments, seg)
	return nil
}

// Len returns the number of entries in the table.
func (tbl SegmentTable) Len() int {
	return len(tbl.segments)
}

// Translate maps a segmented pointer value to a flat address.
//
// Every entry is scanned. An address contained by exactly one entry
// translates to that entry's destination. An address contained by no entry
// is assumed to already be a flat address and is returned unchanged; the
// modeled memory mixes segmented and flat pointers by convention, not by
// any type tag. An address contained by two entries is a fatal
// configuration error.
func (tbl SegmentTable) Translate(addr uint32) (uint32, error) {
	var result uint32
	var matched bool

	for _, seg := range tbl.segments {
		if addr >= seg.SrcStart && addr < seg.SrcEnd {
			if matched {
				return 0, curated.Errorf(OverlappingSegments, addr)
			}
			result = seg.DstStart + (addr - seg.SrcStart)
			matched = true
		}
	}

	if !matched {
		return addr, nil
	}

	return result, nil
}

// names of the fields every segment table struct must declare.
const (
	srcStartField = "srcStart"
	srcEndField   = "srcEnd"
	dstStartField = "dstStart"
)

// readSegmentTable builds the segment table for a snapshot by reading the
// table the simulated process keeps in its own memory. The location is
// named by the layout's SegmentTable hook; an empty hook means the process
// has no segmented pointers and the table is empty.
//
// Entries with a zero-length source range are unused and are skipped.
func readSegmentTable(lay *layout.Layout, buf []byte) (SegmentTable, error) {
	var tbl SegmentTable

	if lay.Hooks.SegmentTable == "" {
		return tbl, nil
	}

	g, err := lay.Global(lay.Hooks.SegmentTable)
	if err != nil {
		return tbl, curated.Errorf("segment: %v", err)
	}

	arr, ok := g.Type.(layout.ArrayType)
	if !ok {
		return tbl, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("segment table global %s is not an array", g.Name))
	}
	ent, ok := arr.Elem.(*layout.StructType)
	if !ok {
		return tbl, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("segment table global %s is not an array of structs", g.Name))
	}

	src, okSrc := ent.Field(srcStartField)
	end, okEnd := ent.Field(srcEndField)
	dst, okDst := ent.Field(dstStartField)
	if !okSrc || !okEnd || !okDst {
		return tbl, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("segment table struct %s is missing a required field", ent.Name))
	}

	if g.Addr < lay.Base || g.Addr+arr.Size() > lay.Base+lay.Size {
		return tbl, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("segment table global %s is outside the writable block", g.Name))
	}

	offset := g.Addr - lay.Base
	for i := 0; i < arr.Length; i++ {
		base := offset + uint32(i)*arr.Stride()
		seg := Segment{
			SrcStart: binary.LittleEndian.Uint32(buf[base+src.Offset:]),
			SrcEnd:   binary.LittleEndian.Uint32(buf[base+end.Offset:]),
			DstStart: binary.LittleEndian.Uint32(buf[base+dst.Offset:]),
		}
		if seg.SrcStart == seg.SrcEnd {
			continue // for loop
		}
		if err := tbl.Add(seg); err != nil {
			return SegmentTable{}, err
		}
	}

	return tbl, nil
}
