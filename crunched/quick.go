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

package crunched

type quick struct {
	crunched       bool
	data           []byte
	uncrunchedSize int
}

// NewQuick returns an implementation of the Data interface that is intended
// to perform quickly on both crunching and decrunching.
//
// For simplicity, the minimum amount of data allocated will be 4 bytes.
func NewQuick(size int) Data {
	if size < 4 {
		size = 4
	}
	return &quick{
		data:           make([]byte, size),
		uncrunchedSize: size,
	}
}

// IsCrunched implements the Data interface.
func (c *quick) IsCrunched() bool {
	return c.crunched
}

// Size implements the Data interface.
func (c *quick) Size() (int, int) {
	return c.uncrunchedSize, len(c.data)
}

// Data implements the Data interface.
func (c *quick) Data() *[]byte {
	if c.crunched {
		// sanity check. the RLE stream is a sequence of byte pairs so the
		// length must be even
		if len(c.data)&0x01 == 0x01 {
			panic("crunched data should have an even number of bytes")
		}

		// keep a reference to the crunched data before creating space for
		// the uncrunched data
		working := c.data
		c.data = make([]byte, c.uncrunchedSize)

		// undo the RLE process
		var idx int
		for i := 0; i < len(working); i += 2 {
			for r := 0; r <= int(working[i+1]); r++ {
				c.data[idx] = working[i]
				idx++
			}
		}

		c.crunched = false
	}

	return &c.data
}

// Snapshot implements the Data interface.
//
// The copy is crunched with a very basic RLE scheme: each byte in the
// stream is followed by a repeat count, with a maximum count of 255. If the
// crunched form would be no smaller than the original the copy is stored
// uncrunched.
func (c *quick) Snapshot() Data {
	d := *c

	if d.crunched {
		d.data = append([]byte(nil), c.data...)
		return &d
	}

	working := make([]byte, d.uncrunchedSize)

	var idx int
	var ct int
	working[idx] = c.data[0]

	// assume crunching succeeds unless told otherwise
	d.crunched = true

	for _, v := range c.data[1:] {
		if v == working[idx] && ct < 255 {
			ct++
			continue
		}

		// two more bytes are about to be added to the crunch stream. check
		// that won't overflow the working array; if it would then the data
		// is incompressible with this scheme
		if idx >= len(working)-2 {
			d.crunched = false
			break // for loop
		}

		idx++
		working[idx] = byte(ct)
		idx++
		working[idx] = v
		ct = 0
	}

	if d.crunched {
		idx++
		working[idx] = byte(ct)
		d.data = working[:idx+1]
	} else {
		d.data = append([]byte(nil), c.data...)
	}

	return &d
}
