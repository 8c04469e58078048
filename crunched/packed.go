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

import (
	"github.com/klauspost/compress/s2"
)

type packed struct {
	crunched       bool
	data           []byte
	uncrunchedSize int
}

// NewPacked returns an implementation of the Data interface backed by s2
// block compression. Crunching is slower than the quick implementation but
// the crunched form is far smaller for typical process memory.
func NewPacked(size int) Data {
	if size < 4 {
		size = 4
	}
	return &packed{
		data:           make([]byte, size),
		uncrunchedSize: size,
	}
}

// IsCrunched implements the Data interface.
func (c *packed) IsCrunched() bool {
	return c.crunched
}

// Size implements the Data interface.
func (c *packed) Size() (int, int) {
	return c.uncrunchedSize, len(c.data)
}

// Data implements the Data interface.
func (c *packed) Data() *[]byte {
	if c.crunched {
		d, err := s2.Decode(make([]byte, 0, c.uncrunchedSize), c.data)
		if err != nil {
			// the crunched form was produced by this package so a decode
			// failure means memory corruption
			panic(err)
		}
		c.data = d
		c.crunched = false
	}

	return &c.data
}

// Snapshot implements the Data interface.
func (c *packed) Snapshot() Data {
	d := *c

	if d.crunched {
		d.data = append([]byte(nil), c.data...)
		return &d
	}

	d.data = s2.Encode(nil, c.data)
	d.crunched = true

	// very incompressible data can grow under s2 framing. store the plain
	// copy in that case
	if len(d.data) >= c.uncrunchedSize {
		d.data = append([]byte(nil), c.data...)
		d.crunched = false
	}

	return &d
}
