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

package crunched_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/tasrun/replay64/crunched"
	"github.com/tasrun/replay64/test"
)

// sparse data with long byte runs, the shape of typical process memory.
func sparse(size int) []byte {
	b := make([]byte, size)
	for i := 0; i < size; i += 64 {
		b[i] = byte(i >> 6)
	}
	return b
}

// pseudo-random bytes defeat both crunching schemes.
func noisy(size int) []byte {
	rnd := rand.New(rand.NewSource(1))
	b := make([]byte, size)
	for i := range b {
		b[i] = byte(rnd.Int())
	}
	return b
}

func testRoundTrip(t *testing.T, factory func(int) crunched.Data) {
	t.Helper()

	const size = 4096

	d := factory(size)
	copy(*d.Data(), sparse(size))

	s := d.Snapshot()
	test.Equate(t, s.IsCrunched(), true)

	uncrunched, current := s.Size()
	test.Equate(t, uncrunched, size)
	if current >= size {
		t.Fatalf("crunched form is no smaller than the original (%d and %d)", current, size)
	}

	// mutating the original after the snapshot must not leak into the copy
	(*d.Data())[100] = 0xff

	test.Equate(t, bytes.Equal(*s.Data(), sparse(size)), true)
	test.Equate(t, s.IsCrunched(), false)

	// a snapshot of a crunched snapshot stays crunched
	s2 := s.Snapshot().Snapshot()
	test.Equate(t, s2.IsCrunched(), true)
	test.Equate(t, bytes.Equal(*s2.Data(), sparse(size)), true)
}

func testIncompressible(t *testing.T, factory func(int) crunched.Data) {
	t.Helper()

	const size = 256

	d := factory(size)
	copy(*d.Data(), noisy(size))

	s := d.Snapshot()
	test.Equate(t, s.IsCrunched(), false)
	test.Equate(t, bytes.Equal(*s.Data(), noisy(size)), true)
}

func TestQuick(t *testing.T) {
	testRoundTrip(t, crunched.NewQuick)
	testIncompressible(t, crunched.NewQuick)
}

func TestPacked(t *testing.T) {
	testRoundTrip(t, crunched.NewPacked)
	testIncompressible(t, crunched.NewPacked)
}
