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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface.
//
// Curated errors are created with the Errorf() function. It works like
// Errorf() in the fmt package, taking a formatting pattern and placeholder
// values, and returning an error.
//
// The pattern used at creation doubles as the error's identity. The Is()
// function checks whether an error was created from a specific pattern:
//
//	e := curated.Errorf("segment: overlapping ranges: %08x", addr)
//
//	if curated.Is(e, "segment: overlapping ranges: %08x") {
//		fmt.Println("true")
//	}
//
// The Has() function is similar but checks whether the pattern occurs
// anywhere in the error chain, which is useful when a lower-level error has
// been wrapped by an intermediate package:
//
//	e := curated.Errorf("unknown path segment: %s", seg)
//	f := curated.Errorf("timeline: %v", e)
//
//	// Is(f, ...) fails but Has(f, ...) succeeds
//
// The IsAny() function answers whether the error was created by Errorf() at
// all. An uncurated error is by definition unexpected and should be treated
// as such.
//
// The Error() function normalises the error chain, removing duplicate
// adjacent parts. Parts are delimited by the string ": " as suggested on
// p239 of "The Go Programming Language" (Donovan, Kernighan). This means a
// package never needs to worry about wrapping an error that has already
// been wrapped with the same prefix.
//
// Patterns that are used for identity should be stored as const strings,
// suitably named and commented. This package makes no other provision for
// sentinal errors.
package curated
