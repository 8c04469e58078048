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

package curated_test

import (
	"errors"
	"testing"

	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/test"
)

const testPattern = "test error: %s"
const wrapPattern = "wrapping error: %v"

func TestIdentity(t *testing.T) {
	e := curated.Errorf(testPattern, "foo")
	test.Equate(t, e.Error(), "test error: foo")

	test.Equate(t, curated.IsAny(e), true)
	test.Equate(t, curated.Is(e, testPattern), true)
	test.Equate(t, curated.Is(e, wrapPattern), false)

	// plain errors are not curated
	p := errors.New("test error: foo")
	test.Equate(t, curated.IsAny(p), false)
	test.Equate(t, curated.Is(p, testPattern), false)

	test.Equate(t, curated.IsAny(nil), false)
	test.Equate(t, curated.Is(nil, testPattern), false)
	test.Equate(t, curated.Has(nil, testPattern), false)
}

func TestChains(t *testing.T) {
	inner := curated.Errorf(testPattern, "foo")
	outer := curated.Errorf(wrapPattern, inner)

	test.Equate(t, outer.Error(), "wrapping error: test error: foo")

	// Is() matches the outermost pattern only. Has() searches the chain
	test.Equate(t, curated.Is(outer, testPattern), false)
	test.Equate(t, curated.Has(outer, testPattern), true)
	test.Equate(t, curated.Has(outer, wrapPattern), true)
	test.Equate(t, curated.Has(inner, wrapPattern), false)
}

func TestDeduplication(t *testing.T) {
	inner := curated.Errorf("error: %s", "foo")
	outer := curated.Errorf("error: %v", inner)

	// adjacent duplicate parts collapse in the message
	test.Equate(t, outer.Error(), "error: foo")
}
