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

package layout_test

import (
	"strings"
	"testing"

	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/layout"
	"github.com/tasrun/replay64/test"
)

func newLayout() *layout.Layout {
	u32 := layout.IntType{Width: 4}
	f32 := layout.FloatType{Width: 4}

	vec := layout.NewStruct("Vec3f", 12).
		AddField("x", 0, f32).
		AddField("y", 4, f32).
		AddField("z", 8, f32)

	player := layout.NewStruct("Player", 0x20).
		AddField("pos", 0x00, vec).
		AddField("action", 0x0c, u32).
		AddField("invulnerable", 0x10, layout.FlagType{Base: u32, Mask: 0x0002})

	lay := layout.NewLayout(0x80000000, 0x1000)
	lay.AddStruct(vec)
	lay.AddStruct(player)
	lay.AddGlobal("timer", 0x80000000, u32)
	lay.AddGlobal("player", 0x80000100, layout.PointerType{Target: player})
	lay.AddConstant("PLAYER_INVULNERABLE", 0x0002)
	lay.AddLabel(0x00400000, "bhvPlayer")

	return lay
}

func TestSymbolLookup(t *testing.T) {
	lay := newLayout()

	g, err := lay.Global("timer")
	test.ExpectedSuccess(t, err)
	test.Equate(t, g.Addr, uint32(0x80000000))
	test.Equate(t, g.Type.String(), "u32")

	_, err = lay.Global("no-such-global")
	test.ExpectedFailure(t, err)
	if !curated.Is(err, layout.UnknownSymbol) {
		t.Errorf("unexpected error: %v", err)
	}

	s, err := lay.Struct("Player")
	test.ExpectedSuccess(t, err)
	test.Equate(t, s.Size(), uint32(0x20))

	f, ok := s.Field("action")
	test.ExpectedSuccess(t, ok)
	test.Equate(t, f.Offset, uint32(0x0c))

	_, ok = s.Field("no-such-field")
	test.ExpectedFailure(t, ok)

	c, err := lay.Constant("PLAYER_INVULNERABLE")
	test.ExpectedSuccess(t, err)
	test.Equate(t, c, int64(0x0002))

	_, err = lay.Constant("NO_SUCH_CONSTANT")
	test.ExpectedFailure(t, err)
	if !curated.Is(err, layout.UnknownConstant) {
		t.Errorf("unexpected error: %v", err)
	}

	l, ok := lay.Label(0x00400000)
	test.ExpectedSuccess(t, ok)
	test.Equate(t, l, "bhvPlayer")

	_, ok = lay.Label(0x00400004)
	test.ExpectedFailure(t, ok)
}

func TestNameEnumeration(t *testing.T) {
	lay := newLayout()

	// enumerations are sorted for stable output
	g := lay.GlobalNames()
	test.Equate(t, len(g), 2)
	test.Equate(t, g[0], "player")
	test.Equate(t, g[1], "timer")

	s := lay.StructNames()
	test.Equate(t, len(s), 2)
	test.Equate(t, s[0], "Player")
	test.Equate(t, s[1], "Vec3f")
}

func TestTypeSizes(t *testing.T) {
	u16 := layout.IntType{Width: 2, Signed: true}
	test.Equate(t, u16.Size(), uint32(2))
	test.Equate(t, u16.String(), "s16")

	p := layout.PointerType{Target: layout.FloatType{Width: 4}}
	test.Equate(t, p.Size(), uint32(layout.PointerSize))

	a := layout.ArrayType{Elem: layout.IntType{Width: 4}, Length: 6}
	test.Equate(t, a.Size(), uint32(24))
	test.Equate(t, a.Stride(), uint32(4))
}

func TestValidate(t *testing.T) {
	lay := newLayout()
	test.ExpectedSuccess(t, lay.Validate())

	// a field extending past the end of its struct is a configuration
	// error
	bad := layout.NewStruct("Bad", 4).
		AddField("wide", 2, layout.IntType{Width: 4})
	lay.AddStruct(bad)

	err := lay.Validate()
	test.ExpectedFailure(t, err)
	if !curated.Is(err, layout.MalformedLayout) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateZeroSize(t *testing.T) {
	lay := layout.NewLayout(0x80000000, 0)
	err := lay.Validate()
	test.ExpectedFailure(t, err)
}

func TestDump(t *testing.T) {
	lay := newLayout()

	s := &strings.Builder{}
	lay.Dump(s)

	for _, want := range []string{
		"struct Player (32 bytes)",
		"80000000 -> timer u32",
		"PLAYER_INVULNERABLE = 0x2",
		"00400000 -> bhvPlayer",
	} {
		if !strings.Contains(s.String(), want) {
			t.Errorf("dump is missing %q", want)
		}
	}
}
