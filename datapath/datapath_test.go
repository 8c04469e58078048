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

package datapath_test

import (
	"testing"

	"github.com/tasrun/replay64/crunched"
	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/datapath"
	"github.com/tasrun/replay64/engine"
	"github.com/tasrun/replay64/engine/toy"
	"github.com/tasrun/replay64/snapshot"
	"github.com/tasrun/replay64/test"
)

// newTarget builds a target over the toy process, advanced by the given
// number of frames with no controller input.
func newTarget(t *testing.T, frames int) datapath.Target {
	t.Helper()

	eng := toy.NewToy()
	lay := toy.Layout()

	buf := make([]byte, eng.StateSize())
	eng.InitialState(buf)
	for i := 0; i < frames; i++ {
		eng.Advance(buf, engine.Input{})
	}

	snap, err := snapshot.New(frames, lay, buf, crunched.NewQuick)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	base, static := eng.Static()

	return datapath.Target{
		Layout:     lay,
		Snap:       snap,
		StaticBase: base,
		Static:     static,
	}
}

func TestCompileErrors(t *testing.T) {
	lay := toy.Layout()

	_, err := datapath.Compile(lay, "noSuchGlobal")
	test.ExpectedFailure(t, err)
	if !curated.Is(err, datapath.UnknownPathSegment) {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = datapath.Compile(lay, "mario.pos.w")
	test.ExpectedFailure(t, err)
	if !curated.Is(err, datapath.UnknownPathSegment) {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = datapath.Compile(lay, "segmentTable[99].srcStart")
	test.ExpectedFailure(t, err)
	if !curated.Is(err, datapath.IndexOutOfBounds) {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = datapath.Compile(lay, "globalTimer[]")
	test.ExpectedFailure(t, err)
	if !curated.Is(err, datapath.CannotDeref) {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = datapath.Compile(lay, "mario..pos")
	test.ExpectedFailure(t, err)
	if !curated.Is(err, datapath.MalformedPath) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobalRead(t *testing.T) {
	tgt := newTarget(t, 5)

	p, err := datapath.Compile(tgt.Layout, "globalTimer")
	test.ExpectedSuccess(t, err)

	v, err := p.Read(tgt, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Kind().String(), datapath.KindInt.String())
	test.Equate(t, v.Int(), int64(5))
}

// the mario global is a pointer so field access through it exercises the
// implicit dereference.
func TestImplicitDeref(t *testing.T) {
	tgt := newTarget(t, 0)

	p, err := datapath.Compile(tgt.Layout, "mario.pos.x")
	test.ExpectedSuccess(t, err)

	v, err := p.Read(tgt, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Kind().String(), datapath.KindFloat.String())
	test.Equate(t, v.Float(), 0.0)
}

func TestWriteAndReadBack(t *testing.T) {
	tgt := newTarget(t, 0)

	p, err := datapath.Compile(tgt.Layout, "mario.pos.y")
	test.ExpectedSuccess(t, err)

	err = p.Write(tgt, datapath.None(), datapath.FloatValue(123.5))
	test.ExpectedSuccess(t, err)

	v, err := p.Read(tgt, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Float(), 123.5)

	// integer values coerce to the field's float type
	err = p.Write(tgt, datapath.None(), datapath.IntValue(7))
	test.ExpectedSuccess(t, err)

	v, err = p.Read(tgt, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Float(), 7.0)
}

func TestFlagRead(t *testing.T) {
	tgt := newTarget(t, 0)

	p, err := datapath.Compile(tgt.Layout, "mario.flags.airborne")
	test.ExpectedSuccess(t, err)

	v, err := p.Read(tgt, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Kind().String(), datapath.KindBool.String())
	test.Equate(t, v.Bool(), false)

	err = p.Write(tgt, datapath.None(), datapath.BoolValue(true))
	test.ExpectedSuccess(t, err)

	v, err = p.Read(tgt, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Bool(), true)

	// setting the flag must not disturb the other bits of the underlying
	// integer
	action, err := datapath.Compile(tgt.Layout, "mario.action")
	test.ExpectedSuccess(t, err)
	av, err := action.Read(tgt, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, uint32(av.Int()), uint32(0x0c400201))
}

func TestPointerLeaf(t *testing.T) {
	tgt := newTarget(t, 0)

	p, err := datapath.Compile(tgt.Layout, "objectPool[0].behavior")
	test.ExpectedSuccess(t, err)

	v, err := p.Read(tgt, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Kind().String(), datapath.KindAddress.String())

	// the behavior pointer is stored segmented and decodes to the flat
	// address after translation
	test.Equate(t, v.Address(), uint32(toy.BhvMario))

	label, ok := tgt.Layout.Label(v.Address())
	test.Equate(t, ok, true)
	test.Equate(t, label, "bhvMario")
}

func TestObjectQualifierByIndex(t *testing.T) {
	tgt := newTarget(t, 0)

	p, err := datapath.Compile(tgt.Layout, "object.behavior")
	test.ExpectedSuccess(t, err)

	q := datapath.None()
	q.Object = 3
	v, err := p.Read(tgt, q)
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Address(), uint32(toy.BhvCoin))

	// index and behavior together act as a verification
	q.Behavior = toy.BhvGoomba
	_, err = p.Read(tgt, q)
	test.ExpectedFailure(t, err)
	if !curated.Is(err, datapath.QualifierNoMatch) {
		t.Fatalf("unexpected error: %v", err)
	}

	// missing qualifier entirely
	_, err = p.Read(tgt, datapath.None())
	test.ExpectedFailure(t, err)
	if !curated.Is(err, datapath.MissingQualifier) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestObjectQualifierByBehavior(t *testing.T) {
	tgt := newTarget(t, 0)

	p, err := datapath.Compile(tgt.Layout, "object.hitboxRadius")
	test.ExpectedSuccess(t, err)

	// exactly one coin in the pool
	q := datapath.None()
	q.Behavior = toy.BhvCoin
	_, err = p.Read(tgt, q)
	test.ExpectedSuccess(t, err)

	// two goombas in the pool
	q = datapath.None()
	q.Behavior = toy.BhvGoomba
	_, err = p.Read(tgt, q)
	test.ExpectedFailure(t, err)
	if !curated.Is(err, datapath.QualifierAmbiguous) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSurfaceQualifier(t *testing.T) {
	tgt := newTarget(t, 0)

	p, err := datapath.Compile(tgt.Layout, "surface.normal.y")
	test.ExpectedSuccess(t, err)

	q := datapath.None()
	q.Surface = 0
	v, err := p.Read(tgt, q)
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Kind().String(), datapath.KindFloat.String())

	// the allocation count bounds the pool, not the declared array length
	q.Surface = 100
	_, err = p.Read(tgt, q)
	test.ExpectedFailure(t, err)
	if !curated.Is(err, datapath.IndexOutOfBounds) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStaticRegionReadOnly(t *testing.T) {
	tgt := newTarget(t, 0)

	// an explicit dereference of the behavior pointer lands in the static
	// region. reading is fine, writing is not
	p, err := datapath.Compile(tgt.Layout, "object.behavior[]")
	test.ExpectedSuccess(t, err)

	q := datapath.None()
	q.Object = 0

	_, err = p.Read(tgt, q)
	test.ExpectedSuccess(t, err)

	err = p.Write(tgt, q, datapath.IntValue(1))
	test.ExpectedFailure(t, err)
	if !curated.Is(err, datapath.ReadOnlyRegion) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddressReuse(t *testing.T) {
	tgt := newTarget(t, 0)

	p, err := datapath.Compile(tgt.Layout, "mario.vel.y")
	test.ExpectedSuccess(t, err)

	addr, err := p.Address(tgt, datapath.None())
	test.ExpectedSuccess(t, err)

	// repeated access through the resolved address gives the same value
	// as a full resolution
	v1, err := p.ReadResolved(tgt, addr)
	test.ExpectedSuccess(t, err)
	v2, err := p.Read(tgt, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v1.Float(), v2.Float())
}
