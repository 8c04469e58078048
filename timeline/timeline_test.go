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

package timeline_test

import (
	"testing"

	"github.com/tasrun/replay64/crunched"
	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/datapath"
	"github.com/tasrun/replay64/engine"
	"github.com/tasrun/replay64/engine/toy"
	"github.com/tasrun/replay64/test"
	"github.com/tasrun/replay64/timeline"
)

func newTimeline(t *testing.T, numFrames int, capacity int) *timeline.Timeline {
	t.Helper()
	tl, err := timeline.New(toy.NewToy(), toy.Layout(), numFrames, capacity, crunched.NewQuick)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	return tl
}

func compile(t *testing.T, path string) *datapath.Path {
	t.Helper()
	p, err := datapath.Compile(toy.Layout(), path)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return p
}

func TestTimerTracksFrame(t *testing.T) {
	tl := newTimeline(t, 100, 4)
	timer := compile(t, "globalTimer")

	for _, f := range []int{0, 1, 17, 99} {
		v, err := tl.Read(f, timer, datapath.None())
		test.ExpectedSuccess(t, err)
		test.Equate(t, v.Int(), int64(f))
	}

	// out of range either side
	_, err := tl.Read(100, timer, datapath.None())
	test.ExpectedFailure(t, err)
	if !curated.Is(err, timeline.FrameOutOfRange) {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = tl.Read(-1, timer, datapath.None())
	test.ExpectedFailure(t, err)
}

func TestDeterminism(t *testing.T) {
	tl := newTimeline(t, 400, 8)
	tl.SetReplayCost(1)

	posX := compile(t, "mario.pos.x")

	// walk right for a stretch
	for f := 10; f < 50; f++ {
		err := tl.SetInput(f, engine.Input{StickX: 64})
		test.ExpectedSuccess(t, err)
	}

	v1, err := tl.Read(300, posX, datapath.None())
	test.ExpectedSuccess(t, err)

	// rebalancing changes which predecessor serves frame 300. the value
	// must not change with it
	err = tl.SetHotspot("probe", 299)
	test.ExpectedSuccess(t, err)
	err = tl.BalanceDistribution(1)
	test.ExpectedSuccess(t, err)

	v2, err := tl.Read(300, posX, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v1.Float(), v2.Float())

	// repeated reads with no intervening edits
	v3, err := tl.Read(300, posX, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v2.Float(), v3.Float())
}

func TestRoundTrip(t *testing.T) {
	tl := newTimeline(t, 50, 4)

	posY := compile(t, "mario.pos.y")
	airborne := compile(t, "mario.flags.airborne")

	err := tl.Write(20, posY, datapath.None(), datapath.FloatValue(250))
	test.ExpectedSuccess(t, err)

	v, err := tl.Read(20, posY, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Float(), 250.0)

	err = tl.Write(20, airborne, datapath.None(), datapath.BoolValue(true))
	test.ExpectedSuccess(t, err)

	v, err = tl.Read(20, airborne, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Bool(), true)

	// the poke does not rewrite history
	v, err = tl.Read(19, posY, datapath.None())
	test.ExpectedSuccess(t, err)
	test.Equate(t, v.Float(), 0.0)
}

// slots at known frames are arranged by pinning hotspots one frame after
// the wanted slot, with a unit cost and a unit bound.
func placeSlots(t *testing.T, tl *timeline.Timeline, frames []int) {
	t.Helper()

	tl.SetReplayCost(1)
	for _, f := range frames {
		err := tl.SetHotspot("slot"+string(rune('a'+f%26)), f+1)
		test.ExpectedSuccess(t, err)
	}
	err := tl.BalanceDistribution(1)
	test.ExpectedSuccess(t, err)
}

func TestInvalidation(t *testing.T) {
	tl := newTimeline(t, 400, 3)
	placeSlots(t, tl, []int{50, 150, 300})

	got := tl.CachedFrames()
	want := []int{0, 50, 150, 300}
	test.Equate(t, len(got), len(want))
	for i := range want {
		test.Equate(t, got[i], want[i])
	}

	err := tl.InsertFrame(100)
	test.ExpectedSuccess(t, err)
	test.Equate(t, tl.NumFrames(), 401)

	got = tl.CachedFrames()
	want = []int{0, 50}
	test.Equate(t, len(got), len(want))
	for i := range want {
		test.Equate(t, got[i], want[i])
	}

	// deleting at the front leaves only the canonical state
	err = tl.DeleteFrame(10)
	test.ExpectedSuccess(t, err)
	test.Equate(t, len(tl.CachedFrames()), 1)
}

func TestInsertDuplicatesInput(t *testing.T) {
	tl := newTimeline(t, 20, 2)

	err := tl.SetInput(5, engine.Input{Buttons: 0x8000})
	test.ExpectedSuccess(t, err)

	err = tl.InsertFrame(5)
	test.ExpectedSuccess(t, err)

	for _, f := range []int{5, 6} {
		inp, err := tl.Input(f)
		test.ExpectedSuccess(t, err)
		test.Equate(t, int(inp.Buttons), 0x8000)
	}

	err = tl.DeleteFrame(5)
	test.ExpectedSuccess(t, err)
	test.Equate(t, tl.NumFrames(), 20)
}

func TestHotspotBound(t *testing.T) {
	tl := newTimeline(t, 1000, 8)
	tl.SetReplayCost(0.0001)

	err := tl.SetHotspot("start", 0)
	test.ExpectedSuccess(t, err)
	err = tl.SetHotspot("end", 999)
	test.ExpectedSuccess(t, err)

	err = tl.BalanceDistribution(0.05)
	test.ExpectedSuccess(t, err)

	// the bound is 500 frames. both hotspots must have a predecessor
	// within it
	for _, h := range []int{0, 999} {
		nearest := -1
		for _, f := range tl.CachedFrames() {
			if f <= h && f > nearest {
				nearest = f
			}
		}
		if h-nearest > 500 {
			t.Fatalf("hotspot at %d served from %d, outside the bound", h, nearest)
		}
	}

	posX := compile(t, "mario.pos.x")
	_, err = tl.Read(999, posX, datapath.None())
	test.ExpectedSuccess(t, err)
}

func TestDegradedBound(t *testing.T) {
	tl := newTimeline(t, 1000, 1)
	tl.SetReplayCost(1)

	err := tl.SetHotspot("older", 400)
	test.ExpectedSuccess(t, err)
	err = tl.SetHotspot("newer", 800)
	test.ExpectedSuccess(t, err)

	err = tl.BalanceDistribution(1)
	test.ExpectedFailure(t, err)
	if !curated.Is(err, timeline.DegradedBound) {
		t.Fatalf("unexpected error: %v", err)
	}

	// the most recently set hotspot won the capacity
	got := tl.CachedFrames()
	test.Equate(t, len(got), 2)
	test.Equate(t, got[1], 799)
}

func TestPromotion(t *testing.T) {
	tl := newTimeline(t, 400, 4)
	tl.SetReplayCost(1)

	timer := compile(t, "globalTimer")

	// a long replay leaves its result in the pool
	_, err := tl.Read(200, timer, datapath.None())
	test.ExpectedSuccess(t, err)

	found := false
	for _, f := range tl.CachedFrames() {
		if f == 200 {
			found = true
		}
	}
	test.Equate(t, found, true)
}

func TestHotspots(t *testing.T) {
	tl := newTimeline(t, 100, 4)

	err := tl.SetHotspot("a", 10)
	test.ExpectedSuccess(t, err)

	f, err := tl.Hotspot("a")
	test.ExpectedSuccess(t, err)
	test.Equate(t, f, 10)

	err = tl.SetHotspot("a", 20)
	test.ExpectedSuccess(t, err)
	f, err = tl.Hotspot("a")
	test.ExpectedSuccess(t, err)
	test.Equate(t, f, 20)

	err = tl.RemoveHotspot("a")
	test.ExpectedSuccess(t, err)

	err = tl.RemoveHotspot("a")
	test.ExpectedFailure(t, err)
	if !curated.Is(err, timeline.UnknownHotspot) {
		t.Fatalf("unexpected error: %v", err)
	}

	err = tl.SetHotspot("b", 100)
	test.ExpectedFailure(t, err)
	if !curated.Is(err, timeline.FrameOutOfRange) {
		t.Fatalf("unexpected error: %v", err)
	}
}
