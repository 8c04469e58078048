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

// Package timeline is the replay cache at the centre of the system. It
// owns the editable input timeline, a bounded pool of frame snapshots and
// the hotspot set, and it reconstructs any frame's memory on demand by
// replaying forward from the nearest materialized predecessor.
//
// The timeline is a single-writer object. Concurrent access must be
// serialized by the caller.
package timeline

import (
	"time"

	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/datapath"
	"github.com/tasrun/replay64/engine"
	"github.com/tasrun/replay64/layout"
	"github.com/tasrun/replay64/logger"
	"github.com/tasrun/replay64/snapshot"
)

// Error patterns for the timeline package.
const (
	FrameOutOfRange = "timeline: frame out of range: %d"
	DegradedBound   = "timeline: cannot satisfy bound for hotspot: %s"
	UnknownHotspot  = "timeline: unknown hotspot: %s"
)

// a replay longer than this many frames promotes its result into the slot
// pool, if there is spare capacity. keeps pathological access patterns
// from replaying the same long stretch over and over between rebalances.
const promoteSpan = 64

// weight of the most recent measurement in the replay cost average.
const costWeight = 0.3

type hotspot struct {
	frame int

	// monotonic count of SetHotspot calls. the eviction tie-break under
	// capacity pressure is the hotspot with the lowest seq
	seq uint64
}

// Timeline is the replay cache for one edited input sequence.
type Timeline struct {
	eng     engine.Engine
	lay     *layout.Layout
	factory snapshot.Factory

	staticBase uint32
	static     []byte

	// inputs[f] drives the transition from frame f to frame f+1. the
	// timeline covers frames 0 to len(inputs)-1
	inputs []engine.Input

	// the power-on state. reconstructable without any prior slot, never
	// evicted and never invalidated
	canonical *snapshot.Snapshot

	// materialized non-zero frames. len(slots) never exceeds capacity
	slots    map[int]*snapshot.Snapshot
	capacity int

	// frame -> governing hotspot name, rebuilt on every rebalance
	pinned map[int]string

	hotspots map[string]hotspot
	seq      uint64

	// the most recent materialization that is not in the slot pool. used
	// for repeated access to the same frame but never as a replay
	// predecessor, so that a direct memory poke at one frame cannot leak
	// into the reconstruction of later frames
	curr *snapshot.Snapshot

	scratch []byte

	// seconds per replayed frame, exponentially weighted
	replayCost   float64
	costOverride bool
}

// New is the preferred method of initialisation for the Timeline type.
// The timeline starts with numFrames copies of the zero input record and a
// slot pool of the given capacity. Frame 0 is materialized immediately.
func New(eng engine.Engine, lay *layout.Layout, numFrames int, capacity int, factory snapshot.Factory) (*Timeline, error) {
	if numFrames < 1 {
		return nil, curated.Errorf(FrameOutOfRange, numFrames)
	}

	tl := &Timeline{
		eng:      eng,
		lay:      lay,
		factory:  factory,
		inputs:   make([]engine.Input, numFrames),
		slots:    make(map[int]*snapshot.Snapshot),
		capacity: capacity,
		pinned:   make(map[int]string),
		hotspots: make(map[string]hotspot),
		scratch:  make([]byte, eng.StateSize()),
	}

	tl.staticBase, tl.static = eng.Static()

	eng.InitialState(tl.scratch)
	canonical, err := snapshot.New(0, lay, tl.scratch, factory)
	if err != nil {
		return nil, err
	}
	tl.canonical = canonical

	return tl, nil
}

// NumFrames returns the number of frames in the timeline.
func (tl *Timeline) NumFrames() int {
	return len(tl.inputs)
}

// Input returns the input record bound to the frame.
func (tl *Timeline) Input(frame int) (engine.Input, error) {
	if frame < 0 || frame >= len(tl.inputs) {
		return engine.Input{}, curated.Errorf(FrameOutOfRange, frame)
	}
	return tl.inputs[frame], nil
}

// SetInput rebinds the input record that drives the transition out of the
// frame. Every slot after the frame is invalidated.
func (tl *Timeline) SetInput(frame int, inp engine.Input) error {
	if frame < 0 || frame >= len(tl.inputs) {
		return curated.Errorf(FrameOutOfRange, frame)
	}
	tl.inputs[frame] = inp
	tl.invalidate(frame + 1)
	return nil
}

// InsertFrame inserts a new frame at the given index, duplicating the
// input record already there. Subsequent frames shift up by one and every
// slot at or after the edit point is invalidated.
func (tl *Timeline) InsertFrame(frame int) error {
	if frame < 0 || frame >= len(tl.inputs) {
		return curated.Errorf(FrameOutOfRange, frame)
	}

	tl.inputs = append(tl.inputs, engine.Input{})
	copy(tl.inputs[frame+1:], tl.inputs[frame:])
	tl.invalidate(frame)

	logger.Logf("timeline", "insert at frame %d (%d frames)", frame, len(tl.inputs))

	return nil
}

// DeleteFrame removes the frame at the given index. Subsequent frames
// shift down by one and every slot at or after the edit point is
// invalidated. The last remaining frame cannot be deleted.
func (tl *Timeline) DeleteFrame(frame int) error {
	if frame < 0 || frame >= len(tl.inputs) || len(tl.inputs) == 1 {
		return curated.Errorf(FrameOutOfRange, frame)
	}

	tl.inputs = append(tl.inputs[:frame], tl.inputs[frame+1:]...)
	tl.invalidate(frame)

	logger.Logf("timeline", "delete at frame %d (%d frames)", frame, len(tl.inputs))

	return nil
}

// invalidate evicts every slot whose frame index is at or after the edit
// point. The canonical frame-0 state is kept whatever the edit point.
func (tl *Timeline) invalidate(frame int) {
	for f := range tl.slots {
		if f >= frame {
			delete(tl.slots, f)
			delete(tl.pinned, f)
		}
	}
	if tl.curr != nil && tl.curr.Frame() >= frame {
		tl.curr = nil
	}
}

// nearest returns the materialized predecessor to use as the replay start
// point for the frame. The canonical frame-0 state is the fallback.
func (tl *Timeline) nearest(frame int) *snapshot.Snapshot {
	src := tl.canonical
	for f, s := range tl.slots {
		if f <= frame && f > src.Frame() {
			src = s
		}
	}
	return src
}

// materialize reconstructs the state at the frame, replaying forward from
// the nearest materialized predecessor if the frame itself is not in the
// pool.
func (tl *Timeline) materialize(frame int) (*snapshot.Snapshot, error) {
	if frame < 0 || frame >= len(tl.inputs) {
		return nil, curated.Errorf(FrameOutOfRange, frame)
	}

	if tl.curr != nil && tl.curr.Frame() == frame {
		return tl.curr, nil
	}
	if frame == 0 {
		return tl.canonical, nil
	}
	if s, ok := tl.slots[frame]; ok {
		return s, nil
	}

	src := tl.nearest(frame)
	copy(tl.scratch, src.Bytes())
	src.Crunch()

	span := frame - src.Frame()
	start := time.Now()
	for f := src.Frame(); f < frame; f++ {
		tl.eng.Advance(tl.scratch, tl.inputs[f])
	}
	tl.measure(time.Since(start), span)

	snap, err := snapshot.New(frame, tl.lay, tl.scratch, tl.factory)
	if err != nil {
		return nil, err
	}

	if tl.curr != nil {
		tl.curr.Crunch()
	}
	tl.curr = snap

	if span >= promoteSpan && len(tl.slots) < tl.capacity {
		tl.slots[frame] = snap
	}

	return snap, nil
}

// measure folds a replay run into the per-frame cost estimate.
func (tl *Timeline) measure(dt time.Duration, frames int) {
	if tl.costOverride || frames == 0 {
		return
	}
	c := dt.Seconds() / float64(frames)
	if tl.replayCost == 0 {
		tl.replayCost = c
		return
	}
	tl.replayCost = costWeight*c + (1-costWeight)*tl.replayCost
}

// ReplayCost returns the current per-frame replay cost estimate in
// seconds.
func (tl *Timeline) ReplayCost() float64 {
	return tl.replayCost
}

// SetReplayCost replaces the measured per-frame cost estimate with a fixed
// value. Subsequent replays will not update the estimate.
func (tl *Timeline) SetReplayCost(c float64) {
	tl.replayCost = c
	tl.costOverride = true
}

// target builds a path resolution target over the snapshot.
func (tl *Timeline) target(snap *snapshot.Snapshot) datapath.Target {
	return datapath.Target{
		Layout:     tl.lay,
		Snap:       snap,
		StaticBase: tl.staticBase,
		Static:     tl.static,
	}
}

// Read reconstructs the state at the frame and decodes the value the path
// names.
func (tl *Timeline) Read(frame int, p *datapath.Path, q datapath.Qualifiers) (datapath.Value, error) {
	snap, err := tl.materialize(frame)
	if err != nil {
		return datapath.Value{}, err
	}
	return p.Read(tl.target(snap), q)
}

// Write reconstructs the state at the frame and stores the value at the
// field the path names. The write is a direct memory poke: it changes the
// materialized buffer for this frame only and does not rewrite history. If
// the poked frame is a pooled slot, replays that start from it will see
// the change; a poke to an unpooled frame is visible only to access at
// that exact frame.
func (tl *Timeline) Write(frame int, p *datapath.Path, q datapath.Qualifiers, v datapath.Value) error {
	snap, err := tl.materialize(frame)
	if err != nil {
		return err
	}
	return p.Write(tl.target(snap), q, v)
}

// Address reconstructs the state at the frame and resolves the path to a
// reusable address.
func (tl *Timeline) Address(frame int, p *datapath.Path, q datapath.Qualifiers) (snapshot.Address, error) {
	snap, err := tl.materialize(frame)
	if err != nil {
		return snapshot.Address{}, err
	}
	return p.Address(tl.target(snap), q)
}

// BorrowFrame reconstructs the state at the frame and hands the raw buffer
// to the supplied function. The buffer is borrowed for the duration of the
// call only.
func (tl *Timeline) BorrowFrame(frame int, f func(*snapshot.Snapshot) error) error {
	snap, err := tl.materialize(frame)
	if err != nil {
		return err
	}
	return f(snap)
}
