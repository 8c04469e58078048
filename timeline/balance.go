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

package timeline

import (
	"container/heap"
	"strings"

	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/logger"
	"golang.org/x/exp/slices"
)

// SetHotspot creates or moves a named pin on the timeline. The slot
// placement is not adjusted until the next BalanceDistribution call.
func (tl *Timeline) SetHotspot(name string, frame int) error {
	if frame < 0 || frame >= len(tl.inputs) {
		return curated.Errorf(FrameOutOfRange, frame)
	}
	tl.seq++
	tl.hotspots[name] = hotspot{frame: frame, seq: tl.seq}
	return nil
}

// RemoveHotspot removes a named pin. The slot it governed, if any, becomes
// a candidate for eviction at the next rebalance.
func (tl *Timeline) RemoveHotspot(name string) error {
	if _, ok := tl.hotspots[name]; !ok {
		return curated.Errorf(UnknownHotspot, name)
	}
	delete(tl.hotspots, name)
	return nil
}

// Hotspot returns the frame a named pin is bound to.
func (tl *Timeline) Hotspot(name string) (int, error) {
	h, ok := tl.hotspots[name]
	if !ok {
		return 0, curated.Errorf(UnknownHotspot, name)
	}
	return h.frame, nil
}

// CachedFrames returns the sorted frame indices that are currently
// materialized, including the canonical frame 0.
func (tl *Timeline) CachedFrames() []int {
	frames := make([]int, 0, len(tl.slots)+1)
	frames = append(frames, 0)
	for f := range tl.slots {
		frames = append(frames, f)
	}
	slices.Sort(frames)
	return frames
}

// boundFrames converts a run time budget into a frame distance, using the
// current per-frame cost estimate. A zero estimate means the cost has
// never been measured and every distance is taken to be affordable.
func (tl *Timeline) boundFrames(maxRunTime float64) int {
	if tl.replayCost <= 0 {
		return len(tl.inputs)
	}
	b := int(maxRunTime / tl.replayCost)
	if b < 1 {
		b = 1
	}
	return b
}

// BalanceDistribution recomputes the slot placement policy. Phase one
// guarantees that every hotspot has a materialized predecessor within the
// run time budget, pinning the slots that provide the guarantee. Phase two
// spends the remaining capacity halving the largest gaps between
// materialized frames.
//
// When the pool is too small for every hotspot, the most recently set
// hotspots are served first and the call reports the unserved ones with a
// degraded-guarantee error. The cache stays operational with best-effort
// bounds.
func (tl *Timeline) BalanceDistribution(maxRunTime float64) error {
	bound := tl.boundFrames(maxRunTime)

	tl.pinned = make(map[int]string)

	// most recently set hotspots take capacity first
	order := make([]string, 0, len(tl.hotspots))
	for name := range tl.hotspots {
		order = append(order, name)
	}
	slices.SortFunc(order, func(a, b string) int {
		return int(tl.hotspots[b].seq) - int(tl.hotspots[a].seq)
	})

	var degraded []string

	for _, name := range order {
		h := tl.hotspots[name]

		near := tl.nearest(h.frame)
		if h.frame-near.Frame() <= bound {
			if near.Frame() != 0 {
				tl.pinned[near.Frame()] = name
			}
			continue // for loop
		}

		target := h.frame - bound
		if target <= 0 {
			continue // for loop
		}

		if len(tl.slots) >= tl.capacity && !tl.evictFor(h) {
			degraded = append(degraded, name)
			continue // for loop
		}

		if err := tl.materializeSlot(target); err != nil {
			return err
		}
		tl.pinned[target] = name
	}

	tl.fillGaps(bound)

	// slots not being actively accessed stay crunched
	for _, s := range tl.slots {
		if s != tl.curr {
			s.Crunch()
		}
	}

	logger.Logf("timeline", "rebalance: %d slots, bound %d frames", len(tl.slots), bound)

	if len(degraded) > 0 {
		return curated.Errorf(DegradedBound, strings.Join(degraded, ", "))
	}

	return nil
}

// evictFor frees one slot for a hotspot that needs pinning. Unpinned slots
// go first, starting with the one whose removal widens the timeline
// coverage least. If every slot is pinned, the pinned slot governed by the
// least recently set hotspot is sacrificed, unless the requesting hotspot
// is itself the least recent.
func (tl *Timeline) evictFor(h hotspot) bool {
	// unpinned slot with the smallest preceding gap
	victim := -1
	victimGap := 0
	for _, f := range tl.CachedFrames() {
		if f == 0 {
			continue // for loop
		}
		if _, ok := tl.pinned[f]; ok {
			continue // for loop
		}
		g := f - tl.prevCached(f)
		if victim == -1 || g < victimGap || (g == victimGap && f < victim) {
			victim = f
			victimGap = g
		}
	}
	if victim != -1 {
		delete(tl.slots, victim)
		return true
	}

	// every slot is pinned. sacrifice the least recently set hotspot
	oldest := h
	oldestFrame := -1
	for f, name := range tl.pinned {
		if g, ok := tl.hotspots[name]; ok && g.seq < oldest.seq {
			oldest = g
			oldestFrame = f
		}
	}
	if oldestFrame == -1 {
		return false
	}

	delete(tl.slots, oldestFrame)
	delete(tl.pinned, oldestFrame)
	return true
}

// prevCached returns the nearest materialized frame strictly before the
// given frame.
func (tl *Timeline) prevCached(frame int) int {
	prev := 0
	for f := range tl.slots {
		if f < frame && f > prev {
			prev = f
		}
	}
	return prev
}

// materializeSlot replays to the frame and forces the result into the slot
// pool.
func (tl *Timeline) materializeSlot(frame int) error {
	if frame == 0 {
		return nil
	}
	if _, ok := tl.slots[frame]; ok {
		return nil
	}
	snap, err := tl.materialize(frame)
	if err != nil {
		return err
	}
	tl.slots[frame] = snap
	return nil
}

// a gap between two adjacent materialized frames. end is the next
// materialized frame, or one past the final frame for the tail gap. the
// worst replay distance for any point inside the gap is length()-1.
type gap struct {
	start int
	end   int
}

func (g gap) length() int {
	return g.end - g.start
}

type gapHeap []gap

func (h gapHeap) Len() int { return len(h) }

func (h gapHeap) Less(i, j int) bool {
	if h[i].length() != h[j].length() {
		return h[i].length() > h[j].length()
	}
	return h[i].start < h[j].start
}

func (h gapHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *gapHeap) Push(x interface{}) {
	*h = append(*h, x.(gap))
}

func (h *gapHeap) Pop() interface{} {
	old := *h
	n := len(old)
	g := old[n-1]
	*h = old[:n-1]
	return g
}

// fillGaps spends the remaining slot capacity halving the largest gaps
// between materialized frames. Stops when the pool is full or when replay
// from inside the largest remaining gap is already within the bound.
func (tl *Timeline) fillGaps(bound int) {
	frames := tl.CachedFrames()

	gh := &gapHeap{}
	for i := 1; i < len(frames); i++ {
		heap.Push(gh, gap{start: frames[i-1], end: frames[i]})
	}
	heap.Push(gh, gap{start: frames[len(frames)-1], end: len(tl.inputs)})

	for len(tl.slots) < tl.capacity && gh.Len() > 0 {
		g := heap.Pop(gh).(gap)
		if g.length()-1 <= bound {
			break // for loop
		}

		mid := g.start + g.length()/2
		if err := tl.materializeSlot(mid); err != nil {
			logger.Logf("timeline", "rebalance: %v", err)
			break // for loop
		}

		heap.Push(gh, gap{start: g.start, end: mid})
		heap.Push(gh, gap{start: mid, end: g.end})
	}
}
