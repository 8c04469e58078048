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
	"io"

	"github.com/bradleyjkemp/memviz"
	"golang.org/x/exp/slices"
)

// node types walked by the graph renderer. keeping these separate from the
// Timeline type means the renderer sees a stable shape however the pool is
// implemented.

type graphTimeline struct {
	Frames   int
	Capacity int
	Slots    *graphSlot
	Hotspots []graphHotspot
}

type graphSlot struct {
	Frame    int
	Pinned   string
	Crunched bool
	Next     *graphSlot
}

type graphHotspot struct {
	Name  string
	Frame int
}

// WriteGraph renders the slot and hotspot structure of the timeline as a
// graphviz dot graph. A diagnostic aid; the output is meant for a human
// with a dot renderer, not for parsing.
func (tl *Timeline) WriteGraph(w io.Writer) {
	g := &graphTimeline{
		Frames:   len(tl.inputs),
		Capacity: tl.capacity,
	}

	var tail *graphSlot
	for _, f := range tl.CachedFrames() {
		n := &graphSlot{Frame: f, Pinned: tl.pinned[f]}
		if f == 0 {
			n.Crunched = tl.canonical.IsCrunched()
		} else {
			n.Crunched = tl.slots[f].IsCrunched()
		}
		if tail == nil {
			g.Slots = n
		} else {
			tail.Next = n
		}
		tail = n
	}

	for _, name := range tl.hotspotNames() {
		g.Hotspots = append(g.Hotspots, graphHotspot{Name: name, Frame: tl.hotspots[name].frame})
	}

	memviz.Map(w, g)
}

// hotspotNames returns the hotspot names in the order they were last set.
func (tl *Timeline) hotspotNames() []string {
	names := make([]string, 0, len(tl.hotspots))
	for name := range tl.hotspots {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return int(tl.hotspots[a].seq) - int(tl.hotspots[b].seq)
	})
	return names
}
