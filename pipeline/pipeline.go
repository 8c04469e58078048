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

// Package pipeline is the outward face of the replay cache. It binds the
// timeline, the path resolver and the variable catalogue into the access
// surface the surrounding application works with: frames are read and
// written through named variables or raw paths, and small reflection
// queries describe a variable's shape so a front end can render it without
// hardcoding types.
package pipeline

import (
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru"

	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/datapath"
	"github.com/tasrun/replay64/engine"
	"github.com/tasrun/replay64/layout"
	"github.com/tasrun/replay64/snapshot"
	"github.com/tasrun/replay64/timeline"
)

// Error patterns for the pipeline package.
const (
	UnknownVariable = "pipeline: unknown variable: %s"
	UnknownGroup    = "pipeline: unknown group: %s"
	NotAFlag        = "pipeline: not a flag constant: %s"
)

// number of compiled paths kept by the resolution cache.
const pathCacheSize = 256

// Pipeline is the replay cache facade for one loaded process.
type Pipeline struct {
	tl  *timeline.Timeline
	lay *layout.Layout

	// compiled paths are immutable so cache entries never go stale
	paths *lru.Cache

	cat *catalogue
}

// New is the preferred method of initialisation for the Pipeline type. The
// built-in variable catalogue is loaded; ReadCatalogue replaces it.
func New(eng engine.Engine, lay *layout.Layout, numFrames int, capacity int, factory snapshot.Factory) (*Pipeline, error) {
	tl, err := timeline.New(eng, lay, numFrames, capacity, factory)
	if err != nil {
		return nil, err
	}

	paths, err := lru.New(pathCacheSize)
	if err != nil {
		return nil, curated.Errorf("pipeline: %v", err)
	}

	cat, err := builtinCatalogue()
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		tl:    tl,
		lay:   lay,
		paths: paths,
		cat:   cat,
	}, nil
}

// Timeline returns the underlying replay cache, for operations with no
// pipeline-level equivalent (input editing, diagnostics).
func (p *Pipeline) Timeline() *timeline.Timeline {
	return p.tl
}

// compile returns the compiled form of the path, consulting the cache
// first.
func (p *Pipeline) compile(path string) (*datapath.Path, error) {
	if c, ok := p.paths.Get(path); ok {
		return c.(*datapath.Path), nil
	}
	c, err := datapath.Compile(p.lay, path)
	if err != nil {
		return nil, err
	}
	p.paths.Add(path, c)
	return c, nil
}

// PathAddress resolves a raw path at a frame to a reusable address.
func (p *Pipeline) PathAddress(frame int, path string, q datapath.Qualifiers) (snapshot.Address, error) {
	c, err := p.compile(path)
	if err != nil {
		return snapshot.Address{}, err
	}
	return p.tl.Address(frame, c, q)
}

// PathRead resolves a raw path at a frame and decodes the value it names.
func (p *Pipeline) PathRead(frame int, path string, q datapath.Qualifiers) (datapath.Value, error) {
	c, err := p.compile(path)
	if err != nil {
		return datapath.Value{}, err
	}
	return p.tl.Read(frame, c, q)
}

// PathWrite resolves a raw path at a frame and pokes the value into the
// materialized state.
func (p *Pipeline) PathWrite(frame int, path string, q datapath.Qualifiers, v datapath.Value) error {
	c, err := p.compile(path)
	if err != nil {
		return err
	}
	return p.tl.Write(frame, c, q, v)
}

// Read decodes the value of a variable.
func (p *Pipeline) Read(v Variable) (datapath.Value, error) {
	ent, err := p.cat.entry(v.Name)
	if err != nil {
		return datapath.Value{}, err
	}

	c, err := p.compile(ent.Path)
	if err != nil {
		return datapath.Value{}, err
	}

	val, err := p.tl.Read(v.Frame, c, v.qualifiers())
	if err != nil {
		return datapath.Value{}, err
	}

	if ent.Flag == "" {
		return val, nil
	}

	mask, err := p.flagMask(ent)
	if err != nil {
		return datapath.Value{}, err
	}
	return datapath.BoolValue(uint64(val.Int())&mask != 0), nil
}

// Write pokes a variable's value into the materialized state at the
// variable's frame. Flag variables read-modify-write the underlying
// integer.
func (p *Pipeline) Write(v Variable, val datapath.Value) error {
	ent, err := p.cat.entry(v.Name)
	if err != nil {
		return err
	}

	c, err := p.compile(ent.Path)
	if err != nil {
		return err
	}

	if ent.Flag == "" {
		return p.tl.Write(v.Frame, c, v.qualifiers(), val)
	}

	mask, err := p.flagMask(ent)
	if err != nil {
		return err
	}

	old, err := p.tl.Read(v.Frame, c, v.qualifiers())
	if err != nil {
		return err
	}

	flags := uint64(old.Int())
	if val.Kind() == datapath.KindBool && val.Bool() {
		flags |= mask
	} else {
		flags &^= mask
	}

	return p.tl.Write(v.Frame, c, v.qualifiers(), datapath.IntValue(int64(flags)))
}

func (p *Pipeline) flagMask(ent *entry) (uint64, error) {
	mask, err := p.lay.Constant(ent.Flag)
	if err != nil {
		return 0, curated.Errorf(NotAFlag, ent.Flag)
	}
	return uint64(mask), nil
}

// InsertFrame inserts a frame into the timeline, duplicating the input
// record at the insertion point.
func (p *Pipeline) InsertFrame(frame int) error {
	return p.tl.InsertFrame(frame)
}

// DeleteFrame removes a frame from the timeline.
func (p *Pipeline) DeleteFrame(frame int) error {
	return p.tl.DeleteFrame(frame)
}

// SetHotspot creates or moves a named pin on the timeline.
func (p *Pipeline) SetHotspot(name string, frame int) error {
	return p.tl.SetHotspot(name, frame)
}

// BalanceDistribution recomputes the slot placement for the given run time
// budget.
func (p *Pipeline) BalanceDistribution(maxRunTime float64) error {
	return p.tl.BalanceDistribution(maxRunTime)
}

// CachedFrames returns the sorted frame indices currently materialized.
func (p *Pipeline) CachedFrames() []int {
	return p.tl.CachedFrames()
}

// ObjectBehavior reads the behavior script address of the object in the
// given pool slot.
func (p *Pipeline) ObjectBehavior(frame int, slot int) (uint32, error) {
	path := fmt.Sprintf("%s[%d].%s", p.lay.Hooks.ObjectPool, slot, p.lay.Hooks.ObjectBehavior)
	v, err := p.PathRead(frame, path, datapath.None())
	if err != nil {
		return 0, err
	}
	return v.Address(), nil
}

// BehaviorName returns the display name for a behavior script address. The
// scripting prefix is stripped from the underlying label.
func (p *Pipeline) BehaviorName(addr uint32) (string, error) {
	label, ok := p.lay.Label(addr)
	if !ok {
		return "", curated.Errorf(layout.UnknownSymbol, fmt.Sprintf("%08x", addr))
	}
	if len(label) > 3 && label[:3] == "bhv" {
		label = label[3:]
	}
	return label, nil
}

// DumpLayout renders the full layout descriptor for diagnostics.
func (p *Pipeline) DumpLayout(w io.Writer) {
	p.lay.Dump(w)
}

// SetInput rebinds the input record for a frame.
func (p *Pipeline) SetInput(frame int, inp engine.Input) error {
	return p.tl.SetInput(frame, inp)
}
