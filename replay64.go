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

package main

import (
	"fmt"
	"os"

	"github.com/tasrun/replay64/crunched"
	"github.com/tasrun/replay64/datapath"
	"github.com/tasrun/replay64/engine"
	"github.com/tasrun/replay64/engine/toy"
	"github.com/tasrun/replay64/logger"
	"github.com/tasrun/replay64/modalflag"
	"github.com/tasrun/replay64/pipeline"
	"github.com/tasrun/replay64/snapshot"
	"github.com/tasrun/replay64/statsview"
	"github.com/tasrun/replay64/version"
)

func main() {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.AddSubModes("RUN", "LAYOUT", "GRAPH", "VERSION")

	r, err := md.Parse()
	switch r {
	case modalflag.ParseHelp:
		os.Exit(0)
	case modalflag.ParseError:
		fmt.Printf("* %v\n", err)
		os.Exit(10)
	}

	switch md.Mode() {
	case "RUN":
		err = run(md)
	case "LAYOUT":
		toy.Layout().Dump(os.Stdout)
	case "GRAPH":
		err = graph(md)
	case "VERSION":
		vrs, rev, _ := version.Version()
		fmt.Printf("%s %s (%s)\n", version.ApplicationName, vrs, rev)
	}

	if err != nil {
		fmt.Printf("* %v\n", err)
		os.Exit(10)
	}
}

// factory returns the snapshot storage allocator named on the command
// line.
func factory(packed bool) snapshot.Factory {
	if packed {
		return crunched.NewPacked
	}
	return crunched.NewQuick
}

// run drives the toy process through a scripted timeline and reports how
// the slot pool settles around the hotspots.
func run(md *modalflag.Modes) error {
	md.NewMode()
	frames := md.AddInt("frames", 1000, "length of the timeline")
	capacity := md.AddInt("capacity", 8, "slot pool capacity")
	budget := md.AddFloat64("budget", 0.05, "recomputation budget in seconds")
	packed := md.AddBool("packed", false, "s2-compress cold slots")
	stats := md.AddBool("stats", false, "run stats server")
	echo := md.AddBool("log", false, "echo log to stderr")

	r, err := md.Parse()
	switch r {
	case modalflag.ParseHelp:
		return nil
	case modalflag.ParseError:
		return err
	}

	if *echo {
		logger.SetEcho(os.Stderr)
	}
	if *stats {
		if !statsview.Available() {
			return fmt.Errorf("no stats server in this build (rebuild with the statsview constraint)")
		}
		statsview.Launch(os.Stdout)
	}

	p, err := pipeline.New(toy.NewToy(), toy.Layout(), *frames, *capacity, factory(*packed))
	if err != nil {
		return err
	}

	// walk forward and hop every second or so
	for f := 0; f < *frames; f++ {
		inp := engine.Input{StickY: 70}
		if f%30 == 29 {
			inp.Buttons = 0x8000
		}
		if err := p.SetInput(f, inp); err != nil {
			return err
		}
	}

	last := *frames - 1
	if err := p.SetHotspot("start", 0); err != nil {
		return err
	}
	if err := p.SetHotspot("end", last); err != nil {
		return err
	}

	// a first pass over the whole timeline measures the replay cost
	if _, err := p.PathRead(last, "mario.pos.z", datapath.None()); err != nil {
		return err
	}
	fmt.Printf("replay cost: %.2fus per frame\n", p.Timeline().ReplayCost()*1e6)

	fmt.Printf("cached frames before rebalance: %v\n", p.CachedFrames())
	if err := p.BalanceDistribution(*budget); err != nil {
		return err
	}
	fmt.Printf("cached frames after rebalance:  %v\n", p.CachedFrames())

	for _, name := range []string{"mario-pos-z", "mario-pos-y", "mario-action", "global-timer"} {
		v, err := p.Read(pipeline.NewVariable(name, last))
		if err != nil {
			return err
		}
		label, err := p.Label(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s @ %d: %s\n", label, last, v.String())
	}

	// object census at the final frame
	for slot := 0; ; slot++ {
		b, err := p.ObjectBehavior(last, slot)
		if err != nil {
			break // for loop
		}
		if b == 0 {
			continue // for loop
		}
		name, err := p.BehaviorName(b)
		if err != nil {
			name = fmt.Sprintf("%08x", b)
		}
		fmt.Printf("object %d: %s\n", slot, name)
	}

	return nil
}

// graph writes the timeline slot structure as a dot graph, after a
// rebalance over a scripted timeline.
func graph(md *modalflag.Modes) error {
	md.NewMode()
	frames := md.AddInt("frames", 1000, "length of the timeline")
	capacity := md.AddInt("capacity", 8, "slot pool capacity")
	budget := md.AddFloat64("budget", 0.05, "recomputation budget in seconds")

	r, err := md.Parse()
	switch r {
	case modalflag.ParseHelp:
		return nil
	case modalflag.ParseError:
		return err
	}

	p, err := pipeline.New(toy.NewToy(), toy.Layout(), *frames, *capacity, crunched.NewQuick)
	if err != nil {
		return err
	}

	last := *frames - 1
	if err := p.SetHotspot("end", last); err != nil {
		return err
	}
	if _, err := p.PathRead(last, "globalTimer", datapath.None()); err != nil {
		return err
	}
	if err := p.BalanceDistribution(*budget); err != nil {
		return err
	}

	p.Timeline().WriteGraph(os.Stdout)

	return nil
}
