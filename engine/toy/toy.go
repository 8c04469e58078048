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

// Package toy is a small deterministic simulation engine with the memory
// conventions of the real target: a flat writable block at a canonical
// virtual base, self-referencing pointers, a segment table kept in the
// block itself and segmented behavior pointers into a static region.
//
// The real engine is an external collaborator loaded from the target
// binary. The toy engine exists so the rest of the project can test and
// demonstrate itself without one.
package toy

import (
	"encoding/binary"
	"math"

	"github.com/tasrun/replay64/engine"
)

// canonical virtual addresses of the two memory regions.
const (
	WritableBase = 0x80000000
	WritableSize = 0x0800
	StaticBase   = 0x00400000
	staticSize   = 0x40
)

// offsets of the globals within the writable block.
const (
	timerOffset        = 0x0000
	controllerOffset   = 0x0004
	marioPtrOffset     = 0x0008
	surfacePoolOffset  = 0x000c
	surfaceCountOffset = 0x0010
	segmentTableOffset = 0x0020
	marioOffset        = 0x0200
	objectPoolOffset   = 0x0280
	surfaceDataOffset  = 0x0400
)

// layout of the mario struct.
const (
	marioStructSize = 0x40
	marioPos        = 0x00
	marioVel        = 0x0c
	marioForwardVel = 0x18
	marioAction     = 0x1c
	marioFlags      = 0x20
)

// layout of the object struct and the size of the object pool.
const (
	objectStructSize = 0x30
	objectCount      = 6
	objActiveFlags   = 0x00
	objBehaviorSeg   = 0x04
	objPos           = 0x08
	objVel           = 0x14
	objHitboxRadius  = 0x20
	objHitboxHeight  = 0x24
)

// layout of the surface struct and the size of the surface pool.
const (
	surfaceStructSize = 0x20
	surfaceCount      = 3
	surfVertex1       = 0x00
	surfVertex2       = 0x06
	surfVertex3       = 0x0c
	surfNormal        = 0x14
)

// segmented addresses of the behavior scripts and the segments that map
// them.
const (
	segmentEntries = 32

	behaviorSegBase = 0x13000000
	behaviorSegEnd  = 0x13001000
	surfaceSegBase  = 0x04000000
	surfaceSegEnd   = 0x04001000

	bhvMarioSeg  = behaviorSegBase + 0x00
	bhvGoombaSeg = behaviorSegBase + 0x10
	bhvCoinSeg   = behaviorSegBase + 0x20
)

// flat addresses of the behavior scripts, after segment translation.
const (
	BhvMario  = StaticBase + 0x00
	BhvGoomba = StaticBase + 0x10
	BhvCoin   = StaticBase + 0x20
)

// values used by the constants table and by Advance().
const (
	buttonA          = 0x8000
	buttonB          = 0x4000
	buttonZ          = 0x2000
	buttonStart      = 0x1000
	activeFlagActive = 0x01
	marioFlagAir     = 0x01
	actIdle          = 0x0c400201
	actJump          = 0x03000880
)

// Toy is an implementation of the engine.Engine interface.
type Toy struct {
	static []byte
}

// NewToy is the preferred method of initialisation for the Toy type.
func NewToy() *Toy {
	t := &Toy{
		static: make([]byte, staticSize),
	}

	// each behavior script begins with an object-list header command: the
	// top byte is the begin opcode (zero) and the next two bytes name the
	// object list
	binary.LittleEndian.PutUint32(t.static[0x00:], 0x00000000)
	binary.LittleEndian.PutUint32(t.static[0x10:], 0x00040000)
	binary.LittleEndian.PutUint32(t.static[0x20:], 0x00060000)

	return t
}

// StateSize implements the engine.Engine interface.
func (t *Toy) StateSize() int {
	return WritableSize
}

// Static implements the engine.Engine interface.
func (t *Toy) Static() (uint32, []byte) {
	return StaticBase, t.static
}

// InitialState implements the engine.Engine interface.
func (t *Toy) InitialState(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}

	// self-referencing pointers, stored relative to the canonical base
	w32(buf, marioPtrOffset, WritableBase+marioOffset)
	w32(buf, surfacePoolOffset, WritableBase+surfaceDataOffset)
	w32(buf, surfaceCountOffset, surfaceCount)

	// segment table. segment 0x13 maps behavior scripts into the static
	// region; segment 0x04 maps surface data into the writable block
	w32(buf, segmentTableOffset+0, behaviorSegBase)
	w32(buf, segmentTableOffset+4, behaviorSegEnd)
	w32(buf, segmentTableOffset+8, StaticBase)
	w32(buf, segmentTableOffset+12, surfaceSegBase)
	w32(buf, segmentTableOffset+16, surfaceSegEnd)
	w32(buf, segmentTableOffset+20, WritableBase+surfaceDataOffset)

	w32(buf, marioOffset+marioAction, actIdle)

	// object 0 is mario's object. objects 1 and 2 are goombas, object 3 is
	// a coin and the remaining slots are inactive
	behaviors := []uint32{bhvMarioSeg, bhvGoombaSeg, bhvGoombaSeg, bhvCoinSeg}
	for i, b := range behaviors {
		o := objectPoolOffset + i*objectStructSize
		w32(buf, o+objActiveFlags, activeFlagActive)
		w32(buf, o+objBehaviorSeg, b)
		wf32(buf, o+objPos+0, float32(100*(i+1)))
		wf32(buf, o+objPos+8, float32(-100*(i+1)))
		wf32(buf, o+objVel+0, float32(i+1))
		wf32(buf, o+objHitboxRadius, 37)
		wf32(buf, o+objHitboxHeight, 100)
	}

	// a floor triangle and two walls
	for i := 0; i < surfaceCount; i++ {
		s := surfaceDataOffset + i*surfaceStructSize
		w16(buf, s+surfVertex1, uint16(i*100))
		w16(buf, s+surfVertex2+2, 200)
		w16(buf, s+surfVertex3+4, 300)
		if i == 0 {
			wf32(buf, s+surfNormal+4, 1) // floor
		} else {
			wf32(buf, s+surfNormal, 1) // wall
		}
	}
}

// Advance implements the engine.Engine interface.
func (t *Toy) Advance(buf []byte, inp engine.Input) {
	w32(buf, timerOffset, r32(buf, timerOffset)+1)

	// latch the input record into the controller global
	w16(buf, controllerOffset, inp.Buttons)
	buf[controllerOffset+2] = byte(inp.StickX)
	buf[controllerOffset+3] = byte(inp.StickY)

	// mario physics. the mario struct is reached through its own pointer,
	// the same way game code would reach it
	m := int(r32(buf, marioPtrOffset) - WritableBase)

	velX := float32(inp.StickX) * 0.25
	velY := rf32(buf, m+marioVel+4)
	velZ := float32(inp.StickY) * 0.25

	posY := rf32(buf, m+marioPos+4)
	grounded := posY <= 0

	if inp.Buttons&buttonA == buttonA && grounded {
		velY = 8
	} else {
		velY -= 1.5
	}

	posX := rf32(buf, m+marioPos+0) + velX
	posY += velY
	posZ := rf32(buf, m+marioPos+8) + velZ

	if posY < 0 {
		posY = 0
		velY = 0
	}

	wf32(buf, m+marioPos+0, posX)
	wf32(buf, m+marioPos+4, posY)
	wf32(buf, m+marioPos+8, posZ)
	wf32(buf, m+marioVel+0, velX)
	wf32(buf, m+marioVel+4, velY)
	wf32(buf, m+marioVel+8, velZ)
	wf32(buf, m+marioForwardVel, float32(math.Sqrt(float64(velX*velX+velZ*velZ))))

	flags := r32(buf, m+marioFlags)
	if posY > 0 {
		flags |= marioFlagAir
		w32(buf, m+marioAction, actJump)
	} else {
		flags &^= marioFlagAir
		w32(buf, m+marioAction, actIdle)
	}
	w32(buf, m+marioFlags, flags)

	// objects drift and bounce off the arena bounds
	for i := 0; i < objectCount; i++ {
		o := objectPoolOffset + i*objectStructSize
		if r32(buf, o+objActiveFlags)&activeFlagActive != activeFlagActive {
			continue // for loop
		}
		for axis := 0; axis < 12; axis += 4 {
			pos := rf32(buf, o+objPos+axis) + rf32(buf, o+objVel+axis)
			if pos > 1000 || pos < -1000 {
				wf32(buf, o+objVel+axis, -rf32(buf, o+objVel+axis))
			}
			wf32(buf, o+objPos+axis, pos)
		}
	}
}

func r32(buf []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buf[offset:])
}

func w32(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:], v)
}

func w16(buf []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(buf[offset:], v)
}

func rf32(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func wf32(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
}
