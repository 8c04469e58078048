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

package toy

import (
	"github.com/tasrun/replay64/layout"
)

// Layout returns the descriptor for the toy engine's memory. A real engine
// has its descriptor built by the external loader from the binary's own
// metadata; the toy engine declares its own.
func Layout() *layout.Layout {
	lay := layout.NewLayout(WritableBase, WritableSize)

	u16 := layout.IntType{Width: 2}
	u32 := layout.IntType{Width: 4}
	s8 := layout.IntType{Width: 1, Signed: true}
	s16 := layout.IntType{Width: 2, Signed: true}
	f32 := layout.FloatType{Width: 4}

	vec3f := layout.NewStruct("Vec3f", 12).
		AddField("x", 0, f32).
		AddField("y", 4, f32).
		AddField("z", 8, f32)

	controller := layout.NewStruct("Controller", 4).
		AddField("button", 0, u16).
		AddField("stickX", 2, s8).
		AddField("stickY", 3, s8)

	segment := layout.NewStruct("SegmentEntry", 12).
		AddField("srcStart", 0, u32).
		AddField("srcEnd", 4, u32).
		AddField("dstStart", 8, u32)

	mario := layout.NewStruct("Mario", marioStructSize).
		AddField("pos", marioPos, vec3f).
		AddField("vel", marioVel, vec3f).
		AddField("forwardVel", marioForwardVel, f32).
		AddField("action", marioAction, u32).
		AddField("flags", marioFlags, u32).
		AddField("airborne", marioFlags, layout.FlagType{Base: u32, Mask: marioFlagAir})

	object := layout.NewStruct("Object", objectStructSize).
		AddField("activeFlags", objActiveFlags, u32).
		AddField("behavior", objBehaviorSeg, layout.PointerType{Target: u32}).
		AddField("oPosX", objPos+0, f32).
		AddField("oPosY", objPos+4, f32).
		AddField("oPosZ", objPos+8, f32).
		AddField("oVelX", objVel+0, f32).
		AddField("oVelY", objVel+4, f32).
		AddField("oVelZ", objVel+8, f32).
		AddField("hitboxRadius", objHitboxRadius, f32).
		AddField("hitboxHeight", objHitboxHeight, f32)

	surface := layout.NewStruct("Surface", surfaceStructSize).
		AddField("vertex1", surfVertex1, layout.ArrayType{Elem: s16, Length: 3}).
		AddField("vertex2", surfVertex2, layout.ArrayType{Elem: s16, Length: 3}).
		AddField("vertex3", surfVertex3, layout.ArrayType{Elem: s16, Length: 3}).
		AddField("normal", surfNormal, vec3f)

	for _, s := range []*layout.StructType{vec3f, controller, segment, mario, object, surface} {
		lay.AddStruct(s)
	}

	lay.AddGlobal("globalTimer", WritableBase+timerOffset, u32)
	lay.AddGlobal("controller", WritableBase+controllerOffset, controller)
	lay.AddGlobal("mario", WritableBase+marioPtrOffset, layout.PointerType{Target: mario})
	lay.AddGlobal("surfacePool", WritableBase+surfacePoolOffset, layout.PointerType{Target: layout.ArrayType{Elem: surface, Length: surfaceCount}})
	lay.AddGlobal("surfacesAllocated", WritableBase+surfaceCountOffset, u32)
	lay.AddGlobal("segmentTable", WritableBase+segmentTableOffset, layout.ArrayType{Elem: segment, Length: segmentEntries})
	lay.AddGlobal("objectPool", WritableBase+objectPoolOffset, layout.ArrayType{Elem: object, Length: objectCount})

	lay.AddConstant("A_BUTTON", buttonA)
	lay.AddConstant("B_BUTTON", buttonB)
	lay.AddConstant("Z_TRIG", buttonZ)
	lay.AddConstant("START_BUTTON", buttonStart)
	lay.AddConstant("ACTIVE_FLAG_ACTIVE", activeFlagActive)
	lay.AddConstant("MARIO_AIRBORNE", marioFlagAir)
	lay.AddConstant("ACT_IDLE", actIdle)
	lay.AddConstant("ACT_JUMP", actJump)

	lay.AddLabel(BhvMario, "bhvMario")
	lay.AddLabel(BhvGoomba, "bhvGoomba")
	lay.AddLabel(BhvCoin, "bhvCoin")
	lay.AddLabel(actIdle, "idle")
	lay.AddLabel(actJump, "jump")

	lay.Hooks = layout.Hooks{
		SegmentTable:   "segmentTable",
		ObjectPool:     "objectPool",
		ObjectBehavior: "behavior",
		ObjectActive:   "activeFlags",
		ActiveFlag:     "ACTIVE_FLAG_ACTIVE",
		SurfacePool:    "surfacePool",
		SurfaceCount:   "surfacesAllocated",
	}

	return lay
}
