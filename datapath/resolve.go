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

package datapath

import (
	"encoding/binary"
	"math"

	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/layout"
	"github.com/tasrun/replay64/snapshot"
)

// Target names the snapshot a path is being resolved against. Every buffer
// reached through a Target is borrowed for the duration of a single call;
// the next write or rebalance can repurpose it.
type Target struct {
	Layout *layout.Layout
	Snap   *snapshot.Snapshot

	// the immutable static region shared by every snapshot
	StaticBase uint32
	Static     []byte
}

// Qualifiers narrow which instance of a repeated structure a path refers
// to. The zero value of the struct is not a valid "no qualifiers" value;
// use None().
type Qualifiers struct {
	// index into the object pool. -1 when not set
	Object int

	// flat address of a behavior script. selects the single active object
	// with that behavior. zero when not set
	Behavior uint32

	// index into the surface pool. -1 when not set
	Surface int
}

// None returns the empty qualifier set.
func None() Qualifiers {
	return Qualifiers{Object: -1, Surface: -1}
}

// Address resolves the path against the target, returning an opaque
// address that can be reused for repeated access on the same snapshot
// without re-resolving the path.
func (p *Path) Address(tgt Target, q Qualifiers) (snapshot.Address, error) {
	var cur snapshot.Address

	for _, o := range p.ops {
		switch o.kind {
		case opGlobal:
			cur = tgt.Snap.Rebase(o.addr)

		case opObjectBase:
			base, err := objectBase(tgt, q)
			if err != nil {
				return snapshot.Address{}, err
			}
			cur = base

		case opSurfaceBase:
			base, err := surfaceBase(tgt, q)
			if err != nil {
				return snapshot.Address{}, err
			}
			cur = base

		case opField, opIndex:
			cur.Offset += o.delta

		case opDeref:
			b, err := tgt.peek(cur, layout.PointerSize)
			if err != nil {
				return snapshot.Address{}, err
			}
			ptr := binary.LittleEndian.Uint32(b)
			cur, err = tgt.Snap.Resolve(ptr)
			if err != nil {
				return snapshot.Address{}, err
			}
		}
	}

	return cur, nil
}

// Read resolves the path and decodes the value it names.
func (p *Path) Read(tgt Target, q Qualifiers) (Value, error) {
	addr, err := p.Address(tgt, q)
	if err != nil {
		return Value{}, err
	}
	return p.ReadResolved(tgt, addr)
}

// ReadResolved decodes the path's value from a previously resolved
// address. The address must have been resolved from this path against the
// same snapshot.
func (p *Path) ReadResolved(tgt Target, addr snapshot.Address) (Value, error) {
	switch typ := p.typ.(type) {
	case layout.IntType:
		b, err := tgt.peek(addr, typ.Width)
		if err != nil {
			return Value{}, err
		}
		return IntValue(decodeInt(b, typ)), nil

	case layout.FloatType:
		b, err := tgt.peek(addr, typ.Width)
		if err != nil {
			return Value{}, err
		}
		if typ.Width == 8 {
			return FloatValue(math.Float64frombits(binary.LittleEndian.Uint64(b))), nil
		}
		return FloatValue(float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))), nil

	case layout.FlagType:
		b, err := tgt.peek(addr, typ.Base.Width)
		if err != nil {
			return Value{}, err
		}
		v := uint64(decodeInt(b, layout.IntType{Width: typ.Base.Width}))
		return BoolValue(v&typ.Mask != 0), nil

	case layout.PointerType:
		b, err := tgt.peek(addr, layout.PointerSize)
		if err != nil {
			return Value{}, err
		}
		// pointer leaves decode to opaque flat addresses, resolvable
		// through the layout's label table
		flat, err := tgt.Snap.Segments().Translate(binary.LittleEndian.Uint32(b))
		if err != nil {
			return Value{}, err
		}
		return AddressValue(flat), nil
	}

	return Value{}, curated.Errorf(UndecodableType, p.typ.String())
}

// Write resolves the path and stores the value at the named field. Values
// are truncated to the declared width of the field. Only the writable
// region of a snapshot can be written to.
func (p *Path) Write(tgt Target, q Qualifiers, v Value) error {
	addr, err := p.Address(tgt, q)
	if err != nil {
		return err
	}

	if addr.Region == snapshot.Static {
		return curated.Errorf(ReadOnlyRegion)
	}

	switch typ := p.typ.(type) {
	case layout.IntType:
		var n int64
		switch v.Kind() {
		case KindInt:
			n = v.Int()
		case KindFloat:
			n = int64(v.Float())
		default:
			return curated.Errorf(IncompatibleValue, v.Kind(), typ)
		}
		b, err := tgt.peek(addr, typ.Width)
		if err != nil {
			return err
		}
		encodeInt(b, typ.Width, uint64(n))
		return nil

	case layout.FloatType:
		var f float64
		switch v.Kind() {
		case KindFloat:
			f = v.Float()
		case KindInt:
			f = float64(v.Int())
		default:
			return curated.Errorf(IncompatibleValue, v.Kind(), typ)
		}
		b, err := tgt.peek(addr, typ.Width)
		if err != nil {
			return err
		}
		if typ.Width == 8 {
			binary.LittleEndian.PutUint64(b, math.Float64bits(f))
		} else {
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(f)))
		}
		return nil

	case layout.FlagType:
		if v.Kind() != KindBool {
			return curated.Errorf(IncompatibleValue, v.Kind(), typ)
		}
		b, err := tgt.peek(addr, typ.Base.Width)
		if err != nil {
			return err
		}
		flags := uint64(decodeInt(b, layout.IntType{Width: typ.Base.Width}))
		if v.Bool() {
			flags |= typ.Mask
		} else {
			flags &^= typ.Mask
		}
		encodeInt(b, typ.Base.Width, flags)
		return nil

	case layout.PointerType:
		var n uint32
		switch v.Kind() {
		case KindAddress:
			n = v.Address()
		case KindInt:
			n = uint32(v.Int())
		default:
			return curated.Errorf(IncompatibleValue, v.Kind(), typ)
		}
		b, err := tgt.peek(addr, layout.PointerSize)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(b, n)
		return nil
	}

	return curated.Errorf(UndecodableType, p.typ.String())
}

// peek borrows n bytes at the resolved address. The writable region
// resolves into the snapshot buffer; the static region resolves into the
// shared static block.
func (tgt Target) peek(addr snapshot.Address, n uint32) ([]byte, error) {
	switch addr.Region {
	case snapshot.Writable:
		b := tgt.Snap.Bytes()
		if uint64(addr.Offset)+uint64(n) > uint64(len(b)) {
			return nil, curated.Errorf(AddressOutOfRange, addr)
		}
		return b[addr.Offset : addr.Offset+n], nil

	case snapshot.Static:
		if addr.Offset < tgt.StaticBase {
			return nil, curated.Errorf(AddressOutOfRange, addr)
		}
		off := uint64(addr.Offset - tgt.StaticBase)
		if off+uint64(n) > uint64(len(tgt.Static)) {
			return nil, curated.Errorf(AddressOutOfRange, addr)
		}
		return tgt.Static[off : off+uint64(n)], nil
	}

	return nil, curated.Errorf(AddressOutOfRange, addr)
}

func decodeInt(b []byte, typ layout.IntType) int64 {
	var v uint64
	switch typ.Width {
	case 1:
		v = uint64(b[0])
	case 2:
		v = uint64(binary.LittleEndian.Uint16(b))
	case 4:
		v = uint64(binary.LittleEndian.Uint32(b))
	case 8:
		v = binary.LittleEndian.Uint64(b)
	}

	if typ.Signed {
		// sign extend from the declared width
		shift := 64 - typ.Width*8
		return int64(v<<shift) >> shift
	}

	return int64(v)
}

func encodeInt(b []byte, width uint32, v uint64) {
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	}
}

// objectBase resolves the object qualifiers to the base address of one
// object struct in the pool.
func objectBase(tgt Target, q Qualifiers) (snapshot.Address, error) {
	st, arr, err := objectPool(tgt.Layout)
	if err != nil {
		return snapshot.Address{}, err
	}

	g, err := tgt.Layout.Global(tgt.Layout.Hooks.ObjectPool)
	if err != nil {
		return snapshot.Address{}, curated.Errorf("datapath: %v", err)
	}

	behaviorField, okBhv := st.Field(tgt.Layout.Hooks.ObjectBehavior)
	activeField, okAct := st.Field(tgt.Layout.Hooks.ObjectActive)
	if !okBhv || !okAct {
		return snapshot.Address{}, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("object struct %s is missing a qualifier field", st.Name))
	}
	activeMask, err := tgt.Layout.Constant(tgt.Layout.Hooks.ActiveFlag)
	if err != nil {
		return snapshot.Address{}, curated.Errorf(layout.MalformedLayout, err)
	}

	behaviorAt := func(i int) (uint32, bool, error) {
		base := tgt.Snap.Rebase(g.Addr + uint32(i)*arr.Stride())

		b, err := tgt.peek(addAddr(base, activeField.Offset), activeField.Type.Size())
		if err != nil {
			return 0, false, err
		}
		flags := decodeInt(b, layout.IntType{Width: activeField.Type.Size()})
		active := uint64(flags)&uint64(activeMask) != 0

		b, err = tgt.peek(addAddr(base, behaviorField.Offset), layout.PointerSize)
		if err != nil {
			return 0, false, err
		}
		flat, err := tgt.Snap.Segments().Translate(binary.LittleEndian.Uint32(b))
		if err != nil {
			return 0, false, err
		}

		return flat, active, nil
	}

	if q.Object >= 0 {
		if q.Object >= arr.Length {
			return snapshot.Address{}, curated.Errorf(IndexOutOfBounds, objectRoot)
		}
		if q.Behavior != 0 {
			flat, _, err := behaviorAt(q.Object)
			if err != nil {
				return snapshot.Address{}, err
			}
			if flat != q.Behavior {
				return snapshot.Address{}, curated.Errorf(QualifierNoMatch)
			}
		}
		return tgt.Snap.Rebase(g.Addr + uint32(q.Object)*arr.Stride()), nil
	}

	if q.Behavior != 0 {
		match := -1
		for i := 0; i < arr.Length; i++ {
			flat, active, err := behaviorAt(i)
			if err != nil {
				return snapshot.Address{}, err
			}
			if !active || flat != q.Behavior {
				continue // for loop
			}
			if match != -1 {
				return snapshot.Address{}, curated.Errorf(QualifierAmbiguous)
			}
			match = i
		}
		if match == -1 {
			return snapshot.Address{}, curated.Errorf(QualifierNoMatch)
		}
		return tgt.Snap.Rebase(g.Addr + uint32(match)*arr.Stride()), nil
	}

	return snapshot.Address{}, curated.Errorf(MissingQualifier, objectRoot)
}

// surfaceBase resolves the surface qualifier to the base address of one
// surface struct. The pool is reached through a pointer and bounded by the
// allocation count the process keeps alongside it.
func surfaceBase(tgt Target, q Qualifiers) (snapshot.Address, error) {
	if q.Surface < 0 {
		return snapshot.Address{}, curated.Errorf(MissingQualifier, surfaceRoot)
	}

	g, err := tgt.Layout.Global(tgt.Layout.Hooks.SurfacePool)
	if err != nil {
		return snapshot.Address{}, curated.Errorf("datapath: %v", err)
	}
	ptr, ok := g.Type.(layout.PointerType)
	if !ok {
		return snapshot.Address{}, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("surface pool global %s is not a pointer", g.Name))
	}
	arr, ok := ptr.Target.(layout.ArrayType)
	if !ok {
		return snapshot.Address{}, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("surface pool global %s does not point at an array", g.Name))
	}

	limit := arr.Length
	if tgt.Layout.Hooks.SurfaceCount != "" {
		cg, err := tgt.Layout.Global(tgt.Layout.Hooks.SurfaceCount)
		if err != nil {
			return snapshot.Address{}, curated.Errorf("datapath: %v", err)
		}
		b, err := tgt.peek(tgt.Snap.Rebase(cg.Addr), 4)
		if err != nil {
			return snapshot.Address{}, err
		}
		if n := int(binary.LittleEndian.Uint32(b)); n < limit {
			limit = n
		}
	}

	if q.Surface >= limit {
		return snapshot.Address{}, curated.Errorf(IndexOutOfBounds, surfaceRoot)
	}

	b, err := tgt.peek(tgt.Snap.Rebase(g.Addr), layout.PointerSize)
	if err != nil {
		return snapshot.Address{}, err
	}
	base, err := tgt.Snap.Resolve(binary.LittleEndian.Uint32(b))
	if err != nil {
		return snapshot.Address{}, err
	}

	return addAddr(base, uint32(q.Surface)*arr.Stride()), nil
}

func addAddr(a snapshot.Address, delta uint32) snapshot.Address {
	a.Offset += delta
	return a
}
