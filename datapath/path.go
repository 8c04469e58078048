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
	"strconv"
	"strings"

	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/layout"
)

// Error patterns for the datapath package. All of these are request errors;
// the caller may retry with a corrected request.
const (
	MalformedPath      = "datapath: malformed path: %s"
	UnknownPathSegment = "datapath: unknown path segment: %s"
	IndexOutOfBounds   = "datapath: index out of bounds: %s"
	CannotDeref        = "datapath: cannot dereference: %s"
	CannotIndex        = "datapath: cannot index: %s"
	MissingQualifier   = "datapath: path root requires a qualifier: %s"
	QualifierNoMatch   = "datapath: qualifier matches no instance"
	QualifierAmbiguous = "datapath: qualifier matches more than one instance"
	AddressOutOfRange  = "datapath: address out of range: %v"
	UndecodableType    = "datapath: cannot decode type: %s"
	IncompatibleValue  = "datapath: cannot write %s value to %s field"
	ReadOnlyRegion     = "datapath: cannot write to static region"
)

// pseudo-root names. their base address is supplied by a qualifier at
// resolution time.
const (
	objectRoot  = "object"
	surfaceRoot = "surface"
)

type opKind int

const (
	opGlobal opKind = iota
	opObjectBase
	opSurfaceBase
	opField
	opIndex
	opDeref
)

type op struct {
	kind opKind

	// opGlobal: canonical virtual address of the global
	addr uint32

	// opField and opIndex: bytes to add to the running offset
	delta uint32
}

// Path is a symbolic path compiled against a layout descriptor. A compiled
// path is immutable and can be resolved against any snapshot.
type Path struct {
	src string
	lay *layout.Layout
	ops []op
	typ layout.Type

	needsObject  bool
	needsSurface bool
}

func (p *Path) String() string {
	return p.src
}

// Type returns the type of the field the path names. Used by the reflection
// queries that a front end needs to render fields without hardcoding them.
func (p *Path) Type() layout.Type {
	return p.typ
}

// token types produced by the path scanner.
type tokKind int

const (
	tokIdent tokKind = iota
	tokField
	tokIndex
	tokDeref
)

type token struct {
	kind  tokKind
	name  string
	index int
}

func tokenize(path string) ([]token, error) {
	var toks []token

	s := path
	expectIdent := true

	for len(s) > 0 {
		switch {
		case expectIdent:
			n := identLen(s)
			if n == 0 {
				return nil, curated.Errorf(MalformedPath, path)
			}
			kind := tokField
			if len(toks) == 0 {
				kind = tokIdent
			}
			toks = append(toks, token{kind: kind, name: s[:n]})
			s = s[n:]
			expectIdent = false

		case s[0] == '.':
			s = s[1:]
			expectIdent = true

		case s[0] == '[':
			e := strings.IndexByte(s, ']')
			if e == -1 {
				return nil, curated.Errorf(MalformedPath, path)
			}
			if e == 1 {
				toks = append(toks, token{kind: tokDeref})
			} else {
				idx, err := strconv.Atoi(s[1:e])
				if err != nil {
					return nil, curated.Errorf(MalformedPath, path)
				}
				toks = append(toks, token{kind: tokIndex, index: idx})
			}
			s = s[e+1:]

		default:
			return nil, curated.Errorf(MalformedPath, path)
		}
	}

	if expectIdent || len(toks) == 0 {
		return nil, curated.Errorf(MalformedPath, path)
	}

	return toks, nil
}

func identLen(s string) int {
	var n int
	for n < len(s) {
		c := s[n]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			n++
			continue
		}
		break // for loop
	}
	return n
}

// Compile parses the path and binds each segment against the layout
// descriptor. Unknown segments, indices outside an array's declared shape
// and dereferences of non-pointer fields are all reported at compile time.
func Compile(lay *layout.Layout, path string) (*Path, error) {
	toks, err := tokenize(path)
	if err != nil {
		return nil, err
	}

	p := &Path{src: path, lay: lay}

	// root segment
	var cur layout.Type

	switch toks[0].name {
	case objectRoot:
		st, _, err := objectPool(lay)
		if err != nil {
			return nil, err
		}
		p.ops = append(p.ops, op{kind: opObjectBase})
		p.needsObject = true
		cur = st

	case surfaceRoot:
		st, err := surfacePool(lay)
		if err != nil {
			return nil, err
		}
		p.ops = append(p.ops, op{kind: opSurfaceBase})
		p.needsSurface = true
		cur = st

	default:
		g, err := lay.Global(toks[0].name)
		if err != nil {
			return nil, curated.Errorf(UnknownPathSegment, toks[0].name)
		}
		p.ops = append(p.ops, op{kind: opGlobal, addr: g.Addr})
		cur = g.Type
	}

	for _, tok := range toks[1:] {
		switch tok.kind {
		case tokField:
			// accessing a field through a pointer dereferences the pointer
			// implicitly
			if ptr, ok := cur.(layout.PointerType); ok {
				if ptr.Target == nil {
					return nil, curated.Errorf(CannotDeref, p.src)
				}
				p.ops = append(p.ops, op{kind: opDeref})
				cur = ptr.Target
			}

			st, ok := cur.(*layout.StructType)
			if !ok {
				return nil, curated.Errorf(UnknownPathSegment, tok.name)
			}
			f, ok := st.Field(tok.name)
			if !ok {
				return nil, curated.Errorf(UnknownPathSegment, tok.name)
			}
			p.ops = append(p.ops, op{kind: opField, delta: f.Offset})
			cur = f.Type

		case tokIndex:
			if ptr, ok := cur.(layout.PointerType); ok {
				if ptr.Target == nil {
					return nil, curated.Errorf(CannotDeref, p.src)
				}
				p.ops = append(p.ops, op{kind: opDeref})
				cur = ptr.Target
			}

			arr, ok := cur.(layout.ArrayType)
			if !ok {
				return nil, curated.Errorf(CannotIndex, p.src)
			}
			if tok.index < 0 || tok.index >= arr.Length {
				return nil, curated.Errorf(IndexOutOfBounds, p.src)
			}
			p.ops = append(p.ops, op{kind: opIndex, delta: uint32(tok.index) * arr.Stride()})
			cur = arr.Elem

		case tokDeref:
			ptr, ok := cur.(layout.PointerType)
			if !ok {
				return nil, curated.Errorf(CannotDeref, p.src)
			}
			if ptr.Target == nil {
				return nil, curated.Errorf(CannotDeref, p.src)
			}
			p.ops = append(p.ops, op{kind: opDeref})
			cur = ptr.Target
		}
	}

	p.typ = cur

	return p, nil
}

// objectPool returns the element struct, array type and any error for the
// layout's object pool hook.
func objectPool(lay *layout.Layout) (*layout.StructType, layout.ArrayType, error) {
	if lay.Hooks.ObjectPool == "" {
		return nil, layout.ArrayType{}, curated.Errorf(UnknownPathSegment, objectRoot)
	}
	g, err := lay.Global(lay.Hooks.ObjectPool)
	if err != nil {
		return nil, layout.ArrayType{}, curated.Errorf("datapath: %v", err)
	}
	arr, ok := g.Type.(layout.ArrayType)
	if !ok {
		return nil, layout.ArrayType{}, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("object pool global %s is not an array", g.Name))
	}
	st, ok := arr.Elem.(*layout.StructType)
	if !ok {
		return nil, layout.ArrayType{}, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("object pool global %s is not an array of structs", g.Name))
	}
	return st, arr, nil
}

// surfacePool returns the element struct for the layout's surface pool
// hook. The pool is reached through a pointer global.
func surfacePool(lay *layout.Layout) (*layout.StructType, error) {
	if lay.Hooks.SurfacePool == "" {
		return nil, curated.Errorf(UnknownPathSegment, surfaceRoot)
	}
	g, err := lay.Global(lay.Hooks.SurfacePool)
	if err != nil {
		return nil, curated.Errorf("datapath: %v", err)
	}
	ptr, ok := g.Type.(layout.PointerType)
	if !ok {
		return nil, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("surface pool global %s is not a pointer", g.Name))
	}
	arr, ok := ptr.Target.(layout.ArrayType)
	if !ok {
		return nil, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("surface pool global %s does not point at an array", g.Name))
	}
	st, ok := arr.Elem.(*layout.StructType)
	if !ok {
		return nil, curated.Errorf(layout.MalformedLayout,
			curated.Errorf("surface pool global %s does not point at structs", g.Name))
	}
	return st, nil
}
