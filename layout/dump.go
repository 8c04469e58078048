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

package layout

import (
	"fmt"
	"io"

	"golang.org/x/exp/slices"
)

// Dump writes a textual rendering of the entire descriptor. Useful for
// diagnostics only; nothing should ever parse this output.
func (l *Layout) Dump(output io.Writer) {
	fmt.Fprintf(output, "writable block: %08x to %08x (%d bytes)\n", l.Base, l.Base+l.Size, l.Size)

	fmt.Fprintf(output, "\nStructs\n-------\n")
	for _, name := range l.StructNames() {
		s := l.structs[name]
		fmt.Fprintf(output, "struct %s (%d bytes)\n", s.Name, s.Size())
		for _, f := range s.fields {
			fmt.Fprintf(output, "  +%04x %s %s\n", f.Offset, f.Name, f.Type.String())
		}
	}

	fmt.Fprintf(output, "\nGlobals\n-------\n")
	for _, name := range l.GlobalNames() {
		g := l.globals[name]
		fmt.Fprintf(output, "%08x -> %s %s\n", g.Addr, g.Name, g.Type.String())
	}

	fmt.Fprintf(output, "\nConstants\n---------\n")
	names := make([]string, 0, len(l.constants))
	for n := range l.constants {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		fmt.Fprintf(output, "%s = %#x\n", n, l.constants[n])
	}

	fmt.Fprintf(output, "\nLabels\n------\n")
	addrs := make([]uint32, 0, len(l.labels))
	for a := range l.labels {
		addrs = append(addrs, a)
	}
	slices.Sort(addrs)
	for _, a := range addrs {
		fmt.Fprintf(output, "%08x -> %s\n", a, l.labels[a])
	}
}
