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

package logger_test

import (
	"strings"
	"testing"

	"github.com/tasrun/replay64/logger"
	"github.com/tasrun/replay64/test"
)

func TestLogger(t *testing.T) {
	logger.Clear()
	logger.Log("timeline", "frame inserted")

	s := &strings.Builder{}
	logger.Write(s)
	test.Equate(t, s.String(), "timeline: frame inserted\n")
}

func TestRepeatCollapse(t *testing.T) {
	logger.Clear()
	logger.Log("pool", "slot evicted")
	logger.Log("pool", "slot evicted")
	logger.Log("pool", "slot evicted")

	s := &strings.Builder{}
	logger.Write(s)
	test.Equate(t, s.String(), "pool: slot evicted (repeat x3)\n")

	// a different detail breaks the run
	logger.Logf("pool", "slot evicted (frame %d)", 100)
	s.Reset()
	logger.Write(s)
	test.Equate(t, s.String(), "pool: slot evicted (repeat x3)\npool: slot evicted (frame 100)\n")
}

func TestTail(t *testing.T) {
	logger.Clear()
	logger.Log("a", "first")
	logger.Log("b", "second")
	logger.Log("c", "third")

	s := &strings.Builder{}
	logger.Tail(s, 2)
	test.Equate(t, s.String(), "b: second\nc: third\n")

	// a tail longer than the log is the whole log
	s.Reset()
	logger.Tail(s, 100)
	test.Equate(t, s.String(), "a: first\nb: second\nc: third\n")
}

func TestBorrowLog(t *testing.T) {
	logger.Clear()
	logger.Log("timeline", "hotspot moved")

	logger.BorrowLog(func(entries []logger.Entry) {
		test.Equate(t, len(entries), 1)
		test.Equate(t, entries[0].Tag, "timeline")
		test.Equate(t, entries[0].Detail, "hotspot moved")
	})
}
