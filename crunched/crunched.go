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

// Package crunched provides byte-block storage that can spend most of its
// life compressed. Snapshot slots are large and mostly idle so the slot
// pool keeps them crunched and decrunches only on access.
package crunched

// Data provides the interface to a crunched data type.
type Data interface {
	// IsCrunched returns true if data is currently crunched
	IsCrunched() bool

	// Size returns the uncrunched size and the current size of the data. If
	// the data is currently uncrunched then the two values will be the same
	Size() (int, int)

	// Data returns a pointer to the uncrunched data
	Data() *[]byte

	// Snapshot makes a copy of the data, crunching it if possible. The data
	// will be uncrunched automatically when the Data() function is called
	Snapshot() Data
}
