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

// Package version records release and revision information for the
// project.
package version

import (
	"fmt"
	"runtime/debug"
)

// The name to use when referring to the application.
const ApplicationName = "Replay64"

// set through the linker by a release build. empty for any other build.
var number string

var version string
var revision string

// Version returns the version string, the vcs revision and whether this
// is a numbered release build. The version string is "local" when no
// build information is available at all.
func Version() (string, string, bool) {
	return version, revision, version == number && number != ""
}

func init() {
	version = number
	revision = "no revision information"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		if version == "" {
			version = "local"
		}
		return
	}

	var vcs bool
	var modified bool

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs":
			vcs = true
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if modified {
		revision = fmt.Sprintf("%s+dirty", revision)
	}

	if version == "" {
		if vcs {
			version = "unreleased"
		} else {
			version = "local"
		}
	}
}
