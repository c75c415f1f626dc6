// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2021  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdf

import "fmt"

// Version identifies the PDF version used by a document, from 1.0 through
// 2.0 (ISO 32000-2).
type Version int

const (
	V1_0 Version = iota
	V1_1
	V1_2
	V1_3
	V1_4
	V1_5
	V1_6
	V1_7
	V2_0
)

func (v Version) String() string {
	switch v {
	case V1_0, V1_1, V1_2, V1_3, V1_4, V1_5, V1_6, V1_7:
		return fmt.Sprintf("1.%d", int(v))
	case V2_0:
		return "2.0"
	default:
		return "unknown"
	}
}

// ParseVersion parses the two digits following "%PDF-" in a file header,
// e.g. ParseVersion(1, 7) == V1_7.
func ParseVersion(major, minor int) (Version, error) {
	if major == 2 && minor == 0 {
		return V2_0, nil
	}
	if major != 1 || minor < 0 || minor > 7 {
		return 0, newError(Format, fmt.Errorf("unsupported PDF version %d.%d", major, minor))
	}
	return Version(minor), nil
}
