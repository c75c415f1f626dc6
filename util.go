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

import (
	"fmt"
	"io"
)

// readAllLimited reads all of r, refusing to buffer more than limit bytes.
// Decompression-bomb protection: several filter chains (object streams,
// image XObjects) expand data by a large factor, and spec §7 classifies
// runaway expansion as a Limit error rather than letting it exhaust memory.
func readAllLimited(r io.Reader, limit int64) ([]byte, error) {
	lr := io.LimitReader(r, limit+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, newError(Io, err)
	}
	if int64(len(data)) > limit {
		return nil, &Error{Kind: Limit, Err: fmt.Errorf("data exceeds %d byte limit", limit)}
	}
	return data, nil
}
