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
)

// recoverCrossReferenceIndex rebuilds a cross-reference index by scanning
// the entire file for "<num> <gen> obj" headers and "trailer" keywords
// (spec §9's recovery algorithm). Earlier occurrences win ties: when a
// duplicate (n, g) header is found more than once, the first one found
// scanning forward from the start of the file keeps the slot, matching
// spec §9's deterministic tie-break rule.
//
// pause, if non-nil, is consulted once per scan probe (one "seek, read a
// candidate token" step of the loop below) so that a recovery scan over a
// very large damaged file can be aborted cooperatively (spec §5's
// Cancellation rule).
func recoverCrossReferenceIndex(doc *Document, pause PauseCheck) (*xrefIndex, Dict, error) {
	tok := newTokenizer(doc.src, 0)
	idx := &xrefIndex{entries: make(map[uint32]xrefEntry)}
	var trailer Dict

	pos := int64(0)
	end := doc.src.Len()
	for pos < end {
		if pause != nil {
			if err := pause(); err != nil {
				return nil, nil, err
			}
		}

		tok.seek(pos)
		savedPos := tok.pos
		t1, err := tok.next()
		if err != nil {
			break
		}
		if t1.kind == tokKeyword && t1.keyword == "trailer" {
			p := newParser(tok, doc)
			if obj, err := p.parseObject(0); err == nil {
				if d, ok := obj.(Dict); ok {
					trailer = mergeTrailer(trailer, d)
				}
			}
			pos = tok.pos
			continue
		}
		if t1.kind == tokInteger && t1.i >= 0 {
			t2, err2 := tok.next()
			if err2 == nil && t2.kind == tokInteger && t2.i >= 0 {
				t3, err3 := tok.next()
				if err3 == nil && t3.kind == tokKeyword && t3.keyword == "obj" {
					num := uint32(t1.i)
					if _, have := idx.entries[num]; !have {
						idx.entries[num] = xrefEntry{kind: xrefEntryInFile, offset: savedPos}
					}
					// Skip past this object's body so we don't re-parse
					// its interior as further candidate headers.
					p := newParser(tok, nil)
					p.setCurrentObject(Reference{Number: num, Generation: uint16(t2.i)})
					if _, err := p.parseObject(0); err == nil {
						pos = tok.pos
						continue
					}
				}
			}
		}
		pos = savedPos + 1
	}

	if trailer == nil {
		// No trailer keyword found at all (common for cross-reference
		// stream-only files): synthesize one from any object whose
		// dictionary looks like a document catalog.
		trailer = Dict{}
		doc.xref = idx // doc.fetch below looks objects up through doc.xref
		for num, e := range idx.entries {
			if e.kind != xrefEntryInFile {
				continue
			}
			obj, err := doc.fetch(Reference{Number: num}, true)
			if err != nil {
				continue
			}
			d, ok := obj.(Dict)
			if !ok {
				continue
			}
			if t, ok := d["Type"].(Name); ok && t == "Catalog" {
				trailer["Root"] = Reference{Number: num}
				break
			}
		}
	}

	if _, ok := trailer["Root"]; !ok {
		return nil, nil, newError(Corrupt, fmt.Errorf("recovery scan found no document catalog"))
	}

	doc.logCorrupt(fmt.Sprintf("recovered %d objects by linear scan", len(idx.entries)), nil)
	return idx, trailer, nil
}

func mergeTrailer(into, from Dict) Dict {
	if into == nil {
		return from
	}
	for k, v := range from {
		into[k] = v
	}
	return into
}
