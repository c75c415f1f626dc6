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
	"bufio"
	"bytes"
	"fmt"
	"strconv"
)

// xrefEntryKind distinguishes the three states a cross-reference entry can
// be in (spec §3, CrossRefEntry).
type xrefEntryKind int

const (
	xrefEntryFree xrefEntryKind = iota
	xrefEntryInFile
	xrefEntryInStream
)

type xrefEntry struct {
	kind xrefEntryKind

	// valid when kind == xrefEntryInFile: the byte offset of "N G obj".
	offset int64

	// valid when kind == xrefEntryInStream: which object stream holds this
	// object, and the member's index within it.
	streamRef   Reference
	streamIndex int
}

type xrefIndex struct {
	entries map[uint32]xrefEntry
}

func (x *xrefIndex) lookup(ref Reference) (xrefEntry, bool) {
	e, ok := x.entries[ref.Number]
	return e, ok
}

// readHeaderVersion reads the "%PDF-M.N" header that must appear within
// the first 1024 bytes of the file (spec §4.1 lexical preliminaries).
func readHeaderVersion(src byteSource) (Version, error) {
	n := src.Len()
	if n > 1024 {
		n = 1024
	}
	buf := make([]byte, n)
	if _, err := src.ReadAt(buf, 0); err != nil && len(buf) == 0 {
		return 0, newError(Io, err)
	}
	idx := bytes.Index(buf, []byte("%PDF-"))
	if idx < 0 {
		return 0, newError(Format, fmt.Errorf("missing %%PDF- header"))
	}
	rest := buf[idx+len("%PDF-"):]
	dot := bytes.IndexByte(rest, '.')
	if dot < 0 || dot+1 >= len(rest) {
		return 0, newError(Format, fmt.Errorf("malformed %%PDF- header"))
	}
	major, err1 := strconv.Atoi(string(rest[:dot]))
	minorEnd := dot + 1
	for minorEnd < len(rest) && rest[minorEnd] >= '0' && rest[minorEnd] <= '9' {
		minorEnd++
	}
	minor, err2 := strconv.Atoi(string(rest[dot+1 : minorEnd]))
	if err1 != nil || err2 != nil {
		return 0, newError(Format, fmt.Errorf("malformed %%PDF- header"))
	}
	return ParseVersion(major, minor)
}

// loadCrossReferenceIndex locates "startxref", walks the /Prev chain of
// classic xref tables and/or cross-reference streams (spec §4.4), and
// falls back to a full linear recovery scan when the chain cannot be
// trusted and recovery is enabled.
func loadCrossReferenceIndex(doc *Document) (*xrefIndex, Dict, error) {
	start, err := findStartXref(doc.src)
	if err == nil {
		xref, trailer, err := walkXrefChain(doc, start)
		if err == nil {
			return xref, trailer, nil
		}
		doc.logCorrupt("cross-reference chain unusable, attempting recovery", err)
	} else {
		doc.logCorrupt("no startxref found, attempting recovery", err)
	}

	if doc.opts.DisableRecovery {
		return nil, nil, newError(Corrupt, fmt.Errorf("cross-reference table unusable and recovery disabled"))
	}
	return recoverCrossReferenceIndex(doc, doc.opts.PauseCheck)
}

// findStartXref locates the last "startxref\n<offset>" near the end of the
// file.
func findStartXref(src byteSource) (int64, error) {
	const tailWindow = 2048
	n := src.Len()
	start := n - tailWindow
	if start < 0 {
		start = 0
	}
	buf := make([]byte, n-start)
	if _, err := src.ReadAt(buf, start); err != nil && len(buf) == 0 {
		return 0, newError(Io, err)
	}
	idx := bytes.LastIndex(buf, []byte("startxref"))
	if idx < 0 {
		return 0, newError(Format, fmt.Errorf("missing startxref"))
	}
	rest := buf[idx+len("startxref"):]
	sc := bufio.NewScanner(bytes.NewReader(rest))
	sc.Split(bufio.ScanWords)
	if !sc.Scan() {
		return 0, newError(Format, fmt.Errorf("malformed startxref"))
	}
	offset, err := strconv.ParseInt(sc.Text(), 10, 64)
	if err != nil {
		return 0, newError(Format, fmt.Errorf("malformed startxref offset"))
	}
	return offset, nil
}

// walkXrefChain follows /Prev (classic tables and cross-reference streams
// may be mixed, "hybrid-reference" files) accumulating entries. Earlier
// (more recent) sections win over later (older) ones for a given object
// number, since the chain walks newest-to-oldest.
func walkXrefChain(doc *Document, start int64) (*xrefIndex, Dict, error) {
	idx := &xrefIndex{entries: make(map[uint32]xrefEntry)}
	merged := Dict{}
	seen := map[int64]bool{}

	pos := start
	chainLen := 0
	for pos != 0 {
		if seen[pos] {
			return nil, nil, newError(Corrupt, fmt.Errorf("cross-reference chain cycle at offset %d", pos))
		}
		seen[pos] = true
		chainLen++
		if chainLen > doc.opts.MaxXRefChain {
			return nil, nil, &Error{Kind: Limit, Err: fmt.Errorf("cross-reference chain exceeds %d sections", doc.opts.MaxXRefChain)}
		}

		section, trailer, prev, err := readXrefSection(doc, pos)
		if err != nil {
			return nil, nil, err
		}
		for num, e := range section {
			if _, have := idx.entries[num]; !have {
				idx.entries[num] = e
			}
		}
		for k, v := range trailer {
			if _, have := merged[k]; !have {
				merged[k] = v
			}
		}
		pos = prev
	}

	if _, ok := merged["Root"]; !ok {
		return nil, nil, newError(Format, fmt.Errorf("trailer has no /Root entry"))
	}
	return idx, merged, nil
}

// readXrefSection reads one cross-reference section (classic table or
// stream) at pos, returning its entries, its trailer dictionary, and the
// /Prev offset (0 if absent).
func readXrefSection(doc *Document, pos int64) (map[uint32]xrefEntry, Dict, int64, error) {
	tok := newTokenizer(doc.src, pos)
	tok.skipWhiteSpace()
	b, _ := tok.peekByte(0)

	if b == 'x' {
		return readClassicXrefTable(doc, tok)
	}
	return readXrefStream(doc, pos)
}

func readClassicXrefTable(doc *Document, tok *tokenizer) (map[uint32]xrefEntry, Dict, int64, error) {
	kw, err := tok.next()
	if err != nil || kw.kind != tokKeyword || kw.keyword != "xref" {
		return nil, nil, 0, newError(Format, fmt.Errorf("expected \"xref\" keyword"))
	}

	entries := make(map[uint32]xrefEntry)
	for {
		savedPos := tok.pos
		t1, err := tok.next()
		if err != nil {
			return nil, nil, 0, err
		}
		if t1.kind == tokKeyword && t1.keyword == "trailer" {
			break
		}
		if t1.kind != tokInteger {
			tok.pos = savedPos
			break
		}
		t2, err := tok.next()
		if err != nil || t2.kind != tokInteger {
			return nil, nil, 0, newError(Format, fmt.Errorf("malformed xref subsection header"))
		}
		firstNum := uint32(t1.i)
		count := t2.i

		for i := int64(0); i < count; i++ {
			entryPos := tok.pos
			tok.skipWhiteSpace()
			buf := make([]byte, 20)
			n, _ := doc.src.ReadAt(buf, tok.pos)
			if n < 20 {
				return nil, nil, 0, newError(Format, fmt.Errorf("truncated xref entry"))
			}
			offset, err1 := strconv.ParseInt(string(bytes.TrimSpace(buf[0:10])), 10, 64)
			gen, err2 := strconv.Atoi(string(bytes.TrimSpace(buf[11:16])))
			kind := buf[17]
			if err1 != nil || err2 != nil {
				return nil, nil, 0, newError(Format, fmt.Errorf("malformed xref entry"))
			}
			num := firstNum + uint32(i)
			if _, have := entries[num]; !have {
				if kind == 'n' {
					entries[num] = xrefEntry{kind: xrefEntryInFile, offset: offset}
				} else {
					entries[num] = xrefEntry{kind: xrefEntryFree}
				}
			}
			tok.pos = entryPos + 20
		}
	}

	p := newParser(tok, doc)
	obj, err := p.parseObject(0)
	if err != nil {
		return nil, nil, 0, err
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, nil, 0, newError(Format, fmt.Errorf("trailer is not a dictionary"))
	}

	var prev int64
	if pv, ok := trailer["Prev"].(Integer); ok {
		prev = int64(pv)
	}
	if xrs, ok := trailer["XRefStm"].(Integer); ok {
		// Hybrid-reference file: also fold in the cross-reference stream
		// section it points at, which wins over the classic table entries
		// already read (it describes compressed objects the table cannot).
		streamEntries, _, _, err := readXrefStream(doc, int64(xrs))
		if err == nil {
			for num, e := range streamEntries {
				entries[num] = e
			}
		}
	}
	return entries, trailer, prev, nil
}

func readXrefStream(doc *Document, pos int64) (map[uint32]xrefEntry, Dict, int64, error) {
	tok := newTokenizer(doc.src, pos)
	p := newParser(tok, doc)
	_, _, obj, err := p.parseIndirectAt(pos)
	if err != nil {
		return nil, nil, 0, err
	}
	stm, ok := obj.(*Stream)
	if !ok {
		return nil, nil, 0, newError(Format, fmt.Errorf("expected cross-reference stream"))
	}

	wArr, ok := stm.Dict["W"].(Array)
	if !ok || len(wArr) != 3 {
		return nil, nil, 0, newError(Format, fmt.Errorf("cross-reference stream missing /W"))
	}
	widths := make([]int, 3)
	for i, w := range wArr {
		iv, ok := w.(Integer)
		if !ok {
			return nil, nil, 0, newError(Format, fmt.Errorf("malformed /W entry"))
		}
		widths[i] = int(iv)
	}

	size, _ := stm.Dict["Size"].(Integer)
	var index []int64
	if idxArr, ok := stm.Dict["Index"].(Array); ok {
		for _, v := range idxArr {
			if iv, ok := v.(Integer); ok {
				index = append(index, int64(iv))
			}
		}
	} else {
		index = []int64{0, int64(size)}
	}

	data, err := DecodeStream(doc, stm, 0, doc.opts.PauseCheck)
	if err != nil {
		return nil, nil, 0, err
	}
	raw, err := readAllLimited(data, 64<<20)
	if err != nil {
		return nil, nil, 0, err
	}

	rowLen := widths[0] + widths[1] + widths[2]
	entries := make(map[uint32]xrefEntry)
	rowPos := 0
	for i := 0; i+1 < len(index); i += 2 {
		firstNum := uint32(index[i])
		count := index[i+1]
		for j := int64(0); j < count; j++ {
			if rowPos+rowLen > len(raw) {
				break
			}
			row := raw[rowPos : rowPos+rowLen]
			rowPos += rowLen
			num := firstNum + uint32(j)

			field := func(off, w int) int64 {
				if w == 0 {
					return -1
				}
				var v int64
				for k := 0; k < w; k++ {
					v = v<<8 | int64(row[off+k])
				}
				return v
			}
			typ := field(0, widths[0])
			if typ == -1 {
				typ = 1 // default type when /W[0] == 0
			}
			f2 := field(widths[0], widths[1])
			f3 := field(widths[0]+widths[1], widths[2])

			if _, have := entries[num]; have {
				continue
			}
			switch typ {
			case 0:
				entries[num] = xrefEntry{kind: xrefEntryFree}
			case 1:
				entries[num] = xrefEntry{kind: xrefEntryInFile, offset: f2}
			case 2:
				entries[num] = xrefEntry{
					kind:        xrefEntryInStream,
					streamRef:   Reference{Number: uint32(f2)},
					streamIndex: int(f3),
				}
			}
		}
	}

	var prev int64
	if pv, ok := stm.Dict["Prev"].(Integer); ok {
		prev = int64(pv)
	}
	return entries, stm.Dict, prev, nil
}
