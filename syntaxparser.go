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
	"bytes"
	"fmt"
	"io"
)

// DefaultMaxNestingDepth bounds how deeply arrays and dictionaries may
// nest within a single object when ReaderOptions.MaxNestingDepth is unset;
// pagetree also uses it as its recursion bound. Exceeding it aborts the
// current object as Null with a Limit error, never a stack overflow.
// Form-XObject recursion in package content has its own limit.
const DefaultMaxNestingDepth = 32

// parser consumes tokens and produces Objects (spec §4.3). It is used both
// for parsing a single object at a known file offset (the common case, via
// a Document's cache miss) and, with doc == nil, during cross-reference
// recovery scanning where no cache is available yet.
type parser struct {
	tok      *tokenizer
	doc      *Document
	maxDepth int

	// curRef, when non-nil, is the indirect object currently being parsed;
	// it lets string literals be decrypted at construction time, as spec
	// §4.5 requires ("decrypted at access time... inside SyntaxParser's
	// PdfObject construction for strings"). It is a plain field rather than
	// a parameter threaded through every parseX call since only the String
	// and stream cases need it, and a parser is never reused across objects
	// concurrently.
	curRef *Reference
}

func newParser(tok *tokenizer, doc *Document) *parser {
	maxDepth := DefaultMaxNestingDepth
	if doc != nil && doc.opts.MaxNestingDepth > 0 {
		maxDepth = doc.opts.MaxNestingDepth
	}
	return &parser{tok: tok, doc: doc, maxDepth: maxDepth}
}

// setCurrentObject records which indirect object is about to be parsed, so
// that string decryption can key off it.
func (p *parser) setCurrentObject(ref Reference) {
	p.curRef = &ref
}

// parseObject parses exactly one PDF object starting at the tokenizer's
// current position.
func (p *parser) parseObject(depth int) (Object, error) {
	if depth > p.maxDepth {
		return nil, &Error{Kind: Limit, Err: fmt.Errorf("nesting depth exceeds %d", p.maxDepth)}
	}

	tk, err := p.tok.next()
	if err != nil {
		return nil, err
	}

	switch tk.kind {
	case tokEOF:
		return nil, newErrorAt(Format, fmt.Errorf("unexpected end of file"), tk.pos)

	case tokInteger:
		return p.parseIntegerOrReference(tk)

	case tokReal:
		return Real(tk.f), nil

	case tokName:
		return Name(tk.bytes), nil

	case tokString:
		s := String(tk.bytes)
		if p.doc != nil && p.doc.security != nil && p.curRef != nil {
			dec, err := p.doc.security.DecryptBytes(*p.curRef, s)
			if err == nil {
				s = dec
			}
		}
		return s, nil

	case tokArrayOpen:
		return p.parseArray(depth)

	case tokDictOpen:
		return p.parseDictOrStream(depth)

	case tokArrayClose, tokDictClose:
		return nil, newErrorAt(Format, fmt.Errorf("unexpected closing delimiter"), tk.pos)

	case tokKeyword:
		switch tk.keyword {
		case "true":
			return Boolean(true), nil
		case "false":
			return Boolean(false), nil
		case "null":
			return nil, nil
		default:
			return nil, newErrorAt(Format, fmt.Errorf("unexpected keyword %q", tk.keyword), tk.pos)
		}
	}
	return nil, newErrorAt(Format, fmt.Errorf("unexpected token"), tk.pos)
}

// parseIndirectAt parses a complete "<num> <gen> obj ... endobj" sequence
// starting at pos, as used both for the normal cache-miss fetch path and
// for cross-reference recovery scanning. A missing "endobj" keyword is
// logged as Corrupt but is not fatal, per spec §7's recovery policy.
func (p *parser) parseIndirectAt(pos int64) (num uint32, gen uint16, obj Object, err error) {
	p.tok.seek(pos)

	t1, err := p.tok.next()
	if err != nil || t1.kind != tokInteger || t1.i < 0 {
		return 0, 0, nil, newErrorAt(Format, fmt.Errorf("expected object number"), pos)
	}
	t2, err := p.tok.next()
	if err != nil || t2.kind != tokInteger || t2.i < 0 {
		return 0, 0, nil, newErrorAt(Format, fmt.Errorf("expected generation number"), pos)
	}
	t3, err := p.tok.next()
	if err != nil || t3.kind != tokKeyword || t3.keyword != "obj" {
		return 0, 0, nil, newErrorAt(Format, fmt.Errorf("expected \"obj\" keyword"), pos)
	}

	num = uint32(t1.i)
	gen = uint16(t2.i)
	p.setCurrentObject(Reference{Number: num, Generation: gen})

	obj, err = p.parseObject(0)
	if err != nil {
		return num, gen, nil, err
	}

	savedPos := p.tok.pos
	tk, tkErr := p.tok.next()
	if tkErr != nil || tk.kind != tokKeyword || tk.keyword != "endobj" {
		p.tok.pos = savedPos
		if p.doc != nil {
			p.doc.logCorrupt("missing endobj keyword", nil)
		}
	}

	return num, gen, obj, nil
}

func (p *parser) parseIntegerOrReference(first token) (Object, error) {
	savedPos := p.tok.pos
	second, err := p.tok.next()
	if err == nil && second.kind == tokInteger {
		savedPos2 := p.tok.pos
		third, err3 := p.tok.next()
		if err3 == nil && third.kind == tokKeyword && third.keyword == "R" {
			if first.i >= 0 && second.i >= 0 {
				return Reference{Number: uint32(first.i), Generation: uint16(second.i)}, nil
			}
		}
		p.tok.pos = savedPos2
	}
	p.tok.pos = savedPos
	return Integer(first.i), nil
}

func (p *parser) parseArray(depth int) (Array, error) {
	var arr Array
	for {
		savedPos := p.tok.pos
		tk, err := p.tok.next()
		if err != nil {
			return arr, err
		}
		if tk.kind == tokArrayClose {
			return arr, nil
		}
		if tk.kind == tokEOF {
			return arr, newErrorAt(Format, fmt.Errorf("unterminated array"), tk.pos)
		}
		p.tok.pos = savedPos
		obj, err := p.parseObject(depth + 1)
		if err != nil {
			return arr, err
		}
		arr = append(arr, obj)
	}
}

func (p *parser) parseDictOrStream(depth int) (Object, error) {
	dict := Dict{}
	for {
		tk, err := p.tok.next()
		if err != nil {
			return nil, err
		}
		if tk.kind == tokDictClose {
			break
		}
		if tk.kind != tokName {
			return nil, newErrorAt(Format, fmt.Errorf("expected dictionary key, got token kind %d", tk.kind), tk.pos)
		}
		key := Name(tk.bytes)
		val, err := p.parseObject(depth + 1)
		if err != nil {
			return nil, err
		}
		dict[key] = val // last writer wins, matching the file format's rule
	}

	// Look ahead for the "stream" keyword without consuming it if absent.
	savedPos := p.tok.pos
	tk, err := p.tok.next()
	if err != nil {
		return dict, nil //nolint:nilerr // lookahead failure just means "no stream follows"
	}
	if tk.kind != tokKeyword || tk.keyword != "stream" {
		p.tok.pos = savedPos
		return dict, nil
	}

	return p.buildStream(dict)
}

// buildStream locates the raw byte span of a stream's payload, following
// spec §4.3's rules: the "stream" keyword must be followed by exactly one
// line terminator (LF, or CR LF) which is not part of the payload; the
// declared /Length is used when it is directly available, clamped to
// end-of-source if it overruns; when /Length is an indirect reference that
// cannot yet be resolved (the two-pass problem noted in spec §9), the
// payload is instead bounded by scanning forward for the next "endstream"
// keyword.
func (p *parser) buildStream(dict Dict) (*Stream, error) {
	b, ok := p.tok.peekByte(0)
	if ok && b == '\r' {
		p.tok.pos++
		if b2, ok2 := p.tok.peekByte(0); ok2 && b2 == '\n' {
			p.tok.pos++
		}
	} else if ok && b == '\n' {
		p.tok.pos++
	}
	streamStart := p.tok.pos

	length, lengthKnown := p.resolveLength(dict["Length"])

	srcLen := p.tok.src.Len()
	var streamEnd int64
	if lengthKnown {
		streamEnd = streamStart + length
		if streamEnd > srcLen {
			streamEnd = srcLen
		}
	} else {
		streamEnd = p.scanForEndstream(streamStart)
	}
	if streamEnd < streamStart {
		streamEnd = streamStart
	}

	var reader io.Reader = io.NewSectionReader(p.tok.src, streamStart, streamEnd-streamStart)

	s := &Stream{Dict: dict, R: reader}
	if p.doc != nil && p.doc.security != nil && p.curRef != nil {
		s.crypt = p.doc.security.streamFilter(*p.curRef)
	}

	// Position the tokenizer after the payload, at "endstream".
	p.tok.seek(streamEnd)
	p.tok.skipWhiteSpace()
	tk, err := p.tok.next()
	if err != nil || tk.kind != tokKeyword || tk.keyword != "endstream" {
		// Be permissive: a misdeclared length that didn't land exactly on
		// "endstream" is a Corrupt condition, not fatal to the document.
		if p.doc != nil {
			p.doc.logCorrupt("stream missing endstream at expected offset", nil)
		}
	}

	return s, nil
}

func (p *parser) resolveLength(obj Object) (int64, bool) {
	switch v := obj.(type) {
	case Integer:
		return int64(v), true
	case Reference:
		if p.doc == nil {
			return 0, false
		}
		native, err := p.doc.getCached(v)
		if err != nil || native == nil {
			return 0, false
		}
		if i, ok := native.(Integer); ok {
			return int64(i), true
		}
		return 0, false
	default:
		return 0, false
	}
}

var endstreamKeyword = []byte("endstream")

func (p *parser) scanForEndstream(from int64) int64 {
	const window = 8192
	buf := make([]byte, window+len(endstreamKeyword))
	pos := from
	srcLen := p.tok.src.Len()
	for pos < srcLen {
		n, _ := p.tok.src.ReadAt(buf, pos)
		if n == 0 {
			break
		}
		if idx := bytes.Index(buf[:n], endstreamKeyword); idx >= 0 {
			end := pos + int64(idx)
			// trim the single trailing EOL that precedes "endstream"
			if end > from {
				if b, _ := p.tok.peekByteAt(end - 1); b == '\n' {
					end--
					if end > from {
						if b2, _ := p.tok.peekByteAt(end - 1); b2 == '\r' {
							end--
						}
					}
				} else if b == '\r' {
					end--
				}
			}
			return end
		}
		pos += int64(n) - int64(len(endstreamKeyword)-1)
	}
	return srcLen
}

// peekByteAt reads a single byte at an absolute offset without disturbing
// the tokenizer's lookahead buffer state for pos.
func (t *tokenizer) peekByteAt(at int64) (byte, bool) {
	var one [1]byte
	n, _ := t.src.ReadAt(one[:], at)
	if n == 0 {
		return 0, false
	}
	return one[0], true
}
