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

// fetchFromObjectStream decodes streamRef's payload (an object stream, PDF
// type /ObjStm) and extracts the objIndex'th member, which must be ref's
// value. In an encrypted document the object stream is decrypted as a
// whole by DecodeStream, so the strings of its members carry no encryption
// of their own and are parsed without per-object decryption. Object
// streams may not contain further streams, so this path never recurses
// into another fetchFromObjectStream call.
func (doc *Document) fetchFromObjectStream(ref, streamRef Reference, objIndex int) (Native, error) {
	stmObj, err := doc.Get(streamRef, true)
	if err != nil {
		return nil, err
	}
	stm, ok := stmObj.(*Stream)
	if !ok {
		return nil, newErrorRef(Format, fmt.Errorf("object stream %d is not a stream", streamRef.Number), ref)
	}

	n, ok := stm.Dict["N"].(Integer)
	if !ok {
		return nil, newErrorRef(Format, fmt.Errorf("object stream missing /N"), ref)
	}
	if int64(n) > int64(doc.opts.MaxObjectStreamMembers) {
		return nil, &Error{Kind: Limit, Err: fmt.Errorf("object stream declares %d members, limit is %d", n, doc.opts.MaxObjectStreamMembers)}
	}
	first, ok := stm.Dict["First"].(Integer)
	if !ok {
		return nil, newErrorRef(Format, fmt.Errorf("object stream missing /First"), ref)
	}

	r, err := DecodeStream(doc, stm, 0, doc.opts.PauseCheck)
	if err != nil {
		return nil, err
	}
	raw, err := readAllLimited(r, 256<<20)
	if err != nil {
		return nil, err
	}

	src := newMemorySource(raw)
	headerTok := newTokenizer(src, 0)

	type member struct {
		num uint32
		off int64
	}
	members := make([]member, 0, n)
	for i := int64(0); i < int64(n); i++ {
		t1, err := headerTok.next()
		if err != nil || t1.kind != tokInteger {
			return nil, newErrorRef(Format, fmt.Errorf("malformed object stream header"), ref)
		}
		t2, err := headerTok.next()
		if err != nil || t2.kind != tokInteger {
			return nil, newErrorRef(Format, fmt.Errorf("malformed object stream header"), ref)
		}
		members = append(members, member{num: uint32(t1.i), off: t2.i})
	}

	if objIndex < 0 || objIndex >= len(members) {
		return nil, newErrorRef(Format, fmt.Errorf("object stream member index %d out of range", objIndex), ref)
	}
	m := members[objIndex]
	if m.num != ref.Number {
		doc.logCorrupt(fmt.Sprintf("object stream member %d has number %d, expected %d", objIndex, m.num, ref.Number), nil)
	}

	bodyTok := newTokenizer(src, int64(first)+m.off)
	p := newParser(bodyTok, doc)
	obj, err := p.parseObject(0)
	if err != nil {
		return nil, err
	}
	native, ok := obj.(Native)
	if !ok && obj != nil {
		return nil, newErrorRef(Format, fmt.Errorf("compressed object resolved to a reference"), ref)
	}
	return native, nil
}
