// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2024  Jochen Voss <voss@seehuhn.de>
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
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
	"seehuhn.de/go/xmp"
)

func TestGetMetadataNoEntry(t *testing.T) {
	g := newMemGetter()
	g.meta.Catalog = &Catalog{Pages: NewReference(1, 0)}

	m, err := GetMetadata(g)
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Errorf("GetMetadata with no /Metadata entry = %+v, want nil", m)
	}
}

func TestGetMetadataNoCatalog(t *testing.T) {
	g := newMemGetter()
	m, err := GetMetadata(g)
	if err != nil || m != nil {
		t.Fatalf("GetMetadata with nil Catalog = %+v, %v, want nil, nil", m, err)
	}
}

func TestGetMetadataDublinCore(t *testing.T) {
	packet := xmp.NewPacket()
	dc := &xmp.DublinCore{}
	dc.Title.Set(language.Und, "Test Document")
	dc.Creator.Append(xmp.NewProperName("Jane Doe"))
	if err := packet.Set(dc); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := packet.Write(&buf, nil); err != nil {
		t.Fatal(err)
	}

	g := newMemGetter()
	ref := NewReference(1, 0)
	g.objs[ref] = &Stream{
		Dict: Dict{"Type": Name("Metadata"), "Subtype": Name("XML")},
		R:    bytes.NewReader(buf.Bytes()),
	}
	g.meta.Catalog = &Catalog{Pages: NewReference(2, 0), Metadata: ref}

	m, err := GetMetadata(g)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("GetMetadata returned nil for a present /Metadata stream")
	}

	got, err := m.DublinCore()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(*got, *dc); diff != "" {
		t.Errorf("DublinCore() round trip (-got +want):\n%s", diff)
	}
}
