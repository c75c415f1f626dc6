// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2023  Jochen Voss <voss@seehuhn.de>
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

package pagetree_test

import (
	"testing"

	"go.polder.dev/pdf"
	"go.polder.dev/pdf/pagetree"
)

// fakeDoc is a minimal in-memory pdf.Getter for building a page tree by
// hand, without a real file.
type fakeDoc struct {
	objs    map[pdf.Reference]pdf.Native
	catalog *pdf.Catalog
	next    uint32
}

func newFakeDoc() *fakeDoc {
	return &fakeDoc{objs: make(map[pdf.Reference]pdf.Native), next: 1}
}

func (d *fakeDoc) GetMeta() *pdf.MetaInfo {
	return &pdf.MetaInfo{Version: pdf.V1_7, Catalog: d.catalog}
}

func (d *fakeDoc) Get(ref pdf.Reference, canObjStm bool) (pdf.Native, error) {
	return d.objs[ref], nil
}

func (d *fakeDoc) alloc(dict pdf.Dict) pdf.Reference {
	ref := pdf.NewReference(d.next, 0)
	d.next++
	d.objs[ref] = dict
	return ref
}

func floats(vals ...float64) pdf.Array {
	out := make(pdf.Array, len(vals))
	for i, v := range vals {
		out[i] = pdf.Real(v)
	}
	return out
}

// buildFlatTree builds a single Pages node with n direct Page kids, each
// carrying a distinct /Test marker, and a shared inherited MediaBox.
func buildFlatTree(d *fakeDoc, n int) pdf.Reference {
	pagesRef := pdf.NewReference(d.next, 0)
	d.next++

	kids := make(pdf.Array, n)
	for i := 0; i < n; i++ {
		kids[i] = d.alloc(pdf.Dict{
			"Type":   pdf.Name("Page"),
			"Parent": pagesRef,
			"Test":   pdf.Integer(i),
		})
	}

	d.objs[pagesRef] = pdf.Dict{
		"Type":     pdf.Name("Pages"),
		"Kids":     kids,
		"Count":    pdf.Integer(n),
		"MediaBox": floats(0, 0, 612, 792),
	}
	return pagesRef
}

func TestReaderFlat(t *testing.T) {
	d := newFakeDoc()
	pagesRef := buildFlatTree(d, 10)
	d.catalog = &pdf.Catalog{Pages: pagesRef}

	pr, err := pagetree.NewReader(d)
	if err != nil {
		t.Fatal(err)
	}
	n, err := pr.NumPages()
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Fatalf("NumPages() = %d, want 10", n)
	}

	for i := 0; i < 10; i++ {
		page, err := pr.Get(i)
		if err != nil {
			t.Fatal(err)
		}
		if v := page.Dict["Test"]; v != pdf.Integer(i) {
			t.Errorf("page %d: Test = %v, want %d", i, v, i)
		}
		if page.MediaBox == nil || page.Width() != 612 || page.Height() != 792 {
			t.Errorf("page %d: inherited MediaBox not resolved, got %v", i, page.MediaBox)
		}
	}

	if _, err := pr.Get(10); err == nil {
		t.Errorf("Get(10) should fail, only 10 pages exist")
	}
	if _, err := pr.Get(-1); err == nil {
		t.Errorf("Get(-1) should fail")
	}
}

func TestReaderNested(t *testing.T) {
	d := newFakeDoc()

	rootRef := pdf.NewReference(d.next, 0)
	d.next++

	var kids pdf.Array
	for g := 0; g < 3; g++ {
		sub := buildFlatTree(d, 4)
		kids = append(kids, sub)
	}
	d.objs[rootRef] = pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  kids,
		"Count": pdf.Integer(12),
	}
	d.catalog = &pdf.Catalog{Pages: rootRef}

	pr, err := pagetree.NewReader(d)
	if err != nil {
		t.Fatal(err)
	}
	n, err := pr.NumPages()
	if err != nil {
		t.Fatal(err)
	}
	if n != 12 {
		t.Fatalf("NumPages() = %d, want 12", n)
	}

	for i := 0; i < 12; i++ {
		page, err := pr.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		want := pdf.Integer(i % 4)
		if v := page.Dict["Test"]; v != want {
			t.Errorf("page %d: Test = %v, want %d", i, v, want)
		}
	}
}
