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

package acroform_test

import (
	"testing"

	"go.polder.dev/pdf"
	"go.polder.dev/pdf/acroform"
)

// memGetter is a minimal in-memory pdf.Getter for building AcroForm object
// graphs by hand, without a real file.
type memGetter struct {
	objs    map[pdf.Reference]pdf.Native
	catalog *pdf.Catalog
}

func newMemGetter() *memGetter {
	return &memGetter{objs: make(map[pdf.Reference]pdf.Native)}
}

func (g *memGetter) GetMeta() *pdf.MetaInfo {
	return &pdf.MetaInfo{Version: pdf.V1_7, Catalog: g.catalog}
}

func (g *memGetter) Get(ref pdf.Reference, canObjStm bool) (pdf.Native, error) {
	return g.objs[ref], nil
}

func floats(vals ...float64) pdf.Array {
	out := make(pdf.Array, len(vals))
	for i, v := range vals {
		out[i] = pdf.Real(v)
	}
	return out
}

func TestGetNoEntry(t *testing.T) {
	g := newMemGetter()
	g.catalog = &pdf.Catalog{Pages: pdf.NewReference(1, 0)}

	form, err := acroform.Get(g)
	if err != nil || form != nil {
		t.Fatalf("Get with no /AcroForm = %+v, %v, want nil, nil", form, err)
	}
}

func TestGetFlatFields(t *testing.T) {
	g := newMemGetter()

	textField := pdf.NewReference(10, 0)
	g.objs[textField] = pdf.Dict{
		"FT": pdf.Name("Tx"),
		"T":  pdf.String("name"),
		"V":  pdf.String("Jane Doe"),
	}

	btnField := pdf.NewReference(11, 0)
	g.objs[btnField] = pdf.Dict{
		"FT": pdf.Name("Btn"),
		"T":  pdf.String("agree"),
		"V":  pdf.Name("Yes"),
		"Ff": pdf.Integer(acroform.FlagRequired),
	}

	formRef := pdf.NewReference(20, 0)
	g.objs[formRef] = pdf.Dict{
		"Fields": pdf.Array{textField, btnField},
	}

	g.catalog = &pdf.Catalog{Pages: pdf.NewReference(1, 0), AcroForm: formRef}

	form, err := acroform.Get(g)
	if err != nil {
		t.Fatal(err)
	}
	if form == nil {
		t.Fatal("Get returned nil for a present /AcroForm")
	}
	if len(form.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(form.Fields))
	}

	f0 := form.Fields[0]
	if f0.Kind != acroform.Text || f0.Name != "name" || f0.Value != pdf.String("Jane Doe") {
		t.Errorf("Fields[0] = %+v, want Tx/name/Jane Doe", f0)
	}

	f1 := form.Fields[1]
	if f1.Kind != acroform.Button || f1.Flags&acroform.FlagRequired == 0 {
		t.Errorf("Fields[1] = %+v, want Btn with FlagRequired", f1)
	}
}

func TestGetInheritedKindAndQualifiedName(t *testing.T) {
	g := newMemGetter()

	kidRef := pdf.NewReference(11, 0)
	g.objs[kidRef] = pdf.Dict{
		"T": pdf.String("first"),
		"V": pdf.String("Jane"),
		// no /FT: inherited from the parent
	}

	parentRef := pdf.NewReference(10, 0)
	g.objs[parentRef] = pdf.Dict{
		"FT":   pdf.Name("Tx"),
		"T":    pdf.String("name"),
		"Kids": pdf.Array{kidRef},
	}

	formRef := pdf.NewReference(20, 0)
	g.objs[formRef] = pdf.Dict{"Fields": pdf.Array{parentRef}}
	g.catalog = &pdf.Catalog{Pages: pdf.NewReference(1, 0), AcroForm: formRef}

	form, err := acroform.Get(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(form.Fields) != 1 || len(form.Fields[0].Kids) != 1 {
		t.Fatalf("unexpected field tree shape: %+v", form.Fields)
	}
	kid := form.Fields[0].Kids[0]
	if kid.Kind != acroform.Text {
		t.Errorf("Kids[0].Kind = %q, want inherited Tx", kid.Kind)
	}
	if got := kid.QualifiedName(form.Fields[0].QualifiedName("")); got != "name.first" {
		t.Errorf("QualifiedName = %q, want %q", got, "name.first")
	}
}

func TestGetSkipsBareWidgetKids(t *testing.T) {
	g := newMemGetter()

	widgetRef := pdf.NewReference(11, 0)
	g.objs[widgetRef] = pdf.Dict{
		"Subtype": pdf.Name("Widget"),
		"Rect":    floats(0, 0, 10, 10),
		// no /FT, no /T: this is a pure widget annotation, not a sub-field
	}

	fieldRef := pdf.NewReference(10, 0)
	g.objs[fieldRef] = pdf.Dict{
		"FT":   pdf.Name("Tx"),
		"T":    pdf.String("name"),
		"Kids": pdf.Array{widgetRef},
	}

	formRef := pdf.NewReference(20, 0)
	g.objs[formRef] = pdf.Dict{"Fields": pdf.Array{fieldRef}}
	g.catalog = &pdf.Catalog{Pages: pdf.NewReference(1, 0), AcroForm: formRef}

	form, err := acroform.Get(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(form.Fields[0].Kids) != 0 {
		t.Errorf("Kids = %+v, want none (widget-only kid skipped)", form.Fields[0].Kids)
	}
}

func TestGetCycleIsRejected(t *testing.T) {
	g := newMemGetter()

	ref := pdf.NewReference(10, 0)
	g.objs[ref] = pdf.Dict{
		"FT":   pdf.Name("Tx"),
		"T":    pdf.String("self"),
		"Kids": pdf.Array{ref},
	}

	formRef := pdf.NewReference(20, 0)
	g.objs[formRef] = pdf.Dict{"Fields": pdf.Array{ref}}
	g.catalog = &pdf.Catalog{Pages: pdf.NewReference(1, 0), AcroForm: formRef}

	form, err := acroform.Get(g)
	if err != nil {
		t.Fatal(err)
	}
	// the cyclic kid is rejected during recursion and silently dropped,
	// leaving the root field itself intact with no kids
	if len(form.Fields) != 1 || len(form.Fields[0].Kids) != 0 {
		t.Errorf("field tree with a cycle = %+v, want root field with no kids", form.Fields)
	}
}
