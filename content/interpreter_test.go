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

package content

import (
	"strings"
	"testing"

	"go.polder.dev/pdf"
)

func runContent(t *testing.T, r pdf.Getter, resources pdf.Dict, stream string) []PageElement {
	t.Helper()
	g, _ := r.(*memGetter)
	if g == nil {
		g = newMemGetter()
	}
	if r == nil {
		r = g
	}
	ref := g.alloc(&pdf.Stream{Dict: pdf.Dict{}, R: strings.NewReader(stream)})

	var got []PageElement
	sink := SinkFunc(func(el PageElement) error {
		got = append(got, el)
		return nil
	})
	if err := Interpret(r, resources, ref, sink, nil); err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	return got
}

func TestInterpretFilledRectangle(t *testing.T) {
	els := runContent(t, nil, pdf.Dict{}, "1 0 0 rg 10 20 30 40 re f")
	if len(els) != 1 {
		t.Fatalf("got %d elements, want 1", len(els))
	}
	el := els[0]
	if el.Kind != KindFilledPath {
		t.Fatalf("Kind = %v, want KindFilledPath", el.Kind)
	}
	if el.EvenOdd {
		t.Error("EvenOdd = true for f, want false (nonzero winding)")
	}
	if len(el.FillCol) != 3 || el.FillCol[0] != 1 || el.FillCol[1] != 0 || el.FillCol[2] != 0 {
		t.Errorf("FillCol = %v, want [1 0 0]", el.FillCol)
	}
	if len(el.Path) != 5 {
		t.Fatalf("re should build 5 path segments (move+3 lines+close), got %d", len(el.Path))
	}
	if el.Path[0].Op != PathMoveTo || el.Path[0].Points[0] != [2]float64{10, 20} {
		t.Errorf("first segment = %+v, want moveto (10,20)", el.Path[0])
	}
	if el.Path[4].Op != PathClose {
		t.Errorf("last segment = %+v, want close", el.Path[4])
	}
}

func TestInterpretEvenOddFill(t *testing.T) {
	els := runContent(t, nil, pdf.Dict{}, "0 0 10 10 re f*")
	if len(els) != 1 || els[0].Kind != KindFilledPath || !els[0].EvenOdd {
		t.Fatalf("f* should emit one even-odd FilledPath, got %+v", els)
	}
}

func TestInterpretStrokeAndFillStroke(t *testing.T) {
	els := runContent(t, nil, pdf.Dict{}, "0 0 10 10 re S")
	if len(els) != 1 || els[0].Kind != KindStrokedPath {
		t.Fatalf("S should emit one StrokedPath, got %+v", els)
	}

	els = runContent(t, nil, pdf.Dict{}, "0 0 10 10 re B")
	if len(els) != 2 {
		t.Fatalf("B should emit fill+stroke, got %d elements", len(els))
	}
	if els[0].Kind != KindFilledPath || els[1].Kind != KindStrokedPath {
		t.Errorf("B order = %v, %v, want FilledPath then StrokedPath", els[0].Kind, els[1].Kind)
	}
}

func TestInterpretNoPaintOpSuppressesPath(t *testing.T) {
	els := runContent(t, nil, pdf.Dict{}, "0 0 10 10 re n")
	if len(els) != 0 {
		t.Fatalf("n (no-op paint) should emit nothing for a path, got %+v", els)
	}
}

func TestInterpretClipAlignsWithQ(t *testing.T) {
	els := runContent(t, nil, pdf.Dict{}, "q 0 0 10 10 re W n Q")
	var kinds []PageElementKind
	for _, el := range els {
		kinds = append(kinds, el.Kind)
	}
	if len(kinds) != 2 || kinds[0] != KindClipPush || kinds[1] != KindClipPop {
		t.Fatalf("kinds = %v, want [ClipPush ClipPop]", kinds)
	}
}

func TestInterpretUnbalancedQTolerated(t *testing.T) {
	// A bare Q with no matching q is a recoverable error per the
	// permissive-robustness contract: interpretation continues.
	els := runContent(t, nil, pdf.Dict{}, "Q 0 0 10 10 re f")
	if len(els) != 1 || els[0].Kind != KindFilledPath {
		t.Fatalf("unbalanced Q should not abort the rest of the stream, got %+v", els)
	}
}

func TestInterpretCTMComposition(t *testing.T) {
	els := runContent(t, nil, pdf.Dict{}, "2 0 0 2 5 5 cm 1 0 0 1 100 100 cm 0 0 1 1 re f")
	if len(els) != 1 {
		t.Fatalf("got %d elements, want 1", len(els))
	}
	// cm composes left-multiplied onto the CTM in content-stream order: the
	// second cm is applied relative to the space set up by the first.
	want := [6]float64{2, 0, 0, 2, 205, 205}
	got := els[0].CTM
	for i := 0; i < 6; i++ {
		if got[i] != want[i] {
			t.Errorf("CTM[%d] = %v, want %v (CTM=%v)", i, got[i], want[i], got)
			break
		}
	}
}

func TestInterpretTextShowing(t *testing.T) {
	els := runContent(t, nil, pdf.Dict{}, "BT /F1 12 Tf 1 0 0 1 50 700 Tm (Hi) Tj ET")
	if len(els) != 1 || els[0].Kind != KindPlacedText {
		t.Fatalf("got %+v, want one PlacedText", els)
	}
	el := els[0]
	if string(el.Codes) != "Hi" {
		t.Errorf("Codes = %q, want %q", el.Codes, "Hi")
	}
	if el.Start != [2]float64{50, 700} {
		t.Errorf("Start = %v, want [50 700]", el.Start)
	}
}

func TestInterpretTJKerningAdvancesTm(t *testing.T) {
	els := runContent(t, nil, pdf.Dict{}, "BT /F1 10 Tf 0 0 Td [(A) -500 (B)] TJ ET")
	if len(els) != 2 {
		t.Fatalf("got %d PlacedText elements, want 2", len(els))
	}
	// -500 thousandths at 10pt, 100% horizontal scale = 5 units advance.
	if els[1].Start[0]-els[0].Start[0] != 5 {
		t.Errorf("second glyph run x-advance = %v, want 5", els[1].Start[0]-els[0].Start[0])
	}
}

func TestInterpretUnknownOperatorIsSkipped(t *testing.T) {
	els := runContent(t, nil, pdf.Dict{}, "1 2 Zz 0 0 10 10 re f")
	if len(els) != 1 || els[0].Kind != KindFilledPath {
		t.Fatalf("an unrecognized operator should be skipped, not abort the stream: got %+v", els)
	}
}

func TestInterpretColorSpaceFromResources(t *testing.T) {
	g := newMemGetter()
	resources := pdf.Dict{
		"ColorSpace": pdf.Dict{
			"CS0": pdf.Array{pdf.Name("Indexed"), pdf.Name("DeviceRGB"), pdf.Integer(1), pdf.String([]byte{255, 0, 0, 0, 255, 0})},
		},
	}
	els := runContent(t, g, resources, "/CS0 cs 1 scn 0 0 10 10 re f")
	if len(els) != 1 {
		t.Fatalf("got %d elements, want 1", len(els))
	}
	if els[0].FillCS == nil {
		t.Fatal("FillCS should be resolved from the named /ColorSpace resource")
	}
	if els[0].FillCS.NumComponents() != 1 {
		t.Errorf("NumComponents() = %d, want 1 (Indexed)", els[0].FillCS.NumComponents())
	}
}

func TestInterpretFormDepthLimit(t *testing.T) {
	g := newMemGetter()

	// Build a self-referencing Form XObject chain longer than maxFormDepth.
	var formRef pdf.Reference
	formRef = g.alloc(&pdf.Stream{
		Dict: pdf.Dict{
			"Subtype":   pdf.Name("Form"),
			"Resources": pdf.Dict{"XObject": pdf.Dict{"Fm": formRef}},
		},
		R: strings.NewReader("/Fm Do"),
	})
	// Patch in the self-reference now that formRef is known (alloc already
	// stored the stream by value above, so update the dict in place).
	stm := g.objs[formRef].(*pdf.Stream)
	stm.Dict["Resources"] = pdf.Dict{"XObject": pdf.Dict{"Fm": formRef}}

	resources := pdf.Dict{"XObject": pdf.Dict{"Fm": formRef}}
	els := runContent(t, g, resources, "/Fm Do")
	// The recursion is bounded; it must not hang or panic. Whatever
	// FormInvocation elements are emitted is secondary to termination.
	_ = els
}

func TestInterpretInlineImage(t *testing.T) {
	data := "BI /W 1 /H 1 /BPC 8 /CS /G ID \x7f EI"
	els := runContent(t, nil, pdf.Dict{}, data+" 0 0 1 1 re f")
	if len(els) != 2 {
		t.Fatalf("got %d elements, want 2 (image + filled path)", len(els))
	}
	if els[0].Kind != KindPlacedImage {
		t.Fatalf("first element Kind = %v, want KindPlacedImage", els[0].Kind)
	}
	stm, ok := els[0].Image.(*pdf.Stream)
	if !ok {
		t.Fatalf("Image = %T, want *pdf.Stream", els[0].Image)
	}
	if stm.Dict["W"] != pdf.Integer(1) {
		t.Errorf("inline image /W = %v, want 1", stm.Dict["W"])
	}
}
