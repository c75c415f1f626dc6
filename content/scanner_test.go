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
	"io"
	"strings"
	"testing"

	"go.polder.dev/pdf"
)

func scanAll(t *testing.T, src string) []pdf.Object {
	t.Helper()
	s := newScanner(strings.NewReader(src))
	var got []pdf.Object
	for {
		obj, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, obj)
	}
	return got
}

func TestScannerBasicTokens(t *testing.T) {
	got := scanAll(t, "1 2.5 /Name (a string) <48656c6c6f> true false null Tf")
	want := []pdf.Object{
		pdf.Integer(1), pdf.Real(2.5), pdf.Name("Name"),
		pdf.String("a string"), pdf.String("Hello"),
		pdf.Boolean(true), pdf.Boolean(false), nil,
		operator("Tf"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %#v", len(got), len(want), got)
	}
	for i := range want {
		if i == 7 { // null has no comparable zero Go value in pdf.Object form
			continue
		}
		if got[i] != want[i] {
			t.Errorf("token %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestScannerArrayAndDict(t *testing.T) {
	got := scanAll(t, "[1 2 3] << /Key /Value >>")
	if len(got) != 2 {
		t.Fatalf("got %d tokens, want 2", len(got))
	}
	arr, ok := got[0].(pdf.Array)
	if !ok || len(arr) != 3 {
		t.Fatalf("first token = %#v, want a 3-element Array", got[0])
	}
	dict, ok := got[1].(pdf.Dict)
	if !ok || dict["Key"] != pdf.Name("Value") {
		t.Fatalf("second token = %#v, want Dict{Key: Value}", got[1])
	}
}

func TestScannerOperatorTokens(t *testing.T) {
	got := scanAll(t, "q Q re f* BT ET")
	want := []string{"q", "Q", "re", "f*", "BT", "ET"}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(got), len(want))
	}
	for i, w := range want {
		op, ok := got[i].(operator)
		if !ok || string(op) != w {
			t.Errorf("token %d = %#v, want operator %q", i, got[i], w)
		}
	}
}

func TestScannerReadInlineImage(t *testing.T) {
	s := newScanner(strings.NewReader("/W 2 /H 1 /BPC 8 ID \x01\x02 EI trailing"))
	dict, data, err := s.readInlineImage()
	if err != nil {
		t.Fatal(err)
	}
	if dict["W"] != pdf.Integer(2) || dict["H"] != pdf.Integer(1) || dict["BPC"] != pdf.Integer(8) {
		t.Errorf("dict = %#v, want W=2 H=1 BPC=8", dict)
	}
	if string(data) != "\x01\x02" {
		t.Errorf("data = %q, want %q", data, "\x01\x02")
	}

	// The scanner should resume normal tokenizing right after "EI".
	tok, err := s.Next()
	if err != nil {
		t.Fatal(err)
	}
	if op, ok := tok.(operator); !ok || string(op) != "trailing" {
		t.Errorf("token after EI = %#v, want operator %q", tok, "trailing")
	}
}

func TestScannerReadInlineImageEmptyData(t *testing.T) {
	s := newScanner(strings.NewReader("/W 0 ID EI"))
	dict, data, err := s.readInlineImage()
	if err != nil {
		t.Fatal(err)
	}
	if dict["W"] != pdf.Integer(0) {
		t.Errorf("dict = %#v", dict)
	}
	if len(data) != 0 {
		t.Errorf("data = %q, want empty", data)
	}
}
