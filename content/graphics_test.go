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
	"testing"

	"seehuhn.de/go/geom/matrix"
)

func TestNewGraphicsStateDefaults(t *testing.T) {
	g := newGraphicsState()
	if g.CTM != matrix.Identity {
		t.Errorf("CTM = %v, want identity", g.CTM)
	}
	if g.LineWidth != 1 {
		t.Errorf("LineWidth = %v, want 1", g.LineWidth)
	}
	if g.MiterLimit != 10 {
		t.Errorf("MiterLimit = %v, want 10", g.MiterLimit)
	}
	if g.Text.Tz != 100 {
		t.Errorf("Text.Tz = %v, want 100", g.Text.Tz)
	}
	if g.StrokeSpace != nil || g.FillSpace != nil {
		t.Errorf("initial color spaces should be nil until CS/cs/G/RG/... resolves one")
	}
}

func TestGraphicsStateStackPushPop(t *testing.T) {
	s := newGraphicsStateStack()
	s.Current().LineWidth = 2

	if err := s.Push(); err != nil {
		t.Fatal(err)
	}
	s.Current().LineWidth = 5
	if s.Current().LineWidth != 5 {
		t.Fatalf("LineWidth after push+mutate = %v, want 5", s.Current().LineWidth)
	}

	if err := s.Pop(); err != nil {
		t.Fatal(err)
	}
	if s.Current().LineWidth != 2 {
		t.Errorf("LineWidth after pop = %v, want 2 (restored)", s.Current().LineWidth)
	}
}

func TestGraphicsStateStackUnderflow(t *testing.T) {
	s := newGraphicsStateStack()
	if err := s.Pop(); err == nil {
		t.Error("Pop on empty stack should report underflow, got nil error")
	}
}

func TestGraphicsStateStackOverflow(t *testing.T) {
	s := newGraphicsStateStack()
	for i := 0; i < maxGraphicsStateDepth; i++ {
		if err := s.Push(); err != nil {
			t.Fatalf("Push #%d: %v", i, err)
		}
	}
	if err := s.Push(); err == nil {
		t.Errorf("Push past depth %d should report overflow, got nil error", maxGraphicsStateDepth)
	}
}
