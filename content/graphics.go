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

package content

import (
	"fmt"

	"seehuhn.de/go/geom/matrix"

	"go.polder.dev/pdf"
)

// maxGraphicsStateDepth bounds the q/Q stack; exceeding it is a malformed
// content stream, not a panic.
const maxGraphicsStateDepth = 128

// maxFormDepth bounds recursive Form XObject invocation via Do.
const maxFormDepth = 32

// TextState holds the subset of the graphics state that only applies
// inside a BT...ET text object.
type TextState struct {
	Tc       float64 // character spacing
	Tw       float64 // word spacing
	Tz       float64 // horizontal scaling, percent (100 = normal)
	TL       float64 // leading
	Font     pdf.Name
	FontSize float64
	Tr       int     // render mode
	Ts       float64 // rise

	Tm  matrix.Matrix // current text matrix
	Tlm matrix.Matrix // current text line matrix
}

// GraphicsState is a saveable snapshot of everything q/Q preserves: the
// CTM, paint colors, line style, text state, and the resources each of
// these is resolved against (ISO 32000-1 §8.4, Table 52).
type GraphicsState struct {
	CTM matrix.Matrix

	StrokeSpace pdf.ColorSpace
	FillSpace   pdf.ColorSpace
	StrokeColor []float64
	FillColor   []float64

	LineWidth float64
	LineCap   int
	LineJoin  int
	MiterLimit float64
	DashArray []float64
	DashPhase float64

	Text TextState
}

// newGraphicsState returns the initial state for a page or Form-XObject
// invocation: identity CTM, black fill/stroke (DeviceGray 0, left as a nil
// ColorSpace since resolving "DeviceGray" needs a Getter the constructor
// doesn't have; CS/cs always sets an explicit space before scn/sc in any
// well-formed content stream), and PDF's documented line-style defaults.
func newGraphicsState() GraphicsState {
	return GraphicsState{
		CTM:         matrix.Identity,
		StrokeColor: []float64{0},
		FillColor:   []float64{0},
		LineWidth:   1,
		MiterLimit:  10,
		Text: TextState{
			Tz: 100,
			Tm: matrix.Identity,
			Tlm: matrix.Identity,
		},
	}
}

// GraphicsStateStack mirrors the q/Q operators: push saves a copy of the
// current state, pop restores the most recently saved one.
type GraphicsStateStack struct {
	cur   GraphicsState
	saved []GraphicsState
}

func newGraphicsStateStack() *GraphicsStateStack {
	return &GraphicsStateStack{cur: newGraphicsState()}
}

// Current returns a pointer to the live, mutable top-of-stack state.
func (s *GraphicsStateStack) Current() *GraphicsState { return &s.cur }

// Push implements q.
func (s *GraphicsStateStack) Push() error {
	if len(s.saved) >= maxGraphicsStateDepth {
		return fmt.Errorf("content: graphics state stack overflow (q nested past %d)", maxGraphicsStateDepth)
	}
	s.saved = append(s.saved, s.cur)
	return nil
}

// Pop implements Q.
func (s *GraphicsStateStack) Pop() error {
	if len(s.saved) == 0 {
		return fmt.Errorf("content: graphics state stack underflow (Q without matching q)")
	}
	n := len(s.saved) - 1
	s.cur = s.saved[n]
	s.saved = s.saved[:n]
	return nil
}

// PathSegment is one instruction of a path under construction; points are
// already in the coordinate system they were appended in (device space,
// once the interpreter has applied the CTM at paint time is a rasterizer
// concern, so PageElements carry user-space points plus the CTM that was
// active when the path was painted).
type PathSegment struct {
	Op     PathOp
	Points [3][2]float64 // only as many as Op needs are meaningful
}

// PathOp enumerates the path-construction instructions.
type PathOp int

const (
	PathMoveTo PathOp = iota
	PathLineTo
	PathCurveTo // cubic Bezier: Points[0], Points[1] are the control points, Points[2] is the endpoint
	PathClose
)

// Path is a sequence of subpaths, as built by m/l/c/v/y/re/h.
type Path []PathSegment

// PageElement is the tagged sum the interpreter emits: Kind selects which
// one of the field groups below is meaningful for an element.
type PageElement struct {
	Kind PageElementKind

	// FilledPath / StrokedPath
	Path     Path
	EvenOdd  bool // true for f*/B*/b* (even-odd fill rule), false for nonzero winding
	CTM      matrix.Matrix
	FillCS   pdf.ColorSpace
	FillCol  []float64
	StrokeCS pdf.ColorSpace
	StrokeCol []float64
	LineWidth float64

	// PlacedText
	Font  pdf.Object // the resolved /Font resource entry (dict or stream)
	Codes pdf.String // raw, not-yet-decoded glyph codes
	Start [2]float64 // text-space origin before the CTM
	TextCTM matrix.Matrix

	// PlacedImage
	Image pdf.Object // the resolved XObject dict/stream
	Matrix matrix.Matrix

	// FormInvocation
	Form pdf.Object

	// ClipPush / ClipPop carry no extra data beyond Kind.
}

// PageElementKind discriminates PageElement's tagged union.
type PageElementKind int

const (
	KindFilledPath PageElementKind = iota
	KindStrokedPath
	KindPlacedText
	KindPlacedImage
	KindClipPush
	KindClipPop
	KindFormInvocation
)

// Sink receives PageElements from the interpreter, in document order.
type Sink interface {
	Emit(el PageElement) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(PageElement) error

func (f SinkFunc) Emit(el PageElement) error { return f(el) }

// PauseCheck is consulted between operators; returning a non-nil error
// aborts interpretation early (e.g. for a caller-side timeout/cancellation).
type PauseCheck func() error
