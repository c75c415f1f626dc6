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

// Package content interprets a page's content stream: it tokenizes the
// operator/operand sequence, maintains the graphics-state stack, and emits
// a sequence of PageElements (the rendering-facing output) to a Sink.
package content

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"seehuhn.de/go/geom/matrix"

	"go.polder.dev/pdf"
)

// Interpret runs the content interpreter over contentsObj, a page's or
// form's /Contents value (one stream or an array of streams), resolving
// named resources (ColorSpace, Font, XObject, ExtGState) against resources,
// and emitting PageElements to sink in document order. Marked-content
// operators are ignored, so /Properties is never read.
func Interpret(r pdf.Getter, resources pdf.Dict, contentsObj pdf.Object, sink Sink, pause PauseCheck) error {
	ip := &interpreter{
		r:         r,
		resources: resources,
		sink:      sink,
		pause:     pause,
		stack:     newGraphicsStateStack(),
	}
	return ip.run(contentsObj, 0)
}

// contentReader concatenates the decoded bytes of every part of /Contents
// (a single stream, or an array of streams to be treated as if
// concatenated with a space between each, per ISO 32000-1 §7.8.2).
func contentReader(r pdf.Getter, ref pdf.Object, pause PauseCheck) (io.Reader, error) {
	contents, err := pdf.Resolve(r, ref)
	if err != nil {
		return nil, err
	}
	switch contents := contents.(type) {
	case *pdf.Stream:
		return pdf.GetStreamReader(r, ref, pdf.PauseCheck(pause))
	case pdf.Array:
		var readers []io.Reader
		for i, part := range contents {
			if i > 0 {
				readers = append(readers, strings.NewReader(" "))
			}
			rc, err := pdf.GetStreamReader(r, part, pdf.PauseCheck(pause))
			if err != nil {
				return nil, err
			}
			readers = append(readers, rc)
		}
		return io.MultiReader(readers...), nil
	case nil:
		return strings.NewReader(""), nil
	default:
		return nil, fmt.Errorf("content: unexpected type %T for page contents", contents)
	}
}

type interpreter struct {
	r         pdf.Getter
	resources pdf.Dict
	sink      Sink
	pause     PauseCheck

	stack *GraphicsStateStack

	path      Path
	subpathAt [2]float64 // start point of the current subpath, for h (closepath)
	curPt     [2]float64

	pendingClipEvenOdd *bool // non-nil once W/W* seen, cleared at the next paint op
	clipDepth          []int // stack-depths (len(saved) at push time) at which a ClipPush is still open

	formDepth int
}

func (ip *interpreter) run(contentsObj pdf.Object, formDepth int) error {
	if formDepth > maxFormDepth {
		return fmt.Errorf("content: form XObject nesting exceeds %d", maxFormDepth)
	}
	ip.formDepth = formDepth

	src, err := contentReader(ip.r, contentsObj, ip.pause)
	if err != nil {
		return err
	}

	var seq operatorSeq
	return seq.forAllCommands(src, func(cmd operator, args []pdf.Object) error {
		if ip.pause != nil {
			if err := ip.pause(); err != nil {
				return err
			}
		}
		return ip.do(cmd, args)
	})
}

// do dispatches one operator. Per ISO 32000-1's own rule for malformed
// content, an operator that fails to type-check its operands (including an
// operator nobody recognizes) clears the pending operand stack and the
// interpreter moves on rather than aborting the whole stream.
func (ip *interpreter) do(cmd operator, args []pdf.Object) error {
	g := ip.stack.Current()

	switch string(cmd) {

	// == Graphics state =================================================

	case "q":
		if err := ip.stack.Push(); err != nil {
			return nil // q past maxGraphicsStateDepth is skipped; interpretation continues
		}
		return nil
	case "Q":
		depth := len(ip.stack.saved)
		if err := ip.stack.Pop(); err != nil {
			return nil // tolerate unbalanced Q, per permissive-robustness contract
		}
		for len(ip.clipDepth) > 0 && ip.clipDepth[len(ip.clipDepth)-1] >= depth {
			ip.clipDepth = ip.clipDepth[:len(ip.clipDepth)-1]
			ip.emit(PageElement{Kind: KindClipPop})
		}
		return nil
	case "cm":
		m, ok := getMatrix(args)
		if !ok {
			return nil
		}
		g.CTM = m.Mul(g.CTM)
		return nil
	case "w":
		if v, ok := numArg(args, 0); ok {
			g.LineWidth = v
		}
		return nil
	case "J":
		if v, ok := numArg(args, 0); ok {
			g.LineCap = int(v)
		}
		return nil
	case "j":
		if v, ok := numArg(args, 0); ok {
			g.LineJoin = int(v)
		}
		return nil
	case "M":
		if v, ok := numArg(args, 0); ok {
			g.MiterLimit = v
		}
		return nil
	case "d":
		if len(args) >= 2 {
			if arr, ok := args[0].(pdf.Array); ok {
				dash := make([]float64, len(arr))
				for i, x := range arr {
					v, _ := getReal(x)
					dash[i] = v
				}
				g.DashArray = dash
			}
			if v, ok := getReal(args[1]); ok {
				g.DashPhase = v
			}
		}
		return nil
	case "ri", "i":
		return nil // rendering intent / flatness tolerance: no state we track
	case "gs":
		return ip.doExtGState(args)

	// == Path construction ===============================================

	case "m":
		if x, y, ok := point(args, 0); ok {
			ip.curPt = [2]float64{x, y}
			ip.subpathAt = ip.curPt
			ip.path = append(ip.path, PathSegment{Op: PathMoveTo, Points: [3][2]float64{{x, y}}})
		}
		return nil
	case "l":
		if x, y, ok := point(args, 0); ok {
			ip.curPt = [2]float64{x, y}
			ip.path = append(ip.path, PathSegment{Op: PathLineTo, Points: [3][2]float64{{x, y}}})
		}
		return nil
	case "c":
		if len(args) >= 6 {
			x1, y1, _ := point(args, 0)
			x2, y2, _ := point(args, 2)
			x3, y3, _ := point(args, 4)
			ip.path = append(ip.path, PathSegment{Op: PathCurveTo, Points: [3][2]float64{{x1, y1}, {x2, y2}, {x3, y3}}})
			ip.curPt = [2]float64{x3, y3}
		}
		return nil
	case "v": // current point is the first control point
		if len(args) >= 4 {
			x2, y2, _ := point(args, 0)
			x3, y3, _ := point(args, 2)
			ip.path = append(ip.path, PathSegment{Op: PathCurveTo, Points: [3][2]float64{ip.curPt, {x2, y2}, {x3, y3}}})
			ip.curPt = [2]float64{x3, y3}
		}
		return nil
	case "y": // second control point coincides with the endpoint
		if len(args) >= 4 {
			x1, y1, _ := point(args, 0)
			x3, y3, _ := point(args, 2)
			ip.path = append(ip.path, PathSegment{Op: PathCurveTo, Points: [3][2]float64{{x1, y1}, {x3, y3}, {x3, y3}}})
			ip.curPt = [2]float64{x3, y3}
		}
		return nil
	case "h":
		ip.path = append(ip.path, PathSegment{Op: PathClose})
		ip.curPt = ip.subpathAt
		return nil
	case "re":
		if len(args) >= 4 {
			x, _ := getReal(args[0])
			y, _ := getReal(args[1])
			w, _ := getReal(args[2])
			h, _ := getReal(args[3])
			ip.path = append(ip.path,
				PathSegment{Op: PathMoveTo, Points: [3][2]float64{{x, y}}},
				PathSegment{Op: PathLineTo, Points: [3][2]float64{{x + w, y}}},
				PathSegment{Op: PathLineTo, Points: [3][2]float64{{x + w, y + h}}},
				PathSegment{Op: PathLineTo, Points: [3][2]float64{{x, y + h}}},
				PathSegment{Op: PathClose},
			)
			ip.curPt = [2]float64{x, y}
			ip.subpathAt = ip.curPt
		}
		return nil

	// == Path painting ====================================================

	case "S":
		return ip.paint(false, true, false)
	case "s":
		ip.path = append(ip.path, PathSegment{Op: PathClose})
		return ip.paint(false, true, false)
	case "f", "F":
		return ip.paint(true, false, false)
	case "f*":
		return ip.paint(true, false, true)
	case "B":
		return ip.paint(true, true, false)
	case "B*":
		return ip.paint(true, true, true)
	case "b":
		ip.path = append(ip.path, PathSegment{Op: PathClose})
		return ip.paint(true, true, false)
	case "b*":
		ip.path = append(ip.path, PathSegment{Op: PathClose})
		return ip.paint(true, true, true)
	case "n":
		return ip.paint(false, false, false)

	// == Clipping =========================================================

	case "W":
		v := false
		ip.pendingClipEvenOdd = &v
		return nil
	case "W*":
		v := true
		ip.pendingClipEvenOdd = &v
		return nil

	// == Color ============================================================

	case "CS":
		return ip.setColorSpace(args, true)
	case "cs":
		return ip.setColorSpace(args, false)
	case "SC", "SCN":
		ip.setColor(args, true)
		return nil
	case "sc", "scn":
		ip.setColor(args, false)
		return nil
	case "G":
		if v, ok := numArg(args, 0); ok {
			g.StrokeSpace = nil
			g.StrokeColor = []float64{v}
		}
		return nil
	case "g":
		if v, ok := numArg(args, 0); ok {
			g.FillSpace = nil
			g.FillColor = []float64{v}
		}
		return nil
	case "RG":
		if v, ok := numArgs(args, 3); ok {
			g.StrokeSpace = nil
			g.StrokeColor = v
		}
		return nil
	case "rg":
		if v, ok := numArgs(args, 3); ok {
			g.FillSpace = nil
			g.FillColor = v
		}
		return nil
	case "K":
		if v, ok := numArgs(args, 4); ok {
			g.StrokeSpace = nil
			g.StrokeColor = v
		}
		return nil
	case "k":
		if v, ok := numArgs(args, 4); ok {
			g.FillSpace = nil
			g.FillColor = v
		}
		return nil

	// == Text objects =====================================================

	case "BT":
		g.Text.Tm = matrix.Identity
		g.Text.Tlm = matrix.Identity
		return nil
	case "ET":
		return nil

	// == Text state =======================================================

	case "Tc":
		if v, ok := numArg(args, 0); ok {
			g.Text.Tc = v
		}
		return nil
	case "Tw":
		if v, ok := numArg(args, 0); ok {
			g.Text.Tw = v
		}
		return nil
	case "Tz":
		if v, ok := numArg(args, 0); ok {
			g.Text.Tz = v
		}
		return nil
	case "TL":
		if v, ok := numArg(args, 0); ok {
			g.Text.TL = v
		}
		return nil
	case "Tf":
		if len(args) >= 2 {
			if name, ok := args[0].(pdf.Name); ok {
				if size, ok := getReal(args[1]); ok {
					g.Text.Font = name
					g.Text.FontSize = size
				}
			}
		}
		return nil
	case "Tr":
		if v, ok := numArg(args, 0); ok {
			g.Text.Tr = int(v)
		}
		return nil
	case "Ts":
		if v, ok := numArg(args, 0); ok {
			g.Text.Ts = v
		}
		return nil

	// == Text positioning =================================================

	case "Td":
		if tx, ty, ok := point(args, 0); ok {
			g.Text.Tlm = matrix.Matrix{1, 0, 0, 1, tx, ty}.Mul(g.Text.Tlm)
			g.Text.Tm = g.Text.Tlm
		}
		return nil
	case "TD":
		if tx, ty, ok := point(args, 0); ok {
			g.Text.TL = -ty
			g.Text.Tlm = matrix.Matrix{1, 0, 0, 1, tx, ty}.Mul(g.Text.Tlm)
			g.Text.Tm = g.Text.Tlm
		}
		return nil
	case "Tm":
		if len(args) >= 6 {
			var m matrix.Matrix
			ok := true
			for i := 0; i < 6; i++ {
				v, o := getReal(args[i])
				if !o {
					ok = false
					break
				}
				m[i] = v
			}
			if ok {
				g.Text.Tm = m
				g.Text.Tlm = m
			}
		}
		return nil
	case "T*":
		g.Text.Tlm = matrix.Matrix{1, 0, 0, 1, 0, -g.Text.TL}.Mul(g.Text.Tlm)
		g.Text.Tm = g.Text.Tlm
		return nil

	// == Text showing ======================================================

	case "Tj":
		if len(args) >= 1 {
			if s, ok := args[0].(pdf.String); ok {
				ip.showText(s)
			}
		}
		return nil
	case "'":
		g.Text.Tlm = matrix.Matrix{1, 0, 0, 1, 0, -g.Text.TL}.Mul(g.Text.Tlm)
		g.Text.Tm = g.Text.Tlm
		if len(args) >= 1 {
			if s, ok := args[0].(pdf.String); ok {
				ip.showText(s)
			}
		}
		return nil
	case `"`:
		if len(args) >= 3 {
			if aw, ok := getReal(args[0]); ok {
				g.Text.Tw = aw
			}
			if ac, ok := getReal(args[1]); ok {
				g.Text.Tc = ac
			}
			g.Text.Tlm = matrix.Matrix{1, 0, 0, 1, 0, -g.Text.TL}.Mul(g.Text.Tlm)
			g.Text.Tm = g.Text.Tlm
			if s, ok := args[2].(pdf.String); ok {
				ip.showText(s)
			}
		}
		return nil
	case "TJ":
		if len(args) >= 1 {
			if arr, ok := args[0].(pdf.Array); ok {
				for _, frag := range arr {
					switch v := frag.(type) {
					case pdf.String:
						ip.showText(v)
					case pdf.Integer, pdf.Real, pdf.Number:
						// an explicit kerning adjustment, in thousandths of
						// text space; advance Tm along the writing direction.
						adj, _ := getReal(v)
						tx := -adj / 1000 * g.Text.FontSize * (g.Text.Tz / 100)
						g.Text.Tm = matrix.Matrix{1, 0, 0, 1, tx, 0}.Mul(g.Text.Tm)
					}
				}
			}
		}
		return nil

	// == XObjects =========================================================

	case "Do":
		return ip.doXObject(args)

	// == Shading ==========================================================

	case "sh":
		// A shading fills the current clip region directly; it has no
		// PageElement of its own in the closed sum this interpreter emits
		// (only FilledPath/StrokedPath/PlacedText/PlacedImage/clip/form),
		// so resolving the named shading dict is left to a caller that
		// wants to special-case it via the resources it already has access
		// to.
		return nil

	// == Inline images ====================================================

	case string(inlineImageOp):
		return ip.doInlineImage(args)

	// == Marked content / compatibility ===================================

	case "BMC", "BDC", "EMC", "MP", "DP", "BX", "EX":
		return nil

	default:
		// Unknown operator: PDF's own rule is that it simply consumes its
		// pending operands and interpretation continues.
		return nil
	}
}

func (ip *interpreter) paint(fill, stroke, evenOdd bool) error {
	g := ip.stack.Current()
	ctm := g.CTM

	if ip.pendingClipEvenOdd != nil {
		ip.emit(PageElement{Kind: KindClipPush})
		ip.clipDepth = append(ip.clipDepth, len(ip.stack.saved))
		ip.pendingClipEvenOdd = nil
	}

	if len(ip.path) > 0 {
		if fill {
			ip.emit(PageElement{
				Kind: KindFilledPath, Path: ip.path, EvenOdd: evenOdd, CTM: ctm,
				FillCS: g.FillSpace, FillCol: g.FillColor,
			})
		}
		if stroke {
			ip.emit(PageElement{
				Kind: KindStrokedPath, Path: ip.path, CTM: ctm,
				StrokeCS: g.StrokeSpace, StrokeCol: g.StrokeColor, LineWidth: g.LineWidth,
			})
		}
	}
	ip.path = nil
	return nil
}

func (ip *interpreter) setColorSpace(args []pdf.Object, stroking bool) error {
	if len(args) < 1 {
		return nil
	}
	name, ok := args[0].(pdf.Name)
	if !ok {
		return nil
	}
	g := ip.stack.Current()
	switch name {
	case "DeviceGray", "DeviceRGB", "DeviceCMYK", "Pattern":
		cs, err := pdf.GetColorSpace(ip.r, name)
		if err != nil {
			return nil
		}
		ip.installColorSpace(g, stroking, cs)
		return nil
	}
	csDict, err := pdf.GetDict(ip.r, ip.resources["ColorSpace"])
	if err != nil || csDict == nil {
		return nil
	}
	obj, ok := csDict[name]
	if !ok {
		return nil
	}
	cs, err := pdf.GetColorSpace(ip.r, obj)
	if err != nil {
		return nil
	}
	ip.installColorSpace(g, stroking, cs)
	return nil
}

func (ip *interpreter) installColorSpace(g *GraphicsState, stroking bool, cs pdf.ColorSpace) {
	n := cs.NumComponents()
	zero := make([]float64, n)
	if stroking {
		g.StrokeSpace = cs
		g.StrokeColor = zero
	} else {
		g.FillSpace = cs
		g.FillColor = zero
	}
}

func (ip *interpreter) setColor(args []pdf.Object, stroking bool) {
	g := ip.stack.Current()
	var comps []float64
	for _, a := range args {
		if v, ok := getReal(a); ok {
			comps = append(comps, v)
		}
	}
	if len(comps) == 0 {
		return // an SCN/scn with just a pattern name and no components: keep prior color
	}
	if stroking {
		g.StrokeColor = comps
	} else {
		g.FillColor = comps
	}
}

func (ip *interpreter) doExtGState(args []pdf.Object) error {
	if len(args) < 1 {
		return nil
	}
	name, ok := args[0].(pdf.Name)
	if !ok {
		return nil
	}
	extGState, err := pdf.GetDict(ip.r, ip.resources["ExtGState"])
	if err != nil || extGState == nil {
		return nil
	}
	dict, err := pdf.GetDict(ip.r, extGState[name])
	if err != nil || dict == nil {
		return nil
	}
	g := ip.stack.Current()
	for key, val := range dict {
		switch key {
		case "LW":
			if v, err := pdf.GetReal(ip.r, val); err == nil {
				g.LineWidth = float64(v)
			}
		case "LC":
			if v, err := pdf.GetInteger(ip.r, val); err == nil {
				g.LineCap = int(v)
			}
		case "LJ":
			if v, err := pdf.GetInteger(ip.r, val); err == nil {
				g.LineJoin = int(v)
			}
		case "ML":
			if v, err := pdf.GetReal(ip.r, val); err == nil {
				g.MiterLimit = float64(v)
			}
		case "Font":
			if arr, err := pdf.GetArray(ip.r, val); err == nil && len(arr) == 2 {
				if size, ok := getReal(arr[1]); ok {
					g.Text.FontSize = size
				}
			}
		default:
			// Alpha (ca/CA), blend mode (BM), soft mask (SMask) and the
			// rest of Table 58 affect compositing, which is the
			// rasterizer's concern, not anything this interpreter tracks.
			// A dash pattern (D) is not applied from an ExtGState; only
			// the d operator sets DashArray/DashPhase.
		}
	}
	return nil
}

func (ip *interpreter) doXObject(args []pdf.Object) error {
	if len(args) < 1 {
		return nil
	}
	name, ok := args[0].(pdf.Name)
	if !ok {
		return nil
	}
	xobjDict, err := pdf.GetDict(ip.r, ip.resources["XObject"])
	if err != nil || xobjDict == nil {
		return nil
	}
	ref, ok := xobjDict[name]
	if !ok {
		return nil
	}
	stm, err := pdf.GetStream(ip.r, ref)
	if err != nil || stm == nil {
		return nil
	}
	subtype, _ := pdf.GetName(ip.r, stm.Dict["Subtype"])
	switch subtype {
	case "Image":
		ip.emit(PageElement{Kind: KindPlacedImage, Image: stm, Matrix: ip.stack.Current().CTM})
		return nil
	case "Form":
		return ip.doForm(stm)
	default:
		return nil
	}
}

func (ip *interpreter) doForm(stm *pdf.Stream) error {
	if ip.formDepth >= maxFormDepth {
		return nil // nesting past maxFormDepth: this invocation is skipped
	}
	if err := ip.stack.Push(); err != nil {
		return nil
	}
	savedDepth := len(ip.stack.saved)
	g := ip.stack.Current()

	if m, err := pdf.GetMatrix(ip.r, stm.Dict["Matrix"]); err == nil {
		g.CTM = m.Mul(g.CTM)
	}

	ip.emit(PageElement{Kind: KindFormInvocation, Form: stm, CTM: g.CTM})

	savedResources := ip.resources
	if formRes, err := pdf.GetDict(ip.r, stm.Dict["Resources"]); err == nil && formRes != nil {
		ip.resources = formRes
	}
	savedPath := ip.path
	ip.path = nil

	err := ip.run(stm, ip.formDepth+1)

	ip.resources = savedResources
	ip.path = savedPath
	ip.formDepth--

	if len(ip.stack.saved) >= savedDepth {
		ip.stack.Pop()
	}
	return err
}

// doInlineImage handles the synthetic inlineImageOp produced by
// operatorSeq.forAllCommands once it has collected a BI...ID...EI
// sequence's dictionary and raw sample bytes. The sample data is passed
// through undecoded (as a Stream whose R is the raw bytes) since decoding
// image samples is the rasterizer's job, not this interpreter's.
func (ip *interpreter) doInlineImage(args []pdf.Object) error {
	if len(args) < 2 {
		return nil
	}
	dict, ok := args[0].(pdf.Dict)
	if !ok {
		return nil
	}
	data, ok := args[1].(pdf.String)
	if !ok {
		return nil
	}
	stm := &pdf.Stream{Dict: dict, R: bytes.NewReader(data)}
	ip.emit(PageElement{Kind: KindPlacedImage, Image: stm, Matrix: ip.stack.Current().CTM})
	return nil
}

func (ip *interpreter) emit(el PageElement) {
	if ip.sink == nil {
		return
	}
	_ = ip.sink.Emit(el)
}

func (ip *interpreter) showText(s pdf.String) {
	g := ip.stack.Current()
	ip.emit(PageElement{
		Kind:    KindPlacedText,
		Font:    ip.lookupFont(g.Text.Font),
		Codes:   s,
		Start:   [2]float64{g.Text.Tm[4], g.Text.Tm[5]},
		TextCTM: g.Text.Tm.Mul(g.CTM),
	})
	// Advancing Tm by the string's total glyph width requires the font's
	// width table (simple fonts: /Widths or the font-program glyph
	// metrics; composite fonts: /W), which is font-program territory this
	// interpreter does not parse; TJ's explicit numeric adjustments are
	// still honored exactly, in the TJ case above.
}

func (ip *interpreter) lookupFont(name pdf.Name) pdf.Object {
	if name == "" {
		return nil
	}
	fontDict, err := pdf.GetDict(ip.r, ip.resources["Font"])
	if err != nil || fontDict == nil {
		return nil
	}
	return fontDict[name]
}

func numArg(args []pdf.Object, i int) (float64, bool) {
	if i >= len(args) {
		return 0, false
	}
	return getReal(args[i])
}

func numArgs(args []pdf.Object, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, ok := getReal(args[i])
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func point(args []pdf.Object, i int) (float64, float64, bool) {
	if i+1 >= len(args) {
		return 0, 0, false
	}
	x, ok1 := getReal(args[i])
	y, ok2 := getReal(args[i+1])
	return x, y, ok1 && ok2
}

func getMatrix(args []pdf.Object) (matrix.Matrix, bool) {
	var m matrix.Matrix
	if len(args) < 6 {
		return m, false
	}
	for i := 0; i < 6; i++ {
		v, ok := getReal(args[i])
		if !ok {
			return m, false
		}
		m[i] = v
	}
	return m, true
}

func getReal(x pdf.Object) (float64, bool) {
	switch x := x.(type) {
	case pdf.Real:
		return float64(x), true
	case pdf.Integer:
		return float64(x), true
	case pdf.Number:
		return float64(x), true
	default:
		return 0, false
	}
}

// operatorSeq accumulates operands until it sees an operator token, then
// yields the (operator, operands) pair, exactly mirroring PDF's own rule
// that an operator's operands are whatever objects precede it.
type operatorSeq struct {
	args []pdf.Object
}

// inlineImageOp is a synthetic operator yielded in place of the raw
// BI...ID...EI sequence, with args = [dict, data] once the image's inline
// dictionary and sample bytes have been collected.
const inlineImageOp operator = "INLINE_IMAGE"

func (o *operatorSeq) forAllCommands(stm io.Reader, yield func(op operator, args []pdf.Object) error) error {
	s := newScanner(stm)
	for {
		obj, err := s.Next()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		cmd, ok := obj.(operator)
		if !ok {
			o.args = append(o.args, obj)
			continue
		}

		if cmd == "BI" {
			dict, data, err := s.readInlineImage()
			if err != nil {
				return err
			}
			if err := yield(inlineImageOp, []pdf.Object{dict, pdf.String(data)}); err != nil {
				return err
			}
			o.args = o.args[:0]
			continue
		}

		if err := yield(cmd, o.args); err != nil {
			return err
		}
		o.args = o.args[:0]
	}
}

