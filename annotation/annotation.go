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

// Package annotation decodes PDF annotation dictionaries (ISO 32000-1
// §12.5) into a closed sum of subtype structs. This is a read-only view:
// each subtype exposes geometry and an appearance stream reference, not a
// renderer, and there is no write-side Encode — a conforming writer library
// is a different, larger project.
package annotation

import "go.polder.dev/pdf"

// Flags specifies the characteristics of an annotation (ISO 32000-1
// §12.5.3, the /F entry of the annotation dictionary).
type Flags uint16

const (
	FlagInvisible Flags = 1 << 0
	FlagHidden    Flags = 1 << 1
	FlagPrint     Flags = 1 << 2
	FlagNoZoom    Flags = 1 << 3
	FlagNoRotate  Flags = 1 << 4
	FlagNoView    Flags = 1 << 5
	FlagReadOnly  Flags = 1 << 6
	FlagLocked    Flags = 1 << 7
)

// Annotation is implemented by every decoded annotation subtype.
type Annotation interface {
	// Subtype returns the annotation's /Subtype name.
	Subtype() pdf.Name

	// GetCommon returns the fields shared by all annotation subtypes.
	GetCommon() *Common
}

// Common holds the fields present on every annotation dictionary, bounded
// to what a reader needs: geometry and an appearance stream reference, not
// the full read/write field set the teacher's Common struct carries
// (StructParent, OptionalContent, Files, blend mode, ... are write
// concerns or out of this library's scope).
type Common struct {
	// Rect is the annotation's position and extent, in default user space.
	Rect pdf.Rectangle

	// Contents is the annotation's textual content, if any (/Contents).
	Contents string

	// Name is the annotation's unique name, if set (/NM).
	Name string

	// Flags holds the annotation's /F entry.
	Flags Flags

	// Color is the annotation's interior/border color components (/C): 0
	// entries mean no color, 1 is DeviceGray, 3 is DeviceRGB, 4 is DeviceCMYK.
	Color []float64

	// Appearance is the unresolved /AP entry. A fully rendering library
	// would embed an appearance-stream object model here; since this
	// library never renders, the raw dictionary (normally holding /N, and
	// optionally /R and /D sub-entries, each either a stream or a
	// state-name indexed dictionary of streams) is exposed as-is for a
	// caller that wants to walk it.
	Appearance pdf.Object
}

// Markup holds the fields shared by "markup" annotation subtypes (those
// that support a pop-up review note): Text, FreeText, Line, Square, Circle,
// Highlight, Underline, StrikeOut, Squiggly, Ink and Stamp.
type Markup struct {
	// User is the name of the annotation's author (/T).
	User string

	// Subject is a short description of the subject of the annotation
	// (/Subj).
	Subject string

	// Popup references this annotation's pop-up window annotation, if any
	// (/Popup).
	Popup pdf.Reference

	// CreationDate is the raw /CreationDate string, if present; it is not
	// parsed or validated as a PDF date.
	CreationDate string
}

func decodeCommon(r pdf.Getter, dict pdf.Dict) (Common, error) {
	var c Common

	rect, err := pdf.GetRectangle(r, dict["Rect"])
	if err != nil {
		return c, err
	}
	if rect != nil {
		c.Rect = *rect
	}

	contents, err := pdf.GetTextString(r, dict["Contents"])
	if err != nil {
		return c, err
	}
	c.Contents = string(contents)

	if nm, err := pdf.GetString(r, dict["NM"]); err == nil {
		c.Name = string(nm)
	}

	if f, err := pdf.GetInteger(r, dict["F"]); err == nil {
		c.Flags = Flags(f)
	}

	if col, err := pdf.GetArray(r, dict["C"]); err == nil && col != nil {
		vals := make([]float64, 0, len(col))
		for _, entry := range col {
			v, err := pdf.GetNumber(r, entry)
			if err != nil {
				continue
			}
			vals = append(vals, float64(v))
		}
		c.Color = vals
	}

	c.Appearance = dict["AP"]

	return c, nil
}

func decodeMarkup(r pdf.Getter, dict pdf.Dict) (Markup, error) {
	var m Markup

	if t, err := pdf.GetTextString(r, dict["T"]); err == nil {
		m.User = string(t)
	}
	if subj, err := pdf.GetTextString(r, dict["Subj"]); err == nil {
		m.Subject = string(subj)
	}
	if popup, ok := dict["Popup"].(pdf.Reference); ok {
		m.Popup = popup
	}
	if cd, err := pdf.GetString(r, dict["CreationDate"]); err == nil {
		m.CreationDate = string(cd)
	}

	return m, nil
}

// Text is a "sticky note" annotation (ISO 32000-1 §12.5.6.4).
type Text struct {
	Common
	Markup
	Open bool
	Icon pdf.Name
}

func (a *Text) Subtype() pdf.Name { return "Text" }
func (a *Text) GetCommon() *Common { return &a.Common }

// Link is a hypertext link annotation (ISO 32000-1 §12.5.6.5).
type Link struct {
	Common
	// Action is the /A entry (an action dictionary), unresolved.
	Action pdf.Object
	// Dest is the /Dest entry, unresolved (a name, string, or array).
	Dest pdf.Object
	// QuadPoints gives the clickable regions, when more precise than Rect
	// (/QuadPoints, 8 numbers per quadrilateral).
	QuadPoints []float64
}

func (a *Link) Subtype() pdf.Name { return "Link" }
func (a *Link) GetCommon() *Common { return &a.Common }

// FreeText displays text directly on the page, without a separate pop-up
// window (ISO 32000-1 §12.5.6.6).
type FreeText struct {
	Common
	Markup
	// DefaultAppearance is the default appearance string used to format
	// the text (/DA).
	DefaultAppearance string
	// Quadding selects the text justification: 0 left, 1 centered, 2 right
	// (/Q).
	Quadding int
}

func (a *FreeText) Subtype() pdf.Name { return "FreeText" }
func (a *FreeText) GetCommon() *Common { return &a.Common }

// Line displays a single straight line (ISO 32000-1 §12.5.6.7).
type Line struct {
	Common
	Markup
	// L holds the line's endpoints [x1 y1 x2 y2] in default user space.
	L []float64
}

func (a *Line) Subtype() pdf.Name { return "Line" }
func (a *Line) GetCommon() *Common { return &a.Common }

// Square displays a rectangle inscribed within Rect (ISO 32000-1
// §12.5.6.8).
type Square struct {
	Common
	Markup
	// InteriorColor is the fill color for the rectangle's interior (/IC).
	InteriorColor []float64
}

func (a *Square) Subtype() pdf.Name { return "Square" }
func (a *Square) GetCommon() *Common { return &a.Common }

// Circle displays an ellipse inscribed within Rect (ISO 32000-1 §12.5.6.8).
type Circle struct {
	Common
	Markup
	InteriorColor []float64
}

func (a *Circle) Subtype() pdf.Name { return "Circle" }
func (a *Circle) GetCommon() *Common { return &a.Common }

// Highlight marks a region of text with a colored highlight (ISO 32000-1
// §12.5.6.10).
type Highlight struct {
	Common
	Markup
	QuadPoints []float64
}

func (a *Highlight) Subtype() pdf.Name { return "Highlight" }
func (a *Highlight) GetCommon() *Common { return &a.Common }

// Underline draws a line under a region of text (ISO 32000-1 §12.5.6.10).
type Underline struct {
	Common
	Markup
	QuadPoints []float64
}

func (a *Underline) Subtype() pdf.Name { return "Underline" }
func (a *Underline) GetCommon() *Common { return &a.Common }

// StrikeOut draws a line through a region of text (ISO 32000-1 §12.5.6.10).
type StrikeOut struct {
	Common
	Markup
	QuadPoints []float64
}

func (a *StrikeOut) Subtype() pdf.Name { return "StrikeOut" }
func (a *StrikeOut) GetCommon() *Common { return &a.Common }

// Squiggly draws a wavy underline under a region of text (ISO 32000-1
// §12.5.6.10).
type Squiggly struct {
	Common
	Markup
	QuadPoints []float64
}

func (a *Squiggly) Subtype() pdf.Name { return "Squiggly" }
func (a *Squiggly) GetCommon() *Common { return &a.Common }

// Stamp displays an icon or custom appearance stamped on the page (ISO
// 32000-1 §12.5.6.12).
type Stamp struct {
	Common
	Markup
	// Icon names the standard stamp icon to display (/Name), e.g.
	// "Approved", "Draft", "Confidential".
	Icon pdf.Name
}

func (a *Stamp) Subtype() pdf.Name { return "Stamp" }
func (a *Stamp) GetCommon() *Common { return &a.Common }

// Ink represents a freehand "scribble" (ISO 32000-1 §12.5.6.13).
type Ink struct {
	Common
	Markup
	// InkList holds one path per element, each a flat sequence of
	// alternating x/y coordinates (/InkList).
	InkList [][]float64
}

func (a *Ink) Subtype() pdf.Name { return "Ink" }
func (a *Ink) GetCommon() *Common { return &a.Common }

// Popup is the review-note window associated with a markup annotation
// (ISO 32000-1 §12.5.6.14).
type Popup struct {
	Common
	// Parent references the markup annotation this pop-up belongs to
	// (/Parent).
	Parent pdf.Reference
	// Open reports whether the pop-up should initially be shown open.
	Open bool
}

func (a *Popup) Subtype() pdf.Name { return "Popup" }
func (a *Popup) GetCommon() *Common { return &a.Common }

// Widget renders and manages user interaction for an interactive form
// field (ISO 32000-1 §12.5.6.19). The form field this widget belongs to is
// decoded via acroform.Get; Parent is only set when a field has more than
// one widget (the common case of a single widget merges the field
// dictionary into the annotation dictionary and so has no /Parent entry).
type Widget struct {
	Common
	// Parent references the widget's field dictionary, when distinct from
	// the annotation dictionary itself (/Parent).
	Parent pdf.Reference
}

func (a *Widget) Subtype() pdf.Name { return "Widget" }
func (a *Widget) GetCommon() *Common { return &a.Common }

// Unknown is returned for any /Subtype this library does not decode into a
// dedicated struct. Callers that need subtype-specific fields for an
// exotic annotation type (Sound, Movie, Screen, PrinterMark, TrapNet,
// Watermark, 3D, Redact, Projection, RichMedia, Polygon, PolyLine, ...)
// can read them directly from Dict.
type Unknown struct {
	Common
	SubtypeName pdf.Name
	Dict        pdf.Dict
}

func (a *Unknown) Subtype() pdf.Name { return a.SubtypeName }
func (a *Unknown) GetCommon() *Common { return &a.Common }

// Extract decodes a single entry of a page's /Annots array into the
// matching Annotation subtype (ISO 32000-1 §12.5.6). Subtypes outside the
// closed set this library supports decode into an Unknown carrying the raw
// dictionary.
func Extract(r pdf.Getter, obj pdf.Object) (Annotation, error) {
	dict, err := pdf.GetDictTyped(r, obj, "Annot")
	if err != nil {
		return nil, err
	}

	subtype, err := pdf.GetName(r, dict["Subtype"])
	if err != nil {
		return nil, err
	}

	common, err := decodeCommon(r, dict)
	if err != nil {
		return nil, err
	}

	switch subtype {
	case "Text":
		markup, err := decodeMarkup(r, dict)
		if err != nil {
			return nil, err
		}
		open, _ := pdf.GetBoolean(r, dict["Open"])
		icon, _ := pdf.GetName(r, dict["Name"])
		return &Text{Common: common, Markup: markup, Open: bool(open), Icon: icon}, nil

	case "Link":
		quad, err := pdf.GetFloatArray(r, dict["QuadPoints"])
		if err != nil {
			return nil, err
		}
		return &Link{Common: common, Action: dict["A"], Dest: dict["Dest"], QuadPoints: quad}, nil

	case "FreeText":
		markup, err := decodeMarkup(r, dict)
		if err != nil {
			return nil, err
		}
		da, _ := pdf.GetString(r, dict["DA"])
		q, _ := pdf.GetInteger(r, dict["Q"])
		return &FreeText{Common: common, Markup: markup, DefaultAppearance: string(da), Quadding: int(q)}, nil

	case "Line":
		markup, err := decodeMarkup(r, dict)
		if err != nil {
			return nil, err
		}
		l, err := pdf.GetFloatArray(r, dict["L"])
		if err != nil {
			return nil, err
		}
		return &Line{Common: common, Markup: markup, L: l}, nil

	case "Square":
		markup, err := decodeMarkup(r, dict)
		if err != nil {
			return nil, err
		}
		ic, _ := pdf.GetFloatArray(r, dict["IC"])
		return &Square{Common: common, Markup: markup, InteriorColor: ic}, nil

	case "Circle":
		markup, err := decodeMarkup(r, dict)
		if err != nil {
			return nil, err
		}
		ic, _ := pdf.GetFloatArray(r, dict["IC"])
		return &Circle{Common: common, Markup: markup, InteriorColor: ic}, nil

	case "Highlight":
		markup, err := decodeMarkup(r, dict)
		if err != nil {
			return nil, err
		}
		quad, err := pdf.GetFloatArray(r, dict["QuadPoints"])
		if err != nil {
			return nil, err
		}
		return &Highlight{Common: common, Markup: markup, QuadPoints: quad}, nil

	case "Underline":
		markup, err := decodeMarkup(r, dict)
		if err != nil {
			return nil, err
		}
		quad, err := pdf.GetFloatArray(r, dict["QuadPoints"])
		if err != nil {
			return nil, err
		}
		return &Underline{Common: common, Markup: markup, QuadPoints: quad}, nil

	case "StrikeOut":
		markup, err := decodeMarkup(r, dict)
		if err != nil {
			return nil, err
		}
		quad, err := pdf.GetFloatArray(r, dict["QuadPoints"])
		if err != nil {
			return nil, err
		}
		return &StrikeOut{Common: common, Markup: markup, QuadPoints: quad}, nil

	case "Squiggly":
		markup, err := decodeMarkup(r, dict)
		if err != nil {
			return nil, err
		}
		quad, err := pdf.GetFloatArray(r, dict["QuadPoints"])
		if err != nil {
			return nil, err
		}
		return &Squiggly{Common: common, Markup: markup, QuadPoints: quad}, nil

	case "Stamp":
		markup, err := decodeMarkup(r, dict)
		if err != nil {
			return nil, err
		}
		icon, _ := pdf.GetName(r, dict["Name"])
		return &Stamp{Common: common, Markup: markup, Icon: icon}, nil

	case "Ink":
		markup, err := decodeMarkup(r, dict)
		if err != nil {
			return nil, err
		}
		rawList, err := pdf.GetArray(r, dict["InkList"])
		if err != nil {
			return nil, err
		}
		inkList := make([][]float64, 0, len(rawList))
		for _, entry := range rawList {
			path, err := pdf.GetFloatArray(r, entry)
			if err != nil {
				continue
			}
			inkList = append(inkList, path)
		}
		return &Ink{Common: common, Markup: markup, InkList: inkList}, nil

	case "Popup":
		open, _ := pdf.GetBoolean(r, dict["Open"])
		var parent pdf.Reference
		if p, ok := dict["Parent"].(pdf.Reference); ok {
			parent = p
		}
		return &Popup{Common: common, Parent: parent, Open: bool(open)}, nil

	case "Widget":
		var parent pdf.Reference
		if p, ok := dict["Parent"].(pdf.Reference); ok {
			parent = p
		}
		return &Widget{Common: common, Parent: parent}, nil

	default:
		return &Unknown{Common: common, SubtypeName: subtype, Dict: dict}, nil
	}
}

// ExtractAll decodes every entry of a page's /Annots array. Entries that
// fail to decode are skipped rather than aborting the whole page, since a
// single malformed annotation should not hide the rest.
func ExtractAll(r pdf.Getter, annotsObj pdf.Object) ([]Annotation, error) {
	arr, err := pdf.GetArray(r, annotsObj)
	if err != nil || arr == nil {
		return nil, err
	}

	out := make([]Annotation, 0, len(arr))
	for _, entry := range arr {
		a, err := Extract(r, entry)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
