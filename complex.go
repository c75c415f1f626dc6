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

// This file contains more complex PDF data structures, composed of the
// elementary types from object.go.

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf16"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// Number is either an Integer or a Real, for callers that do not need to
// distinguish the two.
type Number float64

// GetNumber resolves any indirect reference and returns the object as a
// Number, accepting both Integer and Real.
func GetNumber(r Getter, obj Object) (Number, error) {
	resolved, err := Resolve(r, obj)
	if err != nil {
		return 0, err
	}
	switch x := resolved.(type) {
	case Integer:
		return Number(x), nil
	case Real:
		return Number(x), nil
	case nil:
		return 0, nil
	default:
		return 0, newError(Format, fmt.Errorf("expected Number but got %T", resolved))
	}
}

// TextString is the decoded, UTF-8 form of a PDF "text string" (ISO
// 32000-1 §7.9.2.2): PDFDocEncoding, UTF-16BE with a BOM, or (PDF 2.0) a
// UTF-8 string with its own 3-byte marker.
type TextString string

// GetTextString interprets obj as a PDF text string and returns its UTF-8
// decoding.
func GetTextString(r Getter, obj Object) (TextString, error) {
	s, err := GetString(r, obj)
	if err != nil {
		return "", err
	}
	return s.AsTextString(), nil
}

var utf16Marker = []byte{254, 255}
var utf8Marker = []byte{239, 187, 191}

// AsTextString decodes a raw PDF string per the three text-string
// encodings the format allows.
func (x String) AsTextString() TextString {
	b := []byte(x)

	var s string
	switch {
	case bytes.HasPrefix(b, utf16Marker):
		buf := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			buf = append(buf, uint16(b[i])<<8|uint16(b[i+1]))
		}
		s = string(utf16.Decode(buf))
	case bytes.HasPrefix(b, utf8Marker):
		s = string(b[3:])
	default:
		s = PDFDocDecode(x)
	}

	return TextString(s)
}

func (s TextString) AsTextString() TextString { return s }
func (x Name) AsTextString() TextString        { return TextString(x) }

// Date is a PDF date string (ISO 32000-1 §7.9.4), decoded to a Go time.
type Date time.Time

func (d Date) String() string { return time.Time(d).Format(time.RFC3339) }
func (d Date) IsZero() bool   { return time.Time(d).IsZero() }
func (d Date) Equal(other Date) bool {
	return time.Time(d).Equal(time.Time(other))
}

// GetDate resolves obj and parses it as a PDF date string.
func GetDate(r Getter, obj Object) (Date, error) {
	var zero Date
	s, err := GetString(r, obj)
	if err != nil {
		return zero, err
	}
	return s.AsDate()
}

// dateFormats lists the date-string variants actually seen in the wild:
// writers are inconsistent about the trailing apostrophe around the
// timezone minutes, about including seconds, and about using "Z" for UTC.
var dateFormats = []string{
	"D:20060102150405-0700",
	"D:20060102150405-07",
	"D:20060102150405Z0000",
	"D:20060102150405Z00",
	"D:20060102150405Z",
	"D:20060102150405",
	"D:200601021504-0700",
	"D:200601021504-07",
	"D:200601021504Z0000",
	"D:200601021504Z00",
	"D:200601021504Z",
	"D:200601021504",
	"D:2006010215",
	"D:20060102",
	"D:200601",
	"D:2006",
	time.ANSIC,
}

// AsDate converts a PDF date string to a Date. An empty or "D:" string
// decodes to the zero Date without error, matching writers that emit a
// placeholder.
func (x String) AsDate() (Date, error) {
	var zero Date

	s := string(x.AsTextString())
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "'", "")
	if s == "D:" || s == "" {
		return zero, nil
	}
	if strings.HasPrefix(s, "19") || strings.HasPrefix(s, "20") {
		s = "D:" + s
	}

	for _, format := range dateFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return Date(t.Truncate(time.Second)), nil
		}
	}
	return zero, errNoDate
}

// Rectangle is a PDF rectangle object: two opposite corners, normalized so
// that LLx <= URx and LLy <= URy.
type Rectangle struct {
	LLx, LLy, URx, URy float64
}

func (r *Rectangle) Dx() float64 { return r.URx - r.LLx }
func (r *Rectangle) Dy() float64 { return r.URy - r.LLy }

// GetRectangle resolves obj and converts it to a Rectangle. A null object
// returns (nil, nil).
func GetRectangle(r Getter, obj Object) (*Rectangle, error) {
	a, err := GetArray(r, obj)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}
	return asRectangle(r, a)
}

func asRectangle(r Getter, a Array) (*Rectangle, error) {
	if len(a) != 4 {
		return nil, errNoRectangle
	}
	values, err := GetFloatArray(r, a)
	if err != nil {
		return nil, err
	}
	if len(values) != 4 {
		return nil, errNoRectangle
	}
	return &Rectangle{
		LLx: math.Min(values[0], values[2]),
		LLy: math.Min(values[1], values[3]),
		URx: math.Max(values[0], values[2]),
		URy: math.Max(values[1], values[3]),
	}, nil
}

func (r *Rectangle) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", r.LLx, r.LLy, r.URx, r.URy)
}

func (r Rectangle) IsZero() bool {
	return r.LLx == 0 && r.LLy == 0 && r.URx == 0 && r.URy == 0
}

func (r *Rectangle) Equal(other *Rectangle) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.LLx == other.LLx && r.LLy == other.LLy &&
		r.URx == other.URx && r.URy == other.URy
}

func (r *Rectangle) NearlyEqual(other *Rectangle, eps float64) bool {
	return math.Abs(r.LLx-other.LLx) < eps &&
		math.Abs(r.LLy-other.LLy) < eps &&
		math.Abs(r.URx-other.URx) < eps &&
		math.Abs(r.URy-other.URy) < eps
}

// XPos returns the x-coordinate at relative position rel (0 = left edge, 1
// = right edge).
func (r *Rectangle) XPos(rel float64) float64 { return r.LLx + rel*(r.URx-r.LLx) }

// YPos returns the y-coordinate at relative position rel (0 = bottom edge,
// 1 = top edge).
func (r *Rectangle) YPos(rel float64) float64 { return r.LLy + rel*(r.URy-r.LLy) }

// Extend enlarges r in place to also cover other.
func (r *Rectangle) Extend(other *Rectangle) {
	if other.IsZero() {
		return
	}
	if r.IsZero() {
		*r = *other
		return
	}
	if other.LLx < r.LLx {
		r.LLx = other.LLx
	}
	if other.LLy < r.LLy {
		r.LLy = other.LLy
	}
	if other.URx > r.URx {
		r.URx = other.URx
	}
	if other.URy > r.URy {
		r.URy = other.URy
	}
}

// ExtendVec enlarges r in place to also cover v.
func (r *Rectangle) ExtendVec(v vec.Vec2) {
	isZero := r.IsZero()
	if v.X < r.LLx || isZero {
		r.LLx = v.X
	}
	if v.Y < r.LLy || isZero {
		r.LLy = v.Y
	}
	if v.X > r.URx || isZero {
		r.URx = v.X
	}
	if v.Y > r.URy || isZero {
		r.URy = v.Y
	}
}

// Contains reports whether point lies within r.
func (r *Rectangle) Contains(point vec.Vec2) bool {
	return point.X >= r.LLx && point.X <= r.URx &&
		point.Y >= r.LLy && point.Y <= r.URy
}

// GetMatrix resolves obj as a 6-number PDF array and returns it as a
// transformation matrix.
func GetMatrix(r Getter, obj Object) (matrix.Matrix, error) {
	var m matrix.Matrix
	a, err := GetFloatArray(r, obj)
	if err != nil {
		return m, err
	}
	if a == nil {
		return matrix.Identity, nil
	}
	if len(a) != 6 {
		return m, newError(Format, fmt.Errorf("matrix: expected 6 numbers, got %d", len(a)))
	}
	copy(m[:], a)
	return m, nil
}

// Info represents a PDF Document Information Dictionary (ISO 32000-1
// §14.3.3). All fields are optional.
type Info struct {
	Title    TextString `pdf:"optional"`
	Author   TextString `pdf:"optional"`
	Subject  TextString `pdf:"optional"`
	Keywords TextString `pdf:"optional"`
	Creator  TextString `pdf:"optional"`
	Producer TextString `pdf:"optional"`

	CreationDate Date `pdf:"optional"`
	ModDate      Date `pdf:"optional"`

	// Trapped is one of "True", "False", or "Unknown" (default).
	Trapped Name `pdf:"optional,allowstring"`

	// Custom holds non-standard entries found in the Info dictionary.
	Custom map[string]string `pdf:"extra"`
}

// ExtractInfo decodes a document's Information Dictionary.
func ExtractInfo(r Getter, obj Object) (*Info, error) {
	dict, err := GetDict(r, obj)
	if err != nil || dict == nil {
		return nil, err
	}

	getText := func(key Name) TextString {
		s, _ := GetTextString(r, dict[key])
		return s
	}
	getDate := func(key Name) Date {
		d, _ := GetDate(r, dict[key])
		return d
	}

	info := &Info{
		Title:        getText("Title"),
		Author:       getText("Author"),
		Subject:      getText("Subject"),
		Keywords:     getText("Keywords"),
		Creator:      getText("Creator"),
		Producer:     getText("Producer"),
		CreationDate: getDate("CreationDate"),
		ModDate:      getDate("ModDate"),
		Custom:       map[string]string{},
	}
	if trapped, _ := GetName(r, dict["Trapped"]); trapped != "" {
		info.Trapped = trapped
	}

	standard := map[Name]bool{
		"Title": true, "Author": true, "Subject": true, "Keywords": true,
		"Creator": true, "Producer": true, "CreationDate": true,
		"ModDate": true, "Trapped": true,
	}
	for k, v := range dict {
		if standard[k] {
			continue
		}
		if s, err := GetTextString(r, v); err == nil {
			info.Custom[string(k)] = string(s)
		}
	}

	return info, nil
}

// Function represents a decoded PDF function object (types 0, 2, 3, 4;
// ISO 32000-1 §7.10).
type Function interface {
	// FunctionType returns 0, 2, 3, or 4.
	FunctionType() int

	// Shape returns the number of input and output values.
	Shape() (m, n int)

	// Domain returns [min0, max0, min1, max1, ...] for each input.
	Domain() []float64

	// Apply evaluates the function, clipping inputs to Domain and outputs
	// to Range (if present) as required by the format.
	Apply(in ...float64) []float64
}
