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
	"fmt"
	"io"
	"math"

	"seehuhn.de/go/icc"
)

// ColorSpace is a decoded PDF color space (ISO 32000-1 §8.6): a closed sum
// of eleven variants, each able to convert its own component values to a
// device-RGB triple in [0, 1].
type ColorSpace interface {
	// Family returns the color space's /ColorSpace family name, e.g.
	// "DeviceRGB" or "ICCBased".
	Family() Name

	// NumComponents returns how many color components ToRGB expects.
	NumComponents() int

	// ToRGB converts comps (NumComponents values) to device RGB in [0, 1].
	ToRGB(comps ...float64) (r, g, b float64)
}

// GetColorSpace reads and decodes a /ColorSpace entry: either a bare Name
// (Device* or Pattern) or an Array led by a family name.
func GetColorSpace(r Getter, obj Object) (ColorSpace, error) {
	resolved, err := Resolve(r, obj)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, nil
	}

	switch x := resolved.(type) {
	case Name:
		return namedColorSpace(x)
	case Array:
		return arrayColorSpace(r, x)
	default:
		return nil, newError(Format, fmt.Errorf("color space: expected Name or Array, got %T", resolved))
	}
}

func namedColorSpace(name Name) (ColorSpace, error) {
	switch name {
	case "DeviceGray":
		return deviceGray{}, nil
	case "DeviceRGB":
		return deviceRGB{}, nil
	case "DeviceCMYK":
		return deviceCMYK{}, nil
	case "Pattern":
		return patternSpace{}, nil
	default:
		return nil, newError(Format, fmt.Errorf("color space: unknown name %q", name))
	}
}

func arrayColorSpace(r Getter, arr Array) (ColorSpace, error) {
	if len(arr) == 0 {
		return nil, newError(Format, fmt.Errorf("color space: empty array"))
	}
	family, err := GetName(r, arr[0])
	if err != nil {
		return nil, err
	}

	switch family {
	case "ICCBased":
		return newICCBasedSpace(r, arr)
	case "Indexed":
		return newIndexedSpace(r, arr)
	case "Separation":
		return newSeparationSpace(r, arr)
	case "DeviceN":
		return newDeviceNSpace(r, arr)
	case "Pattern":
		return newPatternSpace(r, arr)
	case "CalGray":
		return newCalGraySpace(r, arr)
	case "CalRGB":
		return newCalRGBSpace(r, arr)
	case "Lab":
		return newLabSpace(r, arr)
	case "DeviceGray", "DeviceRGB", "DeviceCMYK":
		return namedColorSpace(family)
	default:
		return nil, newError(Format, fmt.Errorf("color space: unsupported family %q", family))
	}
}

func clip01(x float64) float64 { return clip(x, 0, 1) }

// ---- Device families ----

type deviceGray struct{}

func (deviceGray) Family() Name        { return "DeviceGray" }
func (deviceGray) NumComponents() int  { return 1 }
func (deviceGray) ToRGB(c ...float64) (r, g, b float64) {
	v := clip01(at(c, 0))
	return v, v, v
}

type deviceRGB struct{}

func (deviceRGB) Family() Name       { return "DeviceRGB" }
func (deviceRGB) NumComponents() int { return 3 }
func (deviceRGB) ToRGB(c ...float64) (r, g, b float64) {
	return clip01(at(c, 0)), clip01(at(c, 1)), clip01(at(c, 2))
}

type deviceCMYK struct{}

func (deviceCMYK) Family() Name       { return "DeviceCMYK" }
func (deviceCMYK) NumComponents() int { return 4 }

// ToRGB applies the naive complement formula from ISO 32000-1 §8.6.5.3,
// which this specification uses rather than a full ICC-managed conversion.
func (deviceCMYK) ToRGB(c ...float64) (r, g, b float64) {
	cc, m, y, k := clip01(at(c, 0)), clip01(at(c, 1)), clip01(at(c, 2)), clip01(at(c, 3))
	return 1 - math.Min(1, cc+k), 1 - math.Min(1, m+k), 1 - math.Min(1, y+k)
}

func at(c []float64, i int) float64 {
	if i < len(c) {
		return c[i]
	}
	return 0
}

// ---- Pattern ----

// patternSpace is the colored-pattern sentinel: painting under a pattern
// color space is deferred to the content interpreter, which resolves the
// pattern resource itself rather than a device color.
type patternSpace struct {
	underlying ColorSpace // non-nil only for the uncolored-pattern form
}

func (patternSpace) Family() Name { return "Pattern" }

func (p patternSpace) NumComponents() int {
	if p.underlying != nil {
		return p.underlying.NumComponents()
	}
	return 0
}

func (p patternSpace) ToRGB(c ...float64) (r, g, b float64) {
	if p.underlying != nil {
		return p.underlying.ToRGB(c...)
	}
	return 0, 0, 0
}

func newPatternSpace(r Getter, arr Array) (ColorSpace, error) {
	if len(arr) < 2 {
		return patternSpace{}, nil
	}
	under, err := GetColorSpace(r, arr[1])
	if err != nil {
		return nil, err
	}
	return patternSpace{underlying: under}, nil
}

// ---- CIE-based: CalGray, CalRGB, Lab ----

// calGraySpace is a CIE-based gray space defined by a white point and
// gamma exponent (ISO 32000-1 §8.6.5.2).
type calGraySpace struct {
	whitePoint [3]float64
	gamma      float64
}

func newCalGraySpace(r Getter, arr Array) (ColorSpace, error) {
	dict, err := colorSpaceDict(r, arr)
	if err != nil {
		return nil, err
	}
	wp, err := requiredPoint(r, dict, "WhitePoint")
	if err != nil {
		return nil, err
	}
	gamma := 1.0
	if g, ok := dict["Gamma"]; ok {
		n, err := GetNumber(r, g)
		if err != nil {
			return nil, err
		}
		gamma = float64(n)
	}
	return &calGraySpace{whitePoint: wp, gamma: gamma}, nil
}

func (*calGraySpace) Family() Name       { return "CalGray" }
func (*calGraySpace) NumComponents() int { return 1 }

func (c *calGraySpace) ToRGB(comps ...float64) (r, g, b float64) {
	a := clip01(at(comps, 0))
	v := clip01(math.Pow(a, c.gamma))
	return v, v, v
}

// calRGBSpace is a CIE-based tristimulus space with per-channel gamma and a
// linear transform matrix into CIE XYZ (ISO 32000-1 §8.6.5.3).
type calRGBSpace struct {
	whitePoint [3]float64
	gamma      [3]float64
	matrix     [9]float64 // row-major X_A Y_A Z_A X_B Y_B Z_B X_C Y_C Z_C
}

func newCalRGBSpace(r Getter, arr Array) (ColorSpace, error) {
	dict, err := colorSpaceDict(r, arr)
	if err != nil {
		return nil, err
	}
	wp, err := requiredPoint(r, dict, "WhitePoint")
	if err != nil {
		return nil, err
	}
	gamma := [3]float64{1, 1, 1}
	if g, ok := dict["Gamma"]; ok {
		vals, err := GetFloatArray(r, g)
		if err != nil {
			return nil, err
		}
		if len(vals) == 3 {
			gamma = [3]float64{vals[0], vals[1], vals[2]}
		}
	}
	matrix := [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	if m, ok := dict["Matrix"]; ok {
		vals, err := GetFloatArray(r, m)
		if err != nil {
			return nil, err
		}
		if len(vals) == 9 {
			copy(matrix[:], vals)
		}
	}
	return &calRGBSpace{whitePoint: wp, gamma: gamma, matrix: matrix}, nil
}

func (*calRGBSpace) Family() Name       { return "CalRGB" }
func (*calRGBSpace) NumComponents() int { return 3 }

func (c *calRGBSpace) ToRGB(comps ...float64) (r, g, b float64) {
	a, bb, cc := clip01(at(comps, 0)), clip01(at(comps, 1)), clip01(at(comps, 2))
	ag := math.Pow(a, c.gamma[0])
	bg := math.Pow(bb, c.gamma[1])
	cg := math.Pow(cc, c.gamma[2])

	x := c.matrix[0]*ag + c.matrix[3]*bg + c.matrix[6]*cg
	y := c.matrix[1]*ag + c.matrix[4]*bg + c.matrix[7]*cg
	z := c.matrix[2]*ag + c.matrix[5]*bg + c.matrix[8]*cg

	return xyzToSRGB(x, y, z)
}

// labSpace is the CIE 1976 L*a*b* space (ISO 32000-1 §8.6.5.4).
type labSpace struct {
	whitePoint [3]float64
	rang       [4]float64 // amin amax bmin bmax
}

func newLabSpace(r Getter, arr Array) (ColorSpace, error) {
	dict, err := colorSpaceDict(r, arr)
	if err != nil {
		return nil, err
	}
	wp, err := requiredPoint(r, dict, "WhitePoint")
	if err != nil {
		return nil, err
	}
	rang := [4]float64{-100, 100, -100, 100}
	if rg, ok := dict["Range"]; ok {
		vals, err := GetFloatArray(r, rg)
		if err != nil {
			return nil, err
		}
		if len(vals) == 4 {
			copy(rang[:], vals)
		}
	}
	return &labSpace{whitePoint: wp, rang: rang}, nil
}

func (*labSpace) Family() Name       { return "Lab" }
func (*labSpace) NumComponents() int { return 3 }

func (c *labSpace) ToRGB(comps ...float64) (r, g, b float64) {
	l := clip(at(comps, 0), 0, 100)
	a := clip(at(comps, 1), c.rang[0], c.rang[1])
	bStar := clip(at(comps, 2), c.rang[2], c.rang[3])

	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - bStar/200

	finv := func(t float64) float64 {
		if t > 6.0/29 {
			return t * t * t
		}
		return 3 * (6.0 / 29) * (6.0 / 29) * (t - 4.0/29)
	}

	x := c.whitePoint[0] * finv(fx)
	y := c.whitePoint[1] * finv(fy)
	z := c.whitePoint[2] * finv(fz)

	return xyzToSRGB(x, y, z)
}

// xyzToSRGB converts CIE XYZ (D65-relative, Y=1 for white) to linear-light
// sRGB primaries, clipped to [0, 1]. This is a fixed matrix transform with
// no PDF-specific parameters, so it is shared by CalRGB and Lab.
func xyzToSRGB(x, y, z float64) (r, g, b float64) {
	r = 3.2406*x - 1.5372*y - 0.4986*z
	g = -0.9689*x + 1.8758*y + 0.0415*z
	b = 0.0557*x - 0.2040*y + 1.0570*z
	return clip01(r), clip01(g), clip01(b)
}

func colorSpaceDict(r Getter, arr Array) (Dict, error) {
	if len(arr) < 2 {
		return nil, newError(Format, fmt.Errorf("color space: missing parameter dictionary"))
	}
	return GetDict(r, arr[1])
}

func requiredPoint(r Getter, dict Dict, key Name) ([3]float64, error) {
	vals, err := GetFloatArray(r, dict[key])
	if err != nil {
		return [3]float64{}, err
	}
	if len(vals) != 3 {
		return [3]float64{}, newError(Format, fmt.Errorf("color space: /%s must have 3 entries", key))
	}
	return [3]float64{vals[0], vals[1], vals[2]}, nil
}

// ---- ICCBased ----

// iccBasedSpace carries the ICC profile as decoded by icc.Decode (nil if
// the stream is not valid ICC data), the component count from the stream's
// /N entry, and the fallback space used for ToRGB: full ICC-managed color
// conversion is out of scope (spec §4.8), so the profile is preserved as
// metadata only.
type iccBasedSpace struct {
	n         int
	profile   *icc.Profile
	alternate ColorSpace
}

func newICCBasedSpace(r Getter, arr Array) (ColorSpace, error) {
	if len(arr) < 2 {
		return nil, newError(Format, fmt.Errorf("color space: ICCBased requires a stream"))
	}
	stm, err := GetStream(r, arr[1])
	if err != nil {
		return nil, err
	}
	if stm == nil {
		return nil, newError(Format, fmt.Errorf("color space: ICCBased stream is missing"))
	}

	n, err := GetInteger(r, stm.Dict["N"])
	if err != nil {
		return nil, err
	}

	var alternate ColorSpace
	if alt, ok := stm.Dict["Alternate"]; ok {
		alternate, err = GetColorSpace(r, alt)
		if err != nil {
			return nil, err
		}
	}
	if alternate == nil {
		switch n {
		case 1:
			alternate = deviceGray{}
		case 4:
			alternate = deviceCMYK{}
		default:
			alternate = deviceRGB{}
		}
	}

	data, err := GetStreamBytesFallback(r, arr[1], stm)
	if err != nil {
		return nil, err
	}
	profile, _ := icc.Decode(bytes.NewReader(data))

	return &iccBasedSpace{n: int(n), profile: profile, alternate: alternate}, nil
}

// GetStreamBytesFallback decodes a stream's bytes, using *Document's bounded
// decoded-stream cache when r is a *Document, and decoding uncached
// otherwise (e.g. when called through the bare Getter interface in tests).
func GetStreamBytesFallback(r Getter, ref Object, stm *Stream) ([]byte, error) {
	if doc, ok := r.(*Document); ok {
		if refObj, ok := ref.(Reference); ok {
			return doc.GetStreamBytes(refObj, stm)
		}
	}
	body, err := DecodeStream(r, stm, 0, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (c *iccBasedSpace) Family() Name       { return "ICCBased" }
func (c *iccBasedSpace) NumComponents() int { return c.n }

// Profile returns the parsed ICC profile, or nil if the profile stream
// could not be decoded as ICC data.
func (c *iccBasedSpace) Profile() *icc.Profile { return c.profile }

func (c *iccBasedSpace) ToRGB(comps ...float64) (r, g, b float64) {
	return c.alternate.ToRGB(comps...)
}

// ---- Indexed ----

// indexedSpace wraps a base space and a lookup table of packed base-space
// component values, indexed by a single non-negative integer component
// (ISO 32000-1 §8.6.6.3).
type indexedSpace struct {
	base   ColorSpace
	hival  int
	lookup []byte
}

func newIndexedSpace(r Getter, arr Array) (ColorSpace, error) {
	if len(arr) < 4 {
		return nil, newError(Format, fmt.Errorf("color space: Indexed array too short"))
	}
	base, err := GetColorSpace(r, arr[1])
	if err != nil {
		return nil, err
	}
	hival, err := GetInteger(r, arr[2])
	if err != nil {
		return nil, err
	}

	var lookup []byte
	resolved, err := Resolve(r, arr[3])
	if err != nil {
		return nil, err
	}
	switch table := resolved.(type) {
	case String:
		lookup = []byte(table)
	case *Stream:
		lookup, err = GetStreamBytesFallback(r, arr[3], table)
		if err != nil {
			return nil, err
		}
	default:
		return nil, newError(Format, fmt.Errorf("color space: Indexed lookup must be a string or stream"))
	}

	return &indexedSpace{base: base, hival: int(hival), lookup: lookup}, nil
}

func (*indexedSpace) Family() Name       { return "Indexed" }
func (*indexedSpace) NumComponents() int { return 1 }

func (c *indexedSpace) ToRGB(comps ...float64) (r, g, b float64) {
	idx := int(at(comps, 0))
	if idx < 0 {
		idx = 0
	}
	if idx > c.hival {
		idx = c.hival
	}

	n := c.base.NumComponents()
	start := idx * n
	baseComps := make([]float64, n)
	for i := 0; i < n; i++ {
		if start+i < len(c.lookup) {
			baseComps[i] = float64(c.lookup[start+i]) / 255
		}
	}
	return c.base.ToRGB(baseComps...)
}

// ---- Separation / DeviceN ----

// separationSpace and deviceNSpace both reduce one-or-more "colorant" tint
// values to an alternate space via a shared tint-transform Function (ISO
// 32000-1 §8.6.6.4/.5).
type separationSpace struct {
	names     []Name
	alternate ColorSpace
	transform Function
}

func newSeparationSpace(r Getter, arr Array) (ColorSpace, error) {
	if len(arr) < 4 {
		return nil, newError(Format, fmt.Errorf("color space: Separation array too short"))
	}
	name, err := GetName(r, arr[1])
	if err != nil {
		return nil, err
	}
	alternate, err := GetColorSpace(r, arr[2])
	if err != nil {
		return nil, err
	}
	fn, err := GetFunction(r, arr[3])
	if err != nil {
		return nil, err
	}
	return &separationSpace{names: []Name{name}, alternate: alternate, transform: fn}, nil
}

func (*separationSpace) Family() Name       { return "Separation" }
func (s *separationSpace) NumComponents() int { return len(s.names) }

func (s *separationSpace) ToRGB(comps ...float64) (r, g, b float64) {
	if s.transform == nil || s.alternate == nil {
		v := 1 - clip01(at(comps, 0))
		return v, v, v
	}
	out := s.transform.Apply(comps...)
	return s.alternate.ToRGB(out...)
}

type deviceNSpace struct {
	separationSpace
}

func newDeviceNSpace(r Getter, arr Array) (ColorSpace, error) {
	if len(arr) < 4 {
		return nil, newError(Format, fmt.Errorf("color space: DeviceN array too short"))
	}
	names, err := namesArray(r, arr[1])
	if err != nil {
		return nil, err
	}
	alternate, err := GetColorSpace(r, arr[2])
	if err != nil {
		return nil, err
	}
	fn, err := GetFunction(r, arr[3])
	if err != nil {
		return nil, err
	}
	return &deviceNSpace{separationSpace{names: names, alternate: alternate, transform: fn}}, nil
}

func (*deviceNSpace) Family() Name { return "DeviceN" }

func namesArray(r Getter, obj Object) ([]Name, error) {
	arr, err := GetArray(r, obj)
	if err != nil {
		return nil, err
	}
	out := make([]Name, len(arr))
	for i, item := range arr {
		out[i], err = GetName(r, item)
		if err != nil {
			return nil, fmt.Errorf("name %d: %w", i, err)
		}
	}
	return out, nil
}
