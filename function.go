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

package pdf

import (
	"fmt"
	"math"
)

// GetFunction reads and decodes a PDF function object (dictionary or
// stream), dispatching on /FunctionType to one of the four concrete
// implementations (ISO 32000-1 §7.10). A null obj returns a nil Function
// without error.
func GetFunction(r Getter, obj Object) (Function, error) {
	resolved, err := Resolve(r, obj)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, nil
	}

	var dict Dict
	var stm *Stream
	switch x := resolved.(type) {
	case Dict:
		dict = x
	case *Stream:
		dict = x.Dict
		stm = x
	default:
		return nil, newError(Format, fmt.Errorf("function: expected Dict or Stream, got %T", resolved))
	}

	domain, err := GetFloatArray(r, dict["Domain"])
	if err != nil {
		return nil, err
	}
	rang, err := GetFloatArray(r, dict["Range"])
	if err != nil {
		return nil, err
	}

	fType, err := GetInteger(r, dict["FunctionType"])
	if err != nil {
		return nil, err
	}

	common := functionCommon{domain: domain, rang: rang}

	switch fType {
	case 0:
		if stm == nil {
			return nil, newError(Format, fmt.Errorf("sampled function requires a stream"))
		}
		return newSampledFunction(r, obj, stm, common)
	case 2:
		return newExponentialFunction(r, dict, common)
	case 3:
		return newStitchingFunction(r, dict, common)
	case 4:
		if stm == nil {
			return nil, newError(Format, fmt.Errorf("PostScript calculator function requires a stream"))
		}
		return newPostScriptFunction(r, obj, stm, common)
	default:
		return nil, newError(Format, fmt.Errorf("function: unsupported /FunctionType %d", fType))
	}
}

// GetFunctionArray reads an array of functions, or a single function object
// treated as a one-element array; PDF allows both forms for a Separation or
// DeviceN color space's /Function entry when combined with /Functions-style
// shading dictionaries.
func GetFunctionArray(r Getter, obj Object) ([]Function, error) {
	resolved, err := Resolve(r, obj)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, nil
	}
	if arr, ok := resolved.(Array); ok {
		out := make([]Function, len(arr))
		for i, item := range arr {
			fn, err := GetFunction(r, item)
			if err != nil {
				return nil, fmt.Errorf("function %d: %w", i, err)
			}
			out[i] = fn
		}
		return out, nil
	}
	fn, err := GetFunction(r, resolved)
	if err != nil {
		return nil, err
	}
	return []Function{fn}, nil
}

// functionCommon holds the /Domain and /Range fields shared by all four
// function types.
type functionCommon struct {
	domain []float64
	rang   []float64
}

func (c *functionCommon) Domain() []float64 { return c.domain }

// clipInputs returns a copy of in with each value clipped to its interval
// in c.domain, per the "Domain" requirement that applies to every function
// type; in itself is not modified.
func (c *functionCommon) clipInputs(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		if 2*i+1 < len(c.domain) {
			x = clip(x, c.domain[2*i], c.domain[2*i+1])
		}
		out[i] = x
	}
	return out
}

func (c *functionCommon) clipOutputs(out []float64) []float64 {
	if len(c.rang) == 0 {
		return out
	}
	for i := range out {
		if 2*i+1 < len(c.rang) {
			out[i] = clip(out[i], c.rang[2*i], c.rang[2*i+1])
		}
	}
	return out
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// interpolate maps x from [xmin,xmax] to [ymin,ymax] linearly (ISO 32000-1
// §7.10.2, the "Interpolation" function used throughout this section).
func interpolate(x, xmin, xmax, ymin, ymax float64) float64 {
	if xmax == xmin {
		return ymin
	}
	return ymin + (x-xmin)*(ymax-ymin)/(xmax-xmin)
}

// sampledFunction is a type 0 function: an m-dimensional table of sampled
// output values, reconstructed by multilinear interpolation.
type sampledFunction struct {
	functionCommon
	size          []int
	bitsPerSample int
	encode        [][2]float64
	decode        [][2]float64
	samples       []byte
	n             int // number of output values per sample
}

func newSampledFunction(r Getter, obj Object, stm *Stream, common functionCommon) (*sampledFunction, error) {
	dict := stm.Dict

	sizeInts, err := GetFloatArray(r, dict["Size"])
	if err != nil {
		return nil, err
	}
	m := len(sizeInts)
	if m == 0 || m != len(common.domain)/2 {
		return nil, newError(Format, fmt.Errorf("sampled function: /Size length does not match /Domain"))
	}
	size := make([]int, m)
	for i, s := range sizeInts {
		size[i] = int(s)
		if size[i] <= 0 {
			return nil, newError(Format, fmt.Errorf("sampled function: /Size entry %d out of range", i))
		}
	}

	bps, err := GetInteger(r, dict["BitsPerSample"])
	if err != nil {
		return nil, err
	}
	switch bps {
	case 1, 2, 4, 8, 12, 16, 24, 32:
	default:
		return nil, newError(Format, fmt.Errorf("sampled function: invalid /BitsPerSample %d", bps))
	}

	n := len(common.rang) / 2
	if n == 0 {
		return nil, newError(Format, fmt.Errorf("sampled function: /Range is required"))
	}

	encode := make([][2]float64, m)
	if enc, ok := dict["Encode"]; ok {
		vals, err := GetFloatArray(r, enc)
		if err != nil {
			return nil, err
		}
		if len(vals) != 2*m {
			return nil, newError(Format, fmt.Errorf("sampled function: /Encode has wrong length"))
		}
		for i := range encode {
			encode[i] = [2]float64{vals[2*i], vals[2*i+1]}
		}
	} else {
		for i := range encode {
			encode[i] = [2]float64{0, float64(size[i] - 1)}
		}
	}

	decode := make([][2]float64, n)
	if dec, ok := dict["Decode"]; ok {
		vals, err := GetFloatArray(r, dec)
		if err != nil {
			return nil, err
		}
		if len(vals) != 2*n {
			return nil, newError(Format, fmt.Errorf("sampled function: /Decode has wrong length"))
		}
		for i := range decode {
			decode[i] = [2]float64{vals[2*i], vals[2*i+1]}
		}
	} else {
		for i := range decode {
			decode[i] = [2]float64{common.rang[2*i], common.rang[2*i+1]}
		}
	}

	samples, err := GetStreamBytesFallback(r, obj, stm)
	if err != nil {
		return nil, err
	}

	return &sampledFunction{
		functionCommon: common,
		size:           size,
		bitsPerSample:  int(bps),
		encode:         encode,
		decode:         decode,
		samples:        samples,
		n:              n,
	}, nil
}

func (f *sampledFunction) FunctionType() int { return 0 }
func (f *sampledFunction) Shape() (int, int) { return len(f.size), f.n }

// sampleAt returns the n decoded sample values at the given integer grid
// position, where pos[i] is clipped to [0, size[i]-1].
func (f *sampledFunction) sampleAt(pos []int) []float64 {
	// row-major index, first input varies fastest (ISO 32000-1, Table 39).
	idx := 0
	stride := 1
	for i, p := range pos {
		if p < 0 {
			p = 0
		}
		if p >= f.size[i] {
			p = f.size[i] - 1
		}
		idx += p * stride
		stride *= f.size[i]
	}
	sampleIdx := idx * f.n

	out := make([]float64, f.n)
	maxVal := float64((uint64(1) << uint(f.bitsPerSample)) - 1)
	for j := 0; j < f.n; j++ {
		raw := f.readSample(sampleIdx + j)
		out[j] = interpolate(float64(raw), 0, maxVal, f.decode[j][0], f.decode[j][1])
	}
	return out
}

// readSample extracts the k-th bitsPerSample-wide unsigned sample from the
// packed, big-endian bit stream (ISO 32000-1 §7.10.2: samples are packed
// most significant bit first, with each row padded to a byte boundary only
// implicitly via the overall stream length).
func (f *sampledFunction) readSample(k int) uint64 {
	bitPos := k * f.bitsPerSample
	var val uint64
	for b := 0; b < f.bitsPerSample; b++ {
		p := bitPos + b
		bytePos := p / 8
		if bytePos >= len(f.samples) {
			val <<= 1
			continue
		}
		bit := (f.samples[bytePos] >> (7 - uint(p%8))) & 1
		val = val<<1 | uint64(bit)
	}
	return val
}

// Apply reconstructs output values by multilinear interpolation between
// adjacent sample grid points (ISO 32000-1 §7.10.2, Order 1; Order 3 cubic
// spline interpolation is not implemented and falls back to linear).
func (f *sampledFunction) Apply(in ...float64) []float64 {
	in = f.clipInputs(in)
	m := len(f.size)

	e := make([]float64, m)
	for i := 0; i < m; i++ {
		e[i] = interpolate(in[i], f.domain[2*i], f.domain[2*i+1], f.encode[i][0], f.encode[i][1])
		e[i] = clip(e[i], 0, float64(f.size[i]-1))
	}

	// Multilinear interpolation: average the 2^m sample corners surrounding
	// e, weighted by distance along each axis.
	lo := make([]int, m)
	frac := make([]float64, m)
	for i := 0; i < m; i++ {
		lo[i] = int(math.Floor(e[i]))
		frac[i] = e[i] - float64(lo[i])
	}

	out := make([]float64, f.n)
	corners := 1 << uint(m)
	pos := make([]int, m)
	for c := 0; c < corners; c++ {
		weight := 1.0
		for i := 0; i < m; i++ {
			if c&(1<<uint(i)) != 0 {
				pos[i] = lo[i] + 1
				weight *= frac[i]
			} else {
				pos[i] = lo[i]
				weight *= 1 - frac[i]
			}
		}
		if weight == 0 {
			continue
		}
		sample := f.sampleAt(pos)
		for j := range out {
			out[j] += weight * sample[j]
		}
	}

	return f.clipOutputs(out)
}

// exponentialFunction is a type 2 function: a single-input exponential
// interpolation between C0 and C1.
type exponentialFunction struct {
	functionCommon
	c0, c1 []float64
	n      float64
}

func newExponentialFunction(r Getter, dict Dict, common functionCommon) (*exponentialFunction, error) {
	c0, err := GetFloatArray(r, dict["C0"])
	if err != nil {
		return nil, err
	}
	c1, err := GetFloatArray(r, dict["C1"])
	if err != nil {
		return nil, err
	}
	if c0 == nil {
		c0 = []float64{0}
	}
	if c1 == nil {
		c1 = []float64{1}
	}
	if len(c0) != len(c1) {
		return nil, newError(Format, fmt.Errorf("exponential function: /C0 and /C1 length mismatch"))
	}

	n, err := GetNumber(r, dict["N"])
	if err != nil {
		return nil, err
	}

	return &exponentialFunction{functionCommon: common, c0: c0, c1: c1, n: float64(n)}, nil
}

func (f *exponentialFunction) FunctionType() int { return 2 }
func (f *exponentialFunction) Shape() (int, int) { return 1, len(f.c0) }

func (f *exponentialFunction) Apply(in ...float64) []float64 {
	in = f.clipInputs(in)
	x := in[0]
	xn := math.Pow(x, f.n)

	out := make([]float64, len(f.c0))
	for j := range out {
		out[j] = f.c0[j] + xn*(f.c1[j]-f.c0[j])
	}
	return f.clipOutputs(out)
}

// stitchingFunction is a type 3 function: a single input partitioned by
// /Bounds into k subdomains, each mapped through one of /Functions.
type stitchingFunction struct {
	functionCommon
	functions []Function
	bounds    []float64
	encode    [][2]float64
}

func newStitchingFunction(r Getter, dict Dict, common functionCommon) (*stitchingFunction, error) {
	functions, err := GetFunctionArray(r, dict["Functions"])
	if err != nil {
		return nil, err
	}
	k := len(functions)
	if k == 0 {
		return nil, newError(Format, fmt.Errorf("stitching function: /Functions is required"))
	}

	bounds, err := GetFloatArray(r, dict["Bounds"])
	if err != nil {
		return nil, err
	}
	if len(bounds) != k-1 {
		return nil, newError(Format, fmt.Errorf("stitching function: /Bounds must have k-1 entries"))
	}

	encVals, err := GetFloatArray(r, dict["Encode"])
	if err != nil {
		return nil, err
	}
	if len(encVals) != 2*k {
		return nil, newError(Format, fmt.Errorf("stitching function: /Encode must have 2k entries"))
	}
	encode := make([][2]float64, k)
	for i := range encode {
		encode[i] = [2]float64{encVals[2*i], encVals[2*i+1]}
	}

	return &stitchingFunction{
		functionCommon: common,
		functions:      functions,
		bounds:         bounds,
		encode:         encode,
	}, nil
}

func (f *stitchingFunction) FunctionType() int { return 3 }
func (f *stitchingFunction) Shape() (int, int) {
	_, n := f.functions[0].Shape()
	return 1, n
}

func (f *stitchingFunction) Apply(in ...float64) []float64 {
	in = f.clipInputs(in)
	x := in[0]

	k := len(f.functions)
	i := 0
	for i < k-1 && x >= f.bounds[i] {
		i++
	}

	lo := f.domain[0]
	if i > 0 {
		lo = f.bounds[i-1]
	}
	hi := f.domain[1]
	if i < k-1 {
		hi = f.bounds[i]
	}

	e := interpolate(x, lo, hi, f.encode[i][0], f.encode[i][1])
	out := f.functions[i].Apply(e)
	return f.clipOutputs(out)
}

// postScriptFunction is a type 4 function: a calculator function written in
// a restricted subset of the PostScript language (ISO 32000-1 §7.10.5).
type postScriptFunction struct {
	functionCommon
	prog psProcedure
	n    int
}

func newPostScriptFunction(r Getter, obj Object, stm *Stream, common functionCommon) (*postScriptFunction, error) {
	src, err := GetStreamBytesFallback(r, obj, stm)
	if err != nil {
		return nil, err
	}

	prog, err := parsePostScript(src)
	if err != nil {
		return nil, newError(Format, fmt.Errorf("PostScript calculator function: %w", err))
	}

	n := len(common.rang) / 2
	return &postScriptFunction{functionCommon: common, prog: prog, n: n}, nil
}

func (f *postScriptFunction) FunctionType() int { return 4 }
func (f *postScriptFunction) Shape() (int, int) { return len(f.domain) / 2, f.n }

func (f *postScriptFunction) Apply(in ...float64) []float64 {
	in = f.clipInputs(in)
	stack := append([]float64(nil), in...)
	stack = f.prog.run(stack)

	if f.n > 0 && len(stack) > f.n {
		stack = stack[len(stack)-f.n:]
	}
	return f.clipOutputs(stack)
}
