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
	"math"
	"testing"
)

func TestDeviceColorSpaces(t *testing.T) {
	g := newMemGetter()

	cs, err := GetColorSpace(g, Name("DeviceGray"))
	if err != nil {
		t.Fatal(err)
	}
	if r, gg, b := cs.ToRGB(0.5); r != 0.5 || gg != 0.5 || b != 0.5 {
		t.Errorf("DeviceGray.ToRGB(0.5) = %v %v %v", r, gg, b)
	}

	cs, err = GetColorSpace(g, Name("DeviceCMYK"))
	if err != nil {
		t.Fatal(err)
	}
	if r, gg, b := cs.ToRGB(0, 0, 0, 0); r != 1 || gg != 1 || b != 1 {
		t.Errorf("DeviceCMYK.ToRGB(0,0,0,0) = %v %v %v, want white", r, gg, b)
	}
	if r, gg, b := cs.ToRGB(0, 0, 0, 1); r != 0 || gg != 0 || b != 0 {
		t.Errorf("DeviceCMYK.ToRGB(0,0,0,1) = %v %v %v, want black", r, gg, b)
	}
}

func TestIndexedColorSpace(t *testing.T) {
	g := newMemGetter()
	arr := Array{
		Name("Indexed"),
		Name("DeviceRGB"),
		Integer(1),
		String([]byte{0, 0, 0, 255, 255, 255}),
	}
	cs, err := GetColorSpace(g, arr)
	if err != nil {
		t.Fatal(err)
	}
	if cs.NumComponents() != 1 {
		t.Errorf("NumComponents() = %d, want 1", cs.NumComponents())
	}
	if r, gg, b := cs.ToRGB(0); r != 0 || gg != 0 || b != 0 {
		t.Errorf("ToRGB(0) = %v %v %v, want black", r, gg, b)
	}
	if r, gg, b := cs.ToRGB(1); r != 1 || gg != 1 || b != 1 {
		t.Errorf("ToRGB(1) = %v %v %v, want white", r, gg, b)
	}
}

func TestSeparationColorSpace(t *testing.T) {
	g := newMemGetter()
	arr := Array{
		Name("Separation"),
		Name("Black"),
		Name("DeviceGray"),
		Dict{
			"FunctionType": Integer(2),
			"Domain":       floatArray(0, 1),
			"C0":           floatArray(1),
			"C1":           floatArray(0),
			"N":            Integer(1),
		},
	}
	cs, err := GetColorSpace(g, arr)
	if err != nil {
		t.Fatal(err)
	}
	if r, gg, b := cs.ToRGB(0); r != 1 || gg != 1 || b != 1 {
		t.Errorf("ToRGB(0) = %v %v %v, want white (no ink)", r, gg, b)
	}
	if r, gg, b := cs.ToRGB(1); r != 0 || gg != 0 || b != 0 {
		t.Errorf("ToRGB(1) = %v %v %v, want black (full ink)", r, gg, b)
	}
}

func TestCalGrayColorSpace(t *testing.T) {
	g := newMemGetter()
	arr := Array{
		Name("CalGray"),
		Dict{"WhitePoint": floatArray(0.9505, 1.0, 1.089), "Gamma": Real(1)},
	}
	cs, err := GetColorSpace(g, arr)
	if err != nil {
		t.Fatal(err)
	}
	if r, gg, b := cs.ToRGB(1); math.Abs(r-1) > 1e-9 || gg != r || b != r {
		t.Errorf("ToRGB(1) = %v %v %v, want white", r, gg, b)
	}
}

func TestPatternColorSpace(t *testing.T) {
	g := newMemGetter()
	cs, err := GetColorSpace(g, Name("Pattern"))
	if err != nil {
		t.Fatal(err)
	}
	if cs.Family() != "Pattern" {
		t.Errorf("Family() = %q, want Pattern", cs.Family())
	}
}
