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
	"unicode"
)

func TestBaseEncodingRuneWinAnsiASCII(t *testing.T) {
	for code := byte(0x20); code < 0x7F; code++ {
		if r := baseEncodingRune("WinAnsiEncoding", code); r != rune(code) {
			t.Errorf("WinAnsiEncoding[%#x] = %q, want %q", code, r, rune(code))
		}
	}
}

func TestBaseEncodingRuneWinAnsiHighRange(t *testing.T) {
	cases := map[byte]rune{
		0x80: 0x20AC, // Euro sign
		0x91: 0x2018, // left single quote
		0xE9: 0x00E9, // é, identical to Latin-1
	}
	for code, want := range cases {
		if r := baseEncodingRune("WinAnsiEncoding", code); r != want {
			t.Errorf("WinAnsiEncoding[%#x] = %q, want %q", code, r, want)
		}
	}
}

func TestBaseEncodingRuneMacRoman(t *testing.T) {
	if r := baseEncodingRune("MacRomanEncoding", 0x41); r != 'A' {
		t.Errorf("MacRomanEncoding[0x41] = %q, want 'A'", r)
	}
	if r := baseEncodingRune("MacRomanEncoding", 0x80); r != 0x00C4 { // Ä
		t.Errorf("MacRomanEncoding[0x80] = %q, want Ä", r)
	}
}

func TestBaseEncodingRuneStandardQuotes(t *testing.T) {
	if r := baseEncodingRune("StandardEncoding", 0x27); r != 0x2019 {
		t.Errorf("StandardEncoding[0x27] (quoteright) = %q, want U+2019", r)
	}
	if r := baseEncodingRune("StandardEncoding", 0x41); r != 'A' {
		t.Errorf("StandardEncoding[0x41] = %q, want 'A'", r)
	}
}

func TestBaseEncodingRuneSymbol(t *testing.T) {
	if r := baseEncodingRune("Symbol", 0x61); r != 0x03B1 { // alpha
		t.Errorf("Symbol[0x61] = %q, want alpha", r)
	}
	if r := baseEncodingRune("Symbol", 0xFF); r != unicode.ReplacementChar {
		t.Errorf("Symbol[0xFF] = %q, want replacement char (out of bounded table)", r)
	}
}

func TestGlyphNameToRune(t *testing.T) {
	cases := map[string]rune{
		"space":   ' ',
		"A":       'A', // single-letter fallback
		"uni00E9": 0x00E9,
		"bullet":  0x2022,
	}
	for name, want := range cases {
		if r := glyphNameToRune(name); r != want {
			t.Errorf("glyphNameToRune(%q) = %q, want %q", name, r, want)
		}
	}
}

func TestGlyphNameToRuneUnknown(t *testing.T) {
	if r := glyphNameToRune("thisGlyphNameDoesNotExist"); r != unicode.ReplacementChar {
		t.Errorf("glyphNameToRune(unknown multi-letter name) = %q, want replacement char", r)
	}
}
