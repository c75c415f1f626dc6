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

// pdfDocEncodingToRune maps the PDFDocEncoding bytes whose Unicode value
// differs from the byte value (0x18-0x1F, 0x80-0x9E and 0xA0; ISO 32000-1
// Annex D) to the runes they represent; every other byte maps to itself
// and is not listed.
var pdfDocEncodingToRune = map[byte]rune{
	0x18: 0x02D8, 0x19: 0x02C7, 0x1A: 0x02C6, 0x1B: 0x02D9,
	0x1C: 0x02DD, 0x1D: 0x02DB, 0x1E: 0x02DA, 0x1F: 0x02DC,
	0x80: 0x2022, 0x81: 0x2020, 0x82: 0x2021, 0x83: 0x2026,
	0x84: 0x2014, 0x85: 0x2013, 0x86: 0x0192, 0x87: 0x2044,
	0x88: 0x2039, 0x89: 0x203A, 0x8A: 0x2212, 0x8B: 0x2030,
	0x8C: 0x201E, 0x8D: 0x201C, 0x8E: 0x201D, 0x8F: 0x2018,
	0x90: 0x2019, 0x91: 0x201A, 0x92: 0x2122, 0x93: 0xFB01,
	0x94: 0xFB02, 0x95: 0x0141, 0x96: 0x0152, 0x97: 0x0160,
	0x98: 0x0178, 0x99: 0x017D, 0x9A: 0x0131, 0x9B: 0x0142,
	0x9C: 0x0153, 0x9D: 0x0161, 0x9E: 0x017E, 0xA0: 0x20AC,
}

var runeToPDFDocEncoding map[rune]byte

func init() {
	runeToPDFDocEncoding = make(map[rune]byte, len(pdfDocEncodingToRune))
	for b, r := range pdfDocEncodingToRune {
		runeToPDFDocEncoding[r] = b
	}
}

// PDFDocDecode converts a String encoded with PDFDocEncoding (ISO 32000-1
// Annex D) into a Go string, following the common simplification of
// treating it as Latin-1 outside the documented exceptional code points
// below 0x20 and in the 0x80-0xA0 range.
func PDFDocDecode(s String) string {
	runes := make([]rune, 0, len(s))
	for _, b := range s {
		if r, ok := pdfDocEncodingToRune[b]; ok {
			runes = append(runes, r)
		} else {
			runes = append(runes, rune(b))
		}
	}
	return string(runes)
}

// PDFDocEncode converts a Go string into PDFDocEncoding bytes, returning
// ok=false if the string contains a rune that PDFDocEncoding cannot
// represent.
func PDFDocEncode(s string) (String, bool) {
	out := make(String, 0, len(s))
	for _, r := range s {
		if r >= 0x20 && r <= 0x7E {
			out = append(out, byte(r))
			continue
		}
		if b, ok := runeToPDFDocEncoding[r]; ok {
			out = append(out, b)
			continue
		}
		if _, remapped := pdfDocEncodingToRune[byte(r)]; r < 0x100 && !remapped {
			out = append(out, byte(r))
			continue
		}
		return nil, false
	}
	return out, true
}
