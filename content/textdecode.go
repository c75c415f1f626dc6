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
	"bytes"
	"io"
	"unicode"
	"unicode/utf16"

	"go.polder.dev/pdf"
)

// MakeTextDecoder builds a best-effort glyph-code → Unicode decoder for
// the given /Font resource dict, for PlacedText.Codes produced by the
// interpreter. It follows the font's own /Encoding (a base encoding name
// plus /Differences) and, when present, overrides individual codes from an
// embedded /ToUnicode CMap. It never parses the embedded font program
// (CFF/TrueType/Type1 glyph outlines): that remains the font-shape
// engine's job (see the TextDecoding non-goal boundary), so glyph names
// that only exist inside an embedded font's own charstrings (rather than
// in one of the four standard base encodings or an explicit /Differences
// entry) fall back to [unicode.ReplacementChar].
func MakeTextDecoder(r pdf.Getter, fontObj pdf.Object) (func(pdf.String) string, error) {
	dict, err := pdf.GetDict(r, fontObj)
	if err != nil {
		return nil, err
	}
	if dict == nil {
		return nil, nil
	}

	subtype, _ := pdf.GetName(r, dict["Subtype"])
	if subtype == "Type0" {
		return makeCompositeTextDecoder(r, dict)
	}
	return makeSimpleTextDecoder(r, dict)
}

// makeSimpleTextDecoder handles single-byte simple fonts (Type1, TrueType,
// MMType1, Type3): one byte is one character code.
func makeSimpleTextDecoder(r pdf.Getter, dict pdf.Dict) (func(pdf.String) string, error) {
	var table [256]rune
	for i := range table {
		table[i] = unicode.ReplacementChar
	}

	base := "StandardEncoding"
	var differences pdf.Array
	switch enc := dict["Encoding"].(type) {
	case pdf.Name:
		base = string(enc)
	default:
		encDict, err := pdf.GetDict(r, dict["Encoding"])
		if err == nil && encDict != nil {
			if name, err := pdf.GetName(r, encDict["BaseEncoding"]); err == nil && name != "" {
				base = string(name)
			}
			if diff, err := pdf.GetArray(r, encDict["Differences"]); err == nil {
				differences = diff
			}
		}
	}

	for code := 0; code < 256; code++ {
		table[code] = baseEncodingRune(base, byte(code))
	}

	code := 0
	for _, obj := range differences {
		switch v := obj.(type) {
		case pdf.Integer:
			code = int(v)
		case pdf.Name:
			if code >= 0 && code < 256 {
				table[code] = glyphNameToRune(string(v))
			}
			code++
		}
	}

	toUnicode, codeBytes, err := extractToUnicode(r, dict)
	if err != nil {
		return nil, err
	}

	fn := func(s pdf.String) string {
		var out []rune
		if toUnicode != nil {
			decodeWithCMap(s, codeBytes, toUnicode, &out, func(code uint32) rune {
				if code < 256 {
					return table[code]
				}
				return unicode.ReplacementChar
			})
			return string(out)
		}
		for _, b := range s {
			out = append(out, table[b])
		}
		return string(out)
	}
	return fn, nil
}

// makeCompositeTextDecoder handles Type0 (composite) fonts. Without an
// embedded /ToUnicode CMap there is no encoding-independent way to recover
// Unicode from a CID (that mapping lives in the font program or an
// external CMap resource this library does not ship), so in that case
// every code decodes to the replacement character — a deliberate,
// documented limitation, not a bug.
func makeCompositeTextDecoder(r pdf.Getter, dict pdf.Dict) (func(pdf.String) string, error) {
	toUnicode, codeBytes, err := extractToUnicode(r, dict)
	if err != nil {
		return nil, err
	}
	if codeBytes == 0 {
		codeBytes = 2 // Identity-H/V and nearly every other predefined composite CMap use 2-byte codes.
	}

	fn := func(s pdf.String) string {
		var out []rune
		decodeWithCMap(s, codeBytes, toUnicode, &out, func(uint32) rune { return unicode.ReplacementChar })
		return string(out)
	}
	return fn, nil
}

// decodeWithCMap walks s in codeBytes-sized chunks, looking each one up in
// cmap (nil is treated as "no entries") and falling back to missing(code)
// when the CMap has nothing for it.
func decodeWithCMap(s pdf.String, codeBytes int, cmap map[uint32][]rune, out *[]rune, missing func(uint32) rune) {
	if codeBytes < 1 {
		codeBytes = 1
	}
	for i := 0; i+codeBytes <= len(s); i += codeBytes {
		var code uint32
		for j := 0; j < codeBytes; j++ {
			code = code<<8 | uint32(s[i+j])
		}
		if runes, ok := cmap[code]; ok {
			*out = append(*out, runes...)
		} else {
			*out = append(*out, missing(code))
		}
	}
}

// extractToUnicode parses the font dict's /ToUnicode CMap stream, if any,
// returning the per-code rune sequences and the CMap's declared code width
// in bytes (0 if there is no /ToUnicode entry).
func extractToUnicode(r pdf.Getter, dict pdf.Dict) (map[uint32][]rune, int, error) {
	ref, ok := dict["ToUnicode"]
	if !ok {
		return nil, 0, nil
	}
	stm, err := pdf.GetStream(r, ref)
	if err != nil || stm == nil {
		return nil, 0, nil
	}
	body, err := pdf.GetStreamBytesFallback(r, ref, stm)
	if err != nil {
		return nil, 0, nil
	}
	return parseToUnicodeCMap(body)
}

// parseToUnicodeCMap reads the bfchar/bfrange blocks of a /ToUnicode CMap
// (ISO 32000-1 §9.10.3 / Adobe's CMap and CIDFont Files specification,
// the PostScript-like operator subset actually used for ToUnicode: it is
// not a general PostScript program). codespacerange's hex-string byte
// width tells callers how many bytes form one code.
func parseToUnicodeCMap(data []byte) (map[uint32][]rune, int, error) {
	s := newScanner(bytes.NewReader(data))
	out := make(map[uint32][]rune)
	codeBytes := 0

	var pending []pdf.Object
	for {
		obj, err := s.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			break // a malformed CMap tail: keep whatever we parsed so far
		}

		op, isOp := obj.(operator)
		if !isOp {
			pending = append(pending, obj)
			continue
		}

		switch string(op) {
		case "begincodespacerange", "beginbfchar", "beginbfrange", "begincidchar", "begincidrange":
			// Everything accumulated before a "begin*" keyword (CMap
			// program boilerplate like "/CIDInit ... findresource begin")
			// is not part of any data block; drop it so the upcoming
			// hex-string pairs line up from index 0.
			pending = pending[:0]
			continue
		case "endcodespacerange":
			for i := 0; i+1 < len(pending); i += 2 {
				if lo, ok := pending[i].(pdf.String); ok {
					if n := len(lo); n > codeBytes {
						codeBytes = n
					}
				}
			}
		case "endbfchar":
			for i := 0; i+1 < len(pending); i += 2 {
				src, ok1 := pending[i].(pdf.String)
				dst, ok2 := pending[i+1].(pdf.String)
				if !ok1 || !ok2 {
					continue
				}
				out[codeOf(src)] = utf16Runes(dst)
			}
		case "endbfrange":
			for i := 0; i+2 < len(pending); i += 3 {
				lo, ok1 := pending[i].(pdf.String)
				hi, ok2 := pending[i+1].(pdf.String)
				if !ok1 || !ok2 {
					continue
				}
				loCode, hiCode := codeOf(lo), codeOf(hi)
				switch dst := pending[i+2].(type) {
				case pdf.String:
					base := utf16Runes(dst)
					for c := loCode; c <= hiCode; c++ {
						delta := c - loCode
						runes := append([]rune(nil), base...)
						if len(runes) > 0 {
							runes[len(runes)-1] += rune(delta)
						}
						out[c] = runes
					}
				case pdf.Array:
					for k, item := range dst {
						if str, ok := item.(pdf.String); ok {
							out[loCode+uint32(k)] = utf16Runes(str)
						}
					}
				}
			}
		}

		if string(op) == "endcodespacerange" || string(op) == "endbfchar" || string(op) == "endbfrange" {
			pending = pending[:0]
		}
	}

	if len(out) == 0 && codeBytes == 0 {
		return nil, 0, nil
	}
	if codeBytes == 0 {
		codeBytes = 2
	}
	return out, codeBytes, nil
}

func codeOf(s pdf.String) uint32 {
	var v uint32
	for _, b := range s {
		v = v<<8 | uint32(b)
	}
	return v
}

// utf16Runes decodes a /ToUnicode destination string, which is UTF-16BE
// per the CMap spec, into runes (handling surrogate pairs).
func utf16Runes(s pdf.String) []rune {
	var units []uint16
	for i := 0; i+1 < len(s); i += 2 {
		units = append(units, uint16(s[i])<<8|uint16(s[i+1]))
	}
	return utf16.Decode(units)
}
