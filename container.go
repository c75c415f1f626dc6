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
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// MetaInfo describes a document's version and decoded catalog, for callers
// that only hold a Getter.
type MetaInfo struct {
	Version Version
	Catalog *Catalog
}

// Getter is the read side of a PDF object container: resolve a reference,
// report the document's version. *Document is the only implementation in
// this library; the interface exists so that helper functions like
// [Resolve] and the GetX family do not need to depend on *Document
// directly, matching how the teacher's object-reading helpers were
// originally factored.
type Getter interface {
	GetMeta() *MetaInfo

	// Get reads an object from the file. canObjStm controls whether the
	// object is allowed to live inside an object stream; pass true unless
	// resolving a stream's own /Length during two-pass bootstrap.
	Get(ref Reference, canObjStm bool) (Native, error)
}

// Resolve follows a chain of indirect references until it reaches a
// Native value (or nil). Non-Reference objects are returned unchanged.
func Resolve(r Getter, obj Object) (Native, error) {
	return resolve(r, obj, true)
}

const maxRefDepth = 32

func resolve(r Getter, obj Object, canObjStm bool) (Native, error) {
	if obj == nil {
		return nil, nil
	}

	ref, isReference := obj.(Reference)
	if !isReference {
		native, ok := obj.(Native)
		if !ok {
			return nil, newError(Format, fmt.Errorf("%T is neither Reference nor Native", obj))
		}
		return native, nil
	}

	origRef := ref
	count := 0
	for {
		count++
		if count > maxRefDepth {
			return nil, newErrorRef(Format, errors.New("too many levels of indirection"), origRef)
		}

		next, err := r.Get(ref, canObjStm)
		if err != nil {
			return nil, err
		}
		ref, isReference = next.(Reference)
		if !isReference {
			return next, nil
		}
	}
}

func resolveAndCast[T Native](r Getter, obj Object) (x T, err error) {
	resolved, err := Resolve(r, obj)
	if err != nil {
		return x, err
	}
	if resolved == nil {
		return x, nil
	}

	x, isCorrectType := resolved.(T)
	if isCorrectType {
		return x, nil
	}
	return x, newError(Format, fmt.Errorf("expected %T but got %T", x, resolved))
}

// GetArray, GetBoolean, GetDict, GetName, GetReal, GetStream, and GetString
// each resolve any indirect reference and check that the result has the
// named type. A null object returns the zero value without error; a value
// of the wrong type is a Format error.
var (
	GetArray   = resolveAndCast[Array]
	GetBoolean = resolveAndCast[Boolean]
	GetDict    = resolveAndCast[Dict]
	GetName    = resolveAndCast[Name]
	GetReal    = resolveAndCast[Real]
	GetStream  = resolveAndCast[*Stream]
	GetString  = resolveAndCast[String]
)

// GetInteger resolves any indirect reference and returns the object as an
// Integer, silently rounding a Real to the nearest integer (several
// widely-deployed writers emit "1.0" where an integer is required).
func GetInteger(r Getter, obj Object) (Integer, error) {
	resolved, err := Resolve(r, obj)
	if resolved == nil {
		return 0, err
	}
	switch x := resolved.(type) {
	case Integer:
		return x, nil
	case Real:
		return Integer(math.Round(float64(x))), nil
	default:
		return 0, newError(Format, fmt.Errorf("expected Integer but got %T", resolved))
	}
}

func getIntegerNoObjStm(r Getter, obj Object) (Integer, error) {
	resolved, err := resolve(r, obj, false)
	if err != nil {
		return 0, err
	}
	if x, ok := resolved.(Integer); ok {
		return x, nil
	}
	return 0, newError(Format, fmt.Errorf("expected Integer but got %T", resolved))
}

// GetFloatArray resolves obj as an Array and converts each element to
// float64 via GetNumber.
func GetFloatArray(r Getter, obj Object) ([]float64, error) {
	array, err := GetArray(r, obj)
	if err != nil {
		return nil, err
	}
	if array == nil {
		return nil, nil
	}

	result := make([]float64, len(array))
	for i, item := range array {
		num, err := GetNumber(r, item)
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", i, err)
		}
		result[i] = float64(num)
	}
	return result, nil
}

// GetDictTyped resolves obj as a Dict and checks that its /Type entry, if
// present, equals tp.
func GetDictTyped(r Getter, obj Object, tp Name) (Dict, error) {
	dict, err := GetDict(r, obj)
	if dict == nil || err != nil {
		return nil, err
	}
	if err := CheckDictType(r, dict, tp); err != nil {
		return nil, err
	}
	return dict, nil
}

// CheckDictType checks that dict's /Type entry, if present, equals
// wantType.
func CheckDictType(r Getter, dict Dict, wantType Name) error {
	haveType, err := GetName(r, dict["Type"])
	if err != nil {
		return err
	}
	if haveType != wantType && haveType != "" {
		return newError(Format, fmt.Errorf("expected dict type %q, got %q", wantType, haveType))
	}
	return nil
}

// GetStreamReader resolves ref as a Stream and returns a reader for its
// fully decoded contents. pause, if non-nil, is consulted by the
// underlying Filter chain between decoded rows; pass nil where no
// cancellation is needed.
func GetStreamReader(r Getter, ref Object, pause PauseCheck) (io.ReadCloser, error) {
	stm, err := GetStream(r, ref)
	if err != nil {
		return nil, err
	} else if stm == nil {
		return nil, newError(Format, fmt.Errorf("no stream found: %w", os.ErrNotExist))
	}
	return DecodeStream(r, stm, 0, pause)
}

// DecodeStream returns a reader for the decoded contents of x. If
// numFilters is nonzero, only the first numFilters filters listed in
// /Filter are applied; this lets callers that need the raw, still-LZW- or
// Flate-encoded bytes of a filter chain (rare, but used when a filter
// composition like [ASCII85Decode FlateDecode] needs to be peeled one
// layer at a time) stop early.
//
// pause, if non-nil, is passed to every filter in the chain and consulted
// between decoded rows (spec §5's "Cancellation" rule); pass nil when the
// caller has no pause budget to enforce.
//
// Decryption, when the document is encrypted, is always applied first and
// does not count towards numFilters, since /Filter never lists it.
func DecodeStream(r Getter, x *Stream, numFilters int, pause PauseCheck) (io.ReadCloser, error) {
	if seeker, ok := x.R.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, newError(Io, err)
		}
	}

	filters, err := GetFilters(r, x.Dict)
	if err != nil {
		return nil, err
	}

	var out io.ReadCloser = io.NopCloser(x.R)
	if x.crypt != nil {
		out, err = x.crypt.Decode(out)
		if err != nil {
			return nil, err
		}
	}

	for i, fi := range filters {
		if numFilters > 0 && i >= numFilters {
			break
		}
		out, err = fi.Decode(out, pause)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PauseCheck is consulted by a Filter between decoded rows and by the
// cross-reference recovery scan between scan probes (spec §5's
// Cancellation rule); a non-nil return aborts the operation. It mirrors
// content.PauseCheck, which plays the same role between content-stream
// operators, but the two are distinct types since content.Interpret lives
// in a separate package and does not depend on scanline decoding.
type PauseCheck func() error

// Filter decodes one layer of a PDF stream filter chain. Filter decode
// semantics do not depend on the document's PDF version (only encryption
// does, and that is handled separately by cryptFilter), so unlike the
// teacher's original two eras of this interface, Decode here takes no
// Version argument. pause is consulted between decoded rows by filters
// whose decode loop is row-oriented (the PNG and TIFF predictors); filters
// that decode in one shot ignore it.
type Filter interface {
	Decode(r io.Reader, pause PauseCheck) (io.ReadCloser, error)
}

// GetFilters extracts the /Filter and /DecodeParms entries of a stream
// dictionary and builds the corresponding Filter chain.
func GetFilters(r Getter, dict Dict) ([]Filter, error) {
	decodeParams, err := resolve(r, dict["DecodeParms"], false)
	if err != nil {
		return nil, err
	}
	filter, err := resolve(r, dict["Filter"], false)
	if err != nil {
		return nil, err
	}

	var res []Filter
	switch f := filter.(type) {
	case nil:
		// pass

	case Name:
		var pDict Dict
		if decodeParams != nil {
			pDict, _ = decodeParams.(Dict)
		}
		filt, err := makeFilter(f, pDict)
		if err != nil {
			return nil, err
		}
		res = append(res, filt)

	case Array:
		pa, ok := decodeParams.(Array)
		if !ok && decodeParams != nil {
			return nil, newError(Format, errors.New("invalid /DecodeParms field"))
		}
		for i, fi := range f {
			fi, err := resolve(r, fi, false)
			if err != nil {
				return nil, err
			}
			name, ok := fi.(Name)
			if !ok {
				return nil, newError(Format, fmt.Errorf("wrong type, expected Name but got %T", fi))
			}
			var pDict Dict
			if len(pa) > i {
				pai, err := resolve(r, pa[i], false)
				if err != nil {
					return nil, err
				}
				if pai != nil {
					pDict, ok = pai.(Dict)
					if !ok {
						return nil, newError(Format, fmt.Errorf("wrong type, expected Dict but got %T", pai))
					}
				}
			}
			filt, err := makeFilter(name, pDict)
			if err != nil {
				return nil, err
			}
			res = append(res, filt)
		}

	default:
		return nil, newError(Format, errors.New("invalid /Filter field"))
	}
	return res, nil
}

// GetVersion returns the PDF version used in a document.
func GetVersion(r interface{ GetMeta() *MetaInfo }) Version {
	return r.GetMeta().Version
}
