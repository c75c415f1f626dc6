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

// Package acroform decodes a PDF document's interactive form dictionary
// (ISO 32000-1 §12.7.2) and its field tree. This is a read-only view: field
// name, current value, and flags are exposed, but there is no write-side
// support for filling in or resetting fields — that belongs to an
// interactive form library, not a reader.
package acroform

import (
	"errors"

	"go.polder.dev/pdf"
)

// FieldKind classifies a form field by its /FT entry (ISO 32000-1
// §12.7.3).
type FieldKind pdf.Name

const (
	Button    FieldKind = "Btn"
	Text      FieldKind = "Tx"
	Choice    FieldKind = "Ch"
	Signature FieldKind = "Sig"
)

// FieldFlags holds a field's /Ff entry (ISO 32000-1 Tables 221, 226, 227,
// 228 — the flag bits are interpreted differently per Kind).
type FieldFlags uint32

const (
	FlagReadOnly FieldFlags = 1 << 0
	FlagRequired FieldFlags = 1 << 1
	FlagNoExport FieldFlags = 1 << 2
)

// Form is the document's interactive form dictionary (ISO 32000-1 §12.7.2),
// decoded from the catalog's /AcroForm entry.
type Form struct {
	// Fields holds the roots of the field tree (/Fields). A field with
	// children (/Kids that are themselves fields, not widget annotations)
	// appears here only at its root; descend via Field.Kids to reach the
	// rest.
	Fields []*Field

	// NeedAppearances, if true, instructs a conforming viewer to regenerate
	// field appearance streams at display time rather than trust the ones
	// stored in the file (/NeedAppearances).
	NeedAppearances bool
}

// Field is one node of the AcroForm field tree. A field dictionary may also
// serve as its own (sole) widget annotation, in which case decoding the
// field does not also require a separate annotation.Widget; consult the
// page's annotations in addition to this tree only when a field's widgets
// are split into distinct dictionaries (multiple widgets, or a widget
// merged with a distinct parent field).
type Field struct {
	// Ref is the indirect reference identifying this field, used to match
	// it against an annotation.Widget's Parent.
	Ref pdf.Reference

	// Kind classifies the field (/FT), inherited from the nearest ancestor
	// that specifies it when the field dictionary itself omits it.
	Kind FieldKind

	// Name is the field's partial name (/T). The fully qualified name is
	// the dot-separated concatenation of every ancestor's partial name
	// down to this field; see QualifiedName.
	Name string

	// Value is the field's current value (/V); its concrete type depends
	// on Kind (a text string for Tx, a name for Btn/Ch, a dictionary for
	// Sig, or an array of names for a multi-select Ch field).
	Value pdf.Object

	// DefaultValue is the field's default value, used on reset (/DV).
	DefaultValue pdf.Object

	// Flags holds the field's /Ff entry.
	Flags FieldFlags

	// Options lists the export values (and, for a two-element entry, the
	// display string) of a choice field's list (/Opt). Unused for other
	// kinds.
	Options pdf.Array

	// Kids holds this field's child fields, if any (/Kids entries that are
	// themselves field dictionaries rather than widget annotations).
	Kids []*Field
}

// QualifiedName returns the field's name prefixed with prefix (the parent's
// own qualified name, or "" at the root) joined by ".", per the fully
// qualified field name rule of ISO 32000-1 §12.7.3.2.
func (f *Field) QualifiedName(prefix string) string {
	if prefix == "" {
		return f.Name
	}
	if f.Name == "" {
		return prefix
	}
	return prefix + "." + f.Name
}

const maxFieldDepth = 50

// Get decodes the document's /AcroForm dictionary, if present.
func Get(r pdf.Getter) (*Form, error) {
	meta := r.GetMeta()
	if meta.Catalog == nil || meta.Catalog.AcroForm == nil {
		return nil, nil
	}

	dict, err := pdf.GetDict(r, meta.Catalog.AcroForm)
	if err != nil || dict == nil {
		return nil, err
	}

	form := &Form{}
	if na, err := pdf.GetBoolean(r, dict["NeedAppearances"]); err == nil {
		form.NeedAppearances = bool(na)
	}

	fieldsArr, err := pdf.GetArray(r, dict["Fields"])
	if err != nil {
		return nil, err
	}

	seen := make(map[pdf.Reference]bool)
	for _, entry := range fieldsArr {
		field, err := decodeField(r, entry, "", seen, 0)
		if err != nil || field == nil {
			continue
		}
		form.Fields = append(form.Fields, field)
	}

	return form, nil
}

// decodeField decodes one node of the field tree. parentKind is the
// nearest ancestor's /FT, inherited when the node itself omits /FT (ISO
// 32000-1 §12.7.3.2, field attribute inheritance). seen guards against a
// field tree with a reference cycle; depth bounds plain (non-cyclic) but
// pathologically deep trees.
func decodeField(r pdf.Getter, obj pdf.Object, parentKind FieldKind, seen map[pdf.Reference]bool, depth int) (*Field, error) {
	if depth > maxFieldDepth {
		return nil, errors.New("acroform: field tree too deep or cyclic")
	}

	var ref pdf.Reference
	if rf, ok := obj.(pdf.Reference); ok {
		if seen[rf] {
			return nil, errors.New("acroform: field tree too deep or cyclic")
		}
		seen[rf] = true
		ref = rf
	}

	dict, err := pdf.GetDict(r, obj)
	if err != nil || dict == nil {
		return nil, err
	}

	field := &Field{Ref: ref, Kind: parentKind}

	if ft, err := pdf.GetName(r, dict["FT"]); err == nil && ft != "" {
		field.Kind = FieldKind(ft)
	}

	if t, err := pdf.GetTextString(r, dict["T"]); err == nil {
		field.Name = string(t)
	}

	field.Value = dict["V"]
	field.DefaultValue = dict["DV"]

	if ff, err := pdf.GetInteger(r, dict["Ff"]); err == nil {
		field.Flags = FieldFlags(ff)
	}

	if opt, err := pdf.GetArray(r, dict["Opt"]); err == nil {
		field.Options = opt
	}

	kidsArr, err := pdf.GetArray(r, dict["Kids"])
	if err != nil {
		return field, nil
	}
	for _, kidObj := range kidsArr {
		kidDict, err := pdf.GetDict(r, kidObj)
		if err != nil || kidDict == nil {
			continue
		}
		// A /Kids entry with no /FT of its own and no /T of its own, whose
		// dictionary is also a widget annotation (/Subtype /Widget), is a
		// pure widget with no distinct field identity: skip it here, since
		// it is reached instead via the page's /Annots and
		// annotation.Widget.Parent.
		if _, hasFT := kidDict["FT"]; !hasFT {
			if _, hasT := kidDict["T"]; !hasT {
				if subtype, _ := pdf.GetName(r, kidDict["Subtype"]); subtype == "Widget" {
					continue
				}
			}
		}
		kid, err := decodeField(r, kidObj, field.Kind, seen, depth+1)
		if err != nil || kid == nil {
			continue
		}
		field.Kids = append(field.Kids, kid)
	}

	return field, nil
}
