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
	"seehuhn.de/go/xmp"
)

// Metadata is the document's XMP metadata stream (ISO 32000-1 §14.3.2),
// decoded from the catalog's /Metadata entry. It is secondary to, and may
// disagree with, the Info dictionary ([ExtractInfo]): PDF does not require
// the two to be kept in sync, so callers that want a single authoritative
// value should prefer whichever one their workflow trusts rather than
// assuming agreement.
type Metadata struct {
	// Packet is the decoded XMP packet, giving access to every namespace it
	// carries via Packet.Get and the raw Packet.Properties map.
	Packet *xmp.Packet
}

// GetMetadata resolves and decodes the document's /Metadata XMP stream, if
// any. It returns (nil, nil), not an error, when the catalog has no
// /Metadata entry — most PDFs predate or simply omit XMP, and the Info
// dictionary remains the primary metadata source in that case.
func GetMetadata(r Getter) (*Metadata, error) {
	meta := r.GetMeta()
	if meta.Catalog == nil || meta.Catalog.Metadata.IsZero() {
		return nil, nil
	}

	stm, err := GetStream(r, meta.Catalog.Metadata)
	if err != nil || stm == nil {
		return nil, err
	}

	body, err := DecodeStream(r, stm, 0, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	packet, err := xmp.Read(body)
	if err != nil {
		return nil, newError(Format, err)
	}
	return &Metadata{Packet: packet}, nil
}

// DublinCore decodes the packet's Dublin Core namespace (dc:title,
// dc:creator, dc:description, dc:subject, ...), the properties an XMP
// producer most commonly sets. It returns a zero-value *xmp.DublinCore, not
// an error, when the packet carries no Dublin Core properties at all.
func (m *Metadata) DublinCore() (*xmp.DublinCore, error) {
	if m == nil || m.Packet == nil {
		return nil, nil
	}
	dc := &xmp.DublinCore{}
	if err := m.Packet.Get(dc); err != nil {
		return nil, err
	}
	return dc, nil
}

// Basic decodes the packet's XMP Basic namespace (xmp:CreateDate,
// xmp:ModifyDate, xmp:CreatorTool, ...).
func (m *Metadata) Basic() (*xmp.XMP, error) {
	if m == nil || m.Packet == nil {
		return nil, nil
	}
	basic := &xmp.XMP{}
	if err := m.Packet.Get(basic); err != nil {
		return nil, err
	}
	return basic, nil
}
