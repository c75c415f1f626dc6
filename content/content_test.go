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
	"go.polder.dev/pdf"
)

// memGetter is a minimal in-memory pdf.Getter for building test resource
// dicts and streams by hand, without a real file.
type memGetter struct {
	objs map[pdf.Reference]pdf.Native
	next uint32
}

func newMemGetter() *memGetter {
	return &memGetter{objs: make(map[pdf.Reference]pdf.Native), next: 1}
}

func (g *memGetter) GetMeta() *pdf.MetaInfo { return &pdf.MetaInfo{Version: pdf.V1_7} }

func (g *memGetter) Get(ref pdf.Reference, canObjStm bool) (pdf.Native, error) {
	return g.objs[ref], nil
}

func (g *memGetter) alloc(obj pdf.Native) pdf.Reference {
	ref := pdf.NewReference(g.next, 0)
	g.next++
	g.objs[ref] = obj
	return ref
}

func floatArray(vals ...float64) pdf.Array {
	out := make(pdf.Array, len(vals))
	for i, v := range vals {
		out[i] = pdf.Real(v)
	}
	return out
}
