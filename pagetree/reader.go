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

// Package pagetree walks a PDF document's /Pages tree (ISO 32000-1 §7.7.3):
// it resolves the inheritable attributes (Resources, MediaBox, CropBox,
// Rotate) down from the Pages nodes to each Page leaf, and gives access to
// the n-th page by index. To find it, Get counts the Page leaves under each
// kid it passes; the /Count entries of intermediate Pages nodes are not
// consulted.
package pagetree

import (
	"fmt"

	"go.polder.dev/pdf"
)

// maxDepth bounds recursion through a malformed, possibly cyclic, page
// tree; it mirrors the document-wide nesting-depth default since pagetree
// has no ReaderOptions of its own to consult.
const maxDepth = pdf.DefaultMaxNestingDepth

// inherited carries the four inheritable page attributes accumulated while
// descending from the tree root (ISO 32000-1 Table 29).
type inherited struct {
	resources pdf.Dict
	mediaBox  *pdf.Rectangle
	cropBox   *pdf.Rectangle
	rotate    int
}

// Page is an immutable, already-resolved view of one page: its own
// dictionary plus the inheritable attributes resolved down from its
// ancestors in the page tree.
type Page struct {
	Dict      pdf.Dict
	Ref       pdf.Reference
	Resources pdf.Dict
	MediaBox  *pdf.Rectangle
	CropBox   *pdf.Rectangle
	Rotate    int
}

// Width and Height report the page's media box dimensions, ignoring
// /Rotate (rasterizing a rotated page is the rasterizer's concern, not
// this library's).
func (p *Page) Width() float64 {
	if p.MediaBox == nil {
		return 0
	}
	return p.MediaBox.Dx()
}

func (p *Page) Height() float64 {
	if p.MediaBox == nil {
		return 0
	}
	return p.MediaBox.Dy()
}

// Reader gives random access to the pages of a document by index, without
// materializing the whole tree up front.
type Reader struct {
	r    pdf.Getter
	root pdf.Object

	numPages int // -1 until computed
}

// NewReader builds a Reader rooted at r's document catalog's /Pages entry.
func NewReader(r pdf.Getter) (*Reader, error) {
	meta := r.GetMeta()
	if meta == nil || meta.Catalog == nil {
		return nil, fmt.Errorf("pagetree: document has no catalog")
	}
	if meta.Catalog.Pages.IsZero() {
		return nil, fmt.Errorf("pagetree: catalog has no /Pages entry")
	}
	return &Reader{r: r, root: meta.Catalog.Pages, numPages: -1}, nil
}

// NumPages reports the total number of Page leaves in the tree. It trusts
// the root node's /Count entry when present (as real-world writers always
// set it); only when /Count is missing, not an integer, or not positive
// does it fall back to a full recursive count. A positive /Count that
// disagrees with the actual leaves is not detected.
func (pr *Reader) NumPages() (int, error) {
	if pr.numPages >= 0 {
		return pr.numPages, nil
	}

	dict, err := pdf.GetDict(pr.r, pr.root)
	if err != nil {
		return 0, err
	}
	if dict == nil {
		return 0, fmt.Errorf("pagetree: /Pages is missing")
	}

	if count, err := pdf.GetInteger(pr.r, dict["Count"]); err == nil && count > 0 {
		pr.numPages = int(count)
		return pr.numPages, nil
	}

	n, err := pr.countSubtree(pr.root, 0, make(map[pdf.Reference]bool))
	if err != nil {
		return 0, err
	}
	pr.numPages = n
	return n, nil
}

func (pr *Reader) countSubtree(obj pdf.Object, depth int, seen map[pdf.Reference]bool) (int, error) {
	if depth > maxDepth {
		return 0, fmt.Errorf("pagetree: tree too deep (possible cycle)")
	}
	if ref, ok := obj.(pdf.Reference); ok {
		if seen[ref] {
			return 0, fmt.Errorf("pagetree: cycle detected at %v", ref)
		}
		seen[ref] = true
	}

	dict, err := pdf.GetDict(pr.r, obj)
	if err != nil {
		return 0, err
	}
	if dict == nil {
		return 0, nil
	}

	typ, _ := pdf.GetName(pr.r, dict["Type"])
	if typ == "Page" {
		return 1, nil
	}

	kids, err := pdf.GetArray(pr.r, dict["Kids"])
	if err != nil {
		return 0, err
	}
	total := 0
	for _, kid := range kids {
		n, err := pr.countSubtree(kid, depth+1, seen)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Get returns the index-th page (0-based), with inherited attributes
// resolved. An out-of-range index is an error.
func (pr *Reader) Get(index int) (*Page, error) {
	if index < 0 {
		return nil, fmt.Errorf("pagetree: negative page index %d", index)
	}
	n, err := pr.NumPages()
	if err != nil {
		return nil, err
	}
	if index >= n {
		return nil, fmt.Errorf("pagetree: page index %d out of range (%d pages)", index, n)
	}
	return pr.find(pr.root, index, inherited{}, 0, make(map[pdf.Reference]bool))
}

func (pr *Reader) find(obj pdf.Object, index int, parent inherited, depth int, seen map[pdf.Reference]bool) (*Page, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("pagetree: tree too deep (possible cycle)")
	}
	if ref, ok := obj.(pdf.Reference); ok {
		if seen[ref] {
			return nil, fmt.Errorf("pagetree: cycle detected at %v", ref)
		}
		seen[ref] = true
	}

	dict, err := pdf.GetDict(pr.r, obj)
	if err != nil {
		return nil, err
	}
	if dict == nil {
		return nil, fmt.Errorf("pagetree: node is missing")
	}

	attrs, err := pr.resolveInherited(dict, parent)
	if err != nil {
		return nil, err
	}

	typ, _ := pdf.GetName(pr.r, dict["Type"])
	if typ == "Page" {
		if index != 0 {
			return nil, fmt.Errorf("pagetree: internal error, leftover index %d at a Page leaf", index)
		}
		ref, _ := obj.(pdf.Reference)
		return &Page{
			Dict:      dict,
			Ref:       ref,
			Resources: attrs.resources,
			MediaBox:  attrs.mediaBox,
			CropBox:   attrs.cropBox,
			Rotate:    attrs.rotate,
		}, nil
	}

	kids, err := pdf.GetArray(pr.r, dict["Kids"])
	if err != nil {
		return nil, err
	}
	for _, kid := range kids {
		count, err := pr.countSubtree(kid, depth+1, make(map[pdf.Reference]bool))
		if err != nil {
			return nil, err
		}
		if index < count {
			return pr.find(kid, index, attrs, depth+1, seen)
		}
		index -= count
	}
	return nil, fmt.Errorf("pagetree: page index out of range within subtree")
}

// resolveInherited merges a node's own Resources/MediaBox/CropBox/Rotate
// (when present) over the values inherited from its parent.
func (pr *Reader) resolveInherited(dict pdf.Dict, parent inherited) (inherited, error) {
	out := parent

	if res, ok := dict["Resources"]; ok {
		r, err := pdf.GetDict(pr.r, res)
		if err != nil {
			return out, err
		}
		if r != nil {
			out.resources = r
		}
	}
	if mb, ok := dict["MediaBox"]; ok {
		r, err := pdf.GetRectangle(pr.r, mb)
		if err != nil {
			return out, err
		}
		if r != nil {
			out.mediaBox = r
		}
	}
	if cb, ok := dict["CropBox"]; ok {
		r, err := pdf.GetRectangle(pr.r, cb)
		if err != nil {
			return out, err
		}
		if r != nil {
			out.cropBox = r
		}
	}
	if rot, ok := dict["Rotate"]; ok {
		v, err := pdf.GetInteger(pr.r, rot)
		if err != nil {
			return out, err
		}
		out.rotate = ((int(v) % 360) + 360) % 360
	}

	if out.cropBox == nil {
		out.cropBox = out.mediaBox
	}

	return out, nil
}
