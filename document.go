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

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// ReaderOptions configures how a Document is opened and how permissively
// it tolerates malformed input (spec §6, Environment/configuration).
type ReaderOptions struct {
	// ReadPassword is called, possibly more than once, to obtain a
	// candidate user or owner password when a document is encrypted.
	// It is never called for unencrypted documents. A nil ReadPassword
	// means only the empty password is tried.
	ReadPassword func(try int) (string, bool)

	// MaxNestingDepth bounds how deeply the syntax parser nests arrays
	// and dictionaries. Zero means DefaultMaxNestingDepth (32). Form-XObject
	// recursion (content) and page-tree recursion (pagetree) use their own
	// fixed limits and do not read this field.
	MaxNestingDepth int

	// MaxObjectStreamMembers bounds how many objects a single object
	// stream may declare. Zero means 4096.
	MaxObjectStreamMembers int

	// MaxXRefChain bounds how many /Prev links (or hybrid-reference
	// sections) a cross-reference chain may contain. A longer chain is a
	// Limit error and the chain is treated as unusable, so the recovery
	// scan runs unless DisableRecovery is set. Zero means 1024.
	MaxXRefChain int

	// DisableRecovery turns off the linear "N G obj" recovery scan (spec
	// §9) that otherwise runs whenever the cross-reference table cannot be
	// trusted. The default (false) matches the spec's EnableRecovery=true.
	DisableRecovery bool

	// StreamCacheEntries bounds the number of decoded stream byte slices
	// (color space profiles, function sample tables, and similar streams
	// that may be referenced from more than one object) held in the
	// document's bounded decoded-stream cache. Zero means 64.
	StreamCacheEntries int

	// Log receives diagnostic and recovery messages. A nil Log uses
	// slog.Default().
	Log *slog.Logger

	// PauseCheck, if non-nil, is consulted by the cross-reference recovery
	// scan between scan probes and passed to every Filter.Decode call made
	// while opening the document, so that a long recovery scan or a large
	// embedded stream can be aborted cooperatively (spec §5's
	// Cancellation rule).
	PauseCheck PauseCheck
}

func (o *ReaderOptions) normalize() *ReaderOptions {
	out := ReaderOptions{}
	if o != nil {
		out = *o
	}
	if out.MaxNestingDepth <= 0 {
		out.MaxNestingDepth = DefaultMaxNestingDepth
	}
	if out.MaxObjectStreamMembers <= 0 {
		out.MaxObjectStreamMembers = 4096
	}
	if out.MaxXRefChain <= 0 {
		out.MaxXRefChain = 1024
	}
	if out.StreamCacheEntries <= 0 {
		out.StreamCacheEntries = 64
	}
	if out.Log == nil {
		out.Log = slog.Default()
	}
	return &out
}

// Document is a read-only handle to a parsed PDF file: the cross-reference
// index plus a cache of already-decoded indirect objects (spec §3,
// Document lifecycle: "opened once, then supports repeated random-access
// Get calls").
type Document struct {
	src    byteSource
	closer io.Closer

	opts     *ReaderOptions
	version  Version
	xref     *xrefIndex
	security *SecurityHandler

	trailer Dict

	cacheMu sync.RWMutex
	cache   map[Reference]Native

	streamCache *streamByteCache

	catalog *Catalog
}

// Open opens the PDF file at path for reading.
func Open(path string, opts *ReaderOptions) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(Io, err)
	}
	src, err := newFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	doc, err := newDocument(src, f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return doc, nil
}

// Read parses a PDF file already held in memory.
func Read(data []byte, opts *ReaderOptions) (*Document, error) {
	return newDocument(newMemorySource(data), nil, opts)
}

func newDocument(src byteSource, closer io.Closer, opts *ReaderOptions) (*Document, error) {
	normalized := opts.normalize()
	doc := &Document{
		src:         src,
		closer:      closer,
		opts:        normalized,
		cache:       make(map[Reference]Native),
		streamCache: newStreamByteCache(normalized.StreamCacheEntries),
	}

	version, err := readHeaderVersion(src)
	if err != nil {
		return nil, err
	}
	doc.version = version

	xref, trailer, err := loadCrossReferenceIndex(doc)
	if err != nil {
		return nil, err
	}
	doc.xref = xref
	doc.trailer = trailer

	if enc, ok := trailer["Encrypt"]; ok && enc != nil {
		sh, err := newSecurityHandler(doc, trailer)
		if err != nil {
			return nil, err
		}
		doc.security = sh
	}

	cat, err := ExtractCatalog(doc, trailer)
	if err != nil {
		doc.logCorrupt("failed to decode document catalog", err)
	} else {
		doc.catalog = cat
	}

	return doc, nil
}

// Close releases the underlying file, if any.
func (doc *Document) Close() error {
	if doc.closer != nil {
		return doc.closer.Close()
	}
	return nil
}

// Version reports the document's declared PDF version.
func (doc *Document) Version() Version { return doc.version }

// Trailer returns the (merged, in the case of incremental updates)
// document trailer dictionary.
func (doc *Document) Trailer() Dict { return doc.trailer }

func (doc *Document) logCorrupt(msg string, err error) {
	if err != nil {
		doc.opts.Log.Warn(msg, "error", err)
	} else {
		doc.opts.Log.Warn(msg)
	}
}

// getCached returns ref's value from the cache when present and otherwise
// loads it with Get(ref, false), which refuses members of object streams.
// The parser uses it to resolve a stream's indirect /Length.
func (doc *Document) getCached(ref Reference) (Native, error) {
	doc.cacheMu.RLock()
	v, ok := doc.cache[ref]
	doc.cacheMu.RUnlock()
	if ok {
		return v, nil
	}
	return doc.Get(ref, false)
}

// GetMeta implements the [Getter] interface.
func (doc *Document) GetMeta() *MetaInfo {
	return &MetaInfo{Version: doc.version, Catalog: doc.catalog}
}

// Get resolves an indirect reference to its Native value, consulting and
// then populating the object cache. The cache is insert-only for the
// lifetime of a Document (spec §5: "the object cache... is a pure
// performance optimization; it never shrinks, and a value already present
// is never replaced"), which keeps concurrent GetXxx calls from racing a
// live object out from under a caller holding it.
//
// canObjStm controls whether ref is allowed to resolve to a member of an
// object stream; it should be true except when resolving a stream's own
// /Length during the parser's two-pass bootstrap, where consulting an
// object stream could recurse into cross-reference machinery that is not
// yet ready.
func (doc *Document) Get(ref Reference, canObjStm bool) (Native, error) {
	doc.cacheMu.RLock()
	v, ok := doc.cache[ref]
	doc.cacheMu.RUnlock()
	if ok {
		return v, nil
	}

	obj, err := doc.fetch(ref, canObjStm)
	if err != nil {
		return nil, err
	}

	doc.cacheMu.Lock()
	if existing, ok := doc.cache[ref]; ok {
		doc.cacheMu.Unlock()
		return existing, nil
	}
	doc.cache[ref] = obj
	doc.cacheMu.Unlock()
	return obj, nil
}

// fetch loads ref's value from the cross-reference index, without
// consulting the cache, dispatching between direct (in-file) objects and
// members of an object stream.
func (doc *Document) fetch(ref Reference, canObjStm bool) (Native, error) {
	entry, ok := doc.xref.lookup(ref)
	if !ok {
		return nil, nil // spec: reference to a nonexistent object resolves to null
	}

	switch entry.kind {
	case xrefEntryFree:
		return nil, nil

	case xrefEntryInFile:
		tok := newTokenizer(doc.src, entry.offset)
		p := newParser(tok, doc)
		num, gen, obj, err := p.parseIndirectAt(entry.offset)
		if err != nil {
			return nil, err
		}
		if num != ref.Number || gen != ref.Generation {
			doc.logCorrupt(fmt.Sprintf("object %d %d R has header %d %d obj", ref.Number, ref.Generation, num, gen), nil)
		}
		native, ok := obj.(Native)
		if !ok && obj != nil {
			return nil, newErrorRef(Format, fmt.Errorf("indirect object resolved to a reference"), ref)
		}
		return native, nil

	case xrefEntryInStream:
		if !canObjStm {
			return nil, newErrorRef(Format, fmt.Errorf("object is in an object stream, which is not allowed here"), ref)
		}
		return doc.fetchFromObjectStream(ref, entry.streamRef, entry.streamIndex)
	}
	return nil, nil
}
