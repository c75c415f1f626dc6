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
	"errors"
	"fmt"
)

// Kind classifies the errors this package can return, per the closed
// taxonomy: Io, Format, Password, Security, Limit, Corrupt.
type Kind int

const (
	// Io indicates that the ByteSource returned fewer bytes than requested,
	// or the underlying file could not be read.
	Io Kind = iota

	// Format indicates a syntax violation that could not be recovered from:
	// a missing trailer even after recovery, a truncated header, a
	// declared field width of zero, and similar.
	Format

	// Password indicates an encrypted document for which no password, or
	// the wrong password, was supplied.
	Password

	// Security indicates that the document's /Encrypt dictionary uses a
	// revision or algorithm this package does not implement.
	Security

	// Limit indicates that a documented cap was exceeded: nesting depth,
	// object-stream member count, incremental-update chain length.
	Limit

	// Corrupt indicates a soft error: a specific object or stream could
	// not be decoded, but the document as a whole remains usable. Corrupt
	// errors surface as a Null value at the affected slot, together with
	// a diagnostic logged through the document's logger.
	Corrupt
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "io"
	case Format:
		return "format"
	case Password:
		return "password"
	case Security:
		return "security"
	case Limit:
		return "limit"
	case Corrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Error is the one error type this package constructs. It carries a Kind
// from the closed taxonomy above, an optional wrapped cause, an optional
// Reference identifying the offending object, and an optional byte offset.
//
// This reconciles two incompatible shapes found across snapshots of the
// library this package started from: one where the malformed-file error
// carried only a byte Pos, and one where it was constructed with a Loc
// path instead. Error folds both into one type with both fields optional.
type Error struct {
	Kind Kind
	Err  error
	Ref  *Reference
	Pos  int64
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Ref != nil {
		msg += fmt.Sprintf(" (object %d %d R)", e.Ref.Number, e.Ref.Generation)
	}
	if e.Pos > 0 {
		msg += fmt.Sprintf(" (at byte %d)", e.Pos)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, so that
// callers can write errors.Is(err, &Error{Kind: pdf.Format}).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func newErrorAt(kind Kind, err error, pos int64) *Error {
	return &Error{Kind: kind, Err: err, Pos: pos}
}

func newErrorRef(kind Kind, err error, ref Reference) *Error {
	return &Error{Kind: kind, Err: err, Ref: &ref}
}

var (
	// ErrPasswordRequired matches, under errors.Is, the error Open/Read
	// return when a document is encrypted and no password (or the wrong
	// one) was supplied; that error wraps an *AuthenticationError.
	ErrPasswordRequired = &Error{Kind: Password, Err: errors.New("authentication failed")}

	errCorrupted    = errors.New("corrupted ciphertext")
	errNoDate       = errors.New("not a valid date string")
	errNoRectangle  = errors.New("not a valid PDF rectangle")
	errDuplicateRef = errors.New("object already written")
	errShortID      = errors.New("PDF file identifier too short")
)

// AuthenticationError indicates that authentication failed because the
// correct password has not been supplied.
type AuthenticationError struct {
	ID []byte
}

func (err *AuthenticationError) Error() string {
	if err.ID == nil {
		return "authentication failed"
	}
	return fmt.Sprintf("authentication failed for document ID %x", err.ID)
}

// VersionError is returned when trying to use a feature in a PDF file which
// is not supported by the PDF version used.
type VersionError struct {
	Operation string
	Earliest  Version
}

func (err *VersionError) Error() string {
	return (err.Operation + " requires PDF version " +
		err.Earliest.String() + " or later")
}
