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

package ascii85

import (
	"bytes"
	"encoding/ascii85"
	"io"
	"testing"
)

// encodeWithStdlib produces the ASCII85 encoding (plus the "~>" end
// marker this package's Decode expects) of data, using the standard
// library's encoder as the reference implementation.
func encodeWithStdlib(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := ascii85.NewEncoder(&buf)
	if _, err := enc.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	buf.WriteString("~>")
	return buf.Bytes()
}

func TestDecodeAgainstStdlibEncoder(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("a"),
		[]byte("Hello, world!"),
		[]byte{0, 0, 0, 0},
		bytes.Repeat([]byte("PDF"), 200),
	}
	for _, data := range cases {
		encoded := encodeWithStdlib(t, data)
		r, err := Decode(bytes.NewReader(encoded))
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("decoded %q, want %q", got, data)
		}
	}
}

func TestDecodeZShorthand(t *testing.T) {
	r, err := Decode(bytes.NewReader([]byte("zzz~>")))
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := make([]byte, 12)
	if !bytes.Equal(got, want) {
		t.Errorf("decoded %q, want 12 zero bytes", got)
	}
}

func TestDecodeIgnoresWhitespace(t *testing.T) {
	encoded := encodeWithStdlib(t, []byte("spaced out"))
	var spaced bytes.Buffer
	for i, b := range encoded {
		if i > 0 && i%3 == 0 {
			spaced.WriteByte('\n')
		}
		spaced.WriteByte(b)
	}

	r, err := Decode(&spaced)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("spaced out")) {
		t.Errorf("decoded %q, want %q", got, "spaced out")
	}
}

func TestDecodeRejectsInvalidByte(t *testing.T) {
	r, err := Decode(bytes.NewReader([]byte("abc\x01~>")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadAll(r); err == nil {
		t.Error("expected an error for a byte outside the base-85 alphabet")
	}
}

func TestDecodeMissingEndMarker(t *testing.T) {
	r, err := Decode(bytes.NewReader([]byte("87cURD_*#4")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadAll(r); err == nil {
		t.Error("expected an error for a stream with no end marker")
	}
}

type funnyReader struct {
	pos int
}

func (r *funnyReader) Read(p []byte) (n int, err error) {
	for i := range p {
		p[i] = byte(r.pos%85) + '!'
		r.pos++
	}
	return len(p), nil
}

func BenchmarkDecode(b *testing.B) {
	r, err := Decode(&funnyReader{})
	if err != nil {
		b.Fatal(err)
	}

	buf := make([]byte, 1019)
	b.ResetTimer()
	b.SetBytes(int64(len(buf)))
	for i := 0; i < b.N; i++ {
		io.ReadFull(r, buf)
	}
}
