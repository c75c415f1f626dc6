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
	"bytes"
	"crypto/rc4"
	"encoding/hex"
	"fmt"
	"testing"
)

// buildEncryptedFixture assembles a one-object encrypted PDF (Standard
// security handler, V=2, R=3, 40-bit RC4) whose single string object
// decrypts to want under the given user password. /O and /U are computed
// with the same Algorithm 3/4 helpers the standard security handler itself
// uses to verify a password (mirroring newFixtureSecHandler in
// crypto_test.go), since this module has no write path to produce them.
func buildEncryptedFixture(t *testing.T, userPwd, ownerPwd string, want []byte) []byte {
	t.Helper()

	id := []byte("0123456789abcdef")
	const keyBytes = 5 // 40-bit RC4, the V=2 default

	sec := &stdSecHandler{ID: id, R: 3, P: 0xFFFFFFC0, keyBytes: keyBytes}

	paddedUser, err := padPasswd(userPwd)
	if err != nil {
		t.Fatal(err)
	}
	paddedOwner, err := padPasswd(ownerPwd)
	if err != nil {
		t.Fatal(err)
	}
	O, err := sec.computeO(paddedUser, paddedOwner)
	if err != nil {
		t.Fatal(err)
	}
	sec.O = O
	key := sec.computeFileEncyptionKey(paddedUser)
	U := sec.computeU(key)

	// Algorithm 1: the object's string, encrypted with the per-object key
	// derived from the file encryption key, object 4 generation 0. sec.key
	// is set directly, so the GetKey call inside KeyForRef returns it
	// without running any password check.
	sec.key = key
	objKey, err := sec.KeyForRef(&cryptFilter{Cipher: cipherRC4, Length: keyBytes * 8}, NewReference(4, 0))
	if err != nil {
		t.Fatal(err)
	}
	cipherText := append([]byte(nil), want...)
	c, err := rc4.NewCipher(objKey)
	if err != nil {
		t.Fatal(err)
	}
	c.XORKeyStream(cipherText, cipherText)

	b := newPDFFixtureBuilder()
	b.object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.object(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	encDict := fmt.Sprintf("<< /Filter /Standard /V 2 /R 3 /Length %d /P %d /O <%s> /U <%s> >>",
		keyBytes*8, int32(sec.P), hex.EncodeToString(O), hex.EncodeToString(U))
	b.object(3, encDict)
	b.object(4, fmt.Sprintf("<%s>", hex.EncodeToString(cipherText)))

	xrefPos := int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "xref\n0 5\n")
	b.buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", b.offsets[i])
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size 5 /Root 1 0 R /Encrypt 3 0 R /ID [<%s> <%s>] >>\n"+
		"startxref\n%d\n%%%%EOF", hex.EncodeToString(id), hex.EncodeToString(id), xrefPos)
	return b.buf.Bytes()
}

// pdfFixtureBuilder is the same offset-tracking byte-buffer helper as
// document_test.go's fixtureBuilder; it is redefined here, rather than
// shared, because this file lives in package pdf (it needs stdSecHandler's
// unexported Algorithm 3/4 helpers) while document_test.go lives in
// package pdf_test (it needs pagetree and content, which import pdf and so
// cannot be imported back from an internal pdf test).
type pdfFixtureBuilder struct {
	buf     bytes.Buffer
	offsets map[int]int64
}

func newPDFFixtureBuilder() *pdfFixtureBuilder {
	b := &pdfFixtureBuilder{offsets: make(map[int]int64)}
	b.buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	return b
}

func (b *pdfFixtureBuilder) object(num int, body string) {
	b.offsets[num] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

// TestEncryptedDocumentDecryptsWithUserPassword covers spec scenario 4: a
// Standard-security-handler (V=2, R=3, RC4) encrypted document must open
// with the correct user password and decrypt its string content exactly.
func TestEncryptedDocumentDecryptsWithUserPassword(t *testing.T) {
	data := buildEncryptedFixture(t, "", "ownerpwd", []byte("Hello"))

	doc, err := Read(data, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	obj, err := doc.Get(NewReference(4, 0), true)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	s, ok := obj.(String)
	if !ok {
		t.Fatalf("object 4 is %T, want String", obj)
	}
	if !bytes.Equal([]byte(s), []byte("Hello")) {
		t.Fatalf("decrypted %q, want %q", s, "Hello")
	}
}

// TestEncryptedDocumentWrongPasswordFails checks that a reader offering
// only an incorrect password cannot open the same document.
func TestEncryptedDocumentWrongPasswordFails(t *testing.T) {
	data := buildEncryptedFixture(t, "userpwd", "ownerpwd", []byte("Hello"))

	tries := 0
	opts := &ReaderOptions{ReadPassword: func(try int) (string, bool) {
		tries++
		if tries > 2 {
			return "", false
		}
		return "wrong", true
	}}
	if _, err := Read(data, opts); err == nil {
		t.Fatal("expected authentication failure with a wrong password")
	}
}
