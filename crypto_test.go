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
	"fmt"
	"testing"
)

func TestComputeOU(t *testing.T) {
	passwd := "test"
	P := -4
	sec := &stdSecHandler{
		P: uint32(P),
		ID: []byte{0xac, 0xac, 0x29, 0xb4, 0x19, 0x2f, 0xd9, 0x23,
			0xc2, 0x4f, 0xe6, 0x04, 0x24, 0x79, 0xb2, 0xa9},
		R:        4,
		keyBytes: 16,
	}

	padded, err := padPasswd(passwd)
	if err != nil {
		t.Fatal(err)
	}
	O, err := sec.computeO(padded, padded)
	if err != nil {
		t.Fatal(err)
	}
	goodO := "badad1e86442699427116d3e5d5271bc80a27814fc5e80f815efeef839354c5f"
	if fmt.Sprintf("%x", O) != goodO {
		t.Fatal("wrong O value")
	}
	sec.O = O

	pw, err := padPasswd(passwd)
	if err != nil {
		t.Fatal(err)
	}
	enc := sec.computeFileEncyptionKey(pw)
	U := sec.computeU(enc)
	goodU := "a5b5fc1fcc399c6845fedcdfac82027c00000000000000000000000000000000"
	if fmt.Sprintf("%x", U) != goodU {
		t.Fatalf("wrong U value:\n  %x\n  %s", U, goodU)
	}
}

func (sec *stdSecHandler) deauthenticate() {
	sec.key = nil
	sec.ownerAuthenticated = false
}

// newFixtureSecHandler builds a *stdSecHandler with valid /O and /U for the
// given user/owner passwords by calling the same Algorithm 3/4 helpers the
// standard security handler uses to verify a password, mirroring how
// TestComputeOU derives its "known good" values. There is no write path left
// in this module (read-only, §1), so test fixtures are built this way
// instead of via a constructor that writes an /Encrypt dictionary.
func newFixtureSecHandler(t *testing.T, id []byte, userPwd, ownerPwd string, P uint32, keyBytes int) *stdSecHandler {
	t.Helper()
	sec := &stdSecHandler{
		ID:       id,
		R:        4,
		P:        P,
		keyBytes: keyBytes,
	}

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
	sec.U = sec.computeU(key)
	sec.key = key

	sec.deauthenticate()
	return sec
}

func TestAuth(t *testing.T) {
	cases := []struct {
		user, owner string
	}{
		{"", ""},
		{"", "owner"},
		{"user", "owner"},
		{"secret", "secret"},
	}
	for i, test := range cases {
		trials := [][]string{
			{"wrong"},
			{"wrong", test.user},
			{"wrong", test.owner},
		}
		for j, pwds := range trials {
			id := []byte("0123456789ABCDEF")
			sec := newFixtureSecHandler(t, id, test.user, test.owner, stdSecPermToP(PermModify), 16)

			// Recompute the expected key directly, since deauthenticate
			// cleared sec.key.
			paddedUser, err := padPasswd(test.user)
			if err != nil {
				t.Fatal(err)
			}
			wantKey := sec.computeFileEncyptionKey(paddedUser)

			pwdPos := -1
			lastPwd := ""
			sec.readPwd = func(try int) (string, bool) {
				pwdPos++
				if pwdPos >= len(pwds) {
					return "", false
				}
				lastPwd = pwds[pwdPos]
				return lastPwd, true
			}

			computedKey, err := sec.GetKey(false)
			if test.user != "" && len(pwds) < 2 {
				// need a password, and only the wrong one was supplied
				if _, authErr := err.(*AuthenticationError); !authErr {
					t.Errorf("%d.%d: wrong password not detected", i, j)
				} else if pwdPos < len(pwds) {
					t.Errorf("%d.%d: not all passwords tried", i, j)
				}
				continue
			} else if err != nil {
				t.Errorf("%d.%d: unexpected error: %s", i, j, err)
				continue
			}

			if !bytes.Equal(wantKey, computedKey) {
				t.Errorf("%d.%d: wrong key", i, j)
			}
			if (lastPwd == test.owner) != sec.ownerAuthenticated {
				t.Errorf("%d.%d: wrong value for ownerAuthenticated (%q %q %t)",
					i, j, lastPwd, test.owner, sec.ownerAuthenticated)
			}
		}
	}
}

func TestAuthRepeatable(t *testing.T) {
	id := []byte{0xfb, 0xa6, 0x25, 0xd9, 0xcd, 0xfb, 0x88, 0x11,
		0x9a, 0xd5, 0xa0, 0x94, 0x33, 0x68, 0x42, 0x95}
	sec := newFixtureSecHandler(t, id, "", "test", stdSecPermToP(PermCopy), 16)

	tries := 0
	sec.readPwd = func(try int) (string, bool) {
		tries++
		return "", true
	}

	key, err := sec.GetKey(false)
	if err != nil {
		t.Fatal(err)
	}
	sec.deauthenticate()

	key2, err := sec.GetKey(false)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(key, key2) {
		t.Error("wrong key")
	}
}

func TestAuthR234(t *testing.T) {
	id := []byte{0x3d, 0xe8, 0x0b, 0x6f, 0x8a, 0x2c, 0xd4, 0x79,
		0x54, 0xae, 0x62, 0x91, 0x17, 0xf0, 0x7e, 0xc8}
	const userPasswd = "secret"
	const ownerPasswd = "geheim"

	// R6 (AES-256) fixtures cannot be built the same way: the O/U strings
	// for R6 depend on Algorithms 8/9 (computeOAndOE/computeUAndUE), which
	// are write-only and dropped from this read-only module (see
	// DESIGN.md). R2-R4 fixtures use the kept Algorithm 3/4 helpers
	// directly, as in newFixtureSecHandler.
	cases := []struct {
		perm     Perm
		keyBytes int
		R        int
	}{
		{PermAll, 5, 2},
		{PermPrintDegraded, 5, 3},
		{PermCopy, 16, 4},
	}
	for _, test := range cases {
		sec := &stdSecHandler{
			ID:       id,
			R:        test.R,
			P:        stdSecPermToP(test.perm),
			keyBytes: test.keyBytes,
		}

		paddedUser, err := padPasswd(userPasswd)
		if err != nil {
			t.Fatal(err)
		}
		paddedOwner, err := padPasswd(ownerPasswd)
		if err != nil {
			t.Fatal(err)
		}
		O, err := sec.computeO(paddedUser, paddedOwner)
		if err != nil {
			t.Fatal(err)
		}
		sec.O = O
		key := sec.computeFileEncyptionKey(paddedUser)
		sec.U = sec.computeU(key)

		// test 1: the user password works
		sec.deauthenticate()
		padded, err := padPasswd(userPasswd)
		if err != nil {
			t.Fatal(err)
		}
		if err := sec.authenticateUser(padded); err != nil {
			t.Error(err)
		} else if sec.key == nil {
			t.Error("key not set")
		} else if sec.ownerAuthenticated {
			t.Error("ownerAuthenticated true")
		}

		// test 2: the owner password works
		sec.deauthenticate()
		padded, err = padPasswd(ownerPasswd)
		if err != nil {
			t.Fatal(err)
		}
		if err := sec.authenticateOwner(padded); err != nil {
			t.Error(err)
		} else if sec.key == nil {
			t.Error("key not set")
		} else if !sec.ownerAuthenticated {
			t.Error("ownerAuthenticated false")
		}

		// test 3: the user password does not authenticate the owner
		sec.deauthenticate()
		padded, err = padPasswd(userPasswd)
		if err != nil {
			t.Fatal(err)
		}
		err = sec.authenticateOwner(padded)
		if err == nil || sec.key != nil || sec.ownerAuthenticated {
			t.Error("wrong password accepted")
		}
		if _, ok := err.(*AuthenticationError); !ok {
			t.Error("wrong error", err)
		}
	}
}

// TestDecryptBytesRoundTrip exercises DecryptBytes against ciphertext
// produced by hand-running the same cipher in the forward direction, since
// this module has no encryption path of its own to generate fixtures from.
func TestDecryptBytesRoundTrip(t *testing.T) {
	id := []byte("0123456789ABCDEF")
	sec := newFixtureSecHandler(t, id, "secret", "supersecret", stdSecPermToP(PermPrint), 16)
	sec.readPwd = func(try int) (string, bool) {
		if try == 0 {
			return "secret", true
		}
		return "", false
	}

	ref := NewReference(1, 2)
	cf := &cryptFilter{Cipher: cipherRC4, Length: 128}

	key, err := sec.KeyForRef(cf, ref)
	if err != nil {
		t.Fatal(err)
	}

	plain := []byte("0123456789ABCDEF")
	cipherText := rc4XOR(t, key, plain)

	enc := &SecurityHandler{sec: sec, strF: cf}
	restored, err := enc.DecryptBytes(ref, String(cipherText))
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != string(plain) {
		t.Errorf("round-trip failed: got %q, want %q", restored, plain)
	}
}

// rc4XOR produces ciphertext for a DecryptBytes round trip. RC4 is a
// symmetric stream cipher, so encrypting is the same XOR-with-keystream
// operation DecryptBytes itself performs.
func rc4XOR(t *testing.T, key, data []byte) []byte {
	t.Helper()
	c, err := rc4.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

func TestPerm(t *testing.T) {
	// We iterate over the combinations of bits
	// 3, 4, 5, 6, 9, 11, and 12 (1-based) for b = 0..126; the
	// all-bits-set combination (b = 127) is not visited.
	for b := uint32(0); b < 127; b++ {
		// bit in b -> bit in P
		//       0  ->  3-1 = 2
		//       1  ->  4-1 = 3
		//       2  ->  5-1 = 4
		//       3  ->  6-1 = 5
		//       4  ->  9-1 = 8
		//       5  -> 11-1 = 10
		//       6  -> 12-1 = 11
		var P uint32 = 0b11111111_11111111_11110010_11000000
		P |= (b&15)<<2 | (b&16)<<4 | (b&96)<<5

		perm := stdSecPToPerm(3, P)

		if perm&PermPrint != 0 && perm&PermPrintDegraded == 0 {
			t.Error("print permission without degraded print permission")
		}
		if perm&PermAnnotate != 0 && perm&PermForms == 0 {
			t.Error("annotate permission without forms permission")
		}
		if perm&PermModify != 0 && perm&PermAssemble == 0 {
			t.Error("modify permission without assemble permission")
		}

		// Remove some combinations which make no sense, e.g. full print
		// permission without degraded print permission.
		if P&(1<<(4-1)) != 0 && P&(1<<(11-1)) == 0 {
			continue
		}
		if P&(1<<(6-1)) != 0 && P&(1<<(9-1)) == 0 {
			continue
		}
		if P&(1<<(12-1)) != 0 && P&(1<<(3-1)) == 0 {
			continue
		}

		P2 := stdSecPermToP(perm)
		if P != P2 {
			mask := uint32(0b00001111_11111111)
			t.Errorf("perm=%07b P1=%012b P2=%012b diff=%012b",
				perm, P&mask, P2&mask, P^P2)
		}
	}
}
