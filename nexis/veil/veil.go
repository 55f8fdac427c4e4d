// Package veil generates throwaway identities: passwords, fake endpoint
// addresses, and random payloads for shredding. Everything derives from a
// deterministic xorshift64 stream so a seeded boot is reproducible.
package veil

import (
	"encoding/binary"
	"fmt"
)

// PasswordLen is the generated password length.
const PasswordLen = 16

const passwordChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// XorShift64 is the kernel PRNG. Not cryptographic; it exists to make
// plausible-looking noise cheaply and reproducibly.
type XorShift64 struct {
	state uint64
}

// NewXorShift64 seeds the stream. A zero seed would pin xorshift at zero
// forever, so it is replaced with a fixed odd constant.
func NewXorShift64(seed uint64) *XorShift64 {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &XorShift64{state: seed}
}

// Next advances the stream.
func (x *XorShift64) Next() uint64 {
	s := x.state
	s ^= s << 13
	s ^= s >> 7
	s ^= s << 17
	x.state = s
	return s
}

// Uint32 returns the low half of the next value.
func (x *XorShift64) Uint32() uint32 { return uint32(x.Next()) }

// Intn returns a value in [0, n). n must be positive.
func (x *XorShift64) Intn(n int) int {
	return int(x.Next() % uint64(n))
}

// Fill overwrites p with stream bytes.
func (x *XorShift64) Fill(p []byte) {
	var scratch [8]byte
	for len(p) > 0 {
		binary.LittleEndian.PutUint64(scratch[:], x.Next())
		n := copy(p, scratch[:])
		p = p[n:]
	}
}

// Password returns a fresh 16-character alphanumeric password.
func (x *XorShift64) Password() string {
	var out [PasswordLen]byte
	for i := range out {
		out[i] = passwordChars[x.Intn(len(passwordChars))]
	}
	return string(out[:])
}

// FakeIPv4 returns a plausible dotted-quad address. The first octet stays
// in 10..250 and the rest in 1..254 so the result never collides with
// broadcast, loopback, or zero addresses.
func (x *XorShift64) FakeIPv4() string {
	a := 10 + x.Intn(241)
	b := 1 + x.Intn(254)
	c := 1 + x.Intn(254)
	d := 1 + x.Intn(254)
	return fmt.Sprintf("%d.%d.%d.%d", a, b, c, d)
}

// FakeMAC returns six random bytes in colon-separated hex.
func (x *XorShift64) FakeMAC() string {
	var m [6]byte
	x.Fill(m[:])
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}
