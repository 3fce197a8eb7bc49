// Package bitstream carries a bit sequence of exact length packed into
// bytes, MSB first within each byte. It is the transport-friendly form of
// the []bool sequences produced and consumed by pkg/bitlayout: a host
// layer shifts Bytes into a JTAG or SPI chain and rebuilds a Stream from
// what it reads back.
package bitstream

import (
	"bytes"
	"errors"
	"fmt"
	"math/bits"
)

var ErrShortBuffer = errors.New("bitstream: buffer too short for bit count")

// Stream is a fixed-length sequence of bits. Unlike a plain byte bitset it
// remembers its exact length, so a 7-bit register does not grow a phantom
// eighth bit on the way through a byte buffer.
type Stream struct {
	data  []byte
	nbits int
}

// New returns a zeroed stream of nbits bits.
func New(nbits int) *Stream {
	if nbits <= 0 {
		return &Stream{}
	}
	return &Stream{
		data:  make([]byte, (nbits+7)/8),
		nbits: nbits,
	}
}

// FromBools packs a bit sequence into a new stream.
func FromBools(seq []bool) *Stream {
	s := New(len(seq))
	for i, b := range seq {
		if b {
			s.Set(i)
		}
	}
	return s
}

// FromBytes builds a stream of nbits bits from packed bytes, copying b.
// Fails with ErrShortBuffer when b cannot hold nbits bits. Trailing bits in
// the last byte beyond nbits are cleared.
func FromBytes(b []byte, nbits int) (*Stream, error) {
	if nbits < 0 || nbits > len(b)*8 {
		return nil, fmt.Errorf(
			"%w: %d bytes for %d bits", ErrShortBuffer, len(b), nbits,
		)
	}

	s := New(nbits)
	copy(s.data, b)
	if rem := nbits % 8; rem != 0 && len(s.data) > 0 {
		s.data[len(s.data)-1] &= byte(0xFF << (8 - rem))
	}

	return s, nil
}

// Len returns the number of addressable bits.
func (s *Stream) Len() int { return s.nbits }

// Bytes returns a copy of the packed representation. The final byte is
// zero-padded when Len is not a multiple of eight.
func (s *Stream) Bytes() []byte {
	return append([]byte(nil), s.data...)
}

// Bools unpacks the stream into a bit sequence of exactly Len entries.
func (s *Stream) Bools() []bool {
	out := make([]bool, s.nbits)
	for i := range out {
		out[i] = s.Has(i)
	}
	return out
}

// Has reports whether bit at index is set. Returns false if index is out
// of range.
func (s *Stream) Has(index int) bool {
	if index < 0 || index >= s.nbits {
		return false
	}

	byteIndex, off := index/8, 7-(index%8)
	return (s.data[byteIndex]>>off)&1 == 1
}

// Set sets bit at index. It returns true if the bit was changed, false if
// out-of-range or already set.
func (s *Stream) Set(index int) bool {
	if index < 0 || index >= s.nbits {
		return false
	}

	byteIndex, off := index/8, 7-(index%8)
	mask := byte(1 << off)
	old := s.data[byteIndex]
	s.data[byteIndex] = old | mask

	return old&mask == 0
}

// Clear clears bit at index. It returns true if the bit was changed, false
// if out-of-range or already clear.
func (s *Stream) Clear(index int) bool {
	if index < 0 || index >= s.nbits {
		return false
	}

	byteIndex, off := index/8, 7-(index%8)
	mask := byte(1 << off)
	old := s.data[byteIndex]
	s.data[byteIndex] = old &^ mask

	return old&mask != 0
}

// Count returns the number of set bits.
func (s *Stream) Count() int {
	n := 0
	for _, b := range s.data {
		n += bits.OnesCount8(b)
	}
	return n
}

// Equals reports whether both streams hold the same bits at the same
// length.
func (s *Stream) Equals(other *Stream) bool {
	return s.nbits == other.nbits && bytes.Equal(s.data, other.data)
}

// Clone returns an independent copy.
func (s *Stream) Clone() *Stream {
	return &Stream{data: s.Bytes(), nbits: s.nbits}
}

// String returns a 0/1 bitstring of exactly Len characters.
func (s *Stream) String() string {
	var buf bytes.Buffer
	buf.Grow(s.nbits)
	for i := 0; i < s.nbits; i++ {
		if s.Has(i) {
			buf.WriteByte('1')
		} else {
			buf.WriteByte('0')
		}
	}
	return buf.String()
}
