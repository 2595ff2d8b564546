// Copyright 2026 The Parallelproof Authors
// This file is part of Parallelproof.
//
// Parallelproof is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Parallelproof is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Parallelproof. If not, see <http://www.gnu.org/licenses/>.

// Package bitseq is the growable bit-sequence used for a cycle's RNG seed:
// one bit is appended per finalized slot.
package bitseq

import (
	"encoding/binary"
	"fmt"

	"github.com/willf/bitset"
)

// Seq is an ordered, appendable sequence of bits.
type Seq struct {
	bits *bitset.BitSet
	len  uint64
}

// New returns an empty sequence.
func New() *Seq {
	return &Seq{bits: bitset.New(0)}
}

// Append adds one bit to the end of the sequence.
func (s *Seq) Append(bit bool) {
	s.bits = s.bits.Set(uint(s.len))
	if !bit {
		s.bits = s.bits.Clear(uint(s.len))
	}
	s.len++
}

// AppendBits appends each of bits in order.
func (s *Seq) AppendBits(bits []bool) {
	for _, b := range bits {
		s.Append(b)
	}
}

// Len returns the number of bits in the sequence.
func (s *Seq) Len() uint64 { return s.len }

// Get returns the bit at index i.
func (s *Seq) Get(i uint64) bool { return s.bits.Test(uint(i)) }

// Bytes packs the sequence MSB-first into bytes, the form fed to H(...).
func (s *Seq) Bytes() []byte {
	out := make([]byte, (s.len+7)/8)
	for i := uint64(0); i < s.len; i++ {
		if s.Get(i) {
			out[i/8] |= 1 << (7 - i%8)
		}
	}
	return out
}

// Encode produces the length-prefixed wire form: an 8-byte big-endian bit
// count followed by the packed bytes.
func (s *Seq) Encode() []byte {
	buf := make([]byte, 8+len(s.Bytes()))
	binary.BigEndian.PutUint64(buf[:8], s.len)
	copy(buf[8:], s.Bytes())
	return buf
}

// Decode parses the wire form produced by Encode.
func Decode(data []byte) (*Seq, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("bitseq: short encoding (%d bytes)", len(data))
	}
	n := binary.BigEndian.Uint64(data[:8])
	packed := data[8:]
	if uint64(len(packed)) < (n+7)/8 {
		return nil, fmt.Errorf("bitseq: truncated payload for %d bits", n)
	}
	s := New()
	for i := uint64(0); i < n; i++ {
		bit := packed[i/8]&(1<<(7-i%8)) != 0
		s.Append(bit)
	}
	return s, nil
}
