// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"hash/crc32"
	"strings"
)

// Hash is the 40-bit content hash the game archive uses to address
// packed assets, stored in the low 40 bits of a uint64. The low 32
// bits are the CRC-32 of the lowercase path string; bits 32-39 are
// the string's byte length truncated to 8 bits. The zero Hash is
// never a valid asset address (the empty string hashes to zero
// length and zero CRC) and doubles as "no hash".
type Hash uint64

// HashString computes the archive hash of a path string. Paths are
// hashed lowercase; the archive format is case-insensitive.
func HashString(s string) Hash {
	s = strings.ToLower(s)
	crc := crc32.ChecksumIEEE([]byte(s))
	return Hash((uint64(len(s))&0xFF)<<32 | uint64(crc))
}

// CRC returns the CRC-32 portion of the hash.
func (h Hash) CRC() uint32 {
	return uint32(h)
}

// Length returns the recorded byte length of the hashed string. The
// archive format stores only the low 8 bits of the length, so paths
// longer than 255 bytes alias shorter lengths; the CRC still
// disambiguates them in practice.
func (h Hash) Length() int {
	return int(h >> 32 & 0xFF)
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == 0
}

// String formats the hash the way archive tooling prints it.
func (h Hash) String() string {
	return fmt.Sprintf("%#x", uint64(h))
}

// Concat returns the hash of the string that hashed to h followed by
// the string that hashed to other, computed purely from the two
// hashes. CRC-32 is a linear function over GF(2), so the CRC of a
// concatenation can be derived from the operand CRCs and the suffix
// length without the original bytes.
//
// The suffix length used is other.Length(), which is truncated to 8
// bits by the hash format. Concatenation is therefore only exact when
// the suffix string is shorter than 256 bytes; archive path
// components always are.
func (h Hash) Concat(other Hash) Hash {
	crc := crc32Combine(h.CRC(), other.CRC(), int64(other.Length()))
	length := uint64(h.Length()+other.Length()) & 0xFF
	return Hash(length<<32 | uint64(crc))
}

// slash is the hash of the path separator, used by Join.
var slash = HashString("/")

// Join returns the hash of "<h>/<other>". This is the common way
// substitute folder paths are extended with file names on the
// interception path.
func (h Hash) Join(other Hash) Hash {
	return h.Concat(slash).Concat(other)
}

// crc32Poly is the reversed CRC-32 polynomial used by hash/crc32's
// IEEE table and by the archive format.
const crc32Poly = 0xedb88320

// gf2MatrixTimes multiplies the 32x32 GF(2) matrix mat by the bit
// vector vec.
func gf2MatrixTimes(mat *[32]uint32, vec uint32) uint32 {
	var sum uint32
	for i := 0; vec != 0; vec >>= 1 {
		if vec&1 != 0 {
			sum ^= mat[i]
		}
		i++
	}
	return sum
}

// gf2MatrixSquare sets square to mat*mat.
func gf2MatrixSquare(square, mat *[32]uint32) {
	for n := range square {
		square[n] = gf2MatrixTimes(mat, mat[n])
	}
}

// crc32Combine returns the CRC-32 of the concatenation of two byte
// sequences given crc1 of the first, crc2 of the second, and the
// length of the second. This is the zlib crc32_combine construction:
// advancing crc1 through len2 zero bytes is a linear operator, built
// by repeated squaring of the single-zero-bit operator matrix, after
// which the advanced crc1 is XORed with crc2.
func crc32Combine(crc1, crc2 uint32, len2 int64) uint32 {
	if len2 <= 0 {
		return crc1 ^ crc2
	}

	var even, odd [32]uint32

	// Operator for one zero bit.
	odd[0] = crc32Poly
	row := uint32(1)
	for n := 1; n < 32; n++ {
		odd[n] = row
		row <<= 1
	}

	// Square to get the operators for two and four zero bits.
	gf2MatrixSquare(&even, &odd)
	gf2MatrixSquare(&odd, &even)

	// Apply len2 zero bytes to crc1, one squaring per bit of len2.
	for {
		gf2MatrixSquare(&even, &odd)
		if len2&1 != 0 {
			crc1 = gf2MatrixTimes(&even, crc1)
		}
		len2 >>= 1
		if len2 == 0 {
			break
		}

		gf2MatrixSquare(&odd, &even)
		if len2&1 != 0 {
			crc1 = gf2MatrixTimes(&odd, crc1)
		}
		len2 >>= 1
		if len2 == 0 {
			break
		}
	}

	return crc1 ^ crc2
}
