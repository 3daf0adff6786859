// Package linearcount implements the Whang/Vander-Zanden/Taylor linear
// counting cardinality estimator.
//
// A counter is a fixed bitmap of 32-bit words. Each offered line is mapped
// to a single bit through a hash function; the cardinality estimate is
// m·ln(m/(m−s)), where m is the number of words and s the number of set
// bits. Memory is
// fixed at construction regardless of stream length.
package linearcount

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// MaxWords bounds the bitmap at 512 MiB of 32-bit words.
const MaxWords = (1 << 32) / 8 / 4

// ErrOversizeBitmap indicates a requested bitmap larger than MaxWords.
var ErrOversizeBitmap = errors.New("linearcount: bitmap size exceeds limit")

// A Hash maps a line to a 32-bit value with good avalanche behavior. The
// counter derives the bit index as the hash value modulo the bit capacity,
// so nothing beyond uniform distribution is required of it.
type Hash func(s string) uint32

// MD5 hashes a line with MD5 and concatenates the first four digest bytes
// big-endian.
func MD5(s string) uint32 {
	digest := md5.Sum([]byte(s))
	return binary.BigEndian.Uint32(digest[:4])
}

// XXHash hashes a line with xxhash64 and keeps the top 32 bits.
func XXHash(s string) uint32 {
	return uint32(xxhash.Sum64String(s) >> 32)
}

// Counter is a linear counting cardinality estimator. It is not safe for
// concurrent use.
type Counter struct {
	buffer []uint32
	hash   Hash
}

// New returns a counter with a bitmap of the given number of 32-bit words,
// hashing lines with MD5. words must be at least 1; sizes above MaxWords
// fail with ErrOversizeBitmap.
func New(words int) (*Counter, error) {
	return NewWithHash(words, MD5)
}

// NewWithHash is New with an explicit hash function.
func NewWithHash(words int, hash Hash) (*Counter, error) {
	if words > MaxWords {
		return nil, fmt.Errorf("%w: %d words (max %d)", ErrOversizeBitmap, words, MaxWords)
	}

	return &Counter{buffer: make([]uint32, words), hash: hash}, nil
}

// Offer marks the bit associated with s. Offering the same line again is a
// no-op; bits only ever transition from unset to set.
func (c *Counter) Offer(s string) {
	bitIdx := uint64(c.hash(s)) % (uint64(len(c.buffer)) * 32)

	// Lower 5 bits select the bit, the rest select the word.
	c.buffer[bitIdx>>5] |= 1 << (bitIdx & 31)
}

// Estimate returns the estimated number of distinct lines offered so far.
// The estimator saturates once the set-bit population reaches the word
// count; a full bitmap reports the maximum representable estimate.
func (c *Counter) Estimate() uint32 {
	m := float64(len(c.buffer))

	unset := m - float64(c.popCount())
	if unset <= 0 {
		return math.MaxUint32
	}

	return uint32(math.Round(m * math.Log(m/unset)))
}

// Occupancy returns the ratio of set bits in the bitmap.
func (c *Counter) Occupancy() float64 {
	return float64(c.popCount()) / (float64(len(c.buffer)) * 32)
}

func (c *Counter) popCount() uint32 {
	var total uint32
	for _, word := range c.buffer {
		total += popCount(word)
	}

	return total
}

// popCount is a word-parallel SWAR population count; the final multiply
// folds the per-byte sums into the top byte.
func popCount(word uint32) uint32 {
	word -= (word >> 1) & 0x55555555
	word = (word & 0x33333333) + ((word >> 2) & 0x33333333)

	return (((word + (word >> 4)) & 0x0F0F0F0F) * 0x01010101) >> 24
}
