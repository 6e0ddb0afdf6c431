// Package simindex implements the content-fingerprint similarity index
// used by the rename/copy detector (§4.B of the design): a blob is
// reduced to a sorted, de-duplicated table of (hash, count) entries over
// hashed line "shingles", and two such tables can be compared for a
// similarity score in [0, scale].
package simindex

import (
	"bufio"
	"bytes"
	"errors"
	"sort"

	"github.com/zeebo/blake3"
)

// ErrTableFull is raised when building the index would exceed its fixed
// capacity. Callers must treat the affected file as not comparable.
var ErrTableFull = errors.New("simindex: table full")

const (
	// maxLineBytes is the prefix length hashed per line; longer lines are
	// truncated for hashing purposes only.
	maxLineBytes = 64
	// DefaultMaxSize is the default byte-size ceiling beyond which a blob
	// is not considered for similarity at all.
	DefaultMaxSize = 50 * 1024 * 1024
	// defaultTableCapacity bounds the number of distinct (hash,count)
	// entries an index may hold.
	defaultTableCapacity = 1 << 20
)

// packed is a 64-bit word: upper 32 bits hash, lower 32 bits count.
type packed = uint64

func pack(hash uint32, count uint32) packed { return packed(hash)<<32 | packed(count) }
func unpackHash(p packed) uint32            { return uint32(p >> 32) }
func unpackCount(p packed) uint32           { return uint32(p) }

// Index is a sorted, de-duplicated fingerprint table for one blob.
type Index struct {
	entries    []packed // sorted by hash
	size       int64    // total bytes fed in
	totalLines int64    // sum of all counts; the "size" used by Score
}

// Options controls index construction.
type Options struct {
	MaxSize  int64 // bytes; 0 means DefaultMaxSize
	Capacity int   // table capacity; 0 means defaultTableCapacity
}

// Build constructs a similarity index from the given content. Content
// beyond MaxSize is reported as "too large to compare" via ok=false
// (not an error: the caller treats it as not comparable, mirroring a
// zero-value index that never matches anything).
func Build(content []byte, opts Options) (idx *Index, ok bool, err error) {
	maxSize := opts.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxSize
	}
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = defaultTableCapacity
	}

	if int64(len(content)) > maxSize {
		return nil, false, nil
	}

	counts := make(map[uint32]uint32)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) > maxLineBytes {
			line = line[:maxLineBytes]
		}
		h := hashLine(line)
		counts[h]++
		if len(counts) > capacity {
			return nil, false, ErrTableFull
		}
	}
	// bufio.Scanner silently drops a final unterminated line beyond its
	// buffer in some edge cases; scanner.Err() surfaces real failures.
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}

	entries := make([]packed, 0, len(counts))
	var total int64
	for h, c := range counts {
		entries = append(entries, pack(h, c))
		total += int64(c)
	}
	sort.Slice(entries, func(i, j int) bool { return unpackHash(entries[i]) < unpackHash(entries[j]) })

	return &Index{entries: entries, size: int64(len(content)), totalLines: total}, true, nil
}

func hashLine(line []byte) uint32 {
	sum := blake3.Sum256(line)
	return uint32(sum[0]) | uint32(sum[1])<<8 | uint32(sum[2])<<16 | uint32(sum[3])<<24
}

// Size returns the total byte length the index was built from.
func (idx *Index) Size() int64 {
	if idx == nil {
		return 0
	}
	return idx.size
}

// TotalLines returns the "size" used internally by Score: the sum of all
// per-hash counts in the table.
func (idx *Index) TotalLines() int64 {
	if idx == nil {
		return 0
	}
	return idx.totalLines
}

func (idx *Index) countOf(hash uint32) uint32 {
	entries := idx.entries
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		h := unpackHash(entries[mid])
		switch {
		case h == hash:
			return unpackCount(entries[mid])
		case h < hash:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}

// Score returns min(common, max(|a|,|b|)) * scale / max(|a|,|b|), where
// common sums min(countA(h), countB(h)) over all hashes present in both
// tables. Score(a, a, scale) == scale; Score of two disjoint blobs is 0.
func Score(a, b *Index, scale int) int {
	if a == nil || b == nil {
		return 0
	}
	sizeA, sizeB := a.totalLines, b.totalLines
	if sizeA == 0 || sizeB == 0 {
		return 0
	}

	// iterate the smaller table against the larger via binary search,
	// so the cost is O(min*log(max)) rather than O(min+max) with a map.
	small, large := a, b
	if len(a.entries) > len(b.entries) {
		small, large = b, a
	}

	var common int64
	for _, e := range small.entries {
		h := unpackHash(e)
		c := unpackCount(e)
		oc := large.countOf(h)
		if oc < c {
			common += int64(oc)
		} else {
			common += int64(c)
		}
	}

	maxSize := sizeA
	if sizeB > maxSize {
		maxSize = sizeB
	}
	if common > maxSize {
		common = maxSize
	}
	return int(common * int64(scale) / maxSize)
}

// IsBinary applies the classic heuristic: a NUL byte before the first
// line terminator, or anywhere within the first 8KB, classifies content
// as binary.
func IsBinary(content []byte) bool {
	limit := len(content)
	if limit > 8000 {
		limit = 8000
	}
	return bytes.IndexByte(content[:limit], 0) >= 0
}
