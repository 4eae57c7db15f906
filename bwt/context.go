package bwt

import (
	"encoding/binary"
	"io"
	"os"
	"strconv"

	"golang.org/x/exp/slices"
)

// Context is an open FM-index over one RLB file and its checkpoint index. It
// is safe for concurrent read-only use: SearchPattern, Count, Search and
// SearchConcurrent may all be called from multiple goroutines against the
// same Context. The only state that mutates after construction is the
// positional cache, which guards itself.
type Context struct {
	rlb     *os.File
	rlbSize int64
	index   *os.File

	positions []int                  // positions[i] = cumulative BWT position after i checkpoints
	cTable    [alphabetSize + 1]int
	minID     int

	cache *cache
}

// ContextOption configures optional behavior of NewContext.
type ContextOption func(*Context)

// WithCacheDisabled turns off the positional cache entirely. It exists so
// callers can verify that caching never changes search results (spec §8.9),
// and as the CLI's -no-cache flag for benchmarking against the cached path.
func WithCacheDisabled() ContextOption {
	return func(c *Context) { c.cache = newDisabledCache() }
}

// NewContext opens an FM-index over rlb, using index as its checkpoint
// side-car. If rlb is small enough to need no checkpoints at all, index may
// be nil. Otherwise index must be non-nil; if it is empty (freshly created
// by the caller) NewContext populates it via GenIndex, otherwise it is
// assumed to already hold a valid index for this rlb and is read as-is.
func NewContext(rlb, index *os.File, opts ...ContextOption) (ctx *Context, err error) {
	defer recoverAsError("NewContext", &err)

	info, statErr := rlb.Stat()
	if statErr != nil {
		return nil, &IOError{"stat rlb", statErr}
	}
	rlbSize := info.Size()
	checkpoints := int(rlbSize / ChunkSize)

	var positions []int
	if checkpoints == 0 {
		positions = []int{0}
		index = nil
	} else {
		if index == nil {
			return nil, &MalformedInputError{Reason: "rlb spans multiple checkpoints but no index file was provided"}
		}
		idxInfo, statErr := index.Stat()
		if statErr != nil {
			return nil, &IOError{"stat index", statErr}
		}
		if idxInfo.Size() == 0 {
			positions, err = GenIndex(rlb, rlbSize, index)
			if err != nil {
				return nil, err
			}
		} else {
			positions, err = readPositions(index, checkpoints)
			if err != nil {
				return nil, err
			}
		}
	}

	cTable, err := GenCTable(rlb, rlbSize, index, checkpoints)
	if err != nil {
		return nil, err
	}

	ctx = &Context{
		rlb:       rlb,
		rlbSize:   rlbSize,
		index:     index,
		positions: positions,
		cTable:    cTable,
		cache:     newCache(),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	ctx.minID, err = ctx.calibrateMinID()
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

func readPositions(index io.ReaderAt, checkpoints int) ([]int, error) {
	buf := make([]byte, checkpoints*int32Size)
	if _, err := index.ReadAt(buf, 0); err != nil {
		return nil, &IOError{"read index positions", err}
	}
	positions := make([]int, checkpoints+1)
	for i := 0; i < checkpoints; i++ {
		positions[i+1] = int(int32(binary.LittleEndian.Uint32(buf[i*int32Size:])))
	}
	return positions, nil
}

// Close releases the underlying rlb and index file handles.
func (c *Context) Close() error {
	err := c.rlb.Close()
	if c.index != nil {
		if idxErr := c.index.Close(); err == nil {
			err = idxErr
		}
	}
	return err
}

// CacheStats reports the number of positional cache hits and misses
// observed so far.
func (c *Context) CacheStats() (hits, misses int) {
	return c.cache.stats()
}

// MinID returns the record identifier calibrated at construction time (see
// calibrateMinID). For a store whose identifiers are consecutive this is the
// smallest identifier present; with gaps between identifiers it need not be.
func (c *Context) MinID() int {
	return c.minID
}

// findCheckpoint returns the index of the last checkpoint at or before pos.
func (c *Context) findCheckpoint(pos int) int {
	i, _ := slices.BinarySearch(c.positions, pos+1)
	return i - 1
}

// checkpointOcc returns the cumulative per-symbol occurrence counts as of
// checkpoint cpIdx (i.e. over BWT[0, positions[cpIdx])).
func (c *Context) checkpointOcc(cpIdx int) ([alphabetSize]int, error) {
	var occ [alphabetSize]int
	if cpIdx == 0 {
		return occ, nil
	}
	if c.index == nil {
		return occ, &MalformedInputError{Reason: "checkpoint occurrence requested but no index is open"}
	}
	buf := make([]byte, occTableSize)
	off := int64(len(c.positions)-1)*int32Size + int64(cpIdx-1)*occTableSize
	if _, err := c.index.ReadAt(buf, off); err != nil {
		return occ, &IOError{"read checkpoint occurrence table", err}
	}
	return decodeOccTable(buf), nil
}

// decode returns the run of the RLB stream that covers BWT row pos, with
// Rank set to the number of occurrences of that run's character strictly
// before the run starts.
func (c *Context) decode(pos int) (Run, error) {
	cpIdx := c.findCheckpoint(pos)
	startByte := int64(cpIdx) * int64(ChunkSize)
	startPos := c.positions[cpIdx]
	occBase, err := c.checkpointOcc(cpIdx)
	if err != nil {
		return Run{}, err
	}

	maxLen := c.rlbSize - startByte
	if maxLen <= 0 {
		return Run{}, &MalformedInputError{Reason: "position out of range of rlb stream"}
	}

	for readLen := int64(256); ; readLen *= 2 {
		if readLen > maxLen {
			readLen = maxLen
		}
		buf := make([]byte, readLen)
		n, err := readAtMost(c.rlb, buf, startByte)
		if err != nil {
			return Run{}, &IOError{"read rlb", err}
		}
		buf = buf[:n]
		atEOF := int64(n) >= maxLen

		occ := occBase
		var found Run
		ok := false
		last := walkRuns(buf, startPos, func(r Run) bool {
			if pos < r.Pos+r.Len {
				r.Rank = occ[mapChar(r.Char)]
				found = r
				ok = true
				return false
			}
			occ[mapChar(r.Char)] += r.Len
			return true
		})
		if ok {
			return found, nil
		}
		if last.Len > 0 && pos < last.Pos+last.Len && atEOF {
			last.Rank = occ[mapChar(last.Char)]
			return last, nil
		}
		if atEOF {
			return Run{}, &MalformedInputError{Reason: "position out of range of rlb stream"}
		}
	}
}

// occ returns the number of occurrences of target in BWT[0, pos).
func (c *Context) occ(target byte, pos int) (int, error) {
	if pos <= 0 {
		return 0, nil
	}
	cpIdx := c.findCheckpoint(pos)
	startByte := int64(cpIdx) * int64(ChunkSize)
	startPos := c.positions[cpIdx]
	occBase, err := c.checkpointOcc(cpIdx)
	if err != nil {
		return 0, err
	}

	maxLen := c.rlbSize - startByte
	if maxLen <= 0 {
		return occBase[mapChar(target)], nil
	}

	for readLen := int64(256); ; readLen *= 2 {
		if readLen > maxLen {
			readLen = maxLen
		}
		buf := make([]byte, readLen)
		n, err := readAtMost(c.rlb, buf, startByte)
		if err != nil {
			return 0, &IOError{"read rlb", err}
		}
		buf = buf[:n]
		atEOF := int64(n) >= maxLen

		count := occBase[mapChar(target)]
		done := false
		last := walkRuns(buf, startPos, func(r Run) bool {
			if r.Pos >= pos {
				done = true
				return false
			}
			end := r.Pos + r.Len
			if end <= pos {
				if r.Char == target {
					count += r.Len
				}
				return true
			}
			if r.Char == target {
				count += pos - r.Pos
			}
			done = true
			return false
		})
		if done {
			return count, nil
		}
		if last.Len > 0 && atEOF {
			end := last.Pos + last.Len
			switch {
			case last.Pos >= pos:
			case end <= pos:
				if last.Char == target {
					count += last.Len
				}
			default:
				if last.Char == target {
					count += pos - last.Pos
				}
			}
			return count, nil
		}
		if atEOF {
			return 0, &MalformedInputError{Reason: "position out of range of rlb stream"}
		}
	}
}

// calibrateMinID resolves the smallest record identifier present in the
// store. The BWT construction has no sentinel marking a canonical starting
// record, so the id decoded at row 0 (r0) is merely an upper bound on
// min_id, not min_id itself: binary search the candidate range [l, r0) for
// the smallest mid whose "[mid]" marker actually occurs, where l is pulled
// back by the record count so the search range can't miss a wrapped-around
// minimum. Only [l, r0) is searched and r0 is returned when no marker there
// exists, so with non-consecutive identifiers (e.g. 10, 20, 30, giving 30)
// the result is not the smallest one present. Mirrors the original
// implementation's get_metadata calibration.
func (c *Context) calibrateMinID() (int, error) {
	r0, _, err := c.idAtRow(0)
	if err != nil {
		return 0, err
	}

	recs := c.cTable[mapChar(']')+1] - c.cTable[mapChar(']')]
	l := 0
	if r0 >= recs {
		l = r0 - recs
	}

	lo, hi := l, r0
	for lo < hi {
		mid := lo + (hi-lo)/2
		found, err := c.markerExists(mid)
		if err != nil {
			return 0, err
		}
		if found {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, nil
}

// markerExists reports whether the record marker "[id]" occurs in the store.
func (c *Context) markerExists(id int) (bool, error) {
	pattern := []byte("[" + strconv.Itoa(id) + "]")
	lo, hi := 0, c.totalRows()
	for i := len(pattern) - 1; i >= 0; i-- {
		ch := pattern[i]
		occLo, err := c.occ(ch, lo)
		if err != nil {
			return false, err
		}
		occHi, err := c.occ(ch, hi)
		if err != nil {
			return false, err
		}
		lo = c.lfMap(ch, occLo)
		hi = c.lfMap(ch, occHi)
		if lo >= hi {
			return false, nil
		}
	}
	return true, nil
}
