package bwt

import (
	"encoding/binary"
	"io"
	"os"
)

const (
	int32Size    = 4
	occTableSize = alphabetSize * int32Size
	// ChunkSize is the number of RLB bytes scanned between checkpoints. It
	// is chosen so that one checkpoint's occurrence table is exactly as
	// large as one RLB chunk, giving the index file a 1:1 byte ratio with
	// the RLB it was built from.
	ChunkSize = occTableSize + int32Size
)

// readAtMost reads into buf from r starting at off, tolerating a short read
// at EOF: it reports the number of bytes actually read and a nil error,
// rather than surfacing io.EOF, matching the "TryReadExact" contract the
// RLB/index readers were built around.
func readAtMost(r io.ReaderAt, buf []byte, off int64) (int, error) {
	n, err := r.ReadAt(buf, off)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

func encodeOccTable(dst []byte, occ []int32) {
	for i, v := range occ {
		binary.LittleEndian.PutUint32(dst[i*int32Size:], uint32(v))
	}
}

func decodeOccTable(src []byte) [alphabetSize]int {
	var occ [alphabetSize]int
	for i := 0; i < alphabetSize; i++ {
		occ[i] = int(int32(binary.LittleEndian.Uint32(src[i*int32Size:])))
	}
	return occ
}

// GenIndex scans rlb in CHUNK_SIZE-byte chunks, writing a checkpoint index to
// index: positions[1..=K] as little-endian int32 first, then K consecutive
// per-symbol occurrence snapshots. It returns the full positions vector,
// including the implicit positions[0]=0 that is not itself stored on disk.
//
// index must support both writing and seeking; GenIndex writes the
// occurrence tables first (seeking past the space reserved for positions)
// and only learns the positions once the scan completes, so it seeks back
// to the front to fill them in last.
func GenIndex(rlb io.ReaderAt, rlbSize int64, index *os.File) ([]int, error) {
	checkpoints := int(rlbSize / ChunkSize)
	positions := make([]int, checkpoints+1)
	if checkpoints == 0 {
		return positions, nil
	}

	if _, err := index.Seek(int64(checkpoints*int32Size), io.SeekStart); err != nil {
		return nil, &IOError{"seek index past positions", err}
	}

	occ := make([]int32, alphabetSize)
	occBytes := make([]byte, occTableSize)
	// tailMargin bounds how many continuation bytes of the one run
	// straddling a chunk boundary this read looks ahead for. 8 tail bytes
	// extend a run length past 2^49, far beyond anything CHUNK_SIZE=396
	// bytes of RLE-compressible input could represent.
	const tailMargin = 8
	readBuf := make([]byte, ChunkSize+tailMargin)
	curPos := 0

	for i := 0; i < checkpoints; i++ {
		n, err := readAtMost(rlb, readBuf, int64(i)*int64(ChunkSize))
		if err != nil {
			return nil, &IOError{"read rlb chunk", err}
		}
		if n < ChunkSize {
			return nil, &MalformedInputError{Reason: "rlb shorter than its declared checkpoint boundaries"}
		}

		chunk := trimToRunBoundary(readBuf[:n], ChunkSize)
		last := walkRuns(chunk, curPos, func(r Run) bool {
			curPos = r.Pos + r.Len
			occ[mapChar(r.Char)] += int32(r.Len)
			return true
		})
		if last.Len > 0 {
			curPos = last.Pos + last.Len
			occ[mapChar(last.Char)] += int32(last.Len)
		}

		positions[i+1] = curPos
		encodeOccTable(occBytes, occ)
		if _, err := index.Write(occBytes); err != nil {
			return nil, &IOError{"write checkpoint occurrence table", err}
		}
	}

	if _, err := index.Seek(0, io.SeekStart); err != nil {
		return nil, &IOError{"seek index to positions", err}
	}
	posBytes := make([]byte, checkpoints*int32Size)
	for i := 0; i < checkpoints; i++ {
		binary.LittleEndian.PutUint32(posBytes[i*int32Size:], uint32(positions[i+1]))
	}
	if _, err := index.Write(posBytes); err != nil {
		return nil, &IOError{"write checkpoint positions", err}
	}

	return positions, nil
}

// GenCTable builds the C table: C[c] is the number of BWT symbols strictly
// less than c. With an index present it seeds from the last checkpoint's
// occurrence snapshot; the RLB tail beyond the last checkpoint boundary is
// always scanned directly, whether or not an index exists.
func GenCTable(rlb io.ReaderAt, rlbSize int64, index io.ReaderAt, checkpoints int) ([alphabetSize + 1]int, error) {
	var c [alphabetSize + 1]int

	// checkpoints > 0 implies the caller has already guaranteed index is a
	// real, open file: a nil *os.File passed through this io.ReaderAt
	// parameter would not compare equal to nil here (a well-known Go
	// interface pitfall), so callers must gate on checkpoints, not on
	// comparing index itself.
	if checkpoints > 0 {
		buf := make([]byte, occTableSize)
		off := int64(checkpoints)*int32Size + int64(checkpoints-1)*occTableSize
		if _, err := index.ReadAt(buf, off); err != nil {
			return c, &IOError{"read last checkpoint occurrence table", err}
		}
		occ := decodeOccTable(buf)
		for i, v := range occ {
			c[i+1] = v
		}
	}

	tailOff := int64(checkpoints) * int64(ChunkSize)
	tailLen := rlbSize - tailOff
	if tailLen > 0 {
		tail := make([]byte, tailLen)
		n, err := readAtMost(rlb, tail, tailOff)
		if err != nil {
			return c, &IOError{"read rlb tail", err}
		}
		tail = tail[:n]
		last := walkRuns(tail, 0, func(r Run) bool {
			c[mapChar(r.Char)+1] += r.Len
			return true
		})
		if last.Len > 0 {
			c[mapChar(last.Char)+1] += last.Len
		}
	}

	acc := 0
	for i := 0; i <= alphabetSize; i++ {
		acc += c[i]
		c[i] = acc
	}
	return c, nil
}
