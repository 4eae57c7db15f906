package bwt

import (
	"bytes"
	"os"
	"sort"
	"testing"
)

// cyclicBWT computes the Burrows-Wheeler transform of text treated as a
// cyclic string (no sentinel), by sorting all N rotations and taking their
// last characters. This is the textbook BWTS construction; it's only a
// test fixture, never exposed from the package, since the production RLB
// input is produced by an external encoder out of this package's scope.
func cyclicBWT(text string) string {
	n := len(text)
	rotations := make([]string, n)
	doubled := text + text
	for i := 0; i < n; i++ {
		rotations[i] = doubled[i : i+n]
	}
	sort.Strings(rotations)
	last := make([]byte, n)
	for i, r := range rotations {
		last[i] = r[n-1]
	}
	return string(last)
}

// encodeRunLen appends the RLB encoding of a run of length n of char to buf.
// It is the exact inverse of Run.extendTail (run.go): a run with one tail
// byte of payload 0 decodes to length 1+2+0=3, so the quantity spread across
// tail bytes in base 128 is n-3, not n-2. A length-2 run is unreachable
// under this scheme, so it is split into two length-1 runs.
func encodeRunLen(buf []byte, char byte, n int) []byte {
	if n == 2 {
		return encodeRunLen(encodeRunLen(buf, char, 1), char, 1)
	}
	buf = append(buf, char)
	if n == 1 {
		return buf
	}
	remaining := n - 3
	first := byte(remaining&0x7f) | 0x80
	buf = append(buf, first)
	remaining >>= 7
	for remaining > 0 {
		buf = append(buf, byte(remaining&0x7f)|0x80)
		remaining >>= 7
	}
	return buf
}

// encodeRunsToRLB run-length encodes bwt into RLB bytes.
func encodeRunsToRLB(bwtStr string) []byte {
	var buf []byte
	if len(bwtStr) == 0 {
		return buf
	}
	cur := bwtStr[0]
	n := 1
	for i := 1; i < len(bwtStr); i++ {
		if bwtStr[i] == cur {
			n++
			continue
		}
		buf = encodeRunLen(buf, cur, n)
		cur = bwtStr[i]
		n = 1
	}
	buf = encodeRunLen(buf, cur, n)
	return buf
}

// newTestContext builds a Context over text's cyclic BWT, with index
// written to a fresh temp file so NewContext populates it via GenIndex.
func newTestContext(t *testing.T, text string) *Context {
	t.Helper()
	return newTestContextWithOptions(t, text)
}

func newTestContextWithOptions(t *testing.T, text string, opts ...ContextOption) *Context {
	t.Helper()
	rlbBytes := encodeRunsToRLB(cyclicBWT(text))

	rlbFile, err := os.CreateTemp(t.TempDir(), "rlb-*.bin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rlbFile.Write(rlbBytes); err != nil {
		t.Fatal(err)
	}
	if _, err := rlbFile.Seek(0, 0); err != nil {
		t.Fatal(err)
	}

	idxFile, err := os.CreateTemp(t.TempDir(), "idx-*.bin")
	if err != nil {
		t.Fatal(err)
	}

	ctx, err := NewContext(rlbFile, idxFile, opts...)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	t.Cleanup(func() { ctx.Close() })
	return ctx
}

func mustRunLenRoundTrip(t *testing.T, text string) {
	t.Helper()
	encoded := encodeRunsToRLB(cyclicBWT(text))
	var decoded bytes.Buffer
	last := walkRuns(encoded, 0, func(r Run) bool {
		for i := 0; i < r.Len; i++ {
			decoded.WriteByte(r.Char)
		}
		return true
	})
	for i := 0; i < last.Len; i++ {
		decoded.WriteByte(last.Char)
	}
	if got := decoded.String(); got != cyclicBWT(text) {
		t.Fatalf("round trip mismatch: got %q want %q", got, cyclicBWT(text))
	}
}
