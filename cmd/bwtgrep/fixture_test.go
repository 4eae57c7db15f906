package main

import "sort"

// cyclicBWTCmdFixture computes the textbook cyclic (sentinel-less)
// Burrows-Wheeler transform of text and run-length encodes it into RLB
// bytes, for use as a test fixture. It is a deliberate duplicate of the
// bwt package's own unexported test fixture: the CLI tests exercise the
// binary the way a user would, against a file on disk, not against the
// library's internals.
func cyclicBWTCmdFixture(text string) []byte {
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
	return encodeRunsToRLBCmdFixture(string(last))
}

func encodeRunsToRLBCmdFixture(bwtStr string) []byte {
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
		buf = appendRunCmdFixture(buf, cur, n)
		cur = bwtStr[i]
		n = 1
	}
	return appendRunCmdFixture(buf, cur, n)
}

func appendRunCmdFixture(buf []byte, char byte, n int) []byte {
	if n == 2 {
		return appendRunCmdFixture(appendRunCmdFixture(buf, char, 1), char, 1)
	}
	buf = append(buf, char)
	if n == 1 {
		return buf
	}
	remaining := n - 3
	buf = append(buf, byte(remaining&0x7f)|0x80)
	remaining >>= 7
	for remaining > 0 {
		buf = append(buf, byte(remaining&0x7f)|0x80)
		remaining >>= 7
	}
	return buf
}
