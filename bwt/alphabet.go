package bwt

// alphabetSize is |Σ|, the number of distinct bytes this index can store:
// tab, line feed, carriage return, and the printable range [32, 127) —
// 3 + 95 = 98 symbols.
const alphabetSize = 98

// isAlphabet reports whether b is one of the 98 bytes this index supports.
func isAlphabet(b byte) bool {
	switch b {
	case '\t', '\n', '\r':
		return true
	default:
		return b >= 32 && b < 127
	}
}

// mapChar injectively maps a byte of Σ to a dense index in [0, alphabetSize),
// preserving raw byte order across all of Σ: the three control codes (9, 10,
// 13) map to 0-2, below every printable byte, which maps to b-29 in [3, 98).
// Calling mapChar with a byte outside Σ is
// undefined; callers that accept untrusted bytes (e.g. a user-supplied
// pattern) must validate with isAlphabet first.
func mapChar(b byte) int {
	switch b {
	case '\t':
		return 0
	case '\n':
		return 1
	case '\r':
		return 2
	default:
		return int(b) - 29
	}
}
