package bwt

import "golang.org/x/exp/slices"

// Record is one matched record: its identifier and its full reconstructed
// text (without the surrounding "[id]" marker).
type Record struct {
	ID   int
	Text string
}

// totalRows is N, the length of the original (cyclic) text the BWT was
// built from.
func (c *Context) totalRows() int {
	return c.cTable[alphabetSize]
}

// lfMap applies the LF-mapping: given the BWT row of a symbol with rank
// (occurrences of that symbol strictly before it), it returns the row of
// that symbol's predecessor in the original text.
func (c *Context) lfMap(char byte, rank int) int {
	return c.cTable[mapChar(char)] + rank
}

// SearchPattern performs a standard FM-index backward search for pattern,
// consuming it from its last byte to its first. It returns the half-open
// row range [lo, hi) of BWT rows whose corresponding suffix begins with
// pattern; an empty range (lo == hi) means no match.
func SearchPattern(ctx *Context, pattern []byte) (lo, hi int, err error) {
	if len(pattern) == 0 {
		return 0, ctx.totalRows(), nil
	}
	lo, hi = 0, ctx.totalRows()
	for i := len(pattern) - 1; i >= 0; i-- {
		ch := pattern[i]
		if !isAlphabet(ch) {
			return 0, 0, &InvalidQueryError{Byte: ch}
		}
		occLo, err := ctx.occ(ch, lo)
		if err != nil {
			return 0, 0, err
		}
		occHi, err := ctx.occ(ch, hi)
		if err != nil {
			return 0, 0, err
		}
		lo = ctx.lfMap(ch, occLo)
		hi = ctx.lfMap(ch, occHi)
		if lo >= hi {
			return lo, hi, nil
		}
	}
	return lo, hi, nil
}

// Count returns the number of occurrences of pattern across the whole
// store.
func Count(ctx *Context, pattern []byte) (n int, err error) {
	defer recoverAsError("Count", &err)
	lo, hi, err := SearchPattern(ctx, pattern)
	if err != nil {
		return 0, err
	}
	if hi <= lo {
		return 0, nil
	}
	return hi - lo, nil
}

// idAtRow resolves the record identifier of the record containing BWT row
// startingRow, by walking backward (via LF-mapping) until it has decoded a
// full "]digits" sequence — the closing bracket and reversed-order digits
// of this record's own "[id]" marker. It also returns the row whose BWT
// symbol is the ']' that closes that marker, which callers use as the
// backward boundary of the record's text.
func (c *Context) idAtRow(startingRow int) (id, bracketRow int, err error) {
	row := startingRow
	collecting := false
	var digits []byte
	limit := 2 * int64(c.totalRows())
	for i := int64(0); i < limit; i++ {
		r, derr := c.cachedDecode(row)
		if derr != nil {
			return 0, 0, derr
		}
		ch := r.Char
		if collecting && !(ch >= '0' && ch <= '9') {
			break
		}
		if ch == ']' {
			collecting = true
			bracketRow = row
		} else if collecting {
			digits = append(digits, ch)
		}
		row = c.lfMap(ch, r.Rank+(row-r.Pos))
	}
	if len(digits) == 0 {
		return 0, 0, &MalformedInputError{Reason: "could not resolve record id for row"}
	}
	reverseBytes(digits)
	for _, d := range digits {
		id = id*10 + int(d-'0')
	}
	return id, bracketRow, nil
}

// nextRow steps forward by one position in the original text. A cyclic,
// sentinel-less BWT gives no O(1) forward step, so this applies the
// backward LF-mapping totalRows-1 times, which is equivalent to one
// forward step around the cycle. It is deliberately only used for bounded
// amounts of forward context (see ExtractAt) — see DESIGN.md for why a
// forward-select structure was not built instead.
func (c *Context) nextRow(row int) (int, error) {
	n := c.totalRows()
	cur := row
	for i := 0; i < n-1; i++ {
		r, err := c.cachedDecode(cur)
		if err != nil {
			return 0, err
		}
		cur = c.lfMap(r.Char, r.Rank+(cur-r.Pos))
	}
	return cur, nil
}

// ExtractAt reconstructs the full record containing BWT row, returning its
// identifier and its text (everything between "]" and the next "[").
func (c *Context) ExtractAt(row int) (id int, text string, err error) {
	id, bracketRow, err := c.idAtRow(row)
	if err != nil {
		return 0, "", err
	}

	var before []byte
	cur := row
	for cur != bracketRow {
		r, derr := c.cachedDecode(cur)
		if derr != nil {
			return 0, "", derr
		}
		before = append(before, r.Char)
		cur = c.lfMap(r.Char, r.Rank+(cur-r.Pos))
	}
	reverseBytes(before)

	var after []byte
	cur, err = c.nextRow(row)
	if err != nil {
		return 0, "", err
	}
	for {
		r, derr := c.cachedDecode(cur)
		if derr != nil {
			return 0, "", derr
		}
		if r.Char == '[' {
			break
		}
		after = append(after, r.Char)
		cur, err = c.nextRow(cur)
		if err != nil {
			return 0, "", err
		}
	}

	out := make([]byte, 0, len(before)+len(after))
	out = append(out, before...)
	out = append(out, after...)
	return id, string(out), nil
}

// Search locates every occurrence of pattern and reconstructs the full
// record each occurrence falls within. A record matched more than once
// (the pattern occurs several times in its text) is still reported once,
// per spec: results are deduplicated by identifier and sorted ascending.
func Search(ctx *Context, pattern []byte) (matches []Record, err error) {
	defer recoverAsError("Search", &err)
	lo, hi, err := SearchPattern(ctx, pattern)
	if err != nil {
		return nil, err
	}
	for row := lo; row < hi; row++ {
		id, text, err := ctx.ExtractAt(row)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Record{ID: id, Text: text})
	}
	slices.SortFunc(matches, func(a, b Record) int { return a.ID - b.ID })
	matches = slices.CompactFunc(matches, func(a, b Record) bool { return a.ID == b.ID })
	return matches, nil
}

func reverseBytes(b []byte) {
	for l, r := 0, len(b)-1; l < r; l, r = l+1, r-1 {
		b[l], b[r] = b[r], b[l]
	}
}
