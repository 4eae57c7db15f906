package bwt

import (
	"context"
	"sort"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idsOf(matches []Record) []int {
	ids := make([]int, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	sort.Ints(ids)
	return ids
}

func TestSearchFindsSubstringWithinRecord(t *testing.T) {
	ctx := newTestContext(t, "[0]hello[1]world")
	matches, err := Search(ctx, []byte("ell"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].ID)
	assert.Equal(t, "hello", matches[0].Text)
}

func TestSearchFindsRepeatedPatternInDistinctRecords(t *testing.T) {
	ctx := newTestContext(t, "[0]ab[1]ab")
	matches, err := Search(ctx, []byte("ab"))
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, []int{0, 1}, idsOf(matches))
}

func TestSearchNoMatch(t *testing.T) {
	ctx := newTestContext(t, "[0]a")
	matches, err := Search(ctx, []byte("z"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchRejectsByteOutsideAlphabet(t *testing.T) {
	ctx := newTestContext(t, "[0]a")
	_, err := Search(ctx, []byte{0x01})
	require.Error(t, err)
	var invalid *InvalidQueryError
	assert.ErrorAs(t, err, &invalid)
}

func TestMinIDCalibration(t *testing.T) {
	ctx := newTestContext(t, "[5]x[6]y[7]z")
	assert.Equal(t, 5, ctx.MinID())
}

func TestCountMatchesSearchLength(t *testing.T) {
	ctx := newTestContext(t, "[0]banana[1]bandana")
	n, err := Count(ctx, []byte("an"))
	require.NoError(t, err)
	matches, err := Search(ctx, []byte("an"))
	require.NoError(t, err)
	assert.Equal(t, len(matches), n)
}

func TestSearchConcurrentMatchesSequential(t *testing.T) {
	ctx := newTestContext(t, "[0]banana[1]bandana[2]cabana")
	want, err := Search(ctx, []byte("ana"))
	require.NoError(t, err)
	got, err := SearchConcurrent(context.Background(), ctx, []byte("ana"), 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, idsOf(want), idsOf(got))
}

func TestCacheStatsReportHits(t *testing.T) {
	ctx := newTestContext(t, "[0]mississippi")
	_, err := Search(ctx, []byte("issi"))
	require.NoError(t, err)
	_, err = Search(ctx, []byte("issi"))
	require.NoError(t, err)
	hits, _ := ctx.CacheStats()
	assert.Greater(t, hits, 0)
}

func TestSearchOverCheckpointBoundary(t *testing.T) {
	// The filler records give the BWT enough distinct runs that the RLB is
	// longer than one chunk, so the index holds a real checkpoint and the
	// rows matching "aaa" lie past it.
	text := "[0]" + repeat("a", 50) + "[1]b"
	for i := 2; i < 150; i++ {
		text += "[" + strconv.Itoa(i) + "]b"
	}
	ctx := newTestContext(t, text)
	require.Greater(t, len(ctx.positions), 1, "the RLB must span at least one checkpoint")
	matches, err := Search(ctx, []byte("aaa"))
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.Equal(t, 0, m.ID)
	}
}

func TestSearchResultsMatchExpectedRecordsExactly(t *testing.T) {
	ctx := newTestContext(t, "[10]apple[20]maple[30]grape")
	matches, err := Search(ctx, []byte("ple"))
	require.NoError(t, err)

	want := []Record{
		{ID: 10, Text: "apple"},
		{ID: 20, Text: "maple"},
	}
	if diff := cmp.Diff(want, matches); diff != "" {
		t.Errorf("Search(\"ple\") mismatch (-want +got):\n%s", diff)
	}
}

func TestMinIDCalibrationWhenRowZeroIsNotTheMinimum(t *testing.T) {
	// The record containing BWT row 0 need not be the record with the
	// smallest identifier; calibration must binary search for it rather
	// than trust row 0 directly.
	ctx := newTestContext(t, "[3]zzz[1]aaa[2]mmm")
	assert.Equal(t, 1, ctx.MinID())
}

func TestSearchResultsIdenticalWithCacheDisabled(t *testing.T) {
	text := "[0]" + repeat("banana", 40) + "[1]" + repeat("bandana", 30)
	cached := newTestContext(t, text)
	uncached := newTestContextWithOptions(t, text, WithCacheDisabled())

	want, err := Search(cached, []byte("ana"))
	require.NoError(t, err)
	got, err := Search(uncached, []byte("ana"))
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cache-disabled search mismatch (-cached +uncached):\n%s", diff)
	}

	hits, _ := uncached.CacheStats()
	assert.Equal(t, 0, hits, "a disabled cache should never report a hit")
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
