/*
Package bwt implements an FM-index over a run-length-encoded Burrows-Wheeler
Transform (the "RLB" format) of a bracket-delimited record store.

# Input shape

The indexed text is the concatenation of records of the form:

	[0]hello[1]world[2]...

Records are never the input to this package directly; a companion encoder
(out of scope here, see CHUNK_SIZE and the RLB layout below) has already
computed the BWT of that concatenation and stored its last column as a
run-length byte stream. This package only reads that stream.

# RLB: run-length bytes

Each run (a maximal run of one repeated symbol in the BWT) is stored as one
head byte, whose top bit is always 0, followed by zero or more continuation
("tail") bytes, whose top bit is always 1:

	head (1 byte, bit7=0)   tail* (0+ bytes, bit7=1)

A head with no tails is a run of length 1. Tails extend the length in a
base-128 fashion; see Run.extendTail for the exact arithmetic. Because head
and tail bytes are distinguished purely by their top bit, a reader can always
tell where a run begins without external framing.

# Checkpoints

Walking the RLB from byte zero to answer a single rank query would be
O(n). Instead, every CHUNK_SIZE bytes of RLB we snapshot the cumulative
per-symbol occurrence counts and the cumulative BWT position reached so far
into a side-car index file. A query for occ(c, pos) then only has to replay
the handful of runs between the nearest checkpoint at or before pos and pos
itself.

# LF-mapping

Given a BWT row whose last-column character is c with rank r (r occurrences
of c appear in the BWT above that row), the predecessor of that position in
the original text sits at row C[c]+r, where C[c] is the number of symbols
in the BWT strictly less than c. Repeatedly applying
this "LF-mapping" walks backward through the original text one character at
a time; starting from a row known to be inside a record and walking until a
']' is produced reconstructs that record, in reverse.

# Concurrency

Context is read-only after construction: the C table, the checkpoint
position vector and the underlying files never change. The only mutable
state touched by a query is the positional cache (see cache.go), which is
safe for concurrent use. SearchConcurrent dispatches per-match record
extraction across a bounded worker pool; see concurrent.go.
*/
package bwt
