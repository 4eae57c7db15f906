package main

import (
	"context"
	"fmt"
	"os"

	"github.com/haldring/bwtgrep/bwt"
	"github.com/urfave/cli/v2"
)

/******************************************************************************

searchCommand opens the RLB file named by the first positional argument and
its checkpoint index named by the second, building the index on first use if
the index file is empty or newly created, then searches for the pattern
named by the third argument.

Opening files and deciding whether an index needs to be built is
deliberately kept out of the bwt package: bwt.Context only ever operates on
already-open files, so that callers embedding it (tests, a server, this
CLI) control their own file lifecycle.

******************************************************************************/

func searchCommand(c *cli.Context) error {
	if c.Args().Len() < 3 {
		cli.ShowAppHelp(c)
		return cli.Exit("bwtgrep: expected <rlb-path> <index-path> <pattern>", 1)
	}

	rlbPath := c.Args().Get(0)
	indexPath := c.Args().Get(1)
	pattern := c.Args().Get(2)

	rlbFile, err := os.Open(rlbPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("bwtgrep: %v", err), 1)
	}
	defer rlbFile.Close()

	info, err := rlbFile.Stat()
	if err != nil {
		return cli.Exit(fmt.Sprintf("bwtgrep: %v", err), 1)
	}

	var indexFile *os.File
	if info.Size()/bwt.ChunkSize > 0 {
		indexFile, err = os.OpenFile(indexPath, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return cli.Exit(fmt.Sprintf("bwtgrep: %v", err), 1)
		}
		defer indexFile.Close()
	}

	var opts []bwt.ContextOption
	if c.Bool("no-cache") {
		opts = append(opts, bwt.WithCacheDisabled())
	}
	ctx, err := bwt.NewContext(rlbFile, indexFile, opts...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("bwtgrep: %v", err), 1)
	}
	defer ctx.Close()

	if c.Bool("count") {
		n, err := bwt.Count(ctx, []byte(pattern))
		if err != nil {
			return cli.Exit(fmt.Sprintf("bwtgrep: %v", err), 1)
		}
		fmt.Fprintln(c.App.Writer, n)
		return maybeReportCacheStats(c, ctx)
	}

	var matches []bwt.Record
	if c.Bool("concurrent") {
		matches, err = bwt.SearchConcurrent(context.Background(), ctx, []byte(pattern), c.Int("workers"))
	} else {
		matches, err = bwt.Search(ctx, []byte(pattern))
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("bwtgrep: %v", err), 1)
	}

	for _, m := range matches {
		fmt.Fprintf(c.App.Writer, "[%d]%s\n", m.ID, m.Text)
	}

	return maybeReportCacheStats(c, ctx)
}

func maybeReportCacheStats(c *cli.Context, ctx *bwt.Context) error {
	if !c.Bool("verbose") {
		return nil
	}
	hits, misses := ctx.CacheStats()
	errWriter := c.App.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	fmt.Fprintf(errWriter, "cache: %d hits, %d misses\n", hits, misses)
	return nil
}
