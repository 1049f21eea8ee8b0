package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	azure "github.com/jmgilman/go/fs/azure"
	"github.com/spf13/pflag"
)

func runCat(_ context.Context, a *app, fsys *azure.FileSystem, args []string) error {
	var offset, length int64

	flagSet := pflag.NewFlagSet("cat", pflag.ContinueOnError)
	flagSet.SetOutput(a.stderr)
	flagSet.Int64Var(&offset, "offset", 0, "first byte to write")
	flagSet.Int64VarP(&length, "length", "n", -1, "number of bytes to write (-1 for the rest of the blob)")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	path, err := singlePath("cat", flagSet.Args())
	if err != nil {
		return err
	}

	f, err := fsys.OpenInputFile(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	if offset != 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return err
		}
	}

	var r io.Reader = f
	if length >= 0 {
		r = io.LimitReader(f, length)
	}
	_, err = io.Copy(a.stdout, r)
	return err
}

func runStat(_ context.Context, a *app, fsys *azure.FileSystem, args []string) error {
	path, err := singlePath("stat", args)
	if err != nil {
		return err
	}

	f, err := fsys.OpenInputFile(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	md, err := f.ReadMetadata()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "path: %s\n", f.Path())
	fmt.Fprintf(a.stdout, "size: %d\n", info.Size())
	fmt.Fprintf(a.stdout, "modified: %s\n", info.ModTime().UTC().Format(time.RFC3339))

	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.stdout, "metadata.%s: %s\n", k, md[k])
	}
	return nil
}

func runRanges(_ context.Context, a *app, fsys *azure.FileSystem, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("ranges: expected a path followed by one or more OFFSET:LENGTH ranges")
	}

	ranges := make([]azure.Range, 0, len(args)-1)
	for _, arg := range args[1:] {
		r, err := parseRange(arg)
		if err != nil {
			return err
		}
		ranges = append(ranges, r)
	}

	f, err := fsys.OpenInputFile(args[0])
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	bufs, err := f.ReadRanges(ranges)
	if err != nil {
		return err
	}
	for i, buf := range bufs {
		fmt.Fprintf(a.stdout, "%d:%d %q\n", ranges[i].Offset, ranges[i].Length, buf)
	}
	return nil
}

func parseRange(arg string) (azure.Range, error) {
	off, length, ok := strings.Cut(arg, ":")
	if !ok {
		return azure.Range{}, fmt.Errorf("invalid range %q: expected OFFSET:LENGTH", arg)
	}
	o, err := strconv.ParseInt(off, 10, 64)
	if err != nil {
		return azure.Range{}, fmt.Errorf("invalid range offset %q: %w", off, err)
	}
	l, err := strconv.ParseInt(length, 10, 64)
	if err != nil {
		return azure.Range{}, fmt.Errorf("invalid range length %q: %w", length, err)
	}
	return azure.Range{Offset: o, Length: l}, nil
}
