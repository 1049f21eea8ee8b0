// azfs reads blobs from an Azure storage account through the azure
// filesystem.
//
// Usage:
//
//	azfs [global flags] <command> [command flags] <path>
//
// Commands:
//
//	cat     write a blob (or a byte range of it) to stdout
//	stat    print a blob's size, modification time and metadata
//	ranges  print several byte ranges of a blob, fetched concurrently
//
// Connection settings come from a YAML or CUE file (--config) and may be
// overridden with flags. The account key can be supplied through the
// AZURE_STORAGE_KEY environment variable.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
