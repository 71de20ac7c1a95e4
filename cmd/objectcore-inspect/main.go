// objectcore-inspect is a small operator CLI over the package file format
// and the asset registry: it dumps a single package's header and export
// table (imports as a count only), or runs discovery over a set of mounts and prints the resulting
// registry snapshot.
//
// Build-time flag: `-ldflags "-X main.version=vX.Y.Z"`.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "objectcore-inspect",
		Short:        "Inspect package files and the asset registry",
		SilenceUsage: true,
		Version:      version,
	}
	root.AddCommand(newHeaderCommand())
	root.AddCommand(newRegistryCommand())
	return root
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "objectcore-inspect:", err)
	os.Exit(1)
}
