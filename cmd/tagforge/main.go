// Package main provides the entry point for the TagForge tag engine CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/tagforgeapp/tagforge-server/internal/artwork"
	"github.com/tagforgeapp/tagforge-server/internal/di"
	"github.com/tagforgeapp/tagforge-server/internal/logger"
	"github.com/tagforgeapp/tagforge-server/internal/processor"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap engine: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)
	proc := do.MustInvoke[*processor.Processor](injector)
	adj := do.MustInvoke[*artwork.Adjuster](injector)

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: tagforge [flags] file...")
		os.Exit(2)
	}

	// Cancel the batch on SIGINT/SIGTERM; in-flight files finish, the
	// rest are skipped.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Renormalization pass: embedded artwork is brought within the
	// configured constraints; conforming images pass through untouched.
	report, err := proc.Run(ctx, paths, func(tf *tagfile.TagFile) error {
		art := tf.Artwork()
		if art == nil {
			return nil
		}
		adjusted, err := adj.Adjust(art)
		if err != nil {
			return err
		}
		tf.SetArtwork(adjusted)
		return nil
	})
	if err != nil {
		log.WithError(err).Error("batch aborted")
	}

	for _, f := range report.Files {
		line := fmt.Sprintf("%-9s %s", f.Status, f.Path)
		if f.Err != nil {
			line += "  (" + f.Err.Error() + ")"
		}
		fmt.Println(line)
		for _, d := range f.Diagnostics {
			fmt.Println("          " + d)
		}
	}
	fmt.Printf("%s: %d written, %d unchanged, %d failed, %d skipped in %s\n",
		report.ID, report.Written, report.Unchanged, report.Failed, report.Skipped, report.Elapsed)

	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	if report.Failed > 0 || err != nil {
		os.Exit(1)
	}
}
