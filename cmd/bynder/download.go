package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bitrise-io/go-bynder/archive"
	"github.com/bitrise-io/go-bynder/asset"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
)

type downloadOptions struct {
	mediaID    string
	itemID     string
	output     string
	extractDir string
	verbose    bool
}

func parseDownloadFlags(args []string) (downloadOptions, error) {
	var opts downloadOptions

	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.StringVar(&opts.mediaID, "media", "", "media ID to download (required)")
	fs.StringVar(&opts.itemID, "item", "", "media item ID, defaults to the original file")
	fs.StringVar(&opts.output, "output", "", "destination file, defaults to the media ID")
	fs.StringVar(&opts.extractDir, "extract", "", "extract a downloaded .tar.zst archive into this directory")
	fs.BoolVar(&opts.verbose, "verbose", false, "enable debug logs")

	if err := fs.Parse(args); err != nil {
		return downloadOptions{}, err
	}
	if opts.mediaID == "" {
		return downloadOptions{}, fmt.Errorf("-media is required")
	}
	if opts.output == "" {
		opts.output = opts.mediaID
		if opts.extractDir != "" {
			opts.output += archive.Extension
		}
	}
	if opts.extractDir != "" && !strings.HasSuffix(opts.output, archive.Extension) {
		return downloadOptions{}, fmt.Errorf("-extract needs an %s output, got %s", archive.Extension, opts.output)
	}
	return opts, nil
}

func runDownload(ctx context.Context, args []string, envRepo env.Repository, logger log.Logger) error {
	opts, err := parseDownloadFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	conf, err := loadConfig(envRepo, opts.verbose, logger)
	if err != nil {
		return err
	}
	service, err := newService(conf, logger)
	if err != nil {
		return err
	}

	logger.Infof("Downloading media %s...", opts.mediaID)
	start := time.Now()
	query := asset.DownloadMediaQuery{MediaID: opts.mediaID, MediaItemID: opts.itemID}
	if err := service.DownloadMedia(ctx, query, opts.output); err != nil {
		return err
	}
	info, err := os.Stat(opts.output)
	if err != nil {
		return err
	}
	logger.Donef("Downloaded %s (%s) in %s", opts.output, units.HumanSizeWithPrecision(float64(info.Size()), 3), time.Since(start).Round(time.Millisecond))

	if opts.extractDir == "" {
		return nil
	}

	logger.Infof("Extracting %s...", opts.output)
	if err := os.MkdirAll(opts.extractDir, 0755); err != nil {
		return fmt.Errorf("create extract directory: %w", err)
	}
	archiver := archive.NewArchiver(logger, envRepo, archive.NewBinaryChecker(logger, envRepo))
	if err := archiver.Decompress(opts.output, opts.extractDir); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	logger.Donef("Extracted to %s", opts.extractDir)
	return nil
}
