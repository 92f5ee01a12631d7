package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitrise-io/go-bynder/archive"
	"github.com/bitrise-io/go-bynder/asset"
	"github.com/bitrise-io/go-bynder/input"
	"github.com/bitrise-io/go-bynder/s3source"
	"github.com/bitrise-io/go-bynder/upload"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/docker/go-units"
)

// metapropertyFlag collects repeated -metaproperty id=option1,option2 flags.
type metapropertyFlag map[string][]string

func (f metapropertyFlag) String() string {
	var parts []string
	for id, options := range f {
		parts = append(parts, id+"="+strings.Join(options, ","))
	}
	return strings.Join(parts, " ")
}

func (f metapropertyFlag) Set(value string) error {
	id, options, ok := cut(value, "=")
	if !ok || id == "" || options == "" {
		return fmt.Errorf("expected <metaproperty id>=<option id>[,<option id>...], got %q", value)
	}
	f[id] = append(f[id], strings.Split(options, ",")...)
	return nil
}

type uploadOptions struct {
	brandID          string
	mediaID          string
	name             string
	description      string
	copyright        string
	tags             string
	isPublic         bool
	publicationDate  string
	metaproperties   metapropertyFlag
	bundle           bool
	compressionLevel int
	s3Bucket         string
	s3Key            string
	stage            bool
	verbose          bool
}

func parseUploadFlags(args []string) (uploadOptions, []string, error) {
	opts := uploadOptions{metaproperties: metapropertyFlag{}}

	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.StringVar(&opts.brandID, "brand", "", "brand ID of the new asset")
	fs.StringVar(&opts.mediaID, "media", "", "upload as a new version of this media ID")
	fs.StringVar(&opts.name, "name", "", "asset name, defaults to the file name")
	fs.StringVar(&opts.description, "description", "", "asset description")
	fs.StringVar(&opts.copyright, "copyright", "", "asset copyright")
	fs.StringVar(&opts.tags, "tags", "", "comma separated list of tags")
	fs.BoolVar(&opts.isPublic, "public", false, "mark the asset public")
	fs.StringVar(&opts.publicationDate, "publication-date", "", "publication date, RFC 3339 or YYYY-MM-DD")
	fs.Var(opts.metaproperties, "metaproperty", "metaproperty options as <id>=<option id>[,...], repeatable")
	fs.BoolVar(&opts.bundle, "bundle", false, "upload all paths as a single .tar.zst archive")
	fs.IntVar(&opts.compressionLevel, "compression-level", 3, "zstd compression level of bundles (1-19)")
	fs.StringVar(&opts.s3Bucket, "s3-bucket", "", "upload an object of this S3 bucket instead of local paths")
	fs.StringVar(&opts.s3Key, "s3-key", "", "key of the S3 object")
	fs.BoolVar(&opts.stage, "stage", false, "download the S3 object to a temporary file before uploading it")
	fs.BoolVar(&opts.verbose, "verbose", false, "enable debug logs")

	if err := fs.Parse(args); err != nil {
		return uploadOptions{}, nil, err
	}
	if opts.compressionLevel < 1 || opts.compressionLevel > 19 {
		return uploadOptions{}, nil, fmt.Errorf("compression level should be between 1 and 19")
	}
	if (opts.s3Bucket == "") != (opts.s3Key == "") {
		return uploadOptions{}, nil, fmt.Errorf("-s3-bucket and -s3-key must be set together")
	}
	if opts.s3Bucket == "" && fs.NArg() == 0 {
		return uploadOptions{}, nil, fmt.Errorf("no paths to upload")
	}
	return opts, fs.Args(), nil
}

func (o uploadOptions) metadata() (upload.Metadata, error) {
	meta := upload.Metadata{
		BrandID:     o.brandID,
		FileName:    o.name,
		Copyright:   o.copyright,
		Description: o.description,
		IsPublic:    o.isPublic,
		MediaID:     o.mediaID,
	}
	if o.tags != "" {
		for _, tag := range strings.Split(o.tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				meta.Tags = append(meta.Tags, tag)
			}
		}
	}
	for id, options := range o.metaproperties {
		meta.AddMetapropertyOptions(id, options...)
	}
	if o.publicationDate != "" {
		date, err := parseDate(o.publicationDate)
		if err != nil {
			return upload.Metadata{}, err
		}
		meta.PublicationDate = &date
	}
	return meta, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid publication date %q, expected RFC 3339 or YYYY-MM-DD", value)
	}
	return t, nil
}

func runUpload(ctx context.Context, args []string, envRepo env.Repository, logger log.Logger) error {
	opts, paths, err := parseUploadFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	meta, err := opts.metadata()
	if err != nil {
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

	u := uploadRunner{
		service: service,
		logger:  logger,
		envRepo: envRepo,
		conf:    opts,
		meta:    meta,
	}

	if opts.s3Bucket != "" {
		source, err := s3source.New(ctx, s3source.Params{
			Region:          conf.S3.Region,
			Bucket:          opts.s3Bucket,
			Key:             opts.s3Key,
			AccessKeyID:     conf.S3.AccessKeyID,
			SecretAccessKey: string(conf.S3.SecretAccessKey),
			NumRetries:      uint(conf.RetryMax),
		}, logger)
		if err != nil {
			return err
		}
		return u.uploadS3(ctx, source)
	}
	return u.uploadPaths(ctx, paths)
}

type uploadRunner struct {
	service *asset.Service
	logger  log.Logger
	envRepo env.Repository
	conf    uploadOptions
	meta    upload.Metadata
}

func (u uploadRunner) uploadPaths(ctx context.Context, paths []string) error {
	localPaths, cleanup, err := u.resolveSources(ctx, paths)
	defer cleanup()
	if err != nil {
		return err
	}

	finalPaths := newPathEvaluator(u.logger).evaluate(localPaths)
	if len(finalPaths) == 0 {
		return fmt.Errorf("none of the provided paths exist")
	}

	if u.conf.bundle || containsDir(finalPaths) {
		return u.uploadBundle(ctx, finalPaths)
	}

	if len(finalPaths) > 1 && (u.meta.FileName != "" || u.meta.IsNewVersion()) {
		return fmt.Errorf("-name and -media need a single file, got %d (use -bundle to upload them as one archive)", len(finalPaths))
	}
	for _, path := range finalPaths {
		if err := u.uploadFile(ctx, path, false); err != nil {
			return err
		}
	}
	return nil
}

// resolveSources downloads http(s) sources into a temporary directory and strips the file:// scheme.
func (u uploadRunner) resolveSources(ctx context.Context, sources []string) ([]string, func(), error) {
	cleanup := func() {}

	downloadDir := ""
	for _, source := range sources {
		if !input.IsRemote(source) {
			continue
		}
		tmpDir, err := os.MkdirTemp("", "bynder-remote")
		if err != nil {
			return nil, cleanup, fmt.Errorf("create temporary directory: %w", err)
		}
		downloadDir = tmpDir
		cleanup = func() {
			if err := os.RemoveAll(tmpDir); err != nil {
				u.logger.Warnf("remove temporary directory: %s", err)
			}
		}
		break
	}

	provider := input.NewFileProvider(input.NewHTTPDownloader(retryhttp.NewClient(u.logger).StandardClient()), downloadDir)
	paths := make([]string, 0, len(sources))
	for _, source := range sources {
		if input.IsRemote(source) {
			u.logger.Infof("Downloading %s...", source)
		}
		path, err := provider.LocalPath(ctx, source)
		if err != nil {
			return nil, cleanup, err
		}
		paths = append(paths, path)
	}
	return paths, cleanup, nil
}

func (u uploadRunner) uploadBundle(ctx context.Context, paths []string) error {
	if archive.AreAllPathsEmpty(paths) {
		u.logger.Warnf("The provided paths are all empty, skipping upload")
		return nil
	}

	tmpDir, err := os.MkdirTemp("", "bynder-bundle")
	if err != nil {
		return fmt.Errorf("create temporary directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			u.logger.Warnf("remove temporary directory: %s", err)
		}
	}()

	name := u.meta.FileName
	if name == "" {
		name = filepath.Base(paths[0])
	}
	if !strings.HasSuffix(name, archive.Extension) {
		name += archive.Extension
	}
	archivePath := filepath.Join(tmpDir, name)

	u.logger.Infof("Creating archive...")
	start := time.Now()
	archiver := archive.NewArchiver(u.logger, u.envRepo, archive.NewBinaryChecker(u.logger, u.envRepo))
	if err := archiver.Compress(archivePath, paths, u.conf.compressionLevel); err != nil {
		return fmt.Errorf("compression failed: %w", err)
	}
	u.logger.Donef("Archive created in %s", time.Since(start).Round(time.Second))

	return u.uploadFile(ctx, archivePath, true)
}

// uploadFile uploads a single file. Archives built by uploadBundle carry their final name in the path.
func (u uploadRunner) uploadFile(ctx context.Context, path string, builtArchive bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	u.logger.Infof("Uploading %s (%s)...", filepath.Base(path), units.HumanSizeWithPrecision(float64(info.Size()), 3))

	meta := u.meta
	if meta.FileName == "" || builtArchive {
		meta.FileName = filepath.Base(path)
	}

	start := time.Now()
	var result asset.SaveResult
	if meta.IsNewVersion() {
		result, err = u.service.UploadSourceToExistingAsset(ctx, upload.NewFileSource(path), meta.FileName, meta.MediaID)
	} else {
		result, err = u.service.UploadFileToNewAsset(ctx, path, meta)
	}
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	u.logDone(result, time.Since(start))
	return nil
}

func (u uploadRunner) uploadS3(ctx context.Context, source *s3source.Source) error {
	meta := u.meta
	if meta.FileName == "" {
		meta.FileName = source.FileName()
	}

	if u.conf.stage {
		tmpDir, err := os.MkdirTemp("", "bynder-stage")
		if err != nil {
			return fmt.Errorf("create temporary directory: %w", err)
		}
		defer func() {
			if err := os.RemoveAll(tmpDir); err != nil {
				u.logger.Warnf("remove temporary directory: %s", err)
			}
		}()

		u.logger.Infof("Downloading s3://%s/%s...", u.conf.s3Bucket, u.conf.s3Key)
		path, err := source.Stage(ctx, tmpDir)
		if err != nil {
			return err
		}
		u.meta = meta
		return u.uploadFile(ctx, path, false)
	}

	size, err := source.Size()
	if err != nil {
		return err
	}
	u.logger.Infof("Uploading s3://%s/%s (%s)...", u.conf.s3Bucket, u.conf.s3Key, units.HumanSizeWithPrecision(float64(size), 3))

	start := time.Now()
	var result asset.SaveResult
	if meta.IsNewVersion() {
		result, err = u.service.UploadSourceToExistingAsset(ctx, source, meta.FileName, meta.MediaID)
	} else {
		result, err = u.service.UploadSourceToNewAsset(ctx, source, meta)
	}
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", u.conf.s3Bucket, u.conf.s3Key, err)
	}
	u.logDone(result, time.Since(start))
	return nil
}

func (u uploadRunner) logDone(result asset.SaveResult, elapsed time.Duration) {
	mediaID := result.MediaID
	if mediaID == "" && len(result.MediaItems) > 0 {
		mediaID = result.MediaItems[0].MediaID
	}
	u.logger.Donef("Uploaded in %s, media ID: %s", elapsed.Round(time.Millisecond), mediaID)
}

// cut is strings.Cut, which needs go 1.18.
func cut(s, sep string) (string, string, bool) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
