// Command bynder uploads files to and downloads media from a Bynder portal.
//
// The portal and the credentials are read from the environment:
//
//	BYNDER_BASE_URL, BYNDER_TOKEN, BYNDER_CHUNK_SIZE, BYNDER_RETRY_MAX, BYNDER_VERBOSE
//	AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY (for uploads from S3)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitrise-io/go-bynder/api"
	"github.com/bitrise-io/go-bynder/asset"
	"github.com/bitrise-io/go-bynder/config"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
)

const usage = `Usage: bynder <command> [flags] [paths...]

Commands:
  upload    upload files, glob patterns, folders (as a .tar.zst archive) or an S3 object
  download  download a media file

Run "bynder <command> -h" for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	logger := log.NewLogger()
	envRepo := env.NewRepository()

	var err error
	switch os.Args[1] {
	case "upload":
		err = runUpload(ctx, os.Args[2:], envRepo, logger)
	case "download":
		err = runDownload(ctx, os.Args[2:], envRepo, logger)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		stop()
		os.Exit(2)
	}
	stop()

	if err != nil {
		logger.Errorf("%s", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration, the -verbose flag overrides BYNDER_VERBOSE.
func loadConfig(envRepo env.Repository, verbose bool, logger log.Logger) (config.Config, error) {
	conf, err := config.Load(envRepo)
	if err != nil {
		return config.Config{}, err
	}
	if verbose {
		conf.Verbose = true
	}
	logger.EnableDebugLog(conf.Verbose)
	if conf.Verbose {
		conf.Print(logger)
	}
	return conf, nil
}

func newService(conf config.Config, logger log.Logger) (*asset.Service, error) {
	httpClient := retryhttp.NewClient(logger)
	httpClient.RetryMax = conf.RetryMax

	client, err := api.NewClient(api.Params{
		BaseURL:    conf.BaseURL,
		Token:      string(conf.Token),
		HTTPClient: httpClient,
	}, logger)
	if err != nil {
		return nil, err
	}
	return asset.NewService(client, conf.UploadConfig(), logger)
}
