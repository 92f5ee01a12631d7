// Package config reads the client configuration from environment variables.
package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bitrise-io/go-bynder/upload"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
)

// DefaultRetryMax is the default number of retries of a failed HTTP request.
const DefaultRetryMax = 4

// Secret is a string that is not printed.
type Secret string

// String ...
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "*****"
}

// Config ...
type Config struct {
	BaseURL string `env:"BYNDER_BASE_URL,required"`
	Token   Secret `env:"BYNDER_TOKEN,required"`
	// ChunkSize is the upload chunk size in bytes.
	ChunkSize int64 `env:"BYNDER_CHUNK_SIZE,size"`
	RetryMax  int   `env:"BYNDER_RETRY_MAX"`
	Verbose   bool  `env:"BYNDER_VERBOSE"`
	S3        S3Config
}

// S3Config holds the credentials used to read upload content from S3.
// Empty keys fall back to the default AWS credential chain.
type S3Config struct {
	Region          string `env:"AWS_REGION"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey Secret `env:"AWS_SECRET_ACCESS_KEY"`
}

// Load reads the configuration from envRepo, applying the defaults to unset variables.
func Load(envRepo env.Repository) (Config, error) {
	conf := Config{
		ChunkSize: upload.DefaultChunkSize,
		RetryMax:  DefaultRetryMax,
	}
	if err := Parse(&conf, envRepo); err != nil {
		return Config{}, err
	}
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Validate ...
func (c Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "https://") && !strings.HasPrefix(c.BaseURL, "http://") {
		return fmt.Errorf("BYNDER_BASE_URL: %q is not an http(s) URL", c.BaseURL)
	}
	if err := c.UploadConfig().Validate(); err != nil {
		return fmt.Errorf("BYNDER_CHUNK_SIZE: %w", err)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("BYNDER_RETRY_MAX: must not be negative")
	}
	return nil
}

// UploadConfig ...
func (c Config) UploadConfig() upload.Config {
	return upload.Config{ChunkSize: c.ChunkSize}
}

// Print logs the configuration with secrets masked.
func (c Config) Print(logger log.Logger) {
	logger.Infof("Configuration:")
	printStruct(logger, reflect.ValueOf(c))
}

func printStruct(logger log.Logger, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)

		tag, ok := field.Tag.Lookup(tagKey)
		if !ok {
			if value.Kind() == reflect.Struct {
				printStruct(logger, value)
			}
			continue
		}

		key, options := parseTag(tag)
		switch {
		case options[optionSize]:
			logger.Printf("- %s: %s", key, units.BytesSize(float64(value.Int())))
		default:
			logger.Printf("- %s: %v", key, value.Interface())
		}
	}
}
