package config

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bitrise-io/go-bynder/upload"
	"github.com/bitrise-io/go-utils/v2/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mapRepository map[string]string

func (r mapRepository) List() []string {
	var envs []string
	for k, v := range r {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	return envs
}

func (r mapRepository) Unset(key string) error {
	delete(r, key)
	return nil
}

func (r mapRepository) Get(key string) string {
	return r[key]
}

func (r mapRepository) Set(key, value string) error {
	r[key] = value
	return nil
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envs    mapRepository
		want    Config
		wantErr string
	}{
		{
			name: "defaults",
			envs: mapRepository{
				"BYNDER_BASE_URL": "https://portal.getbynder.com",
				"BYNDER_TOKEN":    "token",
			},
			want: Config{
				BaseURL:   "https://portal.getbynder.com",
				Token:     "token",
				ChunkSize: upload.DefaultChunkSize,
				RetryMax:  DefaultRetryMax,
			},
		},
		{
			name: "all variables",
			envs: mapRepository{
				"BYNDER_BASE_URL":       "https://portal.getbynder.com",
				"BYNDER_TOKEN":          "token",
				"BYNDER_CHUNK_SIZE":     "8MiB",
				"BYNDER_RETRY_MAX":      "0",
				"BYNDER_VERBOSE":        "yes",
				"AWS_REGION":            "eu-west-1",
				"AWS_ACCESS_KEY_ID":     "AKIA",
				"AWS_SECRET_ACCESS_KEY": "secret",
			},
			want: Config{
				BaseURL:   "https://portal.getbynder.com",
				Token:     "token",
				ChunkSize: 8 * 1024 * 1024,
				RetryMax:  0,
				Verbose:   true,
				S3: S3Config{
					Region:          "eu-west-1",
					AccessKeyID:     "AKIA",
					SecretAccessKey: "secret",
				},
			},
		},
		{
			name:    "missing required variables",
			envs:    mapRepository{},
			wantErr: "invalid configuration:\n- BYNDER_BASE_URL: required variable is not set\n- BYNDER_TOKEN: required variable is not set",
		},
		{
			name: "invalid values",
			envs: mapRepository{
				"BYNDER_BASE_URL":   "https://portal.getbynder.com",
				"BYNDER_TOKEN":      "token",
				"BYNDER_CHUNK_SIZE": "big",
				"BYNDER_VERBOSE":    "maybe",
			},
			wantErr: "invalid configuration:\n- BYNDER_CHUNK_SIZE: invalid size \"big\"",
		},
		{
			name: "zero chunk size",
			envs: mapRepository{
				"BYNDER_BASE_URL":   "https://portal.getbynder.com",
				"BYNDER_TOKEN":      "token",
				"BYNDER_CHUNK_SIZE": "0",
			},
			wantErr: "BYNDER_CHUNK_SIZE: invalid upload input: chunk size must be greater than zero",
		},
		{
			name: "not a URL",
			envs: mapRepository{
				"BYNDER_BASE_URL": "portal.getbynder.com",
				"BYNDER_TOKEN":    "token",
			},
			wantErr: `BYNDER_BASE_URL: "portal.getbynder.com" is not an http(s) URL`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.envs)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, strings.HasPrefix(err.Error(), tt.wantErr), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_CollectsAllErrors(t *testing.T) {
	_, err := Load(mapRepository{
		"BYNDER_BASE_URL":   "https://portal.getbynder.com",
		"BYNDER_TOKEN":      "token",
		"BYNDER_CHUNK_SIZE": "big",
		"BYNDER_RETRY_MAX":  "many",
		"BYNDER_VERBOSE":    "maybe",
	})

	var parseErr ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Len(t, parseErr, 3)
}

func TestParse_NotStructPtr(t *testing.T) {
	var conf Config
	assert.Equal(t, ErrNotStructPtr, Parse(conf, mapRepository{}))

	var s string
	assert.Equal(t, ErrNotStructPtr, Parse(&s, mapRepository{}))
}

func TestParse_UnsupportedType(t *testing.T) {
	type conf struct {
		Ratio float64 `env:"RATIO"`
	}
	var c conf

	err := Parse(&c, mapRepository{"RATIO": "0.5"})

	require.EqualError(t, err, "invalid configuration:\n- RATIO: unsupported field type float64")
}

func TestSecret_String(t *testing.T) {
	assert.Equal(t, "*****", Secret("token").String())
	assert.Equal(t, "*****", fmt.Sprintf("%s", Secret("token")))
	assert.Equal(t, "", Secret("").String())
}

func TestConfig_Print(t *testing.T) {
	mockLogger := new(mocks.Logger)
	mockLogger.On("Infof", mock.Anything).Return()
	mockLogger.On("Printf", mock.Anything, mock.Anything, mock.Anything).Return()

	conf := Config{BaseURL: "https://portal.getbynder.com", Token: "token", ChunkSize: upload.DefaultChunkSize, S3: S3Config{SecretAccessKey: "secret"}}
	conf.Print(mockLogger)

	mockLogger.AssertCalled(t, "Printf", "- %s: %v", "BYNDER_TOKEN", Secret("token"))
	mockLogger.AssertCalled(t, "Printf", "- %s: %s", "BYNDER_CHUNK_SIZE", "5MiB")
	mockLogger.AssertNumberOfCalls(t, "Printf", 8)
	for _, call := range mockLogger.Calls {
		for _, arg := range call.Arguments {
			assert.NotEqual(t, "token", fmt.Sprint(arg))
			assert.NotEqual(t, "secret", fmt.Sprint(arg))
		}
	}
}
