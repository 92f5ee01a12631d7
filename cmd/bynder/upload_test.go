package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitrise-io/go-bynder/upload"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUploadFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantPaths []string
		wantErr   string
	}{
		{
			name:      "paths",
			args:      []string{"-brand", "b-1", "logo.png", "*.svg"},
			wantPaths: []string{"logo.png", "*.svg"},
		},
		{
			name:      "s3 object",
			args:      []string{"-s3-bucket", "bucket", "-s3-key", "a/b.zip"},
			wantPaths: []string{},
		},
		{
			name:    "no paths",
			args:    []string{"-brand", "b-1"},
			wantErr: "no paths to upload",
		},
		{
			name:    "s3 bucket without key",
			args:    []string{"-s3-bucket", "bucket"},
			wantErr: "-s3-bucket and -s3-key must be set together",
		},
		{
			name:    "compression level out of range",
			args:    []string{"-compression-level", "20", "dir"},
			wantErr: "compression level should be between 1 and 19",
		},
		{
			name:    "invalid metaproperty",
			args:    []string{"-metaproperty", "color", "logo.png"},
			wantErr: `invalid value "color" for flag -metaproperty`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, paths, err := parseUploadFlags(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPaths, paths)
		})
	}
}

func TestUploadOptions_Metadata(t *testing.T) {
	opts, _, err := parseUploadFlags([]string{
		"-brand", "b-1",
		"-name", "Logo",
		"-description", "Company logo",
		"-copyright", "ACME",
		"-tags", "logo, brand,,",
		"-public",
		"-publication-date", "2023-04-05",
		"-metaproperty", "color=red,blue",
		"-metaproperty", "color=green",
		"-metaproperty", "size=xl",
		"logo.png",
	})
	require.NoError(t, err)

	meta, err := opts.metadata()

	require.NoError(t, err)
	date := time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, upload.Metadata{
		BrandID:         "b-1",
		FileName:        "Logo",
		Copyright:       "ACME",
		Description:     "Company logo",
		IsPublic:        true,
		PublicationDate: &date,
		Tags:            []string{"logo", "brand"},
		MetapropertyOptions: map[string][]string{
			"color": {"red", "blue", "green"},
			"size":  {"xl"},
		},
	}, meta)
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2023-04-05T08:30:00+02:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2023, 4, 5, 6, 30, 0, 0, time.UTC)))

	_, err = parseDate("05/04/2023")
	require.EqualError(t, err, `invalid publication date "05/04/2023", expected RFC 3339 or YYYY-MM-DD`)
}

func TestRunUpload_Files(t *testing.T) {
	portal := newFakePortal()
	envRepo := newTestEnv(t, portal)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("first file"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("second"), 0644))

	err := runUpload(context.Background(), []string{"-brand", "b-1", "-tags", "docs", filepath.Join(dir, "*.txt")}, envRepo, log.NewLogger())

	require.NoError(t, err)
	saves := portal.savedUploads()
	require.Len(t, saves, 2)
	got := map[string]string{}
	for _, save := range saves {
		assert.True(t, strings.HasPrefix(save.path, "/api/v4/media/save/f-"), save.path)
		assert.Equal(t, "b-1", save.form.Get("brandid"))
		assert.Equal(t, "docs", save.form.Get("tags"))
		assert.Equal(t, save.fileName, save.form.Get("name"))
		got[save.fileName] = string(save.content)
	}
	assert.Equal(t, map[string]string{"a.txt": "first file", "b.txt": "second"}, got)
}

func TestRunUpload_NewVersion(t *testing.T) {
	portal := newFakePortal()
	envRepo := newTestEnv(t, portal)

	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, []byte("v2 of the logo"), 0644))

	err := runUpload(context.Background(), []string{"-media", "abc123", "-name", "logo-v2.png", path}, envRepo, log.NewLogger())

	require.NoError(t, err)
	saves := portal.savedUploads()
	require.Len(t, saves, 1)
	assert.Equal(t, "/api/v4/media/abc123/save/f-1", saves[0].path)
	assert.Equal(t, "logo-v2.png", saves[0].fileName)
	assert.Equal(t, "v2 of the logo", string(saves[0].content))
}

func TestRunUpload_NameNeedsSingleFile(t *testing.T) {
	portal := newFakePortal()
	envRepo := newTestEnv(t, portal)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0644))

	err := runUpload(context.Background(), []string{"-name", "doc.txt", filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, envRepo, log.NewLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "need a single file, got 2")
	assert.Empty(t, portal.savedUploads())
}

func TestRunUpload_MissingPaths(t *testing.T) {
	portal := newFakePortal()
	envRepo := newTestEnv(t, portal)

	err := runUpload(context.Background(), []string{filepath.Join(t.TempDir(), "missing.txt")}, envRepo, log.NewLogger())

	require.EqualError(t, err, "none of the provided paths exist")
	assert.Equal(t, 0, portal.requests)
}

func TestRunUpload_EmptyDirIsSkipped(t *testing.T) {
	portal := newFakePortal()
	envRepo := newTestEnv(t, portal)

	err := runUpload(context.Background(), []string{t.TempDir()}, envRepo, log.NewLogger())

	require.NoError(t, err)
	assert.Equal(t, 0, portal.requests)
}

func TestRunUpload_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	err := runUpload(context.Background(), []string{path}, mapRepository{}, log.NewLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "BYNDER_TOKEN: required variable is not set")
}

func TestMetapropertyFlag(t *testing.T) {
	f := metapropertyFlag{}

	require.NoError(t, f.Set("color=red,blue"))
	assert.Equal(t, "color=red,blue", f.String())
	assert.Error(t, f.Set("=red"))
	assert.Error(t, f.Set("color="))
}

func TestRunUpload_RemoteSource(t *testing.T) {
	portal := newFakePortal()
	envRepo := newTestEnv(t, portal)
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "brochure.pdf", time.Time{}, strings.NewReader("remote brochure"))
	}))
	defer files.Close()

	localPath := filepath.Join(t.TempDir(), "local.txt")
	require.NoError(t, os.WriteFile(localPath, []byte("local"), 0644))

	err := runUpload(context.Background(), []string{files.URL + "/docs/brochure.pdf", "file://" + localPath}, envRepo, log.NewLogger())

	require.NoError(t, err)
	saves := portal.savedUploads()
	require.Len(t, saves, 2)
	assert.Equal(t, "brochure.pdf", saves[0].fileName)
	assert.Equal(t, "remote brochure", string(saves[0].content))
	assert.Equal(t, "local.txt", saves[1].fileName)
	assert.Equal(t, "local", string(saves[1].content))
}

func TestRunUpload_ExistingArchiveKeepsName(t *testing.T) {
	portal := newFakePortal()
	envRepo := newTestEnv(t, portal)

	path := filepath.Join(t.TempDir(), "export.tar.zst")
	require.NoError(t, os.WriteFile(path, []byte("prebuilt archive"), 0644))

	err := runUpload(context.Background(), []string{"-name", "Brand kit 2024", path}, envRepo, log.NewLogger())

	require.NoError(t, err)
	saves := portal.savedUploads()
	require.Len(t, saves, 1)
	assert.Equal(t, "Brand kit 2024", saves[0].fileName)
	assert.Equal(t, "Brand kit 2024", saves[0].form.Get("name"))
	assert.Equal(t, "prebuilt archive", string(saves[0].content))
}

func TestRunUpload_BundleUsesArchiveName(t *testing.T) {
	portal := newFakePortal()
	envRepo := newTestEnv(t, portal)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))

	err := runUpload(context.Background(), []string{"-bundle", "-name", "kit", filepath.Join(dir, "a.txt")}, envRepo, log.NewLogger())

	require.NoError(t, err)
	saves := portal.savedUploads()
	require.Len(t, saves, 1)
	assert.Equal(t, "kit.tar.zst", saves[0].fileName)
}
