// Package archive bundles files and folders into a single .tar.zst file, so a folder can be uploaded as one asset.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/klauspost/compress/zstd"
)

// Extension of the archives created by Compress.
const Extension = ".tar.zst"

// DependencyChecker reports whether the tar and zstd binaries can be used.
type DependencyChecker interface {
	CheckDependencies() bool
}

// BinaryChecker looks up the binaries on the PATH.
type BinaryChecker struct {
	logger  log.Logger
	envRepo env.Repository
}

// NewBinaryChecker ...
func NewBinaryChecker(logger log.Logger, envRepo env.Repository) *BinaryChecker {
	return &BinaryChecker{
		logger:  logger,
		envRepo: envRepo,
	}
}

// CheckDependencies ...
func (c *BinaryChecker) CheckDependencies() bool {
	return c.checkDependency("tar") && c.checkDependency("zstd")
}

func (c *BinaryChecker) checkDependency(binaryName string) bool {
	cmd := command.NewFactory(c.envRepo).Create("which", []string{binaryName}, nil)
	c.logger.Debugf("$ %s", cmd.PrintableCommandArgs())

	_, err := cmd.RunAndReturnTrimmedCombinedOutput()
	return err == nil
}

// Archiver ...
type Archiver struct {
	logger            log.Logger
	envRepo           env.Repository
	dependencyChecker DependencyChecker
}

// NewArchiver ...
func NewArchiver(logger log.Logger, envRepo env.Repository, dependencyChecker DependencyChecker) *Archiver {
	return &Archiver{
		logger:            logger,
		envRepo:           envRepo,
		dependencyChecker: dependencyChecker,
	}
}

// Compress creates a compressed archive from the provided files and folders.
// Every include path is stored under its own base name, so the archive extracts to the same layout anywhere.
// level is a zstd compression level (1-19), 0 selects the default.
func (a *Archiver) Compress(archivePath string, includePaths []string, level int) error {
	if len(includePaths) == 0 {
		return fmt.Errorf("no paths to compress")
	}

	if !a.dependencyChecker.CheckDependencies() {
		a.logger.Debugf("Falling back to native implementation of zstd.")
		if err := a.compressWithGoLib(archivePath, includePaths, level); err != nil {
			return fmt.Errorf("compress files: %w", err)
		}
		return nil
	}

	a.logger.Debugf("Using installed zstd binary")
	if err := a.compressWithBinary(archivePath, includePaths, level); err != nil {
		return fmt.Errorf("compress files: %w", err)
	}
	return nil
}

// Decompress extracts an archive created by Compress into destinationDirectory.
func (a *Archiver) Decompress(archivePath string, destinationDirectory string) error {
	if !a.dependencyChecker.CheckDependencies() {
		a.logger.Debugf("Falling back to native implementation of zstd.")
		if err := a.decompressWithGoLib(archivePath, destinationDirectory); err != nil {
			return fmt.Errorf("decompress files: %w", err)
		}
		return nil
	}

	a.logger.Debugf("Using installed zstd binary")
	if err := a.decompressWithBinary(archivePath, destinationDirectory); err != nil {
		return fmt.Errorf("decompress files: %w", err)
	}
	return nil
}

func (a *Archiver) compressWithGoLib(archivePath string, includePaths []string, level int) (err error) {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer func() {
		if closeErr := archiveFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close archive file: %w", closeErr)
		}
	}()

	var opts []zstd.EOption
	if level > 0 {
		opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	zstdWriter, err := zstd.NewWriter(archiveFile, opts...)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	tw := tar.NewWriter(zstdWriter)

	for _, p := range includePaths {
		root := filepath.Clean(p)
		parent := filepath.Dir(root)
		if err := filepath.Walk(root, func(file string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			return addToTar(tw, parent, file, fi)
		}); err != nil {
			return fmt.Errorf("iterate on files: %w", err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar writer: %w", err)
	}
	if err := zstdWriter.Close(); err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}
	return nil
}

func addToTar(tw *tar.Writer, parent, file string, fi os.FileInfo) error {
	var link string
	if fi.Mode()&os.ModeSymlink != 0 {
		var err error
		if link, err = os.Readlink(file); err != nil {
			return fmt.Errorf("read symlink: %w", err)
		}
	}

	header, err := tar.FileInfoHeader(fi, link)
	if err != nil {
		return fmt.Errorf("create file info header: %w", err)
	}

	name, err := filepath.Rel(parent, file)
	if err != nil {
		return fmt.Errorf("relative path of %s: %w", file, err)
	}
	header.Name = filepath.ToSlash(name)
	if fi.IsDir() {
		header.Name += "/"
	}

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar file header: %w", err)
	}

	// nothing more to do for non-regular files or directories
	if !fi.Mode().IsRegular() {
		return nil
	}

	data, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	if _, err := io.Copy(tw, data); err != nil {
		_ = data.Close()
		return fmt.Errorf("copy to file: %w", err)
	}
	if err := data.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

func (a *Archiver) compressWithBinary(archivePath string, includePaths []string, level int) error {
	compressProgram := "zstd --threads=0"
	if level > 0 {
		compressProgram += " -" + strconv.Itoa(level)
	}

	/*
		tar arguments:
		--use-compress-program: Pipe the output to zstd instead of using the built-in gzip compression
		-c: Create archive
		-f: Output file
		-C: Change to the parent of each include path, so entries are stored under their base names
	*/
	tarArgs := []string{
		"--use-compress-program", compressProgram,
		"-c",
		"-f", archivePath,
	}
	for _, p := range includePaths {
		root := filepath.Clean(p)
		tarArgs = append(tarArgs, "-C", filepath.Dir(root), filepath.Base(root))
	}

	return a.runTar(tarArgs)
}

func (a *Archiver) decompressWithGoLib(archivePath string, destinationDirectory string) error {
	compressedFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("read file %s: %w", archivePath, err)
	}
	defer func() {
		if err := compressedFile.Close(); err != nil {
			a.logger.Warnf("close archive file: %s", err)
		}
	}()

	zr, err := zstd.NewReader(compressedFile)
	if err != nil {
		return fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar file: %w", err)
		}

		target, err := extractTarget(destinationDirectory, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create target directories: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create target directories: %w", err)
			}
			fileToWrite, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("create file: %w", err)
			}
			if _, err := io.Copy(fileToWrite, tr); err != nil {
				_ = fileToWrite.Close()
				return fmt.Errorf("copy content to file: %w", err)
			}
			// closed right away, a deferred close would keep every extracted file open until the end
			if err := fileToWrite.Close(); err != nil {
				return fmt.Errorf("write file: %w", err)
			}
		case tar.TypeSymlink:
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("symlink file: %w", err)
			}
		default:
			a.logger.Debugf("Skipping %s, unsupported entry type %c", header.Name, header.Typeflag)
		}
	}
	return nil
}

// extractTarget rejects entries that would be written outside of the destination.
func extractTarget(destinationDirectory, name string) (string, error) {
	target := filepath.Join(destinationDirectory, filepath.FromSlash(name))
	rel, err := filepath.Rel(destinationDirectory, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("archive entry %s points outside of the destination", name)
	}
	return target, nil
}

func (a *Archiver) decompressWithBinary(archivePath string, destinationDirectory string) error {
	/*
		tar arguments:
		--use-compress-program: Pipe the input to zstd instead of using the built-in gzip compression
		-x: Extract archive
		-f: Input file
	*/
	tarArgs := []string{
		"--use-compress-program", "zstd -d",
		"-x",
		"-f", archivePath,
	}
	if destinationDirectory != "" {
		tarArgs = append(tarArgs, "-C", destinationDirectory)
	}

	return a.runTar(tarArgs)
}

func (a *Archiver) runTar(args []string) error {
	cmd := command.NewFactory(a.envRepo).Create("tar", args, nil)
	a.logger.Debugf("$ %s", cmd.PrintableCommandArgs())

	out, err := cmd.RunAndReturnTrimmedCombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("command failed with exit status %d (%s):\n%w", exitErr.ExitCode(), cmd.PrintableCommandArgs(), errors.New(out))
		}
		return fmt.Errorf("executing command failed (%s): %w", cmd.PrintableCommandArgs(), err)
	}
	return nil
}

// AreAllPathsEmpty checks if the provided paths are all nonexistent files or empty directories
func AreAllPathsEmpty(includePaths []string) bool {
	for _, path := range includePaths {
		fileInfo, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return false
		}
		if !fileInfo.IsDir() {
			return false
		}

		file, err := os.Open(path)
		if err != nil {
			continue
		}
		_, err = file.Readdirnames(1) // query only 1 child
		_ = file.Close()
		if err == nil {
			return false
		}
	}

	return true
}
