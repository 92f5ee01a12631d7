// Package testing has assertions on extracted and downloaded file trees.
package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileChecker chains checks on a single path.
type FileChecker struct {
	Path   string
	checks []func(string) error
}

// NewFileChecker ...
func NewFileChecker(path string) *FileChecker {
	return &FileChecker{Path: path}
}

// Check runs every check and returns all failures.
func (fc *FileChecker) Check() error {
	var errs CheckErrors
	for _, check := range fc.checks {
		errs.add(check(fc.Path))
	}
	return errs.errOrNil()
}

// IsDir ...
func (fc *FileChecker) IsDir() *FileChecker {
	fc.checks = append(fc.checks, func(path string) error {
		info, err := lstat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s: expected a directory", path)
		}
		return nil
	})
	return fc
}

// IsFile ...
func (fc *FileChecker) IsFile() *FileChecker {
	fc.checks = append(fc.checks, func(path string) error {
		info, err := lstat(path)
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%s: expected a regular file, got %s", path, info.Mode().Type())
		}
		return nil
	})
	return fc
}

// ModeEquals checks the permission bits.
func (fc *FileChecker) ModeEquals(perm os.FileMode) *FileChecker {
	fc.checks = append(fc.checks, func(path string) error {
		info, err := lstat(path)
		if err != nil {
			return err
		}
		if info.Mode().Perm() != perm.Perm() {
			return fmt.Errorf("%s: want mode %o, got %o", path, perm.Perm(), info.Mode().Perm())
		}
		return nil
	})
	return fc
}

// Content checks the whole content of the file.
func (fc *FileChecker) Content(want string) *FileChecker {
	fc.checks = append(fc.checks, func(path string) error {
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if string(b) != want {
			return fmt.Errorf("%s: content mismatch\nwant: %q\ngot:  %q", path, want, string(b))
		}
		return nil
	})
	return fc
}

// CheckTree checks that every file of files (relative path to content) exists under root with the given content.
func CheckTree(root string, files map[string]string) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs CheckErrors
	for _, name := range names {
		errs.add(NewFileChecker(filepath.Join(root, name)).IsFile().Content(files[name]).Check())
	}
	return errs.errOrNil()
}

func lstat(path string) (os.FileInfo, error) {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("lstat %s: %w", path, err)
	}
	return info, nil
}
