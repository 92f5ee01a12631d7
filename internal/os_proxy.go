package internal

import (
	"io/fs"
	"os"
)

// OsProxy defines the subset of os package functions the upload sources rely on.
// Add more methods as you need them.
type OsProxy interface {
	Open(name string) (fs.File, error)
	Stat(name string) (fs.FileInfo, error)
}

// RealOS is the default implementation that delegates to the real os package.
type RealOS struct{}

func (RealOS) Open(name string) (fs.File, error)      { return os.Open(name) } //nolint:revive
func (RealOS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) } //nolint:revive

// FSProxy adapts an fs.FS (for example fstest.MapFS) to OsProxy.
type FSProxy struct {
	FS fs.FS
}

func (p FSProxy) Open(name string) (fs.File, error)      { return p.FS.Open(name) }    //nolint:revive
func (p FSProxy) Stat(name string) (fs.FileInfo, error) { return fs.Stat(p.FS, name) } //nolint:revive
