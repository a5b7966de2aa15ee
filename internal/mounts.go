// package mounts provides abstracted filemounts to use as fs.FS filesystems
// in a program. The package allows either the embedded file system to be used
// or, when specified, the path to a directory on disk, and takes care of
// mounting the filesystem at the same level, something that does not happen by
// default.
package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// FileMount is a mount that may be mounted by either an embedded fs.FS or a
// filePath.
type FileMount struct {
	MountName string
	fs.FS
}

// String describes a fileMount as a list of files and directories indented by
// the file or directory level.
func (fm FileMount) String() string {
	o := fmt.Sprintf("fileMount %q:\n", fm.MountName)
	s, _ := PrintFS(fm.FS)
	return o + s
}

// ErrInvalidPath reports an invalid mount name.
type ErrInvalidPath struct {
	mountName string
}

// Error fulfills the Error interface requirement for ErrInvalidPath.
func (e ErrInvalidPath) Error() string {
	return fmt.Sprintf("mount name %q is not a valid fs.ValidPath path", e.mountName)
}

// NewFileMount takes an embedded fs.FS or a path to a directory. If the path
// to the directory is "", the embedded fs is used, otherwise the directory is
// used. The MountName parameter names the mount of an fs.FS to make it work
// like an os.DirFS: given a go-embedded fs.FS holding a "templates"
// directory,
//
//	NewFileMount("templates", templatesFS, "")
//
// mounts the embedded fs at the equivalent of "templates/" rather than ".",
// giving the impression of moving the fs level up one, while
//
//	NewFileMount("templates", templatesFS, "web/templates")
//
// ignores the embedded fs and serves the on-disk directory instead, used for
// editing templates in development mode.
func NewFileMount(mountName string, embeddedFS fs.FS, dirPath string) (*FileMount, error) {

	if mountName == "" {
		return nil, errors.New("no mount name provided for new file mount")
	}
	if !fs.ValidPath(mountName) {
		return nil, ErrInvalidPath{mountName}
	}

	// If a directory is not provided, use the embedded fs, but mounted at
	// the subdirectory provided at MountName.
	if dirPath == "" {
		subFS, err := fs.Sub(embeddedFS, mountName)
		if err != nil {
			return nil, fmt.Errorf("could not sub-mount embedded fs at %q: %v", mountName, err)
		}
		return &FileMount{
			mountName,
			subFS,
		}, nil
	}

	s, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("new mount at %q error: %s", dirPath, err)
	}
	if !s.IsDir() {
		return nil, fmt.Errorf("new mount at %q is not a directory", dirPath)
	}
	return &FileMount{
		mountName,
		os.DirFS(dirPath),
	}, nil
}

// PrintFS makes structured print output from an fs.FS.
func PrintFS(thisFS fs.FS) (string, error) {
	var printOutput strings.Builder
	var topSeen bool
	tpl := "%s[%s] %s%s (%s)\n"

	err := fs.WalkDir(thisFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err // propagate
		}
		if !topSeen { // verbatim root as "[d] ./ (./)"
			_, err = printOutput.WriteString(fmt.Sprintf(tpl, "\n", "d", ".", "/", "."))
			if err != nil {
				return fmt.Errorf("printOutput error: %v", err)
			}
			topSeen = true
			return nil
		}
		depth := strings.Count(path, "/")
		indent := strings.Repeat("  ", depth)
		typer := "f"
		slash := " "
		if d.IsDir() {
			slash = "/"
			typer = "d"
		}
		_, err = printOutput.WriteString(fmt.Sprintf(tpl, indent, typer, d.Name(), slash, path))
		return err
	})
	return printOutput.String(), err
}
