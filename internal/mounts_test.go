package internal

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestNewFileMountEmbedded(t *testing.T) {

	embedded := fstest.MapFS{
		"templates/base.html":    {Data: []byte("base")},
		"templates/flowers.html": {Data: []byte("flowers")},
	}

	fm, err := NewFileMount("templates", embedded, "")
	if err != nil {
		t.Fatal(err)
	}

	// The mount serves the directory contents at the top level.
	data, err := fs.ReadFile(fm, "base.html")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "base"; got != want {
		t.Errorf("got %q want %q", got, want)
	}

	if !strings.Contains(fm.String(), "flowers.html") {
		t.Errorf("expected flowers.html in mount listing, got %s", fm)
	}
}

func TestNewFileMountDir(t *testing.T) {

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "base.html"), []byte("on disk"), 0644); err != nil {
		t.Fatal(err)
	}

	// A non-empty dirPath overrides the embedded fs.
	fm, err := NewFileMount("templates", fstest.MapFS{}, dir)
	if err != nil {
		t.Fatal(err)
	}
	data, err := fs.ReadFile(fm, "base.html")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "on disk"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestNewFileMountErrors(t *testing.T) {

	tests := []struct {
		name      string
		mountName string
		dirPath   string
	}{
		{name: "empty mount name", mountName: ""},
		{name: "invalid mount name", mountName: "../escape"},
		{name: "missing directory", mountName: "templates", dirPath: "no-such-dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileMount(tt.mountName, fstest.MapFS{}, tt.dirPath)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
