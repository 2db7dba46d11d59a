// Package archive loads a ROM image from a raw .gb/.gbc file or from a
// .zip/.7z container holding one, so users can keep ROM collections
// compressed. Out of the spec's core scope, but cartridge *loading* (as
// opposed to save-file path policy, which spec.md §1 excludes) belongs
// next to the cartridge package that consumes it.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

var romExtensions = map[string]bool{".gb": true, ".gbc": true, ".cgb": true}

// Load returns the raw ROM bytes for path, transparently extracting the
// first recognised ROM entry if path is a .zip or .7z archive.
func Load(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".7z":
		return loadSevenZip(path)
	case ".zip":
		return loadZip(path)
	default:
		return os.ReadFile(path)
	}
}

func loadSevenZip(path string) ([]byte, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open 7z: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !romExtensions[strings.ToLower(filepath.Ext(f.Name))] {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("archive: open 7z entry %s: %w", f.Name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("archive: no rom entry found in %s", path)
}

// loadZip uses the standard library: bodgit/sevenzip is a 7z-only reader
// and no library in this codebase's dependency set reads plain zip any
// better than archive/zip, so stdlib is the grounded choice here (see
// DESIGN.md).
func loadZip(path string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !romExtensions[strings.ToLower(filepath.Ext(f.Name))] {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("archive: open zip entry %s: %w", f.Name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("archive: no rom entry found in %s", path)
}
