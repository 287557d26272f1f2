package utils

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ZipEntry is one file added to an archive
type ZipEntry struct {
	Name string // name inside the archive
	Path string // file on disk
}

// WriteZip creates dst containing entries. Duplicate names get a numeric suffix.
func WriteZip(dst string, entries []ZipEntry) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	if err := StreamZip(out, entries); err != nil {
		return err
	}
	return out.Close()
}

// StreamZip writes an archive of entries to w
func StreamZip(w io.Writer, entries []ZipEntry) error {
	zipWriter := zip.NewWriter(w)
	used := make(map[string]bool, len(entries))

	for _, e := range entries {
		name := UniqueName(e.Name, used)

		fileWriter, err := zipWriter.Create(name)
		if err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}

		if err := copyInto(fileWriter, e.Path); err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

func copyInto(w io.Writer, path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
