package imageio

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ZipDir packages every file under dir (except the archive itself) into a zip
// archive at outPath, preserving relative paths.
func ZipDir(dir, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", outPath, err)
	}
	defer out.Close()

	w := zip.NewWriter(out)

	absOut, _ := filepath.Abs(outPath)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absOut {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		entry, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		_, err = io.Copy(entry, f)
		return err
	})
	if err != nil {
		w.Close()
		return fmt.Errorf("write archive %s: %w", outPath, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize archive %s: %w", outPath, err)
	}
	return nil
}
