package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauern/persona/internal/logging"
)

// removeExisting removes a file or symlink at path without following it.
// Returns nil if the path doesn't exist.
func removeExisting(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%q is a directory", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %q: %w", path, err)
	}
	return nil
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source %q: %w", src, err)
	}

	// #nosec G304 - src is a collected document or one of its siblings
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source %q: %w", src, err)
	}
	defer func() { _ = srcFile.Close() }()

	if err := removeExisting(dst); err != nil {
		return err
	}

	// #nosec G302 G304 - preserving source permissions, dst is below the output directory
	dstFile, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination %q: %w", dst, err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy content to %q: %w", dst, err)
	}

	logging.Debug("copied file", logging.Path(src))
	return nil
}

// copyDir recursively copies src into dst, merging with existing content.
// Symlinks are recreated rather than followed. skip is an absolute path
// that is never descended into (the output directory itself). It returns
// the number of files and links written.
func copyDir(src, dst, skip string) (int, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("failed to stat source %q: %w", src, err)
	}
	if !srcInfo.IsDir() {
		return 0, fmt.Errorf("source %q is not a directory", src)
	}

	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return 0, fmt.Errorf("failed to create destination directory %q: %w", dst, err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, fmt.Errorf("failed to read source directory %q: %w", src, err)
	}

	copied := 0
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(srcPath)
			if err != nil {
				return copied, fmt.Errorf("failed to read symlink %q: %w", srcPath, err)
			}
			if err := removeExisting(dstPath); err != nil {
				return copied, err
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return copied, fmt.Errorf("failed to create symlink %q: %w", dstPath, err)
			}
			copied++
		case entry.IsDir():
			if abs, err := filepath.Abs(srcPath); err == nil && abs == skip {
				logging.Debug("skipping output directory", logging.Path(srcPath))
				continue
			}
			n, err := copyDir(srcPath, dstPath, skip)
			copied += n
			if err != nil {
				return copied, err
			}
		default:
			if err := copyFile(srcPath, dstPath); err != nil {
				return copied, err
			}
			copied++
		}
	}

	logging.Debug("copied directory", logging.Path(src))
	return copied, nil
}
