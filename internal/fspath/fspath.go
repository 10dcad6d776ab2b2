// Package fspath 是所有文件操作共享的前置校验：绝对路径、存在性、文件/目录类型。
// Package fspath is the shared precondition check used by every file
// operation: absolute path, existence, file-vs-directory type.
package fspath

import (
	"os"
	"path/filepath"

	"toolbelt/internal/toolerr"
)

// RequireAbs rejects relative paths. Checks are pure: nothing is read or
// written beyond a Stat.
func RequireAbs(path string) error {
	if !filepath.IsAbs(path) {
		return toolerr.New(toolerr.CodeInvalidPath, "Path must be absolute, not relative. Received: %s", path)
	}
	return nil
}

// RequireFile validates that path is absolute, exists and is a regular file.
func RequireFile(path string) error {
	if err := RequireAbs(path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return toolerr.New(toolerr.CodeNotFound, "File '%s' does not exist", path)
		}
		return toolerr.FromOS(err, "stat '%s': %v", path, err)
	}
	if info.IsDir() {
		return toolerr.New(toolerr.CodeWrongType, "'%s' is not a file", path)
	}
	return nil
}

// RequireDir validates that path is absolute, exists and is a directory.
func RequireDir(path string) error {
	if err := RequireAbs(path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return toolerr.New(toolerr.CodeNotFound, "Path '%s' does not exist", path)
		}
		return toolerr.FromOS(err, "stat '%s': %v", path, err)
	}
	if !info.IsDir() {
		return toolerr.New(toolerr.CodeWrongType, "Path '%s' is not a directory", path)
	}
	return nil
}

// Exists reports whether the path refers to anything at all.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
