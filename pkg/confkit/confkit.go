// Package confkit is the small config plumbing shared by every loader in the
// repository: path resolution relative to the main config file, sections
// hydrated from sibling yaml files, and .env bootstrapping.
package confkit

import (
	"os"
	"path/filepath"
)

// ResolvePath expands environment variables in file and resolves it against
// base when relative. Absolute paths pass through untouched.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// BaseDir returns the directory holding the main config file. Sections with
// relative File entries resolve against it.
func BaseDir(mainPath string) string {
	return filepath.Dir(mainPath)
}

// Section is a config subtree that lives in its own file: File names the
// yaml on disk, Value carries the parsed result after Hydrate.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate resolves File against base and runs the loader, keeping the
// resolved path so diagnostics show where the section came from. A section
// without a File stays empty and hydration is a no-op.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if s.File == "" {
		return nil
	}
	path := ResolvePath(base, s.File)
	value, err := loader(path)
	if err != nil {
		return err
	}
	s.File, s.Value = path, value
	return nil
}
