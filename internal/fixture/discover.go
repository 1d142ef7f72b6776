package fixture

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FileExtension marks fixture files.
const FileExtension = ".js"

// Discover returns the absolute paths of every fixture file below root,
// skipping dot-files, in lexical order.
func Discover(root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, FileExtension) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
