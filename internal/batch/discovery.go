package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cardscan/internal/imgio"
)

// DiscoverImages expands the given paths into a sorted list of supported
// image files. Directory arguments are walked one level deep unless
// recursive is set.
func DiscoverImages(paths []string, recursive bool) ([]string, error) {
	var files []string
	for _, arg := range paths {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if info.IsDir() {
			found, err := discoverInDirectory(arg, recursive)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}
		if imgio.IsSupportedImage(arg) {
			files = append(files, arg)
		}
	}
	sort.Strings(files)
	return files, nil
}

func discoverInDirectory(dir string, recursive bool) ([]string, error) {
	var files []string
	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if imgio.IsSupportedImage(path) {
			files = append(files, path)
		}
		return nil
	}
	return files, filepath.Walk(dir, walkFn)
}
