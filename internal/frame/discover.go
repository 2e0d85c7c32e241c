package frame

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DiscoverOptions controls how directory arguments are expanded.
// Include and Exclude are filepath.Match patterns applied to base names.
type DiscoverOptions struct {
	Recursive bool
	Include   []string
	Exclude   []string
}

// Discover expands file and directory arguments into frame paths. Files
// named explicitly are kept unless excluded, so Load can report an
// unsupported format. Directories contribute only supported image files,
// in lexical order.
func Discover(args []string, opts DiscoverOptions) ([]string, error) {
	var paths []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			if !matchesAny(arg, opts.Exclude) {
				paths = append(paths, arg)
			}
			continue
		}

		found, err := discoverDir(arg, opts)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}

	return paths, nil
}

func discoverDir(dir string, opts DiscoverOptions) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !opts.Recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSupported(path) && opts.includes(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}

func (o DiscoverOptions) includes(path string) bool {
	if matchesAny(path, o.Exclude) {
		return false
	}
	return len(o.Include) == 0 || matchesAny(path, o.Include)
}

func matchesAny(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
