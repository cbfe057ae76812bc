package ingest

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExts are the extraction payload files picked up when no extension
// list is given.
var DefaultExts = []string{"json", "txt"}

type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
}

// Scan walks root and returns the matching files in lexical order. Hidden
// files and directories are skipped.
func Scan(root string, exts []string) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root path is required")
	}
	allowed := extSet(exts)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		stats.Scanned++
		if path != root && isHidden(path) {
			stats.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !matches(path, allowed) {
			stats.Skipped++
			return nil
		}
		stats.Matched++
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	sort.Strings(files)
	return files, stats, nil
}

func extSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExts
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

func matches(path string, exts map[string]struct{}) bool {
	_, ok := exts[strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")]
	return ok
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
