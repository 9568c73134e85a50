// Package scanner finds the C++ translation units to analyze.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kvarga/constify/pkg/config"
	"github.com/kvarga/constify/pkg/parser"
)

// Scanner finds source files under the given paths, honoring the exclusion
// patterns of the configuration.
type Scanner struct {
	config *config.Config
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// Collect resolves a mix of file and directory arguments into the sorted list
// of translation units to analyze.
func (s *Scanner) Collect(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			dirFiles, err := s.ScanDir(p)
			if err != nil {
				return nil, err
			}
			files = append(files, dirFiles...)
			continue
		}
		// Explicit file arguments bypass the header filter.
		if parser.DetectLanguage(p) != parser.LangUnknown {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return dedupe(files), nil
}

func dedupe(files []string) []string {
	out := files[:0]
	var prev string
	for _, f := range files {
		if f != prev {
			out = append(out, f)
		}
		prev = f
	}
	return out
}

// ScanDir recursively scans a directory for source files. Symlinks resolving
// outside the root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if s.config.ShouldExclude(relPath + string(filepath.Separator)) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.config.ShouldExclude(relPath) {
			return nil
		}
		if !s.wantFile(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, walkErr
}

// wantFile reports whether the file is a translation unit we analyze: C and
// C++ sources always, headers only when configured.
func (s *Scanner) wantFile(path string) bool {
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return false
	}
	if IsHeader(path) {
		return s.config.Analysis.IncludeHeaders
	}
	return true
}

// IsHeader reports whether a path names a C or C++ header.
func IsHeader(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".h", ".hh", ".hpp", ".hxx":
		return true
	}
	return false
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
