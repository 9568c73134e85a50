package fileproc

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvarga/constify/pkg/parser"
)

func writeSources(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	files := make([]string, n)
	for i := range files {
		files[i] = filepath.Join(dir, "f"+string(rune('a'+i))+".cpp")
		require.NoError(t, os.WriteFile(files[i], []byte("void f() {}\n"), 0o644))
	}
	return files
}

func TestMapFilesKeepsInputOrder(t *testing.T) {
	files := writeSources(t, 4)

	got := MapFiles(files, 2, func(_ *parser.Parser, path string) (string, error) {
		return filepath.Base(path), nil
	}, nil, nil)

	require.Len(t, got, len(files))
	for i, f := range files {
		assert.Equal(t, filepath.Base(f), got[i])
	}
}

func TestMapFilesReportsErrorsAndProgress(t *testing.T) {
	files := writeSources(t, 3)
	bad := files[1]

	var ticks atomic.Int32
	var procErrs ProcessingErrors
	got := MapFiles(files, 0, func(_ *parser.Parser, path string) (int, error) {
		if path == bad {
			return 0, errors.New("boom")
		}
		return 1, nil
	}, func() { ticks.Add(1) }, procErrs.Add)

	assert.Equal(t, int32(3), ticks.Load())
	require.True(t, procErrs.HasErrors())
	require.Len(t, procErrs.Errors, 1)
	assert.Equal(t, bad, procErrs.Errors[0].Path)
	assert.Equal(t, 0, got[1], "failed files leave the zero value")
}

func TestMapFilesEmptyInput(t *testing.T) {
	assert.Nil(t, MapFiles(nil, 4, func(_ *parser.Parser, path string) (int, error) {
		return 0, nil
	}, nil, nil))
}

func TestMapFilesParsesConcurrently(t *testing.T) {
	files := writeSources(t, 6)

	var mu sync.Mutex
	seen := map[string]bool{}
	MapFiles(files, 3, func(p *parser.Parser, path string) (struct{}, error) {
		res, err := p.ParseFile(path)
		if err != nil {
			return struct{}{}, err
		}
		mu.Lock()
		seen[res.Path] = true
		mu.Unlock()
		return struct{}{}, nil
	}, nil, nil)

	assert.Len(t, seen, len(files))
}

func TestProcessingErrorsMessages(t *testing.T) {
	var e ProcessingErrors
	assert.Equal(t, "no errors", e.Error())

	e.Add("a.cpp", errors.New("bad parse"))
	assert.Equal(t, "a.cpp: bad parse", e.Error())

	e.Add("b.cpp", errors.New("worse"))
	assert.Contains(t, e.Error(), "2 files failed")
}
