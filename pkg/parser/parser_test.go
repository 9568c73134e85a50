package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, LangC, DetectLanguage("main.c"))
	assert.Equal(t, LangCPP, DetectLanguage("main.cpp"))
	assert.Equal(t, LangCPP, DetectLanguage("main.cc"))
	assert.Equal(t, LangCPP, DetectLanguage("value.h"))
	assert.Equal(t, LangCPP, DetectLanguage("value.hpp"))
	assert.Equal(t, LangUnknown, DetectLanguage("notes.txt"))
}

func TestParseCPPSource(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("class Value { int m; };\n")
	res, err := p.Parse(src, LangCPP, "value.cpp")
	require.NoError(t, err)
	require.NotNil(t, res.Tree)
	assert.Equal(t, LangCPP, res.Language)
	assert.Equal(t, "value.cpp", res.Path)

	root := res.Tree.RootNode()
	assert.Equal(t, "translation_unit", root.Type())
	classes := FindNodesByType(root, src, "class_specifier")
	require.Len(t, classes, 1)
	assert.Equal(t, "Value", GetNodeText(classes[0].ChildByFieldName("name"), src))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.cpp")
	require.NoError(t, os.WriteFile(path, []byte("void f() {}\n"), 0o644))

	p := New()
	defer p.Close()

	res, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, LangCPP, res.Language)

	fns := FindNodesByType(res.Tree.RootNode(), res.Source, "function_definition")
	assert.Len(t, fns, 1)
}

func TestParseFileUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	p := New()
	defer p.Close()

	_, err := p.ParseFile(path)
	assert.Error(t, err)
}

func TestNamedChildren(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("int a; int b;\n")
	res, err := p.Parse(src, LangCPP, "ab.cpp")
	require.NoError(t, err)

	children := NamedChildren(res.Tree.RootNode())
	assert.Len(t, children, 2)
	assert.Nil(t, NamedChildren(nil))
}
