package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchesExtension(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"Lower case", "/data/Report.Example.xml", true},
		{"Upper case", "/data/REPORT.XML", true},
		{"Other extension", "/data/report.json", false},
		{"No extension", "/data/report", false},
		{"Extension in directory only", "/data.xml/report", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, MatchesExtension(fakeReader{}, tt.path))
		})
	}
}

func TestNewFileContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Report.Example.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<report id="1"><row>a</row></report>`), 0o644))

	fc, err := NewFileContext(path)
	require.NoError(t, err)
	require.Equal(t, "Report.Example.xml", fc.FileName)
	require.Equal(t, path, fc.Path)

	_, err = NewFileContext(filepath.Join(dir, "missing.xml"))
	require.Error(t, err)
}

func TestDocument(t *testing.T) {
	fc := FileContext{FileName: "a.xml", Content: []byte(`<?xml version="1.0"?>
<report id="1">
  <row>a</row>
  <row>b</row>
</report>
<!-- trailing comment -->
`)}

	doc, err := fc.Document()
	require.NoError(t, err)
	require.Equal(t, "report", doc.XMLName.Local)
	id, ok := doc.Attr("id")
	require.True(t, ok)
	require.Equal(t, "1", id)
	require.Len(t, doc.Children, 2)
	require.Equal(t, "b", doc.Children[1].Text)

	_, ok = doc.Attr("missing")
	require.False(t, ok)
}

func TestDocumentMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Empty", ""},
		{"Whitespace", "  \n"},
		{"Unclosed", "<report>"},
		{"Mismatched", "<report><row></report>"},
		{"Not xml", "just text"},
		{"Two roots", "<a/><b/>"},
		{"Text after root", "<a/>trailing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FileContext{FileName: "bad.xml", Content: []byte(tt.content)}.Document()
			require.Error(t, err)
		})
	}
}
