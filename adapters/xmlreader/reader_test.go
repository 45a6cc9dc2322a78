package xmlreader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"mqc.szuro.net/pkg/adapter"
)

func TestMetadata(t *testing.T) {
	r := New()
	info := r.Info()

	require.Equal(t, "Example", info.Name)
	require.Equal(t, "This is an example adapter", info.Description)
	require.Equal(t, "8.3.0", info.Version)
	require.Equal(t, 200, r.Priority())
	require.Equal(t, []string{".xml"}, r.FileExtensions())
	require.Equal(t, "Example", r.DataSource())
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		expected bool
	}{
		{"Report", "Report.Example.xml", true},
		{"Different case", "report.example.xml", false},
		{"Other report", "Report.Other.xml", false},
		{"Prefixed", "Old.Report.Example.xml", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, New().IsValid(adapter.FileContext{FileName: tt.fileName}))
		})
	}
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), ReportFileName)
	require.NoError(t, os.WriteFile(path, []byte(`<?xml version="1.0"?><report><value>1</value></report>`), 0o644))

	fc, err := adapter.NewFileContext(path)
	require.NoError(t, err)

	r := New()
	require.True(t, adapter.MatchesExtension(r, fc.Path))
	require.True(t, r.IsValid(fc))

	result, err := r.Read(context.Background(), fc)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.True(t, result.Empty())
}

func TestReadMalformed(t *testing.T) {
	result, err := New().Read(context.Background(), adapter.FileContext{
		FileName: ReportFileName,
		Content:  []byte("<report><value>1</report>"),
	})
	require.Error(t, err)
	require.Nil(t, result)
}
