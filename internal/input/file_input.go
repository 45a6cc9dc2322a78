package input

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/pkg/adapter"
	"mqc.szuro.net/pkg/mqc"
)

// FileInput runs a file reader against one file.
type FileInput struct {
	baseInput
	file   config.File
	reader adapter.FileReader
}

func NewFileInput(file config.File, reader adapter.FileReader, subjects *Subjects) *FileInput {
	name := file.Name
	if name == "" {
		name = filepath.Base(file.Path)
	}
	return &FileInput{
		baseInput: baseInput{
			name:     name,
			kind:     KIND_FILE_READER,
			subjects: subjects,
		},
		file:   file,
		reader: reader,
	}
}

// accepts loads the file and reports whether the reader takes it.
func (fi *FileInput) accepts() (adapter.FileContext, error) {
	if !adapter.MatchesExtension(fi.reader, fi.file.Path) {
		return adapter.FileContext{}, fmt.Errorf("%w: extension of %s", ErrNotAccepted, fi.file.Path)
	}
	fc, err := adapter.NewFileContext(fi.file.Path)
	if err != nil {
		return fc, err
	}
	if !fi.reader.IsValid(fc) {
		return fc, fmt.Errorf("%w: %s", ErrNotAccepted, fc.FileName)
	}
	return fc, nil
}

// IsReady reports whether the file exists and the reader accepts it.
func (fi *FileInput) IsReady(ctx context.Context) bool {
	if _, err := os.Stat(fi.file.Path); err != nil {
		return false
	}
	_, err := fi.accepts()
	return err == nil
}

// Read reads the file. The file is checked against the extensions of the
// reader first, then against IsValid.
func (fi *FileInput) Read(ctx context.Context) (*mqc.ReadResult, error) {
	log := fi.cycleLogger()
	result, err := fi.read(ctx, log.Slog())
	fi.countRead(result)
	return result, err
}

func (fi *FileInput) read(ctx context.Context, log *slog.Logger) (*mqc.ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fc, err := fi.accepts()
	if err != nil {
		log.Warn("File skipped", slog.String("path", fi.file.Path), slog.Any("error", err))
		return nil, err
	}
	result, err := fi.reader.Read(ctx, fc)
	if err != nil {
		log.Error("Failed to read file", slog.String("path", fi.file.Path), slog.Any("error", err))
		return nil, err
	}
	if result == nil {
		return nil, ErrUnavailable
	}
	log.Info("Read file",
		slog.String("path", fi.file.Path),
		slog.Int("data", len(result.Data)),
		slog.Int("findings", len(result.Findings)))
	return result, nil
}

// Start reads the file once and publishes the result.
func (fi *FileInput) Start(ctx context.Context) error {
	log := fi.cycleLogger()
	result, err := fi.read(ctx, log.Slog())
	fi.countRead(result)
	if err != nil {
		return err
	}
	return fi.publish(ctx, log, result)
}

// SelectFileReader returns the reader with the highest priority that accepts
// the file at path.
func SelectFileReader(path string, readers []adapter.FileReader) (adapter.FileReader, error) {
	candidates := make([]adapter.FileReader, 0, len(readers))
	for _, r := range readers {
		if adapter.MatchesExtension(r, path) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no reader handles %s", ErrNotAccepted, filepath.Ext(path))
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Priority() > candidates[j].Priority() })

	fc, err := adapter.NewFileContext(path)
	if err != nil {
		return nil, err
	}
	for _, r := range candidates {
		if r.IsValid(fc) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotAccepted, fc.FileName)
}
