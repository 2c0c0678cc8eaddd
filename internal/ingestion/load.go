package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/candidate-ranker/internal/schemas"
	"github.com/jonathan/candidate-ranker/internal/types"
	schemafiles "github.com/jonathan/candidate-ranker/schemas"
	"github.com/panjf2000/ants/v2"
)

// DefaultWorkers bounds concurrent file decoding in a directory load.
const DefaultWorkers = 8

// maxLineSize caps one JSONL entry.
const maxLineSize = 4 << 20

// RecordError reports an entry that could not be turned into a document.
// Index is the zero-based entry position within the file, or -1 when the
// whole file failed.
type RecordError struct {
	Path  string
	Index int
	Cause error
}

func (e *RecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("%s: entry %d: %v", e.Path, e.Index, e.Cause)
}

func (e *RecordError) Unwrap() error {
	return e.Cause
}

// documentEntry is the plain document shape accepted alongside resume records.
type documentEntry struct {
	ID       string            `json:"id" validate:"omitempty,max=256"`
	Text     string            `json:"text" validate:"required"`
	Metadata map[string]string `json:"metadata"`
}

var entryValidator = validator.New()

// supported file extensions
var (
	jsonExts = []string{".json"}
	lineExts = []string{".jsonl", ".ndjson"}
	textExts = []string{".txt", ".md"}
)

// LoadDocuments reads a candidate pool from path.
//
// A file may hold one JSON object, a JSON array of objects, or JSON lines.
// Each object is either a resume record or a plain document with a "text"
// field. Plain .txt and .md files become one document each. A directory is
// loaded file by file on a pool of workers; the result keeps file name order,
// then entry order within each file.
func LoadDocuments(ctx context.Context, path string, workers int) ([]types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open candidate source: %w", err)
	}
	if !info.IsDir() {
		return loadFile(path)
	}
	return loadDir(ctx, path, workers)
}

func loadDir(ctx context.Context, dir string, workers int) ([]types.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !supported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)
	if len(files) == 0 {
		return nil, nil
	}

	if workers < 1 {
		workers = DefaultWorkers
	}
	pool, err := ants.NewPool(min(workers, len(files)))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([][]types.Document, len(files))
	errs := make([]error, len(files))
	var wg sync.WaitGroup
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			results[i], errs[i] = loadFile(f)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var docs []types.Document
	for _, r := range results {
		docs = append(docs, r...)
	}
	slog.Default().Debug("loaded candidate directory", "component", "ingestion", "files", len(files), "documents", len(docs))
	return docs, nil
}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(jsonExts, ext) || slices.Contains(lineExts, ext) || slices.Contains(textExts, ext)
}

func loadFile(path string) ([]types.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &RecordError{Path: path, Index: -1, Cause: err}
	}

	switch {
	case slices.Contains(textExts, ext):
		text := CleanText(string(data))
		if text == "" {
			return nil, &RecordError{Path: path, Index: -1, Cause: errors.New("file is empty")}
		}
		return []types.Document{{
			ID:       uuid.NewString(),
			Text:     text,
			Metadata: map[string]string{FieldResumePath: filepath.Base(path)},
		}}, nil
	case slices.Contains(lineExts, ext):
		return decodeLines(path, data)
	default:
		return decodeJSON(path, data)
	}
}

func decodeJSON(path string, data []byte) ([]types.Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] != '[' {
		doc, err := decodeEntry(data, path)
		if err != nil {
			return nil, &RecordError{Path: path, Index: 0, Cause: err}
		}
		return []types.Document{doc}, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &RecordError{Path: path, Index: -1, Cause: err}
	}
	docs := make([]types.Document, 0, len(raws))
	for i, raw := range raws {
		doc, err := decodeEntry(raw, "")
		if err != nil {
			return nil, &RecordError{Path: path, Index: i, Cause: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func decodeLines(path string, data []byte) ([]types.Document, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var docs []types.Document
	index := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		doc, err := decodeEntry(line, "")
		if err != nil {
			return nil, &RecordError{Path: path, Index: index, Cause: err}
		}
		docs = append(docs, doc)
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, &RecordError{Path: path, Index: index, Cause: err}
	}
	return docs, nil
}

// DecodeEntry parses one JSON pool entry: either a plain {"id","text"}
// document or a resume record, which is validated and flattened.
func DecodeEntry(raw []byte) (types.Document, error) {
	return decodeEntry(raw, "")
}

// decodeEntry accepts a plain document when the object has a "text" field and
// a resume record otherwise. source names the record's file when it is the
// only entry in it.
func decodeEntry(raw []byte, source string) (types.Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return types.Document{}, err
	}

	if _, ok := fields["text"]; ok {
		var entry documentEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return types.Document{}, err
		}
		if err := entryValidator.Struct(entry); err != nil {
			return types.Document{}, fmt.Errorf("invalid document: %w", err)
		}
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		return types.Document{ID: entry.ID, Text: entry.Text, Metadata: entry.Metadata}, nil
	}

	if err := schemas.Validate(schemafiles.ResumeRecord, string(raw)); err != nil {
		return types.Document{}, err
	}
	var rec ResumeRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return types.Document{}, err
	}
	if rec.ResumePath == "" {
		rec.ResumePath = source
	}
	return RecordToDocument(&rec), nil
}
