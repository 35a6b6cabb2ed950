// Package boardfile reads board items from YAML or JSON files and writes edited dates back.
package boardfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk shape of a board file.
type Document struct {
	BoardID    string              `json:"board_id" yaml:"board_id"`
	Name       string              `json:"name,omitempty" yaml:"name,omitempty"`
	DateColumn string              `json:"date_column,omitempty" yaml:"date_column,omitempty"`
	Items      []schema.ItemRecord `json:"items" yaml:"items"`
}

// ErrNoBoardID is returned when a board file has neither a board_id nor a usable file name.
var ErrNoBoardID = errors.New("board file has no board_id")

// FileBoard implements ItemSource and DateWriter over a single board file.
// Files ending in .json are read and written as JSON, everything else as YAML.
type FileBoard struct {
	mu   sync.Mutex
	path string
	doc  Document
}

var (
	_ contract.ItemSource = &FileBoard{} // Compile-time check
	_ contract.DateWriter = &FileBoard{} // Compile-time check
)

// Open reads a board file. A missing board_id falls back to the file's base name.
func Open(path string) (*FileBoard, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	if doc.BoardID == "" {
		doc.BoardID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if doc.BoardID == "" {
		return nil, ErrNoBoardID
	}
	return &FileBoard{path: path, doc: doc}, nil
}

// Path returns the file the board was read from.
func (f *FileBoard) Path() string { return f.path }

// BoardID implements the ItemSource interface.
func (f *FileBoard) BoardID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.BoardID
}

// Name returns the display name of the board, or its id when unnamed.
func (f *FileBoard) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc.Name == "" {
		return f.doc.BoardID
	}
	return f.doc.Name
}

// DateColumn returns the date column named in the file, if any.
func (f *FileBoard) DateColumn() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.DateColumn
}

// LoadRecords implements the ItemSource interface.
func (f *FileBoard) LoadRecords(_ context.Context) ([]schema.ItemRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]schema.ItemRecord, len(f.doc.Items))
	copy(out, f.doc.Items)
	return out, nil
}

// UpdateDate implements the DateWriter interface. The item's column keeps its
// point or range shape, and the whole file is rewritten.
func (f *FileBoard) UpdateDate(ctx context.Context, update schema.DateUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	date, err := parseDate(update.NewDate)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	idx := -1
	for i, it := range f.doc.Items {
		if it.ID == update.ItemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("item %q not found in %s", update.ItemID, f.path)
	}

	item := f.doc.Items[idx]
	field, err := schema.ClassifyDateField(item.Columns[update.ColumnID])
	if err != nil {
		field = nil
	}
	cols := maps.Clone(item.Columns)
	if cols == nil {
		cols = make(map[string]any, 1)
	}
	cols[update.ColumnID] = schema.EncodeDateField(schema.WithDate(field, date))

	next := f.doc
	next.Items = make([]schema.ItemRecord, len(f.doc.Items))
	copy(next.Items, f.doc.Items)
	next.Items[idx].Columns = cols

	if err := writeDocument(f.path, next); err != nil {
		return err
	}
	f.doc = next
	return nil
}

// Save writes a new board file at path.
func Save(path string, doc Document) error {
	return writeDocument(path, doc)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func readDocument(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("failed to read board file: %w", err)
	}
	if isJSON(path) {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return doc, fmt.Errorf("failed to parse board file %s: %w", path, err)
	}
	return doc, nil
}

// writeDocument replaces the file through a temporary sibling and a rename.
func writeDocument(path string, doc Document) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to encode board file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".boardline-*")
	if err != nil {
		return fmt.Errorf("failed to write board file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write board file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write board file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace board file: %w", err)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(schema.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}
