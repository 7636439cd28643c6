package database

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileDocument is the on-disk layout of a FileCollection.
type fileDocument[T any] struct {
	LastID uint `json:"last_id"`
	Items  []T  `json:"items"`
}

// FileCollection keeps a collection in DIR/NAME.json. Writes go to a temp
// file first and are renamed over the old one.
type FileCollection[T any] struct {
	mu   sync.Mutex
	dir  string
	name string
}

func NewFileCollection[T any](dir, name string) *FileCollection[T] {
	return &FileCollection[T]{dir: dir, name: name}
}

func (f *FileCollection[T]) Name() string {
	return f.name
}

func (f *FileCollection[T]) path() string {
	return filepath.Join(f.dir, f.name+".json")
}

func (f *FileCollection[T]) LoadAll(ctx context.Context) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, storageErr("load", f.name, err)
	}
	return doc.Items, nil
}

func (f *FileCollection[T]) SaveAll(ctx context.Context, items []T) error {
	if err := ctx.Err(); err != nil {
		return storageErr("save", f.name, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return storageErr("save", f.name, err)
	}
	doc.Items = append(make([]T, 0, len(items)), items...)
	return storageErr("save", f.name, f.write(doc))
}

func (f *FileCollection[T]) NextID(ctx context.Context) (uint, error) {
	if err := ctx.Err(); err != nil {
		return 0, storageErr("next id", f.name, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return 0, storageErr("next id", f.name, err)
	}
	doc.LastID++
	if err := f.write(doc); err != nil {
		return 0, storageErr("next id", f.name, err)
	}
	return doc.LastID, nil
}

// read returns an empty document when the file does not exist yet.
func (f *FileCollection[T]) read() (fileDocument[T], error) {
	doc := fileDocument[T]{Items: make([]T, 0)}
	raw, err := os.ReadFile(f.path())
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, err
	}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, err
	}
	if doc.Items == nil {
		doc.Items = make([]T, 0)
	}
	return doc, nil
}

func (f *FileCollection[T]) write(doc fileDocument[T]) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, f.name+"-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path())
}
