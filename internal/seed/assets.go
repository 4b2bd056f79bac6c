package seed

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"

	"cinefile/internal/importer"
)

//go:embed data/*
var bundled embed.FS

// Assets provides the reference list files. Exists distinguishes an absent
// optional asset from a read failure.
type Assets interface {
	Exists(name string) (bool, error)
	Open(name string) (io.ReadCloser, error)
}

// FSAssets serves assets from an fs.FS.
type FSAssets struct {
	FS fs.FS
}

// Bundled returns the reference lists compiled into the binary.
func Bundled() FSAssets {
	sub, err := fs.Sub(bundled, "data")
	if err != nil {
		panic(fmt.Sprintf("seed: bundled assets: %v", err))
	}
	return FSAssets{FS: sub}
}

// Exists reports whether name is present.
func (a FSAssets) Exists(name string) (bool, error) {
	_, err := fs.Stat(a.FS, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat seed asset %s: %w", name, err)
}

// Open opens name for reading.
func (a FSAssets) Open(name string) (io.ReadCloser, error) {
	return a.FS.Open(name)
}

func loadRecords(assets Assets, name string) ([]importer.Record, error) {
	file, err := assets.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open seed asset %s: %w", name, err)
	}
	defer file.Close()

	var records []importer.Record
	switch path.Ext(name) {
	case ".json":
		records, err = importer.ParseJSON(file)
	default:
		records, err = importer.ParseCSV(file)
	}
	if err != nil {
		return nil, fmt.Errorf("parse seed asset %s: %w", name, err)
	}
	return records, nil
}
