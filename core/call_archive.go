package core

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

func init() {
	// gob doesn't know how to encode/decode time otherwise
	gob.Register(time.Time{})
}

// archiveBasePath is where finished results are stored on disk so they
// survive a wipe of the in-memory cache.
var archiveBasePath = defaultArchivePath()

func defaultArchivePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "bqexplore-history")
	}
	return filepath.Join(dir, "bqexplore", "history")
}

// these variables create a file name for a specified type
var (
	archiveDir = func(callID CallID) string {
		return filepath.Join(archiveBasePath, string(callID))
	}

	metaFile = func(callID CallID) string {
		return filepath.Join(archiveDir(callID), "meta.gob")
	}
	headerFile = func(callID CallID) string {
		return filepath.Join(archiveDir(callID), "header.gob")
	}
	rowFile = func(callID CallID, i int) string {
		return filepath.Join(archiveDir(callID), fmt.Sprintf("row_%d.gob", i))
	}
)

type archive struct {
	id       CallID
	isFilled bool
}

func newArchive(id CallID) *archive {
	isFilled := true
	_, err := os.Stat(archiveDir(id))
	if os.IsNotExist(err) {
		isFilled = false
	}
	return &archive{
		id:       id,
		isFilled: isFilled,
	}
}

func (a *archive) isEmpty() bool {
	return !a.isFilled
}

// setResult stores the cached result to disk as a set of gob files:
//
//	header.gob - header
//	meta.gob   - meta
//	row_N.gob  - N-th chunk of rows
func (a *archive) setResult(result *Result) error {
	if a.isFilled {
		return nil
	}

	err := os.MkdirAll(archiveDir(a.id), os.ModePerm)
	if err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}

	// header
	if err := encodeGob(headerFile(a.id), result.Header()); err != nil {
		return err
	}

	// meta
	if err := encodeGob(metaFile(a.id), *result.Meta()); err != nil {
		return err
	}

	// rows, written as chunks concurrently
	chunkSize := 500
	length := result.Len()

	g := &errgroup.Group{}
	g.SetLimit(10)
	for i := 0; i <= length/chunkSize; i++ {
		i := i
		g.Go(func() error {
			chunkStart := chunkSize * i
			chunkEnd := chunkSize * (i + 1)
			if chunkEnd > length {
				chunkEnd = length
			}
			chunk, err := result.Rows(chunkStart, chunkEnd)
			if err != nil {
				return err
			}
			if len(chunk) == 0 {
				return nil
			}

			return encodeGob(rowFile(a.id, i), chunk)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	a.isFilled = true

	return nil
}

func encodeGob(path string, value any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(value); err != nil {
		return fmt.Errorf("encoder.Encode: %w", err)
	}
	return nil
}

func decodeGob(path string, value any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("os.Open: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(value); err != nil {
		return fmt.Errorf("decoder.Decode: %w", err)
	}
	return nil
}

// getResult loads the result from the archive in form of an iterator
func (a *archive) getResult() (*archiveRows, error) {
	if !a.isFilled {
		return nil, errors.New("archive does not contain a result")
	}
	return newArchiveRows(a.id)
}

type archiveRows struct {
	id     CallID
	header Header
	meta   *Meta

	chunk      []Row
	chunkIndex int
	fileIndex  int
	err        error
}

func newArchiveRows(id CallID) (*archiveRows, error) {
	r := &archiveRows{id: id}

	if err := decodeGob(headerFile(id), &r.header); err != nil {
		return nil, err
	}

	var meta Meta
	if err := decodeGob(metaFile(id), &meta); err != nil {
		return nil, err
	}
	r.meta = &meta

	r.advance()

	return r, nil
}

// advance loads the next chunk file, if any.
func (r *archiveRows) advance() {
	r.chunk = nil
	r.chunkIndex = 0

	path := rowFile(r.id, r.fileIndex)
	if _, err := os.Stat(path); err != nil {
		return
	}

	if err := decodeGob(path, &r.chunk); err != nil {
		r.err = err
		return
	}
	r.fileIndex++
}

func (r *archiveRows) Meta() *Meta {
	return r.meta
}

func (r *archiveRows) Header() Header {
	return r.header
}

func (r *archiveRows) HasNext() bool {
	return r.err != nil || r.chunkIndex < len(r.chunk)
}

func (r *archiveRows) Next() (Row, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.chunkIndex >= len(r.chunk) {
		return nil, errors.New("no next row")
	}

	row := r.chunk[r.chunkIndex]
	r.chunkIndex++

	if r.chunkIndex >= len(r.chunk) {
		r.advance()
	}

	return row, nil
}

func (r *archiveRows) Close() {}
