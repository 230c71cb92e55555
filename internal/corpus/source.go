package corpus

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
)

// Source enumerates the records of a read-only collection. Walk calls visit
// for every record in a stable collection order and stops early when visit
// returns an error or ctx is cancelled. Each call is an independent pass.
type Source interface {
	Walk(ctx context.Context, visit func(Record) error) error
	Fingerprint() (string, error)
}

// DirSource reads *.json and *.jsonl files below a root directory. A .json
// file holds either one record object or an array of them; a .jsonl file
// holds one object per line. Files are visited in lexical path order.
type DirSource struct {
	root string
}

// NewDirSource returns a Source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{root: dir}
}

// Root returns the collection root.
func (s *DirSource) Root() string { return s.root }

// Walk implements Source. An unreadable root is a collection-access error;
// unreadable or malformed files surface as records carrying Err.
func (s *DirSource) Walk(ctx context.Context, visit func(Record) error) error {
	files, err := s.files()
	if err != nil {
		return err
	}
	seq := 0
	emit := func(rec Record) error {
		rec.Seq = seq
		seq++
		return visit(rec)
	}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.walkFile(path, emit); err != nil {
			return err
		}
	}
	return nil
}

func (s *DirSource) files() ([]string, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrCollectionAccess, http.StatusServiceUnavailable, "collection root %s: %v", s.root, err)
	}
	if !info.IsDir() {
		return nil, apperrors.Newf(apperrors.ErrCollectionAccess, http.StatusServiceUnavailable, "collection root %s is not a directory", s.root)
	}
	var files []string
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root {
				return err
			}
			// unreadable subdirectory: keep it as a failed entry
			files = append(files, path)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".jsonl":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrCollectionAccess, http.StatusServiceUnavailable, "listing %s: %v", s.root, err)
	}
	return files, nil
}

func (s *DirSource) walkFile(path string, emit func(Record) error) error {
	rel := s.rel(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return emit(Record{Origin: rel, Err: apperrors.Dataf("reading %s: %v", rel, err)})
	}
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return walkLines(rel, data, emit)
	}
	return walkDocument(rel, data, emit)
}

func (s *DirSource) rel(path string) string {
	if r, err := filepath.Rel(s.root, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}

func walkDocument(origin string, data []byte, emit func(Record) error) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return emit(Record{Origin: origin, Err: apperrors.Dataf("decoding %s: %v", origin, err)})
		}
		for i, raw := range items {
			rec := decodeRecord(fmt.Sprintf("%s#%d", origin, i), raw)
			if err := emit(rec); err != nil {
				return err
			}
		}
		return nil
	}
	return emit(decodeRecord(origin, trimmed))
}

func walkLines(origin string, data []byte, emit func(Record) error) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		if err := emit(decodeRecord(fmt.Sprintf("%s:%d", origin, line), text)); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return emit(Record{Origin: origin, Err: apperrors.Dataf("reading %s: %v", origin, err)})
	}
	return nil
}

func decodeRecord(origin string, raw []byte) Record {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Record{Origin: origin, Err: apperrors.Dataf("decoding %s: %v", origin, err)}
	}
	if fields == nil {
		return Record{Origin: origin, Err: apperrors.Dataf("%s is not an object", origin)}
	}
	return Record{Origin: origin, Fields: fields}
}

// Fingerprint hashes the relative path, size and modification time of every
// collection file. It changes whenever a file is added, removed or rewritten.
func (s *DirSource) Fingerprint() (string, error) {
	files, err := s.files()
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, path := range files {
		fmt.Fprintf(h, "%s\x00", s.rel(path))
		if info, err := os.Stat(path); err == nil {
			fmt.Fprintf(h, "%d\x00%d\x00", info.Size(), info.ModTime().UnixNano())
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MemorySource serves records held in memory. It is used by tests and by
// callers that already hold decoded documents.
type MemorySource struct {
	records []map[string]any
}

// NewMemorySource wraps records in collection order.
func NewMemorySource(records ...map[string]any) *MemorySource {
	return &MemorySource{records: records}
}

// Walk implements Source.
func (s *MemorySource) Walk(ctx context.Context, visit func(Record) error) error {
	for i, fields := range s.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := visit(Record{Seq: i, Origin: fmt.Sprintf("mem#%d", i), Fields: fields}); err != nil {
			return err
		}
	}
	return nil
}

// Fingerprint implements Source by hashing the JSON encoding of every record.
func (s *MemorySource) Fingerprint() (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, fields := range s.records {
		if err := enc.Encode(fields); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
