// Package file stores blueprints as JSON documents on disk, optionally
// zstd-compressed (.json.zst). Every document is checked against an embedded
// JSON schema before its elements are handed to the loader.
package file

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/blueprint"
)

//go:embed blueprint.schema.json
var schemaJSON []byte

const (
	schemaURL  = "blueprint.schema.json"
	plainExt   = ".json"
	zstdExt    = ".json.zst"
	docVersion = 1
)

// Document is the on-disk layout of one blueprint.
type Document struct {
	Name     string                 `json:"name"`
	Owner    string                 `json:"owner,omitempty"`
	Version  int                    `json:"version,omitempty"`
	Elements []blueprint.RawElement `json:"elements"`
}

// Store is a blueprint.Source over a directory.
type Store struct {
	dir    string
	schema *jsonschema.Schema
	log    *zap.Logger
}

func NewStore(dir string, log *zap.Logger) (*Store, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, schema: schema, log: log}, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add blueprint schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile blueprint schema: %w", err)
	}
	return s, nil
}

// Load implements blueprint.Source. A plain .json file wins over a
// compressed one with the same id.
func (s *Store) Load(ctx context.Context, id string) ([]blueprint.RawElement, error) {
	doc, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.Elements, nil
}

// Read returns the whole document for id.
func (s *Store) Read(_ context.Context, id string) (*Document, error) {
	if !validID(id) {
		return nil, fmt.Errorf("blueprint %q: %w", id, blueprint.ErrBlueprintMissing)
	}
	for _, ext := range []string{plainExt, zstdExt} {
		path := filepath.Join(s.dir, id+ext)
		raw, err := readFile(path, ext == zstdExt)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("blueprint %q: %v: %w", id, err, blueprint.ErrBlueprintCorrupt)
		}
		doc, err := s.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("blueprint %q: %w", id, err)
		}
		s.log.Debug("藍圖已讀取", zap.String("file", path), zap.Int("elements", len(doc.Elements)))
		return doc, nil
	}
	return nil, fmt.Errorf("blueprint %q: %w", id, blueprint.ErrBlueprintMissing)
}

// Decode validates raw JSON against the schema and decodes it. Any failure
// wraps blueprint.ErrBlueprintCorrupt.
func (s *Store) Decode(raw []byte) (*Document, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse: %v: %w", err, blueprint.ErrBlueprintCorrupt)
	}
	if err := s.schema.Validate(v); err != nil {
		return nil, fmt.Errorf("schema: %v: %w", err, blueprint.ErrBlueprintCorrupt)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode: %v: %w", err, blueprint.ErrBlueprintCorrupt)
	}
	return &doc, nil
}

// Save writes a document under id. Compressed documents get the .json.zst
// extension, and any stale file in the other format is removed.
func (s *Store) Save(_ context.Context, id string, doc Document, compress bool) error {
	if !validID(id) {
		return fmt.Errorf("invalid blueprint id %q", id)
	}
	if doc.Version == 0 {
		doc.Version = docVersion
	}
	if doc.Elements == nil {
		doc.Elements = []blueprint.RawElement{}
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode blueprint %q: %w", id, err)
	}
	if _, err := s.Decode(raw); err != nil {
		return fmt.Errorf("blueprint %q: %w", id, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	ext, stale := plainExt, zstdExt
	if compress {
		ext, stale = zstdExt, plainExt
	}
	path := filepath.Join(s.dir, id+ext)
	if err := writeFile(path, raw, compress); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Remove(filepath.Join(s.dir, id+stale)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.log.Info("藍圖已儲存", zap.String("file", path), zap.Int("elements", len(doc.Elements)))
	return nil
}

// List returns the stored blueprint ids, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		var id string
		switch {
		case strings.HasSuffix(name, zstdExt):
			id = strings.TrimSuffix(name, zstdExt)
		case strings.HasSuffix(name, plainExt):
			id = strings.TrimSuffix(name, plainExt)
		default:
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func readFile(path string, compressed bool) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if !compressed {
		return io.ReadAll(f)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

func writeFile(path string, raw []byte, compress bool) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	var w io.Writer = f
	var enc *zstd.Encoder
	if compress {
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			f.Close()
			return err
		}
		w = enc
	}
	if _, err := w.Write(raw); err != nil {
		f.Close()
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
