// file persists versions as a JSON document and as a plain text listing
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/lloydmeta/assetversions/internal/config"
	"github.com/lloydmeta/assetversions/internal/domain/asset"
	"github.com/lloydmeta/assetversions/internal/domain/version"
)

// Writer is a version.Sink that rewrites both files in full on every Persist
type Writer struct {
	fs       afero.Fs
	jsonPath string
	textPath string
}

func NewWriter(fs afero.Fs, conf config.Output) *Writer {
	return &Writer{
		fs:       fs,
		jsonPath: conf.JsonPath,
		textPath: conf.TextPath,
	}
}

var _ version.Sink = (*Writer)(nil)

func (w *Writer) Persist(ctx context.Context, collection asset.Collection) error {
	jsonBytes, err := RenderJson(collection)
	if err != nil {
		return WriteErr{Path: w.jsonPath, Underlying: err}
	}
	if err := w.replace(w.jsonPath, jsonBytes); err != nil {
		return err
	}
	return w.replace(w.textPath, RenderText(collection))
}

// RenderJson renders the machine readable document
func RenderJson(collection asset.Collection) ([]byte, error) {
	if collection.Versions == nil {
		collection.Versions = []asset.Record{}
	}
	return json.Marshal(&collection)
}

// RenderText renders a header line naming the asset followed by one line per version
func RenderText(collection asset.Collection) []byte {
	var buf bytes.Buffer
	buf.WriteString(collection.TextHeader())
	buf.WriteByte('\n')
	for _, r := range collection.Versions {
		buf.WriteString(r.TextLine())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// replace writes to a sibling temp file and renames it over the target, so readers (and a
// crash mid-write) only ever see a complete file
func (w *Writer) replace(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := w.fs.MkdirAll(dir, 0755); err != nil {
			return WriteErr{Path: path, Underlying: err}
		}
	}
	tmpPath := path + ".tmp"
	if err := afero.WriteFile(w.fs, tmpPath, data, 0644); err != nil {
		return WriteErr{Path: path, Underlying: err}
	}
	if err := w.fs.Rename(tmpPath, path); err != nil {
		_ = w.fs.Remove(tmpPath)
		return WriteErr{Path: path, Underlying: err}
	}
	return nil
}

type WriteErr struct {
	Path       string
	Underlying error
}

func (e WriteErr) Error() string {
	return fmt.Sprintf("Failed to write [%s]: %v", e.Path, e.Underlying)
}

func (e WriteErr) Unwrap() error {
	return e.Underlying
}
