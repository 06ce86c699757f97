// Package export reads and writes snapshot files and renders them as
// Prometheus metrics.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/keyload/internal/model"
)

// ErrUnknownFormat is returned for unsupported file extensions or format names.
var ErrUnknownFormat = errors.New("unknown format")

// Format is a snapshot serialization.
type Format string

// Formats.
const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath infers the format from the file name. A trailing ".zst"
// marks a compressed file.
func FormatFromPath(path string) (Format, bool, error) {
	base := strings.ToLower(filepath.Base(path))
	compressed := strings.HasSuffix(base, ".zst")
	base = strings.TrimSuffix(base, ".zst")
	switch filepath.Ext(base) {
	case ".json":
		return JSON, compressed, nil
	case ".yaml", ".yml":
		return YAML, compressed, nil
	}
	return "", compressed, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Encode writes snap in format f.
func Encode(w io.Writer, snap model.Snapshot, f Format) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// Decode reads a snapshot in format f and validates it.
func Decode(r io.Reader, f Format) (model.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	switch f {
	case JSON:
	case YAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return snap, nil
}

// WriteFile writes snap to path, choosing the format from the extension.
func WriteFile(path string, snap model.Snapshot) error {
	f, compressed, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, snap, f); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if compressed {
		encoder, err := zstd.NewWriter(out)
		if err != nil {
			_ = out.Close()
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		if _, err := io.Copy(encoder, &buf); err != nil {
			_ = encoder.Close()
			_ = out.Close()
			return fmt.Errorf("failed to compress: %w", err)
		}
		if err := encoder.Close(); err != nil {
			_ = out.Close()
			return fmt.Errorf("failed to finalize compression: %w", err)
		}
	} else if _, err := io.Copy(out, &buf); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return out.Close()
}

// ReadFile reads and validates a snapshot file.
func ReadFile(path string) (model.Snapshot, error) {
	f, compressed, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		// Best-effort close for a read-only file.
		_ = in.Close()
	}()
	var src io.Reader = in
	if compressed {
		decoder, err := zstd.NewReader(in)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer decoder.Close()
		src = decoder
	}
	snap, err := Decode(src, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
