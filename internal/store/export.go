package store

import (
	"context"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
)

// Format selects a bookmark export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a query value to a Format, defaulting to JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// ExportBookmarks writes every bookmark to w in the given format.
func ExportBookmarks(ctx context.Context, b Bookmarks, w io.Writer, format Format) error {
	entries, err := b.List(ctx)
	if err != nil {
		return fmt.Errorf("list bookmarks: %w", err)
	}

	var data []byte
	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(entries)
	default:
		data, err = sonic.MarshalIndent(entries, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode bookmarks: %w", err)
	}

	_, err = w.Write(data)
	return err
}
