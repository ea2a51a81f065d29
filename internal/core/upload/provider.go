package upload

import (
	"context"
	"io"
	"path"
	"strings"
)

// Object describes a stored file.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Provider stores generated files under a slash-separated key.
type Provider interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*Object, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Name() string
}

// cleanKey normalizes a key to a relative slash path without "..".
func cleanKey(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	key = path.Clean("/" + key)
	return strings.TrimPrefix(key, "/")
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".csv":  "text/csv",
	".json": "application/json",
}

// ContentTypeFor guesses a MIME type from the key's extension.
func ContentTypeFor(key string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}
