package storage

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider serves media from a directory behind a static file
// route. Used for development and single-store on-prem installs.
type LocalProvider struct {
	RootPath string
	BaseURL  string
}

func NewLocalProvider(root, baseURL string) *LocalProvider {
	// Ensure the root directory exists
	_ = os.MkdirAll(root, 0755)
	return &LocalProvider{
		RootPath: root,
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

func (l *LocalProvider) URL(key string) (string, error) {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return l.BaseURL + "/" + strings.Join(parts, "/"), nil
}

func (l *LocalProvider) Put(key string, body io.ReadSeeker, contentType string) error {
	path := filepath.Join(l.RootPath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, body)
	return err
}

func (l *LocalProvider) Exists(key string) (bool, error) {
	info, err := os.Stat(filepath.Join(l.RootPath, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}
