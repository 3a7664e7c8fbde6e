package handlers

import (
	"io"
	"os"
	"path/filepath"
)

const mediaDir = "./uploads/media" // Local directory for attachment storage

// saveMediaLocal writes an attachment to the local filesystem. File names
// are the client's media tokens and are kept as-is so later lookups keep
// working.
func saveMediaLocal(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(mediaDir, filepath.Base(name))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return path, nil
}
