package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

// Store keeps binary objects on disk under a root directory and hands out
// public URLs for them. Keys are slash-separated relative paths, e.g.
// "photos/3/7_1717000000.jpg".
type Store struct {
	root    string
	baseURL string
}

var ErrInvalidKey = errors.New("invalid object key")

func New(root, baseURL string) (*Store, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Save writes the object and returns its public URL.
func (s *Store) Save(key string, data []byte) (string, error) {
	dest, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", err
	}
	return s.URL(key), nil
}

// SaveThumbnail decodes the image, scales it down to the given width and
// stores the result as JPEG under the key. The source aspect ratio is kept.
func (s *Store) SaveThumbnail(key string, data []byte, width int) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	if width <= 0 {
		width = 480
	}
	thumb := resize.Resize(uint(width), 0, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	return s.Save(key, buf.Bytes())
}

func (s *Store) Remove(key string) error {
	dest, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) URL(key string) string {
	return s.baseURL + "/media/" + key
}

func (s *Store) resolve(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean != key || strings.HasPrefix(clean, "..") || strings.Contains(clean, "../") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
