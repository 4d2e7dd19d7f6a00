package quoteform

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/multierr"

	"github.com/Simplici0/koshtorys/internal/render"
)

// MaxPhotoBytes caps a single uploaded photo.
const MaxPhotoBytes = 15 << 20

// Scratch is a per-request directory for normalised photo uploads.
type Scratch struct {
	dir   string
	files []string
}

// NewScratch creates a uniquely named directory under base, or under the
// system temp dir when base is empty.
func NewScratch(base string) (*Scratch, error) {
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "koshtorys-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, eris.Wrap(err, "create scratch dir")
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the scratch directory path.
func (s *Scratch) Dir() string { return s.dir }

// SavePhoto decodes r as PNG or JPEG and stores it as an RGBA PNG. It
// returns the stored path.
func (s *Scratch) SavePhoto(r io.Reader) (path string, err error) {
	path = filepath.Join(s.dir, uuid.NewString()+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "create scratch photo")
	}
	s.files = append(s.files, path)
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := render.NormalizeImage(f, io.LimitReader(r, MaxPhotoBytes)); err != nil {
		return "", err
	}
	return path, nil
}

// Close removes every stored photo and the directory itself.
func (s *Scratch) Close() error {
	var err error
	for _, f := range s.files {
		if rmErr := os.Remove(f); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		}
	}
	s.files = nil
	if rmErr := os.Remove(s.dir); rmErr != nil && !os.IsNotExist(rmErr) {
		err = multierr.Append(err, rmErr)
	}
	return err
}
