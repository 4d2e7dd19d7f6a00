package render

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// NormalizeImage decodes a PNG or JPEG from r and writes it to w as an
// 8-bit RGBA PNG, the only form the PDF writer embeds without conversion.
func NormalizeImage(w io.Writer, r io.Reader) error {
	src, _, err := image.Decode(r)
	if err != nil {
		return eris.Wrap(err, "decode image")
	}
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	if err := png.Encode(w, dst); err != nil {
		return eris.Wrap(err, "encode png")
	}
	return nil
}

func loadImage(path string) (*bytes.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open image %s", path)
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := NormalizeImage(&buf, f); err != nil {
		return nil, eris.Wrapf(err, "load image %s", path)
	}
	return &buf, nil
}
