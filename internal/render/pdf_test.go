package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func TestPhotoSlots(t *testing.T) {
	assert.Nil(t, PhotoSlots(0))
	assert.Nil(t, PhotoSlots(3))

	one := PhotoSlots(1)
	require.Len(t, one, 1)
	assert.InDelta(t, 80.0, one[0].X, 1e-9)
	assert.Equal(t, LogoSafe, one[0].Y)

	two := PhotoSlots(2)
	require.Len(t, two, 2)
	assert.InDelta(t, 47.5, two[0].X, 1e-9)
	assert.InDelta(t, 112.5, two[1].X, 1e-9)
	assert.InDelta(t, PageWidth-two[1].X-two[1].W, two[0].X, 1e-9)
	for _, r := range two {
		assert.Equal(t, PhotoSize, r.W)
		assert.Equal(t, PhotoSize, r.H)
		assert.LessOrEqual(t, r.Y+r.H, TableTop)
	}
}

func TestTableFitsOnePage(t *testing.T) {
	assert.InDelta(t, PageWidth-2*Margin, tableWidth(), 1e-9)

	doc := testDocument(t, fullRing(), fullRing())
	rows := BuildRows(doc, "UAH")
	assert.LessOrEqual(t, TableTop+float64(len(rows))*RowHeight, PageHeight-Margin)
}

func TestResolveBackground(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, DefaultBackground), 4, 4)
	writePNG(t, filepath.Join(dir, "gold.png"), 4, 4)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.png"), 0o755))

	assert.Equal(t, filepath.Join(dir, "gold.png"), ResolveBackground(dir, "gold.png"))
	assert.Equal(t, filepath.Join(dir, DefaultBackground), ResolveBackground(dir, ""))
	assert.Equal(t, filepath.Join(dir, DefaultBackground), ResolveBackground(dir, "missing.png"))
	assert.Equal(t, filepath.Join(dir, DefaultBackground), ResolveBackground(dir, "folder.png"))
	assert.Equal(t, filepath.Join(dir, DefaultBackground), ResolveBackground(dir, "../gold.png"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.png"), []byte("garbage"), 0o644))
	assert.Equal(t, filepath.Join(dir, DefaultBackground), ResolveBackground(dir, "corrupt.png"))
}

func TestNormalizeImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	writeJPEG(t, path)

	buf, err := loadImage(path)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 16, cfg.Width)

	var out bytes.Buffer
	assert.Error(t, NormalizeImage(&out, bytes.NewReader([]byte("not an image"))))
}

func TestRender_WritesSinglePagePDF(t *testing.T) {
	dir := t.TempDir()
	bg := filepath.Join(dir, DefaultBackground)
	writePNG(t, bg, 21, 29)
	photo := filepath.Join(dir, "woman.png")
	writePNG(t, photo, 32, 32)
	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("nope"), 0o644))

	r := New(Config{FontDir: filepath.Join(dir, "no-fonts"), Logger: zerolog.Nop()})

	for name, photos := range map[string][]string{
		"none":           nil,
		"one":            {photo},
		"two":            {photo, photo},
		"broken skipped": {broken, photo, filepath.Join(dir, "missing.png")},
	} {
		t.Run(name, func(t *testing.T) {
			doc := testDocument(t, fullRing(), plainRing())
			doc.Photos = photos
			doc.Background = bg

			var out bytes.Buffer
			require.NoError(t, r.Render(&out, doc))
			assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF")))
			assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("/Type /Page\n")))
		})
	}
}

func imageCount(pdf []byte) int {
	return bytes.Count(pdf, []byte("/Subtype /Image"))
}

func TestRender_UnreadableBackgroundFallsBack(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, DefaultBackground), 8, 8)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.png"), []byte("garbage"), 0o644))

	r := New(Config{Logger: zerolog.Nop()})
	doc := testDocument(t, plainRing(), plainRing())

	doc.Background = ResolveBackground(dir, "corrupt.png")
	require.Equal(t, filepath.Join(dir, DefaultBackground), doc.Background)
	var out bytes.Buffer
	require.NoError(t, r.Render(&out, doc))
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF")))
	assert.Positive(t, imageCount(out.Bytes()), "default background not drawn")

	doc.Background = ResolveBackground(t.TempDir(), "nothing.png")
	out.Reset()
	require.NoError(t, r.Render(&out, doc))
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF")))
	assert.Zero(t, imageCount(out.Bytes()))
}

func TestHexRGB(t *testing.T) {
	red, green, blue := hexRGB(FillHeader)
	assert.Equal(t, [3]int{0x2b, 0x31, 0x49}, [3]int{red, green, blue})
}
