package render

import (
	"image"
	"os"
	"path/filepath"
)

// DefaultBackground is used when no template is selected or the selected file is missing.
const DefaultBackground = "background.png"

// ResolveBackground is the one place a background falls back. It returns
// dir/name when name is a plain file name of a decodable image, and
// dir/DefaultBackground otherwise. The renderer draws whatever it is given.
func ResolveBackground(dir, name string) string {
	if name != "" && filepath.Base(name) == name {
		path := filepath.Join(dir, name)
		if decodable(path) {
			return path
		}
	}
	return filepath.Join(dir, DefaultBackground)
}

func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	return err == nil && info.Mode().IsRegular()
}

// decodable reads only the image header.
func decodable(path string) bool {
	if !readable(path) {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	_, _, err = image.DecodeConfig(f)
	return err == nil
}
