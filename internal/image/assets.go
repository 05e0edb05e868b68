package imagepkg

import (
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// AssetLoader loads static images by slash-separated name.
type AssetLoader interface {
	Load(name string) (image.Image, error)
}

// DirAssets loads assets from a directory on disk.
type DirAssets struct {
	Dir string
}

func (d DirAssets) Load(name string) (image.Image, error) {
	return imaging.Open(filepath.Join(d.Dir, filepath.FromSlash(name)))
}
