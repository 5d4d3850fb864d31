package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"
)

// SourceExt is the file extension of training images.
const SourceExt = ".jpg"

// ImageCache provides thread-safe caching of decoded images keyed by path.
//
// Once an image is loaded, subsequent Load() calls for the same path return
// the cached copy without disk I/O. Cached images remain in memory until
// removed via Evict() or Clear().
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	m, err := imaging.LoadImageMatrix(cache, "42049", cfg.TrainDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Parameters:
//   - path: File path to the image. Supported formats are JPEG, PNG, GIF,
//     TIFF and BMP.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// Different paths to the same file result in separate cache entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImagePath returns the path of training image imgID inside dir.
func ImagePath(dir, imgID string) string {
	return filepath.Join(dir, imgID+SourceExt)
}

// ImageMatrix is an image together with its pixel matrix.
type ImageMatrix struct {
	// Image is the decoded source image.
	Image image.Image `json:"-"`

	// Rows is the image height in pixels.
	Rows int `json:"rows"`

	// Cols is the image width in pixels.
	Cols int `json:"cols"`

	// Channels is 1 for gray images and 3 otherwise.
	Channels int `json:"channels"`

	// Pixels has Rows·Cols rows in row-major pixel order and Channels
	// columns of integer intensities.
	Pixels *mat.Dense `json:"-"`
}

// LoadImageMatrix loads training image imgID from dir and reshapes it into a
// pixel matrix.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - imgID: Image identifier; the file is <dir>/<imgID>.jpg.
//   - dir: Directory holding the training images.
//
// Returns:
//   - *ImageMatrix: The image and its (rows·cols)×channels pixel matrix.
//   - error: Non-nil if the image cannot be loaded.
func LoadImageMatrix(cache *ImageCache, imgID, dir string) (*ImageMatrix, error) {
	img, err := cache.Load(ImagePath(dir, imgID))
	if err != nil {
		return nil, err
	}
	return NewImageMatrix(img), nil
}

// NewImageMatrix reshapes img into a pixel matrix.
func NewImageMatrix(img image.Image) *ImageMatrix {
	channels := 3
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		channels = 1
	}

	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	rows, cols := b.Dy(), b.Dx()

	data := make([]float64, 0, rows*cols*channels)
	for y := 0; y < rows; y++ {
		line := rgba.Pix[y*rgba.Stride : y*rgba.Stride+cols*4]
		for x := 0; x < cols; x++ {
			px := line[x*4 : x*4+4]
			if channels == 1 {
				data = append(data, float64(px[0]))
				continue
			}
			data = append(data, float64(px[0]), float64(px[1]), float64(px[2]))
		}
	}

	return &ImageMatrix{
		Image:    img,
		Rows:     rows,
		Cols:     cols,
		Channels: channels,
		Pixels:   mat.NewDense(rows*cols, channels, data),
	}
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format detected from the file extension, or "unknown".
	Format string `json:"format"`

	// Channels is the number of channels LoadImageMatrix would produce.
	Channels int `json:"channels"`

	// Pixels is Width·Height, the number of data points the image yields.
	Pixels int `json:"pixels"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and returns its metadata.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - path: Path to the image file.
//
// Returns:
//   - *ImageInfo: Metadata about the image.
//   - error: Non-nil if the image cannot be loaded or the file cannot be stat'd.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	channels := 3
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		channels = 1
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		Channels:      channels,
		Pixels:        bounds.Dx() * bounds.Dy(),
		FileSizeBytes: stat.Size(),
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image, loading it into the cache
// if not already present.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
