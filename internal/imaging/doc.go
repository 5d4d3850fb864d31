// Package imaging provides the image input and rendering primitives used by
// the diagnostics server.
//
// It loads source images into pixel matrices, renders per-pixel diagnostic
// vectors as heatmaps, describes cluster colours and writes figures to disk.
//
// # Pixel Layout
//
// An image of H rows and W columns becomes a matrix of H·W rows, one per
// pixel in row-major order, and one column per channel:
//   - Pixel (r, c) is matrix row r·W + c
//   - Channel values are integers in 0-255 stored as float64
//   - Colour images have 3 channels (R, G, B); gray images have 1
//
// Per-pixel vectors such as the PDI are laid out the same way, so a vector
// of length H·W reshapes directly into an H×W heatmap.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and can be called concurrently.
//
// # Color Representation
//
// Colors are described in several formats:
//   - Hex: 6-character format "#RRGGBB"
//   - RGB: 8-bit components (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - File I/O errors during image loading or saving
//   - Vectors whose length does not match the requested grid
//   - Colours with an unsupported number of channels
package imaging
