package canvas

import "errors"

// Errors returned by renderer construction and texture operations.
var (
	// ErrNoContext is returned when a renderer is constructed without a
	// usable compositor or drawing surface.
	ErrNoContext = errors.New("canvas: no drawing context available")

	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("canvas: invalid dimensions")

	// ErrInvalidTexture is returned by CreatePattern when the source image
	// dimensions are not powers of two. Tileable pattern textures require
	// power-of-two sizes.
	ErrInvalidTexture = errors.New("canvas: invalid pattern texture")
)
