package gpu

import "errors"

var (
	// ErrNoDevice is returned when construction cannot obtain a usable
	// HAL device and queue.
	ErrNoDevice = errors.New("gpu: no usable device")

	// ErrShaderCompile is returned when the embedded WGSL shader fails
	// to compile to SPIR-V.
	ErrShaderCompile = errors.New("gpu: shader compilation failed")
)
