// Package preprocess normalizes raw signature images into the
// fixed-size intensity matrix consumed by feature extraction.
//
// The output convention is load-bearing for every downstream
// computation: matrices are single-channel CV_32F with values in
// [0,1], and dark pixels (value < 0.5) represent ink.
package preprocess

import (
	"fmt"
	"image"

	"signature-analyzer/internal/imageio"

	"gocv.io/x/gocv"
)

// Params configures the preprocessing pipeline.
type Params struct {
	TargetWidth  int     // Output width in pixels
	TargetHeight int     // Output height in pixels
	MedianKernel int     // Median denoise kernel size (odd)
	BlockSize    int     // Adaptive threshold neighborhood (odd)
	ThresholdC   float32 // Constant subtracted from the local mean
}

// DefaultParams returns the standard signature preprocessing parameters.
func DefaultParams() Params {
	return Params{
		TargetWidth:  224,
		TargetHeight: 224,
		MedianKernel: 3,
		BlockSize:    11,
		ThresholdC:   2,
	}
}

// WithTargetSize returns a copy of params with a custom output resolution.
func (p Params) WithTargetSize(width, height int) Params {
	p.TargetWidth = width
	p.TargetHeight = height
	return p
}

// DecodeError indicates the raw bytes are not a supported raster image.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PreprocessError indicates a pipeline stage failed on a decoded image.
type PreprocessError struct {
	Stage  string
	Reason string
}

func (e *PreprocessError) Error() string {
	return fmt.Sprintf("preprocessing failed at %s: %s", e.Stage, e.Reason)
}

// Preprocess decodes a raw image buffer and runs the full pipeline:
// grayscale, median denoise, Gaussian adaptive threshold, area resize,
// scale to [0,1]. The returned Mat is owned by the caller.
func Preprocess(raw []byte, p Params) (gocv.Mat, error) {
	if !imageio.HasSupportedHeader(raw) {
		return gocv.NewMat(), &DecodeError{Reason: "unrecognized image header"}
	}

	gray, err := gocv.IMDecode(raw, gocv.IMReadGrayScale)
	if err != nil {
		return gocv.NewMat(), &DecodeError{Reason: "corrupt image data", Err: err}
	}
	defer gray.Close()

	if gray.Empty() {
		return gocv.NewMat(), &DecodeError{Reason: "decoded image is empty"}
	}

	return normalize(gray, p)
}

// FromImage runs the pipeline on an already-decoded image.Image.
// Useful for callers that load files through the stdlib decoders.
func FromImage(src image.Image, p Params) (gocv.Mat, error) {
	gray := imageToGrayMat(src)
	defer gray.Close()
	return normalize(gray, p)
}

// normalize applies the denoise/threshold/resize/scale stages to a
// single-channel 8-bit matrix.
func normalize(gray gocv.Mat, p Params) (gocv.Mat, error) {
	if gray.Rows() == 0 || gray.Cols() == 0 {
		return gocv.NewMat(), &PreprocessError{Stage: "input", Reason: "zero-size image"}
	}
	if p.TargetWidth <= 0 || p.TargetHeight <= 0 {
		return gocv.NewMat(), &PreprocessError{
			Stage:  "resize",
			Reason: fmt.Sprintf("invalid target resolution %dx%d", p.TargetWidth, p.TargetHeight),
		}
	}
	if p.MedianKernel < 3 || p.MedianKernel%2 == 0 || p.BlockSize < 3 || p.BlockSize%2 == 0 {
		return gocv.NewMat(), &PreprocessError{Stage: "params", Reason: "kernel sizes must be odd and >= 3"}
	}

	// Median filter knocks out scanner speckle without rounding stroke ends.
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(gray, &blurred, p.MedianKernel)

	// Local Gaussian-weighted threshold tolerates uneven lighting where a
	// single global threshold would lose faint strokes.
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(blurred, &binary, 255,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, p.BlockSize, p.ThresholdC)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(binary, &resized, image.Pt(p.TargetWidth, p.TargetHeight), 0, 0, gocv.InterpolationArea)

	out := gocv.NewMat()
	resized.ConvertTo(&out, gocv.MatTypeCV32F)
	out.DivideFloat(255.0)

	if out.Rows() != p.TargetHeight || out.Cols() != p.TargetWidth {
		out.Close()
		return gocv.NewMat(), &PreprocessError{Stage: "resize", Reason: "output dimensions mismatch"}
	}
	return out, nil
}

// Enhance cleans up a normalized matrix with a morphological close/open
// pass and light Gaussian smoothing. Optional stage for low-quality scans.
func Enhance(src gocv.Mat) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(2, 2))
	defer kernel.Close()

	dst := gocv.NewMat()
	gocv.MorphologyEx(src, &dst, gocv.MorphClose, kernel)
	gocv.MorphologyEx(dst, &dst, gocv.MorphOpen, kernel)
	gocv.GaussianBlur(dst, &dst, image.Pt(3, 3), 0, 0, gocv.BorderDefault)
	return dst
}

// Properties summarizes a normalized matrix.
type Properties struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Density     float64 `json:"density"`
	TotalPixels int     `json:"total_pixels"`
	InkPixels   int     `json:"ink_pixels"`
}

// Describe computes basic properties of a normalized [0,1] matrix.
// Dark pixels (< 0.5) count as ink.
func Describe(mat gocv.Mat) Properties {
	rows, cols := mat.Rows(), mat.Cols()
	props := Properties{
		Width:       cols,
		Height:      rows,
		TotalPixels: rows * cols,
	}
	if rows == 0 || cols == 0 {
		return props
	}

	ink := 0
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mat.GetFloatAt(y, x) < 0.5 {
				ink++
			}
		}
	}
	props.InkPixels = ink
	props.Density = float64(ink) / float64(props.TotalPixels)
	props.AspectRatio = float64(cols) / float64(rows)
	return props
}

// SaveProcessed writes a normalized matrix back to an 8-bit image file.
func SaveProcessed(mat gocv.Mat, path string) error {
	if mat.Empty() {
		return fmt.Errorf("cannot save empty matrix")
	}

	scaled := mat.Clone()
	defer scaled.Close()
	scaled.MultiplyFloat(255.0)

	u8 := gocv.NewMat()
	defer u8.Close()
	scaled.ConvertTo(&u8, gocv.MatTypeCV8U)

	if ok := gocv.IMWrite(path, u8); !ok {
		return fmt.Errorf("failed to write image to %s", path)
	}
	return nil
}

// imageToGrayMat converts a Go image.Image to a single-channel 8-bit Mat.
func imageToGrayMat(src image.Image) gocv.Mat {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gray := uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
			mat.SetUCharAt(y, x, gray)
		}
	}
	return mat
}
