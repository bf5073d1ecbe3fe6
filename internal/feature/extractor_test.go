package feature

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocv.io/x/gocv"
)

func testExtractor() *Extractor {
	return NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// blockMat builds a normalized 100x200 white matrix with an 80x60 ink
// block centered on it.
func blockMat() gocv.Mat {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 0, 0, 0), 100, 200, gocv.MatTypeCV32F)
	for y := 20; y < 80; y++ {
		for x := 60; x < 140; x++ {
			mat.SetFloatAt(y, x, 0)
		}
	}
	return mat
}

func TestExtractBlock(t *testing.T) {
	mat := blockMat()
	defer mat.Close()

	set := testExtractor().Extract(mat)
	require.False(t, set.Empty())

	// Bounding box of the 80x60 block
	assert.InDelta(t, 80.0/60.0, set.Get("aspect_ratio"), 0.05)

	// 4800 ink pixels out of 20000
	assert.InDelta(t, 0.24, set.Get("density"), 0.01)

	// Block is centered
	assert.InDelta(t, 0.5, set.Get("centroid_x"), 0.03)
	assert.InDelta(t, 0.5, set.Get("centroid_y"), 0.03)

	// Rectangle compactness approaches the square's theoretical 16
	assert.Greater(t, set.Get("compactness"), 13.0)
	assert.Less(t, set.Get("compactness"), 20.0)

	// A convex region is its own hull
	assert.Greater(t, set.Get("solidity"), 0.95)
	assert.InDelta(t, 1.0, set.Get("convexity"), 0.05)

	ecc := set.Get("eccentricity")
	assert.GreaterOrEqual(t, ecc, 0.0)
	assert.Less(t, ecc, 1.0)

	// One connected stroke
	assert.Equal(t, 1.0, set.Get("pen_lifts"))

	assert.Greater(t, set.Get("stroke_width_mean"), 0.0)
	assert.True(t, set.Has("stroke_direction"))

	speed := set.Get("writing_speed")
	assert.Greater(t, speed, 0.0)
	assert.Less(t, speed, 1.0)

	assert.True(t, set.Has("texture_mean"))
	assert.True(t, set.Has("gradient_mean"))
}

func TestExtractIsDeterministic(t *testing.T) {
	mat := blockMat()
	defer mat.Close()

	e := testExtractor()
	first := e.Extract(mat)
	second := e.Extract(mat)
	require.Equal(t, first, second)
}

func TestExtractCountsStrokes(t *testing.T) {
	mat := blockMat()
	defer mat.Close()
	// Second disconnected blob
	for y := 85; y < 95; y++ {
		for x := 10; x < 40; x++ {
			mat.SetFloatAt(y, x, 0)
		}
	}

	set := testExtractor().Extract(mat)
	assert.Equal(t, 2.0, set.Get("pen_lifts"))
}

func TestExtractBlankMatrix(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 0, 0, 0), 50, 50, gocv.MatTypeCV32F)
	defer mat.Close()

	set := testExtractor().Extract(mat)

	// No contours: geometric features are absent rather than zero-filled.
	assert.False(t, set.Has("aspect_ratio"))
	assert.False(t, set.Has("density"))

	// Stroke and dynamics groups still report their degenerate values.
	assert.Equal(t, 0.0, set.Get("stroke_width_mean"))
	assert.Equal(t, 0.0, set.Get("pen_lifts"))
	assert.Equal(t, 0.0, set.Get("writing_speed"))
}

func TestExtractEmptyMatrix(t *testing.T) {
	empty := gocv.NewMat()
	assert.True(t, testExtractor().Extract(empty).Empty())
}
