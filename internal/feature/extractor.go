// Package feature computes the fixed descriptor vector for a
// preprocessed signature matrix: geometric shape measures, stroke
// statistics, texture statistics, and simulated pen dynamics.
package feature

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"signature-analyzer/pkg/geometry"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// inkThreshold separates ink from background in a normalized matrix.
const inkThreshold = 0.5

// houghVoteThreshold is the accumulator vote count for a detected line
// in stroke-direction estimation.
const houghVoteThreshold = 50

// Extractor computes descriptor sets from normalized intensity matrices.
type Extractor struct {
	log *slog.Logger
}

// NewExtractor creates an extractor. A nil logger uses the default.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{log: logger}
}

// Extract computes all feature groups from a normalized [0,1] matrix.
// A group that cannot be computed contributes nothing rather than
// failing the whole extraction; a fully empty result signals failure.
// Applied twice to the same matrix it produces identical sets.
func (e *Extractor) Extract(mat gocv.Mat) DescriptorSet {
	set := DescriptorSet{}
	if mat.Empty() || mat.Rows() == 0 || mat.Cols() == 0 {
		return set
	}

	mask := inkMask(mat)
	defer mask.Close()

	skeleton := skeletonize(mask)
	defer skeleton.Close()

	widths := strokeWidths(mask)

	if geo, ok := e.geometric(mat, mask); ok {
		merge(set, geo)
	} else {
		e.log.Debug("geometric features unavailable", "reason", "no contours")
	}
	merge(set, e.stroke(skeleton, widths))
	if tex, ok := e.texture(mat); ok {
		merge(set, tex)
	}
	merge(set, e.dynamic(mask, skeleton, widths))

	return set
}

func merge(dst DescriptorSet, src map[string]float64) {
	for k, v := range src {
		dst[k] = v
	}
}

// inkMask binarizes a normalized matrix at the ink threshold,
// producing an 8-bit mask where ink pixels are 255.
func inkMask(mat gocv.Mat) gocv.Mat {
	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(mat, &thresh, inkThreshold, 255, gocv.ThresholdBinaryInv)

	mask := gocv.NewMat()
	thresh.ConvertTo(&mask, gocv.MatTypeCV8U)
	return mask
}

// geometric measures the largest external contour: bounding-box aspect
// ratio, normalized centroid, compactness, best-fit-ellipse
// eccentricity, convex-hull solidity and convexity, plus whole-mask
// ink density. All ratios guard division by zero by returning 0.
func (e *Extractor) geometric(mat, mask gocv.Mat) (map[string]float64, bool) {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return nil, false
	}

	largestIdx := 0
	largestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		if a := gocv.ContourArea(contours.At(i)); a > largestArea {
			largestArea = a
			largestIdx = i
		}
	}
	largest := contours.At(largestIdx)

	area := largestArea
	perimeter := gocv.ArcLength(largest, true)

	rect := gocv.BoundingRect(largest)
	box := geometry.RectInt{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
	aspectRatio := box.ToFloat().AspectRatio()

	// First-order spatial moments of the filled contour give the centroid
	filled := gocv.NewMatWithSize(mask.Rows(), mask.Cols(), gocv.MatTypeCV8U)
	defer filled.Close()
	gocv.DrawContours(&filled, contours, largestIdx, color.RGBA{R: 255, G: 255, B: 255}, -1)
	m := gocv.Moments(filled, true)

	var centroidX, centroidY float64
	if m["m00"] != 0 {
		centroidX = m["m10"] / m["m00"]
		centroidY = m["m01"] / m["m00"]
	}

	compactness := 0.0
	if area > 0 {
		compactness = perimeter * perimeter / area
	}

	eccentricity := 0.0
	if largest.Size() >= 5 {
		ellipse := gocv.FitEllipse(largest)
		major := math.Max(float64(ellipse.Width), float64(ellipse.Height))
		minor := math.Min(float64(ellipse.Width), float64(ellipse.Height))
		if major > 0 {
			ratio := minor / major
			eccentricity = math.Sqrt(1 - ratio*ratio)
		}
	}

	solidity, convexity := 0.0, 0.0
	hull := gocv.NewMat()
	defer hull.Close()
	gocv.ConvexHull(largest, &hull, false, true)

	hullPts := make([]image.Point, 0, hull.Rows())
	for i := 0; i < hull.Rows(); i++ {
		v := hull.GetVeciAt(i, 0)
		if len(v) >= 2 {
			hullPts = append(hullPts, image.Pt(int(v[0]), int(v[1])))
		}
	}
	if len(hullPts) >= 3 {
		hullVec := gocv.NewPointVectorFromPoints(hullPts)
		defer hullVec.Close()

		if hullArea := gocv.ContourArea(hullVec); hullArea > 0 {
			solidity = area / hullArea
		}
		if perimeter > 0 {
			convexity = gocv.ArcLength(hullVec, true) / perimeter
		}
	}

	totalPixels := float64(mask.Rows() * mask.Cols())

	return map[string]float64{
		"aspect_ratio": aspectRatio,
		"density":      float64(gocv.CountNonZero(mask)) / totalPixels,
		"centroid_x":   centroidX / float64(mask.Cols()),
		"centroid_y":   centroidY / float64(mask.Rows()),
		"compactness":  compactness,
		"eccentricity": eccentricity,
		"solidity":     solidity,
		"convexity":    convexity,
	}, true
}

// stroke reports stroke-width statistics and the dominant stroke
// direction from a line-detection transform over the skeleton.
func (e *Extractor) stroke(skeleton gocv.Mat, widths []float64) map[string]float64 {
	widthMean, widthStd := 0.0, 0.0
	if len(widths) > 0 {
		widthMean = stat.Mean(widths, nil)
		widthStd = stat.PopStdDev(widths, nil)
	}

	return map[string]float64{
		"stroke_width_mean": widthMean,
		"stroke_width_std":  widthStd,
		"stroke_direction":  dominantDirection(skeleton),
	}
}

// strokeWidths computes stroke width at each ink pixel as twice the
// Euclidean distance to the nearest background pixel (radius to
// diameter).
func strokeWidths(mask gocv.Mat) []float64 {
	dist := gocv.NewMat()
	defer dist.Close()
	labels := gocv.NewMat()
	defer labels.Close()
	gocv.DistanceTransform(mask, &dist, &labels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)

	rows, cols := dist.Rows(), dist.Cols()
	var widths []float64
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if v := dist.GetFloatAt(y, x); v > 0 {
				widths = append(widths, float64(v)*2)
			}
		}
	}
	return widths
}

// dominantDirection returns the mean angle of Hough-detected lines in
// the skeleton, or 0 when no line reaches the vote threshold.
func dominantDirection(skeleton gocv.Mat) float64 {
	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLines(skeleton, &lines, 1, math.Pi/180, houghVoteThreshold)

	if lines.Empty() || lines.Rows() == 0 {
		return 0
	}

	angles := make([]float64, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		// Each row is (rho, theta)
		angles = append(angles, float64(lines.GetFloatAt(i, 1)))
	}
	return stat.Mean(angles, nil)
}

// texture computes a uniform local binary pattern and Sobel gradient
// magnitude statistics over the intensity matrix. These are carried in
// the descriptor set but sit outside the canonical weighted features.
func (e *Extractor) texture(mat gocv.Mat) (map[string]float64, bool) {
	scaled := mat.Clone()
	defer scaled.Close()
	scaled.MultiplyFloat(255.0)

	u8 := gocv.NewMat()
	defer u8.Close()
	scaled.ConvertTo(&u8, gocv.MatTypeCV8U)

	lbp := uniformLBP(u8)
	if len(lbp) == 0 {
		return nil, false
	}

	gx := gocv.NewMat()
	defer gx.Close()
	gy := gocv.NewMat()
	defer gy.Close()
	gocv.Sobel(u8, &gx, gocv.MatTypeCV64F, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(u8, &gy, gocv.MatTypeCV64F, 0, 1, 3, 1, 0, gocv.BorderDefault)

	rows, cols := u8.Rows(), u8.Cols()
	mags := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			mags = append(mags, math.Hypot(gx.GetDoubleAt(y, x), gy.GetDoubleAt(y, x)))
		}
	}

	return map[string]float64{
		"texture_mean":  stat.Mean(lbp, nil),
		"texture_std":   stat.PopStdDev(lbp, nil),
		"gradient_mean": stat.Mean(mags, nil),
		"gradient_std":  stat.PopStdDev(mags, nil),
	}, true
}

// lbpNeighbors is the 8-neighbor sampling order for radius-1 LBP,
// counterclockwise from the east neighbor.
var lbpNeighbors = [8][2]int{
	{1, 0}, {1, -1}, {0, -1}, {-1, -1},
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1},
}

// uniformLBP computes the uniform variant of the 8-neighbor, radius-1
// local binary pattern for every interior pixel. Uniform patterns (at
// most two 0/1 transitions around the circle) map to their popcount
// 0..8; non-uniform patterns share the single bin 9.
func uniformLBP(u8 gocv.Mat) []float64 {
	rows, cols := u8.Rows(), u8.Cols()
	if rows < 3 || cols < 3 {
		return nil
	}

	values := make([]float64, 0, (rows-2)*(cols-2))
	for y := 1; y < rows-1; y++ {
		for x := 1; x < cols-1; x++ {
			center := u8.GetUCharAt(y, x)

			var bits [8]bool
			ones := 0
			for i, n := range lbpNeighbors {
				if u8.GetUCharAt(y+n[1], x+n[0]) >= center {
					bits[i] = true
					ones++
				}
			}

			transitions := 0
			for i := 0; i < 8; i++ {
				if bits[i] != bits[(i+1)%8] {
					transitions++
				}
			}

			if transitions <= 2 {
				values = append(values, float64(ones))
			} else {
				values = append(values, 9)
			}
		}
	}
	return values
}

// dynamic approximates temporal pen dynamics from static geometry.
// These are proxies, not measurements: pressure from stroke-width
// spread, pen lifts from disconnected components, speed from skeleton
// length, acceleration from curvature spread.
func (e *Extractor) dynamic(mask, skeleton gocv.Mat, widths []float64) map[string]float64 {
	pressureVariation := 0.0
	if len(widths) > 0 {
		pressureVariation = stat.PopStdDev(widths, nil)
	}

	labels := gocv.NewMat()
	defer labels.Close()
	numLabels := gocv.ConnectedComponents(mask, &labels)
	penLifts := float64(numLabels - 1)
	if penLifts < 0 {
		penLifts = 0
	}

	totalPixels := float64(mask.Rows() * mask.Cols())
	writingSpeed := 0.0
	if totalPixels > 0 {
		writingSpeed = float64(gocv.CountNonZero(skeleton)) / totalPixels
	}

	curvatures := curvatureProfile(skeletonPoints(skeleton))
	curvatureMean, curvatureStd := 0.0, 0.0
	if len(curvatures) > 0 {
		curvatureMean = stat.Mean(curvatures, nil)
		curvatureStd = stat.PopStdDev(curvatures, nil)
	}

	return map[string]float64{
		"pressure_variation": pressureVariation,
		"pen_lifts":          penLifts,
		"writing_speed":      writingSpeed,
		"acceleration":       curvatureStd,
		"curvature_mean":     curvatureMean,
		"curvature_std":      curvatureStd,
	}
}
