package feature

import (
	"image"

	"signature-analyzer/pkg/geometry"

	"gocv.io/x/gocv"
)

// skeletonize reduces a binary ink mask to single-pixel-wide centerlines
// using morphological thinning via iterative erosion. Each pass records
// the boundary pixels removed by that erosion; the union of all passes
// is a topologically connected 1px skeleton.
//
// The loop runs over an owned mutable copy of the mask so the input is
// untouched, and erosion strictly shrinks the working mask, so the loop
// terminates once the mask is empty.
func skeletonize(mask gocv.Mat) gocv.Mat {
	skeleton := gocv.NewMatWithSize(mask.Rows(), mask.Cols(), gocv.MatTypeCV8U)
	temp := mask.Clone()
	defer temp.Close()

	eroded := gocv.NewMat()
	defer eroded.Close()

	element := gocv.GetStructuringElement(gocv.MorphCross, image.Point{3, 3})
	defer element.Close()

	for {
		gocv.Erode(temp, &eroded, element)

		dilated := gocv.NewMat()
		gocv.Dilate(eroded, &dilated, element)

		// The pixels lost by erode-then-dilate are this pass's skeleton pixels
		diff := gocv.NewMat()
		gocv.Subtract(temp, dilated, &diff)
		dilated.Close()

		gocv.BitwiseOr(skeleton, diff, &skeleton)
		diff.Close()

		eroded.CopyTo(&temp)

		if gocv.CountNonZero(eroded) == 0 {
			break
		}
	}

	return skeleton
}

// skeletonPoints collects skeleton pixel coordinates in row-major scan
// order. Curvature estimation depends on this ordering being stable.
func skeletonPoints(skeleton gocv.Mat) []geometry.PointInt {
	rows, cols := skeleton.Rows(), skeleton.Cols()

	var points []geometry.PointInt
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if skeleton.GetUCharAt(y, x) > 0 {
				points = append(points, geometry.PointInt{X: x, Y: y})
			}
		}
	}
	return points
}

// curvatureProfile estimates curvature at each interior skeleton point
// from consecutive point vectors: |v1 × v2| / (|v1|·|v2|).
func curvatureProfile(points []geometry.PointInt) []float64 {
	if len(points) < 3 {
		return nil
	}

	curvatures := make([]float64, 0, len(points)-2)
	for i := 1; i < len(points)-1; i++ {
		v1 := points[i].ToFloat().Sub(points[i-1].ToFloat())
		v2 := points[i+1].ToFloat().Sub(points[i].ToFloat())

		m1 := v1.Norm()
		m2 := v2.Norm()
		if m1 == 0 || m2 == 0 {
			continue
		}

		cross := v1.Cross(v2)
		if cross < 0 {
			cross = -cross
		}
		curvatures = append(curvatures, cross/(m1*m2))
	}
	return curvatures
}
