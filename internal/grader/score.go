package grader

// Score anchor points for the piecewise-linear CER-to-points mapping.
const (
	maxPoints   = 100.0
	midRate     = 0.50
	midPoints   = 50.0
	floorRate   = 0.95
	floorPoints = 5.0
)

// Score maps a character error rate onto extra-credit points.
//
// The input is clamped to [0,1]. A rate of exactly 0 earns the full 100
// so an exact match never loses points to float rounding. Between the
// anchors the mapping is linear: (0,100)-(0.5,50), then (0.5,50)-(0.95,5).
// Anything above 0.95 sits on the 5-point floor; a run that failed
// outright is zeroed at the pipeline level, never here.
func Score(errorRate float64) float64 {
	if errorRate < 0 {
		errorRate = 0
	}
	if errorRate > 1 {
		errorRate = 1
	}

	switch {
	case errorRate == 0:
		return maxPoints
	case errorRate <= midRate:
		return maxPoints - errorRate*(maxPoints-midPoints)/midRate
	case errorRate <= floorRate:
		return midPoints - (errorRate-midRate)*(midPoints-floorPoints)/(floorRate-midRate)
	default:
		return floorPoints
	}
}
