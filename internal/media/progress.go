package media

// Progress reports one step of a heterogeneous multi-stage operation.
// Percent ranges are pre-allocated per stage so a caller can render a single
// continuous progress bar across URL resolution, download and transcoding.
type Progress struct {
	Stage   string
	Percent float64
}

// ProgressFunc receives progress updates. Implementations must be cheap;
// they are called from the processing goroutine.
type ProgressFunc func(Progress)

// Report invokes f if non-nil, clamping percent to [0,100].
func (f ProgressFunc) Report(stage string, percent float64) {
	if f == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	f(Progress{Stage: stage, Percent: percent})
}

// ScaleTo maps a fraction done of one stage onto the stage's global
// percent window [lo,hi].
func ScaleTo(lo, hi, fraction float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return lo + (hi-lo)*fraction
}
