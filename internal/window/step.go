package window

const (
	minStepSize = 1_000     // 1 second
	maxStepSize = 3_600_000 // 1 hour

	// Samples at the very start of a table are often irregular, so the
	// spacing is measured a few samples in.
	stepSampleFrom = 5
	stepSampleTo   = 10
)

// EstimateStepSize derives a keyboard navigation step in milliseconds from the
// sample spacing of datetime. It needs at least 11 samples.
func EstimateStepSize(datetime []int64) (int64, bool) {
	if len(datetime) <= stepSampleTo {
		return 0, false
	}
	step := (datetime[stepSampleTo] - datetime[stepSampleFrom]) / (stepSampleTo - stepSampleFrom)
	return min(max(step, minStepSize), maxStepSize), true
}

// CalculateStepSize returns the navigation step of the active position's line
// chart. When there is no active position or too few samples it returns the
// step already in state and false.
func (e *Engine) CalculateStepSize(state ViewState, cache *DataCache) (int64, bool) {
	if state.ActivePosition == "" {
		return state.StepSize, false
	}
	w, ok := cache.ActiveLine[state.ActivePosition]
	if !ok || w == nil || w.Data == nil {
		return state.StepSize, false
	}

	step, ok := EstimateStepSize(w.Data.Datetime)
	if !ok {
		return state.StepSize, false
	}
	return step, true
}
