package fatigue

type ptState uint8

const (
	ptBegin ptState = iota
	ptMin
	ptMax
)

// PeakTrough reduces x to alternating peaks and troughs whose swings are at least threshold.
//
// The filter first waits for the running range to reach threshold, then tracks the
// current extreme and emits it once the signal has moved back by threshold. The
// pending extreme of the final state is always appended; a signal that never
// reaches threshold yields the midpoint of its range.
func PeakTrough(x []float64, threshold float64) []float64 {
	if len(x) == 0 {
		return nil
	}

	var out []float64
	peak, trough := x[0], x[0]
	state := ptBegin
	i := 0
	for state == ptBegin {
		i++
		if i >= len(x) {
			break
		}
		switch {
		case x[i] > peak:
			peak = x[i]
			if peak-trough >= threshold {
				out = append(out, trough)
				state = ptMax
			}
		case x[i] < trough:
			trough = x[i]
			if peak-trough >= threshold {
				out = append(out, peak)
				state = ptMin
			}
		}
	}

	last := state
	for state != ptBegin && i < len(x)-1 {
		i++
		switch state {
		case ptMin:
			if x[i] < trough {
				trough = x[i]
			} else if x[i]-trough >= threshold {
				out = append(out, trough)
				peak = x[i]
				state = ptMax
			}
		case ptMax:
			if x[i] > peak {
				peak = x[i]
			} else if peak-x[i] >= threshold {
				out = append(out, peak)
				trough = x[i]
				state = ptMin
			}
		}
		last = state
	}

	switch last {
	case ptMin:
		out = append(out, trough)
	case ptMax:
		out = append(out, peak)
	default:
		out = append(out, (peak+trough)/2)
	}

	return out
}
