package series

// PaddedWindow is the observation set a single pixel-year smoother is fit
// on: the target year's rows unchanged plus borrowed rows from the adjacent
// years, re-labeled onto an extended day-of-year axis. Borrowed rows always
// sit strictly outside [1, 365].
type PaddedWindow struct {
	PixelID      string
	Year         int
	Observations []Observation
}

// TargetCount reports how many target-year rows fall on the canonical
// 1..365 axis, ignoring borrowed padding and a leap-year day 366.
func (w PaddedWindow) TargetCount() int {
	count := 0
	for _, obs := range w.Observations {
		if obs.Yday >= 1 && obs.Yday <= 365 {
			count++
		}
	}
	return count
}

// Pad builds the padded window for one pixel and target year. The last
// paddingDays days of the prior year are shifted by -366 and the first
// paddingDays days of the next year by +365. A missing adjacent year simply
// contributes nothing.
func Pad(pixelSeries []Observation, targetYear, paddingDays int) PaddedWindow {
	window := PaddedWindow{Year: targetYear}

	for _, obs := range pixelSeries {
		if window.PixelID == "" {
			window.PixelID = obs.PixelID
		}
		switch obs.Year {
		case targetYear:
			// Leap-year day 366 is kept unchanged: it informs the fit
			// near the year end but, like borrowed rows, never counts
			// toward the minimum-observation gate.
			if obs.Yday >= 1 && obs.Yday <= 366 {
				window.Observations = append(window.Observations, obs)
			}
		case targetYear - 1:
			if obs.Yday > 365-paddingDays {
				shifted := obs
				shifted.Yday -= 366
				window.Observations = append(window.Observations, shifted)
			}
		case targetYear + 1:
			if obs.Yday <= paddingDays {
				shifted := obs
				shifted.Yday += 365
				window.Observations = append(window.Observations, shifted)
			}
		}
	}

	return window
}
