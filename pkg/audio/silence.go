package audio

import (
	"math"
	"time"
)

// silenceWindow is the analysis granularity for silence detection. Silence
// run lengths are measured in whole windows, so minSilence is effectively
// rounded down to this resolution.
const silenceWindow = 10 * time.Millisecond

// SplitOnSilence splits the clip into the non-silent stretches separated by
// silences of at least minSilence. A stretch is considered silent when its
// loudness stays below threshDB (dBFS, 0 = full scale, e.g. -40). Up to
// keepSilence of the surrounding silence is retained on each side of every
// returned piece.
//
// A clip with no qualifying silence comes back as a single piece; a clip
// that is silent throughout yields no pieces.
func (c *Clip) SplitOnSilence(minSilence time.Duration, threshDB float64, keepSilence time.Duration) []*Clip {
	if len(c.samples) == 0 {
		return nil
	}

	windows := c.windowLoudness()
	minRun := int(minSilence / silenceWindow)
	if minRun < 1 {
		minRun = 1
	}

	type span struct{ start, end int } // window indices, end exclusive
	var silences []span
	runStart := -1
	for i, db := range windows {
		if db < threshDB {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			if i-runStart >= minRun {
				silences = append(silences, span{runStart, i})
			}
			runStart = -1
		}
	}
	if runStart >= 0 && len(windows)-runStart >= minRun {
		silences = append(silences, span{runStart, len(windows)})
	}

	// Complement: the non-silent spans between the detected silences.
	var pieces []span
	cursor := 0
	for _, s := range silences {
		if s.start > cursor {
			pieces = append(pieces, span{cursor, s.start})
		}
		cursor = s.end
	}
	if cursor < len(windows) {
		pieces = append(pieces, span{cursor, len(windows)})
	}
	if len(pieces) == 0 {
		return nil
	}

	total := c.Duration()
	out := make([]*Clip, 0, len(pieces))
	for _, p := range pieces {
		from := time.Duration(p.start)*silenceWindow - keepSilence
		to := time.Duration(p.end)*silenceWindow + keepSilence
		if from < 0 {
			from = 0
		}
		if to > total {
			to = total
		}
		out = append(out, c.Slice(from, to))
	}
	return out
}

// windowLoudness returns the RMS loudness of each analysis window in dBFS.
// Fully silent windows report -inf.
func (c *Clip) windowLoudness() []float64 {
	frames := c.rate.N(silenceWindow)
	if frames < 1 {
		frames = 1
	}
	n := (len(c.samples) + frames - 1) / frames
	out := make([]float64, n)
	for w := range n {
		lo := w * frames
		hi := lo + frames
		if hi > len(c.samples) {
			hi = len(c.samples)
		}
		var sum float64
		for _, frame := range c.samples[lo:hi] {
			sum += frame[0]*frame[0] + frame[1]*frame[1]
		}
		rms := math.Sqrt(sum / float64((hi-lo)*2))
		out[w] = 20 * math.Log10(rms) // -inf for rms == 0 is fine here
	}
	return out
}
