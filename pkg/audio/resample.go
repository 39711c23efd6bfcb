package audio

import "github.com/faiface/beep"

// resampleFrames resamples stereo frames from srcRate to dstRate using
// linear interpolation per channel. If the rates match, the input is
// returned unchanged.
func resampleFrames(in [][2]float64, srcRate, dstRate beep.SampleRate) [][2]float64 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(in) == 0 {
		return in
	}
	dstLen := int(int64(len(in)) * int64(dstRate) / int64(srcRate))
	if dstLen == 0 {
		return nil
	}

	out := make([][2]float64, dstLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range dstLen {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)

		s0 := in[idx]
		s1 := s0
		if idx+1 < len(in) {
			s1 = in[idx+1]
		}
		out[i][0] = s0[0]*(1-frac) + s1[0]*frac
		out[i][1] = s0[1]*(1-frac) + s1[1]*frac
	}
	return out
}
