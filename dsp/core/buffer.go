package core

// EnsureLen returns a slice with the requested length, reusing buf capacity
// when possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// HardClip limits every sample in buf to [-1, 1]. Applied once at the output
// stage of the preview path; the DSP chain itself never clamps.
func HardClip(buf []float64) {
	for i, x := range buf {
		if x > 1 {
			buf[i] = 1
		} else if x < -1 {
			buf[i] = -1
		}
	}
}
