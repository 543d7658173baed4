package audio

import "math"

// VolumeGain scales the RMS of a frame into the [0, 1] meter range.
const VolumeGain = 5.0

func Volume(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))

	return math.Min(math.Max(rms*VolumeGain, 0), 1)
}
