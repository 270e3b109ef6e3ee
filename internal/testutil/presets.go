package testutil

// WithSequence adds n events whose magnitudes cycle through mags, spaced
// so that the rate decays roughly as 1/t.
func (b *Builder) WithSequence(n int, mags ...float64) *Builder {
	if len(mags) == 0 {
		mags = []float64{4.5, 4.6, 4.8, 5.0, 5.3}
	}
	for i := 0; i < n; i++ {
		days := 0.01 * float64(i+1) * float64(i+1)
		b.WithEvent(Mag(mags[i%len(mags)]), Days(days))
	}
	return b
}
