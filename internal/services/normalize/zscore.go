package normalize

import (
	"math"

	"RiskPulse/internal/domain/models"
)

// RollingWindow is a fixed-size ring of the most recent values.
type RollingWindow struct {
	buf  []float64
	head int // next write position
	n    int
}

func NewRollingWindow(size int) *RollingWindow {
	if size < 1 {
		size = 1
	}
	return &RollingWindow{buf: make([]float64, size)}
}

// Push adds v, evicting the oldest value once the window is full.
func (w *RollingWindow) Push(v float64) {
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	if w.n < len(w.buf) {
		w.n++
	}
}

// Ready reports whether the window holds its full size.
func (w *RollingWindow) Ready() bool { return w.n == len(w.buf) }

func (w *RollingWindow) Len() int { return w.n }

// each visits values oldest first.
func (w *RollingWindow) each(fn func(float64)) {
	start := (w.head - w.n + len(w.buf)) % len(w.buf)
	for i := 0; i < w.n; i++ {
		fn(w.buf[(start+i)%len(w.buf)])
	}
}

// MeanStdDev returns the mean and the population standard deviation
// (denominator n, not n-1) of the current contents. A window of identical
// values has a standard deviation of exactly 0.
func (w *RollingWindow) MeanStdDev() (mean, stdDev float64) {
	if w.n == 0 {
		return 0, 0
	}
	n := float64(w.n)
	sum := 0.0
	lo, hi := math.Inf(1), math.Inf(-1)
	w.each(func(v float64) {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	})
	if lo == hi {
		// sum/n need not round back to the value itself
		return lo, 0
	}
	mean = sum / n

	sq := 0.0
	w.each(func(v float64) {
		d := v - mean
		sq += d * d
	})
	return mean, math.Sqrt(sq / n)
}

// ZScore scores v against the current contents. ok is false until the window is full.
func (w *RollingWindow) ZScore(v float64) (z float64, ok bool) {
	if !w.Ready() {
		return 0, false
	}
	mean, std := w.MeanStdDev()
	if std > 0 {
		return (v - mean) / std, true
	}
	return 0, true
}

// Score attaches to every point the z-score of its value against the window
// of exactly `window` values strictly preceding it. The first `window`
// points score 0 with Scored=false.
func Score(points []models.IndicatorPoint, window int) []models.ScoredPoint {
	out := make([]models.ScoredPoint, len(points))
	w := NewRollingWindow(window)
	for i, p := range points {
		z, ok := w.ZScore(p.Value)
		out[i] = models.ScoredPoint{IndicatorPoint: p, ZScore: z, Scored: ok}
		w.Push(p.Value)
	}
	return out
}
