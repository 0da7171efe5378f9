package format

import (
	"fmt"
	"strings"
	"time"
)

// maxETA caps estimates produced from very slow early samples.
const maxETA = 24 * time.Hour

// etaSmoothing is the weight of the newest rate sample in the exponential
// moving average.
const etaSmoothing = 0.3

// ProgressWithETA tracks completion of a fixed number of units and estimates
// the time remaining from a smoothed completion rate.
//
// It is not safe for concurrent use.
type ProgressWithETA struct {
	total        int
	completed    int
	progressRate float64 // units per second
	startTime    time.Time
	now          func() time.Time
}

// NewProgressWithETA creates a tracker for total units, starting now.
func NewProgressWithETA(total int) *ProgressWithETA {
	return newProgressWithClock(total, time.Now)
}

func newProgressWithClock(total int, now func() time.Time) *ProgressWithETA {
	return &ProgressWithETA{total: total, startTime: now(), now: now}
}

// Advance marks n more units as completed and returns the completion fraction
// and the estimated time remaining.
func (p *ProgressWithETA) Advance(n int) (float64, time.Duration) {
	p.completed += n
	if p.completed > p.total {
		p.completed = p.total
	}
	if elapsed := p.now().Sub(p.startTime).Seconds(); elapsed > 0 {
		sample := float64(p.completed) / elapsed
		if p.progressRate == 0 {
			p.progressRate = sample
		} else {
			p.progressRate = etaSmoothing*sample + (1-etaSmoothing)*p.progressRate
		}
	}
	return p.Fraction(), p.ETA()
}

// Completed returns the number of completed units.
func (p *ProgressWithETA) Completed() int { return p.completed }

// Fraction returns completed/total, or 1 when total is zero.
func (p *ProgressWithETA) Fraction() float64 {
	if p.total <= 0 {
		return 1
	}
	return float64(p.completed) / float64(p.total)
}

// ETA returns the estimated time remaining, 0 when unknown or done.
func (p *ProgressWithETA) ETA() time.Duration {
	remaining := p.total - p.completed
	if remaining <= 0 || p.progressRate <= 0 {
		return 0
	}
	eta := time.Duration(float64(remaining) / p.progressRate * float64(time.Second))
	if eta > maxETA || eta < 0 {
		return maxETA
	}
	return eta
}

// FormatETA renders an ETA for a progress line.
//
// Parameters:
//   - eta: The estimated time remaining. Zero means unknown.
//
// Returns:
//   - string: "calculating..." for zero, otherwise a rounded duration.
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Minute {
		return fmt.Sprintf("%ds", int(eta.Round(time.Second).Seconds()))
	}
	return eta.Round(time.Second).String()
}

// ProgressBar renders a bar of length cells for a fraction in [0, 1].
// Values outside the range are clamped.
func ProgressBar(fraction float64, length int) string {
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(length))
	return strings.Repeat("\u2588", filled) + strings.Repeat("\u2591", length-filled)
}

// FormatProgressBarWithETA renders "[bar] pct% ETA: eta".
func FormatProgressBarWithETA(fraction float64, eta time.Duration, width int) string {
	return fmt.Sprintf("[%s] %5.1f%% ETA: %s", ProgressBar(fraction, width), fraction*100, FormatETA(eta))
}

// FormatNumberString inserts thousand separators into a decimal string.
func FormatNumberString(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
