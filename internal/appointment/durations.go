package appointment

import "time"

// Durations are derived from the lifecycle timestamps. A nil value means the
// interval is unavailable: a timestamp is missing or the interval is negative.
type Durations struct {
	WaitSeconds         *int64
	ConsultationSeconds *int64

	// Set when both timestamps exist but the end precedes the start.
	NegativeWait         bool
	NegativeConsultation bool
}

// ComputeDurations is pure and total. Timestamps are compared in UTC.
func ComputeDurations(l Lifecycle) Durations {
	var d Durations
	d.WaitSeconds, d.NegativeWait = interval(l.ArrivalTime, l.ConsultationStartTime)
	d.ConsultationSeconds, d.NegativeConsultation = interval(l.ConsultationStartTime, l.ConsultationEndTime)
	return d
}

func interval(start, end *time.Time) (*int64, bool) {
	if start == nil || end == nil {
		return nil, false
	}
	s, e := start.UTC(), end.UTC()
	if e.Before(s) {
		return nil, true
	}
	secs := int64(e.Sub(s) / time.Second)
	return &secs, false
}

// Inconsistent reports whether any interval was discarded as negative.
func (d Durations) Inconsistent() bool {
	return d.NegativeWait || d.NegativeConsultation
}

func wholeMinutes(secs *int64) (int64, bool) {
	if secs == nil {
		return 0, false
	}
	return *secs / 60, true
}
