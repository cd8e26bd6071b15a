package appointment

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

type DayCount struct {
	Day   int
	Count int
}

// DayAverage is the mean of whole minutes for one day, 0 without data.
type DayAverage struct {
	Day     int
	Minutes int
}

type DoctorCount struct {
	DoctorID   uuid.UUID
	DoctorName string
	Count      int
}

type StatusCount struct {
	Status Status
	Count  int
}

// Stats is the monthly aggregate. Day series are dense over the month.
type Stats struct {
	Month int
	Year  int

	TotalAppointments int
	AvgWaitMinutes    int
	AvgConsultMinutes int

	CountByDay    []DayCount
	WaitByDay     []DayAverage
	ConsultByDay  []DayAverage
	CountByDoctor []DoctorCount
	CountByStatus []StatusCount
}

func validateMonth(month, year int) error {
	if month < 1 || month > 12 {
		return apperr.Validation(fmt.Sprintf("month must be between 1 and 12, got %d", month))
	}
	if year < 1 || year > 9999 {
		return apperr.Validation(fmt.Sprintf("year out of range: %d", year))
	}
	return nil
}

// DaysIn returns the number of days in the month of year.
func DaysIn(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns [first day 00:00:00, last day 23:59:59] in UTC.
func MonthRange(month, year int) (time.Time, time.Time, error) {
	if err := validateMonth(month, year); err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.Month(month), DaysIn(month, year), 23, 59, 59, 0, time.UTC)
	return from, to, nil
}

type minuteSeries struct {
	sum int64
	n   int64
}

func (m *minuteSeries) add(secs *int64) {
	if mins, ok := wholeMinutes(secs); ok {
		m.sum += mins
		m.n++
	}
}

// mean rounds half to even.
func (m minuteSeries) mean() int {
	if m.n == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(m.sum) / float64(m.n)))
}

// Aggregate computes the monthly stats in one pass. Appointments whose UTC
// date falls outside month/year are skipped.
func Aggregate(appts []AppointmentDetail, month, year int) (Stats, error) {
	if err := validateMonth(month, year); err != nil {
		return Stats{}, err
	}

	days := DaysIn(month, year)
	counts := make([]int, days)
	waits := make([]minuteSeries, days)
	consults := make([]minuteSeries, days)
	var waitAll, consultAll minuteSeries

	byDoctor := map[uuid.UUID]*DoctorCount{}
	byStatus := map[Status]int{}
	var extraStatuses []Status

	total := 0
	for _, a := range appts {
		t := a.AppointmentTime.UTC()
		if t.Year() != year || int(t.Month()) != month {
			continue
		}
		total++
		i := t.Day() - 1
		counts[i]++

		d := ComputeDurations(a.Lifecycle)
		waits[i].add(d.WaitSeconds)
		consults[i].add(d.ConsultationSeconds)
		waitAll.add(d.WaitSeconds)
		consultAll.add(d.ConsultationSeconds)

		if a.Doctor != nil {
			dc, ok := byDoctor[a.Doctor.ID]
			if !ok {
				dc = &DoctorCount{DoctorID: a.Doctor.ID, DoctorName: a.Doctor.Name}
				byDoctor[a.Doctor.ID] = dc
			}
			dc.Count++
		}

		if _, seen := byStatus[a.Status]; !seen && !a.Status.Valid() {
			extraStatuses = append(extraStatuses, a.Status)
		}
		byStatus[a.Status]++
	}

	s := Stats{
		Month:             month,
		Year:              year,
		TotalAppointments: total,
		AvgWaitMinutes:    waitAll.mean(),
		AvgConsultMinutes: consultAll.mean(),
		CountByDay:        make([]DayCount, days),
		WaitByDay:         make([]DayAverage, days),
		ConsultByDay:      make([]DayAverage, days),
	}
	for i := 0; i < days; i++ {
		s.CountByDay[i] = DayCount{Day: i + 1, Count: counts[i]}
		s.WaitByDay[i] = DayAverage{Day: i + 1, Minutes: waits[i].mean()}
		s.ConsultByDay[i] = DayAverage{Day: i + 1, Minutes: consults[i].mean()}
	}

	s.CountByDoctor = make([]DoctorCount, 0, len(byDoctor))
	for _, dc := range byDoctor {
		s.CountByDoctor = append(s.CountByDoctor, *dc)
	}
	sort.Slice(s.CountByDoctor, func(i, j int) bool {
		a, b := s.CountByDoctor[i], s.CountByDoctor[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if an, bn := strings.ToLower(a.DoctorName), strings.ToLower(b.DoctorName); an != bn {
			return an < bn
		}
		return a.DoctorID.String() < b.DoctorID.String()
	})

	s.CountByStatus = make([]StatusCount, 0, len(Statuses)+len(extraStatuses))
	for _, st := range append(append([]Status{}, Statuses...), extraStatuses...) {
		s.CountByStatus = append(s.CountByStatus, StatusCount{Status: st, Count: byStatus[st]})
	}

	return s, nil
}
