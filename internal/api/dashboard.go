package api

import (
	"net/http"
	"strconv"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

func monthYear(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	rawMonth, rawYear := q.Get("month"), q.Get("year")
	if rawMonth == "" || rawYear == "" {
		return 0, 0, apperr.Validation("month and year query parameters are required")
	}

	month, err := strconv.Atoi(rawMonth)
	if err != nil {
		return 0, 0, apperr.Validation("month must be an integer")
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return 0, 0, apperr.Validation("year must be an integer")
	}
	if month < 1 || month > 12 {
		return 0, 0, apperr.Validation("month must be between 1 and 12")
	}
	return month, year, nil
}

// dashboardHandler runs the monthly aggregation once and renders the part
// selected by pick.
func dashboardHandler(svc AppointmentService, pick func(SummaryResponse) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month, year, err := monthYear(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		stats, err := svc.MonthlyStats(r.Context(), month, year)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pick(toSummary(stats)))
	}
}

func pickStats(s SummaryResponse) any       { return s.StatsResponse }
func pickWaitTime(s SummaryResponse) any    { return s.WaitTime }
func pickConsultTime(s SummaryResponse) any { return s.ConsultTime }
func pickByDay(s SummaryResponse) any       { return s.AppointmentsByDay }
func pickByDoctor(s SummaryResponse) any    { return s.AppointmentsByDoctor }
func pickByStatus(s SummaryResponse) any    { return s.AppointmentsByStatus }
func pickSummary(s SummaryResponse) any     { return s }
