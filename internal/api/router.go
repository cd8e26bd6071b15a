package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/auth"
)

type RouterConfig struct {
	Appointments AppointmentService
	Directory    DirectoryService
	Auth         auth.Provider
	Logger       zerolog.Logger
	Postgres     Pinger
	Redis        Pinger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/auth/login", loginHandler(cfg.Auth))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Auth))

		r.Post("/auth/logout", logoutHandler(cfg.Auth))
		r.Get("/auth/me", meHandler)

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", createAppointmentHandler(cfg.Appointments))
			r.Get("/", listAppointmentsHandler(cfg.Appointments))
			r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
			r.Put("/{id}", updateAppointmentHandler(cfg.Appointments))
			r.Patch("/{id}", updateAppointmentHandler(cfg.Appointments))
			r.Delete("/{id}", deleteAppointmentHandler(cfg.Appointments))
		})

		r.Route("/patients", func(r chi.Router) {
			r.Post("/", createPatientHandler(cfg.Directory))
			r.Get("/", listPatientsHandler(cfg.Directory))
			r.Get("/{id}", getPatientHandler(cfg.Directory))
			r.Put("/{id}", updatePatientHandler(cfg.Directory))
			r.Delete("/{id}", deletePatientHandler(cfg.Directory))
		})

		r.Get("/doctors", listDoctorsHandler(cfg.Directory))
		r.Get("/doctors/{id}", getDoctorHandler(cfg.Directory))

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", dashboardHandler(cfg.Appointments, pickStats))
			r.Get("/wait-time", dashboardHandler(cfg.Appointments, pickWaitTime))
			r.Get("/consult-time", dashboardHandler(cfg.Appointments, pickConsultTime))
			r.Get("/appointments-by-day", dashboardHandler(cfg.Appointments, pickByDay))
			r.Get("/appointments-by-doctor", dashboardHandler(cfg.Appointments, pickByDoctor))
			r.Get("/appointments-by-status", dashboardHandler(cfg.Appointments, pickByStatus))
			r.Get("/summary", dashboardHandler(cfg.Appointments, pickSummary))
		})
	})

	return r
}
