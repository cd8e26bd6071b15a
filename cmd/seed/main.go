package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logging"
)

const (
	doctorCount     = 12
	patientCount    = 400
	slotsPerDay     = 6
	slotSpacing     = 45 * time.Minute
	workdayStartUTC = 9
)

func main() {
	_ = godotenv.Load()
	logger := logging.New("seed", os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.Open(ctx, dsn, db.PoolOptions{MaxConns: 4})
	if err != nil {
		logger.Fatal().Err(err).Msg("open postgres")
	}
	defer pool.Close()

	_ = gofakeit.Seed(0)

	doctors, err := seedDoctors(ctx, pool, doctorCount)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	patients, err := seedPatients(ctx, pool, patientCount)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}
	n, err := seedAppointments(ctx, pool, doctors, patients, time.Now().UTC())
	if err != nil {
		logger.Fatal().Err(err).Msg("seed appointments")
	}

	logger.Info().
		Int("doctors", len(doctors)).
		Int("patients", len(patients)).
		Int("appointments", n).
		Msg("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	specialties := []string{
		"General Practice",
		"Cardiology",
		"Dermatology",
		"Pediatrics",
		"Neurology",
		"Endocrinology",
		"Orthopedics",
		"Ophthalmology",
	}

	ids := make([]uuid.UUID, 0, count)
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for i := 0; i < count; i++ {
			id := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO doctors (id, name, specialty)
				VALUES ($1, $2, $3)
			`, id, "Dr. "+gofakeit.Name(), gofakeit.RandomString(specialties))
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	return ids, err
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, count)
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for i := 0; i < count; i++ {
			id := uuid.New()
			dob := gofakeit.DateRange(
				time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
			)
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, contact_info, date_of_birth)
				VALUES ($1, $2, $3, $4)
			`, id, gofakeit.Name(), gofakeit.Phone(), dob)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	return ids, err
}

// seedAppointments fills every weekday of the current month. Slots are
// spaced wider than the conflict window so the data stays consistent.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, doctors, patients []uuid.UUID, now time.Time) (int, error) {
	month, year := int(now.Month()), now.Year()
	days := appointment.DaysIn(month, year)
	notes := []string{"follow-up", "first visit", "lab results review", "prescription renewal", "annual check"}
	n := 0

	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for day := 1; day <= days; day++ {
			date := time.Date(year, time.Month(month), day, workdayStartUTC, 0, 0, 0, time.UTC)
			if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
			for _, doctor := range doctors {
				for slot := 0; slot < slotsPerDay; slot++ {
					if gofakeit.Number(0, 9) < 3 {
						continue
					}
					at := date.Add(time.Duration(slot) * slotSpacing)
					status, lc := lifecycleFor(at, now)

					_, err := tx.Exec(ctx, `
						INSERT INTO appointments (id, patient_id, doctor_id, appointment_time, status, notes,
							arrival_time, consultation_start_time, consultation_end_time)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
					`, uuid.New(), patients[gofakeit.Number(0, len(patients)-1)], doctor, at, string(status),
						gofakeit.RandomString(notes), lc.ArrivalTime, lc.ConsultationStartTime, lc.ConsultationEndTime)
					if err != nil {
						return err
					}
					n++
				}
			}
		}
		return nil
	})
	return n, err
}

// lifecycleFor picks a plausible status for a slot and stamps the matching
// timestamps. Future slots stay scheduled.
func lifecycleFor(at, now time.Time) (appointment.Status, appointment.Lifecycle) {
	var lc appointment.Lifecycle
	if at.After(now) {
		return appointment.StatusScheduled, lc
	}

	switch r := gofakeit.Number(0, 99); {
	case r < 8:
		return appointment.StatusCancelled, lc
	case r < 15:
		return appointment.StatusNoShow, lc
	}

	arrival := at.Add(time.Duration(gofakeit.Number(-10, 10)) * time.Minute)
	start := arrival.Add(time.Duration(gofakeit.Number(0, 40)) * time.Minute)
	end := start.Add(time.Duration(gofakeit.Number(10, 35)) * time.Minute)
	lc.ArrivalTime = &arrival
	lc.ConsultationStartTime = &start
	lc.ConsultationEndTime = &end
	return appointment.StatusCompleted, lc
}
