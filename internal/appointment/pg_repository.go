package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var dialect = goqu.Dialect("postgres")

const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

var appointmentColumns = []any{
	"id", "patient_id", "doctor_id", "appointment_time", "status", "notes",
	"arrival_time", "consultation_start_time", "consultation_end_time", "created_at",
}

var detailColumns = []any{
	goqu.I("a.id"), goqu.I("a.patient_id"), goqu.I("a.doctor_id"), goqu.I("a.appointment_time"),
	goqu.I("a.status"), goqu.I("a.notes"), goqu.I("a.arrival_time"),
	goqu.I("a.consultation_start_time"), goqu.I("a.consultation_end_time"), goqu.I("a.created_at"),
	goqu.I("p.id"), goqu.I("p.name"), goqu.I("d.id"), goqu.I("d.name"),
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentTime, &a.Status, &a.Notes,
		&a.ArrivalTime, &a.ConsultationStartTime, &a.ConsultationEndTime, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var (
		d           AppointmentDetail
		patientID   *uuid.UUID
		patientName *string
		doctorID    *uuid.UUID
		doctorName  *string
	)
	err := row.Scan(
		&d.ID, &d.PatientID, &d.DoctorID, &d.AppointmentTime, &d.Status, &d.Notes,
		&d.ArrivalTime, &d.ConsultationStartTime, &d.ConsultationEndTime, &d.CreatedAt,
		&patientID, &patientName, &doctorID, &doctorName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	d.Patient = partyRef(patientID, patientName)
	d.Doctor = partyRef(doctorID, doctorName)
	return &d, nil
}

func partyRef(id *uuid.UUID, name *string) *PartyRef {
	if id == nil {
		return nil
	}
	ref := &PartyRef{ID: *id}
	if name != nil {
		ref.Name = *name
	}
	return ref
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func statusValues(ss []Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

// mapWriteError turns constraint violations into caller errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgForeignKeyViolation:
		switch pgErr.ConstraintName {
		case "appointments_patient_id_fkey":
			return ErrUnknownPatient
		case "appointments_doctor_id_fkey":
			return ErrUnknownDoctor
		}
	case pgCheckViolation:
		if pgErr.ConstraintName == "appointments_status_check" {
			return fmt.Errorf("%w: %s", ErrInvalidStatus, pgErr.Message)
		}
	}
	return err
}

// Query builders

func detailDataset() *goqu.SelectDataset {
	return dialect.From(goqu.T("appointments").As("a")).
		Select(detailColumns...).
		LeftJoin(goqu.T("patients").As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("a.patient_id")))).
		LeftJoin(goqu.T("doctors").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("a.doctor_id"))))
}

func insertAppointmentQuery(id uuid.UUID, in NewAppointment) (string, []any, error) {
	return dialect.Insert("appointments").
		Rows(goqu.Record{
			"id":               id.String(),
			"patient_id":       in.PatientID.String(),
			"doctor_id":        nullableUUID(in.DoctorID),
			"appointment_time": in.AppointmentTime.UTC(),
			"status":           string(StatusScheduled),
			"notes":            nullable(in.Notes),
		}).
		Returning(appointmentColumns...).
		Prepared(true).
		ToSQL()
}

func getAppointmentQuery(id uuid.UUID) (string, []any, error) {
	return dialect.From("appointments").
		Select(appointmentColumns...).
		Where(goqu.Ex{"id": id.String()}).
		Prepared(true).
		ToSQL()
}

func getDetailQuery(id uuid.UUID) (string, []any, error) {
	return detailDataset().
		Where(goqu.I("a.id").Eq(id.String())).
		Prepared(true).
		ToSQL()
}

func listQuery(f ListFilter) (string, []any, error) {
	var where []exp.Expression

	if f.Date != nil {
		day := time.Date(f.Date.UTC().Year(), f.Date.UTC().Month(), f.Date.UTC().Day(), 0, 0, 0, 0, time.UTC)
		where = append(where,
			goqu.I("a.appointment_time").Gte(day),
			goqu.I("a.appointment_time").Lt(day.Add(24*time.Hour)),
		)
	}
	if f.Status != nil {
		where = append(where, goqu.I("a.status").Eq(string(*f.Status)))
	}
	if f.DoctorID != nil {
		where = append(where, goqu.I("a.doctor_id").Eq(f.DoctorID.String()))
	}
	if name := strings.TrimSpace(f.PatientName); name != "" {
		where = append(where, goqu.I("p.name").ILike("%"+likeEscaper.Replace(name)+"%"))
	}
	if len(f.ExcludeStatuses) > 0 {
		where = append(where, goqu.I("a.status").NotIn(statusValues(f.ExcludeStatuses)))
	}
	if len(f.IncludeStatuses) > 0 {
		where = append(where, goqu.I("a.status").In(statusValues(f.IncludeStatuses)))
	}

	ds := detailDataset().Where(where...)

	var primary exp.OrderedExpression
	switch f.SortBy {
	case SortStatus:
		primary = orderBy(goqu.I("a.status"), f.SortDesc)
	case SortPatientName:
		// missing patients sort as an empty name
		primary = orderBy(goqu.COALESCE(goqu.Func("LOWER", goqu.I("p.name")), ""), f.SortDesc)
	default:
		primary = orderBy(goqu.I("a.appointment_time"), f.SortDesc)
	}
	ds = ds.Order(primary, goqu.I("a.appointment_time").Asc(), goqu.I("a.id").Asc())

	return ds.Prepared(true).ToSQL()
}

func orderBy(e exp.Orderable, desc bool) exp.OrderedExpression {
	if desc {
		return e.Desc()
	}
	return e.Asc()
}

func rangeQuery(from, to time.Time) (string, []any, error) {
	return detailDataset().
		Where(
			goqu.I("a.appointment_time").Gte(from.UTC()),
			goqu.I("a.appointment_time").Lte(to.UTC()),
		).
		Order(goqu.I("a.appointment_time").Asc()).
		Prepared(true).
		ToSQL()
}

func windowQuery(q WindowQuery) (string, []any, error) {
	where := []exp.Expression{
		goqu.C("doctor_id").Eq(q.DoctorID.String()),
		goqu.C("appointment_time").Gte(q.From.UTC()),
		goqu.C("appointment_time").Lte(q.To.UTC()),
	}
	if q.ExcludeID != nil {
		where = append(where, goqu.C("id").Neq(q.ExcludeID.String()))
	}
	if len(q.ExcludeStatuses) > 0 {
		where = append(where, goqu.C("status").NotIn(statusValues(q.ExcludeStatuses)))
	}

	return dialect.From("appointments").
		Select(appointmentColumns...).
		Where(where...).
		Order(goqu.C("appointment_time").Asc()).
		Prepared(true).
		ToSQL()
}

// updateQuery sets only the changed columns. Lifecycle stamps go through
// COALESCE so an existing value is never overwritten.
func updateQuery(id uuid.UUID, c Changes) (string, []any, error) {
	rec := goqu.Record{}
	if c.DoctorIDSet {
		rec["doctor_id"] = nullableUUID(c.DoctorID)
	}
	if c.AppointmentTime != nil {
		rec["appointment_time"] = c.AppointmentTime.UTC()
	}
	if c.NotesSet {
		rec["notes"] = nullable(c.Notes)
	}
	if c.Status != nil {
		rec["status"] = string(*c.Status)
	}
	stamp := func(col string, t *time.Time) {
		if t != nil {
			rec[col] = goqu.COALESCE(goqu.C(col), t.UTC())
		}
	}
	stamp("arrival_time", c.Stamped.ArrivalTime)
	stamp("consultation_start_time", c.Stamped.ConsultationStartTime)
	stamp("consultation_end_time", c.Stamped.ConsultationEndTime)

	return dialect.Update("appointments").
		Set(rec).
		Where(goqu.Ex{"id": id.String()}).
		Prepared(true).
		ToSQL()
}

func deleteQuery(id uuid.UUID) (string, []any, error) {
	return dialect.Delete("appointments").
		Where(goqu.Ex{"id": id.String()}).
		Prepared(true).
		ToSQL()
}

func countByPatientQuery(patientID uuid.UUID) (string, []any, error) {
	return dialect.From("appointments").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"patient_id": patientID.String()}).
		Prepared(true).
		ToSQL()
}

// Interface methods

func (r *PgRepository) CreateAppointment(ctx context.Context, in NewAppointment) (*Appointment, error) {
	sql, args, err := insertAppointmentQuery(uuid.New(), in)
	if err != nil {
		return nil, fmt.Errorf("build insert appointment query: %w", err)
	}

	a, err := scanAppointment(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return a, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	sql, args, err := getAppointmentQuery(id)
	if err != nil {
		return nil, fmt.Errorf("build get appointment query: %w", err)
	}
	return scanAppointment(r.pool.QueryRow(ctx, sql, args...))
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	sql, args, err := getDetailQuery(id)
	if err != nil {
		return nil, fmt.Errorf("build get appointment detail query: %w", err)
	}
	return scanDetail(r.pool.QueryRow(ctx, sql, args...))
}

func (r *PgRepository) ListAppointments(ctx context.Context, f ListFilter) ([]AppointmentDetail, error) {
	sql, args, err := listQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build list appointments query: %w", err)
	}
	return r.queryDetails(ctx, sql, args)
}

func (r *PgRepository) ListAppointmentsInRange(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	sql, args, err := rangeQuery(from, to)
	if err != nil {
		return nil, fmt.Errorf("build range query: %w", err)
	}
	return r.queryDetails(ctx, sql, args)
}

func (r *PgRepository) queryDetails(ctx context.Context, sql string, args []any) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) FindDoctorAppointments(ctx context.Context, q WindowQuery) ([]Appointment, error) {
	sql, args, err := windowQuery(q)
	if err != nil {
		return nil, fmt.Errorf("build window query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, id uuid.UUID, c Changes) error {
	sql, args, err := updateQuery(id, c)
	if err != nil {
		return fmt.Errorf("build update appointment query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	sql, args, err := deleteQuery(id)
	if err != nil {
		return fmt.Errorf("build delete appointment query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	sql, args, err := countByPatientQuery(patientID)
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
