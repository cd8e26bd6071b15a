package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var dialect = goqu.Dialect("postgres")

var (
	doctorColumns  = []any{"id", "name", "specialty", "created_at"}
	patientColumns = []any{"id", "name", "contact_info", "date_of_birth", "created_at"}
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.ContactInfo, &p.DateOfBirth, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

// nullable turns a nil pointer into an untyped nil so goqu renders NULL.
func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// Query builders

func listDoctorsQuery() (string, []any, error) {
	return dialect.From("doctors").
		Select(doctorColumns...).
		Order(goqu.I("name").Asc()).
		Prepared(true).
		ToSQL()
}

func getDoctorQuery(id uuid.UUID) (string, []any, error) {
	return dialect.From("doctors").
		Select(doctorColumns...).
		Where(goqu.Ex{"id": id.String()}).
		Prepared(true).
		ToSQL()
}

func listPatientsQuery(search string) (string, []any, error) {
	ds := dialect.From("patients").
		Select(patientColumns...).
		Order(goqu.I("name").Asc())

	if search = strings.TrimSpace(search); search != "" {
		ds = ds.Where(goqu.C("name").ILike("%" + likeEscaper.Replace(search) + "%"))
	}

	return ds.Prepared(true).ToSQL()
}

func getPatientQuery(id uuid.UUID) (string, []any, error) {
	return dialect.From("patients").
		Select(patientColumns...).
		Where(goqu.Ex{"id": id.String()}).
		Prepared(true).
		ToSQL()
}

func insertPatientQuery(id uuid.UUID, p NewPatient) (string, []any, error) {
	return dialect.Insert("patients").
		Rows(goqu.Record{
			"id":            id.String(),
			"name":          p.Name,
			"contact_info":  nullable(p.ContactInfo),
			"date_of_birth": nullable(p.DateOfBirth),
		}).
		Returning(patientColumns...).
		Prepared(true).
		ToSQL()
}

func updatePatientQuery(id uuid.UUID, patch PatientPatch) (string, []any, error) {
	rec := goqu.Record{}
	if patch.Name != nil {
		rec["name"] = *patch.Name
	}
	if patch.ContactInfoSet {
		rec["contact_info"] = nullable(patch.ContactInfo)
	}
	if patch.DateOfBirthSet {
		rec["date_of_birth"] = nullable(patch.DateOfBirth)
	}

	return dialect.Update("patients").
		Set(rec).
		Where(goqu.Ex{"id": id.String()}).
		Prepared(true).
		ToSQL()
}

func deletePatientQuery(id uuid.UUID) (string, []any, error) {
	return dialect.Delete("patients").
		Where(goqu.Ex{"id": id.String()}).
		Prepared(true).
		ToSQL()
}

// Interface methods

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	sql, args, err := listDoctorsQuery()
	if err != nil {
		return nil, fmt.Errorf("build list doctors query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	sql, args, err := getDoctorQuery(id)
	if err != nil {
		return nil, fmt.Errorf("build get doctor query: %w", err)
	}
	return scanDoctor(r.pool.QueryRow(ctx, sql, args...))
}

func (r *PgRepository) CreatePatient(ctx context.Context, p NewPatient) (*Patient, error) {
	sql, args, err := insertPatientQuery(uuid.New(), p)
	if err != nil {
		return nil, fmt.Errorf("build insert patient query: %w", err)
	}
	return scanPatient(r.pool.QueryRow(ctx, sql, args...))
}

func (r *PgRepository) ListPatients(ctx context.Context, search string) ([]Patient, error) {
	sql, args, err := listPatientsQuery(search)
	if err != nil {
		return nil, fmt.Errorf("build list patients query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	sql, args, err := getPatientQuery(id)
	if err != nil {
		return nil, fmt.Errorf("build get patient query: %w", err)
	}
	return scanPatient(r.pool.QueryRow(ctx, sql, args...))
}

func (r *PgRepository) UpdatePatient(ctx context.Context, id uuid.UUID, patch PatientPatch) error {
	sql, args, err := updatePatientQuery(id, patch)
	if err != nil {
		return fmt.Errorf("build update patient query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) DeletePatient(ctx context.Context, id uuid.UUID) error {
	sql, args, err := deletePatientQuery(id)
	if err != nil {
		return fmt.Errorf("build delete patient query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}
