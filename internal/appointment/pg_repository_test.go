package appointment

import (
	"errors"
	"regexp"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

func TestWindowQuery(t *testing.T) {
	doctor := uuid.New()
	self := uuid.New()

	sql, args, err := windowQuery(WindowQuery{
		DoctorID:        doctor,
		From:            at("2024-03-05T09:30:00Z"),
		To:              at("2024-03-05T10:30:00Z"),
		ExcludeID:       &self,
		ExcludeStatuses: []Status{StatusCancelled, StatusNoShow},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, `FROM "appointments"`)
	assert.Contains(t, sql, `"appointment_time" >=`)
	assert.Contains(t, sql, `"appointment_time" <=`)
	assert.Contains(t, sql, `NOT IN`)
	assert.Len(t, args, 6)
	assert.Contains(t, args, doctor.String())
	assert.Contains(t, args, self.String())
	assert.Contains(t, args, "cancelled")
}

func TestListQueryFilters(t *testing.T) {
	doctor := uuid.New()
	day := at("2024-03-05T15:00:00Z")

	sql, args, err := listQuery(ListFilter{
		Date:            &day,
		DoctorID:        &doctor,
		PatientName:     "ana",
		IncludeStatuses: []Status{StatusWaiting},
		SortBy:          SortPatientName,
	})
	require.NoError(t, err)

	assert.Contains(t, sql, `LEFT JOIN "patients" AS "p"`)
	assert.Contains(t, sql, `LEFT JOIN "doctors" AS "d"`)
	assert.Contains(t, sql, `ILIKE`)
	assert.Contains(t, sql, `LOWER("p"."name")`)
	assert.Contains(t, sql, `COALESCE(LOWER("p"."name")`)
	assert.Contains(t, args, "%ana%")
	assert.Contains(t, args, at("2024-03-05T00:00:00Z"))
	assert.Contains(t, args, at("2024-03-06T00:00:00Z"))
}

func TestListQueryDefaultsToTimeOrder(t *testing.T) {
	sql, args, err := listQuery(ListFilter{SortDesc: true})
	require.NoError(t, err)

	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, `ORDER BY "a"."appointment_time" DESC`)
	assert.Empty(t, args)
}

func TestUpdateQueryStampsWithCoalesce(t *testing.T) {
	arrival := at("2024-03-05T10:07:00Z")
	st := StatusWaiting

	sql, _, err := updateQuery(uuid.New(), Changes{Status: &st, Stamped: Lifecycle{ArrivalTime: &arrival}})
	require.NoError(t, err)
	assert.Contains(t, sql, `COALESCE("arrival_time"`)
	assert.NotContains(t, sql, "consultation_start_time")

	sql, args, err := updateQuery(uuid.New(), Changes{DoctorIDSet: true})
	require.NoError(t, err)
	assert.Nil(t, boundArg(t, sql, args, "doctor_id"))
	assert.Len(t, args, 2)
	assert.NotContains(t, sql, "COALESCE")
}

// boundArg returns the argument bound to col in a prepared SET clause.
func boundArg(t *testing.T, sql string, args []any, col string) any {
	t.Helper()
	m := regexp.MustCompile(`"` + col + `"=\$(\d+)`).FindStringSubmatch(sql)
	require.NotNil(t, m, "%s not set in %s", col, sql)
	n, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	require.LessOrEqual(t, n, len(args))
	return args[n-1]
}

func TestInsertQueryReturnsRow(t *testing.T) {
	sql, args, err := insertAppointmentQuery(uuid.New(), NewAppointment{PatientID: uuid.New(), AppointmentTime: at("2024-03-05T10:00:00Z")})
	require.NoError(t, err)

	assert.Contains(t, sql, `INSERT INTO "appointments"`)
	assert.Contains(t, sql, `RETURNING`)
	assert.Contains(t, args, "scheduled")
}

func TestMapWriteError(t *testing.T) {
	fk := func(constraint string) error {
		return &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: constraint}
	}

	assert.ErrorIs(t, mapWriteError(fk("appointments_patient_id_fkey")), ErrUnknownPatient)
	assert.ErrorIs(t, mapWriteError(fk("appointments_doctor_id_fkey")), ErrUnknownDoctor)

	check := mapWriteError(&pgconn.PgError{Code: pgCheckViolation, ConstraintName: "appointments_status_check"})
	assert.True(t, apperr.Is(check, apperr.CodeValidation))

	plain := errors.New("broken pipe")
	assert.Equal(t, plain, mapWriteError(plain))
}
