package patient

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilink/platform/internal/shared/errors"
)

// Repository provides database operations for patients
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new patient repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const patientColumns = `id, name, age, blood_type, photo, medical_history, face_descriptor`

// ListPatients retrieves all patients ordered by id
func (r *Repository) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list patients")
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan patient")
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read patients")
	}

	return patients, nil
}

// GetPatient retrieves a patient by ID
func (r *Repository) GetPatient(ctx context.Context, id string) (*Patient, error) {
	numericID, err := strconv.Atoi(id)
	if err != nil {
		return nil, errors.BadRequest("invalid patient ID")
	}

	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, numericID)
	p, err := scanPatient(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("patient", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get patient")
	}

	return &p, nil
}

// FindByBloodType retrieves the first patient with the given blood type
func (r *Repository) FindByBloodType(ctx context.Context, bloodType string) (*Patient, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE blood_type = $1 ORDER BY id LIMIT 1`,
		bloodType,
	)
	p, err := scanPatient(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("patient", bloodType)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find patient by blood type")
	}

	return &p, nil
}

// CreatePatient inserts a patient and assigns its id
func (r *Repository) CreatePatient(ctx context.Context, p *Patient) error {
	query := `
		INSERT INTO patients (name, age, blood_type, photo, medical_history, face_descriptor)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int
	err := r.pool.QueryRow(ctx, query,
		p.Name, p.Age, p.BloodType, nullableString(p.Photo), p.MedicalHistory, p.FaceDescriptor,
	).Scan(&id)
	if err != nil {
		return errors.Wrap(err, "failed to create patient")
	}

	p.ID = strconv.Itoa(id)
	return nil
}

// UpdatePatient updates a patient record in place
func (r *Repository) UpdatePatient(ctx context.Context, p *Patient) error {
	numericID, err := strconv.Atoi(p.ID)
	if err != nil {
		return errors.BadRequest("invalid patient ID")
	}

	query := `
		UPDATE patients SET
			name = $2, age = $3, blood_type = $4, photo = $5,
			medical_history = $6, face_descriptor = $7, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		numericID, p.Name, p.Age, p.BloodType, nullableString(p.Photo),
		p.MedicalHistory, p.FaceDescriptor,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update patient")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("patient", p.ID)
	}

	return nil
}

// NextID returns the id the next created patient would receive
func (r *Repository) NextID(ctx context.Context) (string, error) {
	var max int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM patients`).Scan(&max)
	if err != nil {
		return "", errors.Wrap(err, "failed to query max patient id")
	}
	return strconv.Itoa(max + 1), nil
}

// Count returns the number of patients in the store
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count patients")
	}
	return count, nil
}

// Seed inserts the demo dataset if the table is empty.
func (r *Repository) Seed(ctx context.Context) error {
	count, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	query := `
		INSERT INTO patients (id, name, age, blood_type, photo, medical_history, face_descriptor)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, p := range SeedSet() {
		id, err := strconv.Atoi(p.ID)
		if err != nil {
			return errors.Wrap(err, "invalid seed patient id")
		}
		_, err = r.pool.Exec(ctx, query,
			id, p.Name, p.Age, p.BloodType, nullableString(p.Photo),
			p.MedicalHistory, p.FaceDescriptor,
		)
		if err != nil {
			return errors.Wrap(err, "failed to seed patient")
		}
	}

	// Keep the sequence ahead of the explicit seed ids
	_, err = r.pool.Exec(ctx, `SELECT setval('patients_id_seq', (SELECT MAX(id) FROM patients))`)
	if err != nil {
		return errors.Wrap(err, "failed to advance patients sequence")
	}

	return nil
}

func scanPatient(row rowScanner) (Patient, error) {
	var (
		p     Patient
		id    int
		photo *string
	)
	err := row.Scan(&id, &p.Name, &p.Age, &p.BloodType, &photo, &p.MedicalHistory, &p.FaceDescriptor)
	if err != nil {
		return Patient{}, err
	}
	p.ID = strconv.Itoa(id)
	if photo != nil {
		p.Photo = *photo
	}
	if p.MedicalHistory == nil {
		p.MedicalHistory = map[string]any{}
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
