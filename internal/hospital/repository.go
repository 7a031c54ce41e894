package hospital

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilink/platform/internal/shared/errors"
)

// Repository provides database operations for hospitals
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new hospital repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListHospitals retrieves all hospitals ordered by id
func (r *Repository) ListHospitals(ctx context.Context) ([]Hospital, error) {
	query := `
		SELECT id, name, latitude, longitude,
			icu_beds_available, icu_beds_total, has_trauma, blood_stock
		FROM hospitals
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list hospitals")
	}
	defer rows.Close()

	var hospitals []Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan hospital")
		}
		hospitals = append(hospitals, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read hospitals")
	}

	return hospitals, nil
}

// GetHospital retrieves a hospital by ID
func (r *Repository) GetHospital(ctx context.Context, id string) (*Hospital, error) {
	numericID, err := strconv.Atoi(id)
	if err != nil {
		return nil, errors.BadRequest("invalid hospital ID")
	}

	query := `
		SELECT id, name, latitude, longitude,
			icu_beds_available, icu_beds_total, has_trauma, blood_stock
		FROM hospitals
		WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, numericID)
	h, err := scanHospital(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("hospital", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get hospital")
	}

	return &h, nil
}

// Count returns the number of hospitals in the store
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hospitals`).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count hospitals")
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
		INSERT INTO hospitals (
			id, name, latitude, longitude,
			icu_beds_available, icu_beds_total, has_trauma, blood_stock
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, h := range SeedSet() {
		id, err := strconv.Atoi(h.ID)
		if err != nil {
			return errors.Wrap(err, "invalid seed hospital id")
		}
		_, err = r.pool.Exec(ctx, query,
			id, h.Name, h.Latitude, h.Longitude,
			h.ICUBedsAvailable, h.ICUBedsTotal, h.HasTrauma, h.BloodStock,
		)
		if err != nil {
			return errors.Wrap(err, "failed to seed hospital")
		}
	}

	// Keep the sequence ahead of the explicit seed ids
	_, err = r.pool.Exec(ctx, `SELECT setval('hospitals_id_seq', (SELECT MAX(id) FROM hospitals))`)
	if err != nil {
		return errors.Wrap(err, "failed to advance hospitals sequence")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHospital(row rowScanner) (Hospital, error) {
	var (
		h  Hospital
		id int
	)
	err := row.Scan(
		&id, &h.Name, &h.Latitude, &h.Longitude,
		&h.ICUBedsAvailable, &h.ICUBedsTotal, &h.HasTrauma, &h.BloodStock,
	)
	if err != nil {
		return Hospital{}, err
	}
	h.ID = strconv.Itoa(id)
	if h.BloodStock == nil {
		h.BloodStock = map[string]int{}
	}
	return h, nil
}
