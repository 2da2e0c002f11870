package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/i-m-alive/Visitor-Log-Book/internal/facematch"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry"
)

// VisitorRepository implements registry.Store on PostgreSQL.
type VisitorRepository struct {
	pool *Pool
}

// NewVisitorRepository creates a new PostgreSQL visitor repository.
func NewVisitorRepository(pool *Pool) *VisitorRepository {
	return &VisitorRepository{pool: pool}
}

const visitorColumns = `
	id, face_id, face_embedding, name, age, gender, email, phone,
	address, purpose, person_to_meet, person_email, person_phone,
	location, photo_url, check_in_time, check_out_time
`

// SnapshotPresent returns all visitors without a check-out time, ordered by
// ascending ID. This is a point-in-time read, not a transaction.
func (r *VisitorRepository) SnapshotPresent(ctx context.Context) ([]registry.Visitor, error) {
	query := `
		SELECT ` + visitorColumns + `
		FROM visitors
		WHERE check_out_time IS NULL
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query present visitors: %w", err)
	}
	defer rows.Close()

	return scanVisitors(rows)
}

// TryDepart sets the check-out time if and only if the record is still
// present. The conditional WHERE clause makes this the single serialization
// point for concurrent exit attempts, including across process instances.
func (r *VisitorRepository) TryDepart(ctx context.Context, id int64, now time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE visitors
		SET check_out_time = $2
		WHERE id = $1 AND check_out_time IS NULL
	`, id, now)
	if err != nil {
		return false, fmt.Errorf("depart visitor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected == 1, nil
}

// Insert durably creates a new presence record.
func (r *VisitorRepository) Insert(ctx context.Context, v registry.NewVisitor) (registry.Visitor, error) {
	query := `
		INSERT INTO visitors (
			face_id, face_embedding, name, age, gender, email, phone,
			address, purpose, person_to_meet, person_email, person_phone,
			location, photo_url, check_in_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	var age sql.NullInt64
	if v.Details.Age != nil {
		age = sql.NullInt64{Int64: int64(*v.Details.Age), Valid: true}
	}
	var photoURL sql.NullString
	if v.PhotoURL != "" {
		photoURL = sql.NullString{String: v.PhotoURL, Valid: true}
	}

	var id int64
	err := r.pool.QueryRow(ctx, query,
		v.FaceID,
		pgvector.NewVector(v.Embedding),
		v.Details.Name,
		age,
		v.Details.Gender,
		v.Details.Email,
		v.Details.Phone,
		v.Details.Address,
		v.Details.Purpose,
		v.Details.PersonToMeet,
		v.Details.PersonEmail,
		v.Details.PersonPhone,
		v.Details.Location,
		photoURL,
		v.CheckInTime,
	).Scan(&id)
	if err != nil {
		return registry.Visitor{}, fmt.Errorf("insert visitor: %w", err)
	}

	return registry.Visitor{
		ID:             id,
		FaceID:         v.FaceID,
		Embedding:      v.Embedding,
		VisitorDetails: v.Details,
		PhotoURL:       v.PhotoURL,
		CheckInTime:    v.CheckInTime,
	}, nil
}

// GetByFaceID returns the visitor with the given face ID, or nil if not found.
func (r *VisitorRepository) GetByFaceID(ctx context.Context, faceID string) (*registry.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE face_id = $1`

	row := r.pool.QueryRow(ctx, query, faceID)
	v, err := scanVisitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get visitor by face ID: %w", err)
	}
	return v, nil
}

// ListAll returns visitors ordered by ascending ID, paged.
func (r *VisitorRepository) ListAll(ctx context.Context, limit, offset int) ([]registry.Visitor, error) {
	query := `
		SELECT ` + visitorColumns + `
		FROM visitors
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	defer rows.Close()

	return scanVisitors(rows)
}

// CountPresent returns the number of visitors without a check-out time.
func (r *VisitorRepository) CountPresent(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM visitors WHERE check_out_time IS NULL").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count present visitors: %w", err)
	}
	return count, nil
}

// CountAll returns the total number of records.
func (r *VisitorRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM visitors").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count visitors: %w", err)
	}
	return count, nil
}

// FindPresentByHost returns present visitors whose person_to_meet matches the
// given name. Names are normalized on both sides (lowercase, no diacritics,
// dashes to spaces) so "jan-novak" matches "Jan Novák".
func (r *VisitorRepository) FindPresentByHost(ctx context.Context, hostName string) ([]registry.Visitor, error) {
	normalized := facematch.NormalizePersonName(hostName)

	query := `
		SELECT ` + visitorColumns + `
		FROM visitors
		WHERE check_out_time IS NULL
		  AND LOWER(REPLACE(unaccent(person_to_meet), '-', ' ')) = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, normalized)
	if err != nil {
		return nil, fmt.Errorf("query visitors by host: %w", err)
	}
	defer rows.Close()

	return scanVisitors(rows)
}

// rowScanner abstracts sql.Row and sql.Rows for the shared scan helper.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisitor(row rowScanner) (*registry.Visitor, error) {
	var v registry.Visitor
	var vec pgvector.Vector
	var age sql.NullInt64
	var photoURL sql.NullString
	var checkOut sql.NullTime

	err := row.Scan(
		&v.ID,
		&v.FaceID,
		&vec,
		&v.Name,
		&age,
		&v.Gender,
		&v.Email,
		&v.Phone,
		&v.Address,
		&v.Purpose,
		&v.PersonToMeet,
		&v.PersonEmail,
		&v.PersonPhone,
		&v.Location,
		&photoURL,
		&v.CheckInTime,
		&checkOut,
	)
	if err != nil {
		return nil, err
	}

	v.Embedding = vec.Slice()
	if age.Valid {
		a := int(age.Int64)
		v.Age = &a
	}
	if photoURL.Valid {
		v.PhotoURL = photoURL.String
	}
	if checkOut.Valid {
		t := checkOut.Time
		v.CheckOutTime = &t
	}
	return &v, nil
}

func scanVisitors(rows *sql.Rows) ([]registry.Visitor, error) {
	var visitors []registry.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		visitors = append(visitors, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visitors: %w", err)
	}
	return visitors, nil
}
