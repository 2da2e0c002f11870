package postgres

import (
	"context"
	"fmt"
)

// Migrate creates the visitors table and supporting indexes. The embedding
// dimension is baked into the column type, so changing the extraction model
// requires a migration, not just a config change.
func (p *Pool) Migrate(ctx context.Context, embeddingDim int) error {
	// pgvector for the embedding column, unaccent for host-name lookups.
	if _, err := p.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	if _, err := p.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS unaccent"); err != nil {
		return fmt.Errorf("failed to create unaccent extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS visitors (
			id             BIGSERIAL PRIMARY KEY,
			face_id        UUID NOT NULL UNIQUE,
			face_embedding vector(%d) NOT NULL,
			name           VARCHAR(100) NOT NULL,
			age            INTEGER,
			gender         VARCHAR(20) NOT NULL,
			email          VARCHAR(255) NOT NULL,
			phone          VARCHAR(15) NOT NULL,
			address        VARCHAR(255) NOT NULL,
			purpose        VARCHAR(255) NOT NULL,
			person_to_meet VARCHAR(100) NOT NULL,
			person_email   VARCHAR(255) NOT NULL,
			person_phone   VARCHAR(15) NOT NULL,
			location       VARCHAR(100) NOT NULL,
			photo_url      TEXT,
			check_in_time  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			check_out_time TIMESTAMP WITH TIME ZONE
		)
	`, embeddingDim)

	if _, err := p.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create visitors table: %w", err)
	}

	// Partial index keeps the present-snapshot read cheap no matter how much
	// departed history accumulates.
	_, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS visitors_present_idx
		ON visitors (id) WHERE check_out_time IS NULL
	`)
	if err != nil {
		return fmt.Errorf("failed to create present index: %w", err)
	}

	return nil
}
