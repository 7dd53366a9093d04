package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contentops/review-cycle/app/review"
)

var ErrContentNotFound = fmt.Errorf("content not found")

const contentColumns = `id, site_name, content_type, COALESCE(label, ''),
	published_at, updated_at, last_review_date, next_review_date,
	override_unit, override_count, created_at`

// PostgresContentRepository handles database operations for content review
// bookkeeping
type PostgresContentRepository struct {
	db *DB
}

func NewContentRepository(db *DB) *PostgresContentRepository {
	return &PostgresContentRepository{db: db}
}

func scanContent(scanner interface{ Scan(...interface{}) error }) (*Content, error) {
	var c Content
	var overrideUnit sql.NullString
	var overrideCount sql.NullInt64

	err := scanner.Scan(
		&c.ID, &c.Site, &c.ContentType, &c.Label,
		&c.PublishedAt, &c.UpdatedAt, &c.LastReviewDate, &c.NextReviewDate,
		&overrideUnit, &overrideCount, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if overrideUnit.Valid && overrideCount.Valid {
		c.Override = &review.Duration{
			Unit:  review.Unit(overrideUnit.String),
			Count: int(overrideCount.Int64),
		}
	}

	return &c, nil
}

func (r *PostgresContentRepository) GetContent(id uuid.UUID) (*Content, error) {
	row := r.db.QueryRow(`
		SELECT `+contentColumns+`
		FROM contents
		WHERE id = $1
	`, id)

	c, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return c, nil
}

func (r *PostgresContentRepository) GetContentCount(siteName string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM contents WHERE site_name = $1`, siteName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count contents: %w", err)
	}
	return count, nil
}

// UpsertContent stores the publish-hook payload. First publish is the
// transition from "no published row" to published; re-publishing an
// already published item only refreshes its fields. The earliest publish
// timestamp is kept, and a payload without a last review date leaves the
// stored anchor alone: this service is its system of record, the CMS
// never carries it.
func (r *PostgresContentRepository) UpsertContent(c Content) (bool, error) {
	existing, err := r.GetContent(c.ID)
	if err != nil && err != ErrContentNotFound {
		return false, fmt.Errorf("failed to check existing content: %w", err)
	}

	firstPublish := existing == nil || existing.PublishedAt == nil

	var overrideUnit *string
	var overrideCount *int
	if c.Override != nil {
		unit := string(c.Override.Unit)
		overrideUnit = &unit
		overrideCount = &c.Override.Count
	}

	_, err = r.db.Exec(`
		INSERT INTO contents (
			id, site_name, content_type, label, published_at, updated_at,
			last_review_date, next_review_date, override_unit, override_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			site_name = EXCLUDED.site_name,
			content_type = EXCLUDED.content_type,
			label = EXCLUDED.label,
			published_at = COALESCE(contents.published_at, EXCLUDED.published_at),
			updated_at = EXCLUDED.updated_at,
			last_review_date = COALESCE(EXCLUDED.last_review_date, contents.last_review_date),
			next_review_date = EXCLUDED.next_review_date,
			override_unit = EXCLUDED.override_unit,
			override_count = EXCLUDED.override_count
	`, c.ID, c.Site, c.ContentType, c.Label, c.PublishedAt, c.UpdatedAt,
		c.LastReviewDate, c.NextReviewDate, overrideUnit, overrideCount)
	if err != nil {
		return false, fmt.Errorf("failed to upsert content: %w", err)
	}

	return firstPublish, nil
}

func (r *PostgresContentRepository) SetLastReviewDate(id uuid.UUID, lastReview time.Time) error {
	result, err := r.db.Exec(`
		UPDATE contents
		SET last_review_date = $2, updated_at = NOW()
		WHERE id = $1
	`, id, lastReview)
	if err != nil {
		return fmt.Errorf("failed to set last review date: %w", err)
	}
	return requireRow(result)
}

func (r *PostgresContentRepository) SetOverride(id uuid.UUID, override *review.Duration) error {
	var overrideUnit *string
	var overrideCount *int
	if override != nil {
		unit := string(override.Unit)
		overrideUnit = &unit
		overrideCount = &override.Count
	}

	result, err := r.db.Exec(`
		UPDATE contents
		SET override_unit = $2, override_count = $3, updated_at = NOW()
		WHERE id = $1
	`, id, overrideUnit, overrideCount)
	if err != nil {
		return fmt.Errorf("failed to set override: %w", err)
	}
	return requireRow(result)
}

func (r *PostgresContentRepository) SetNextReviewDate(id uuid.UUID, next *time.Time) error {
	result, err := r.db.Exec(`
		UPDATE contents
		SET next_review_date = $2
		WHERE id = $1
	`, id, next)
	if err != nil {
		return fmt.Errorf("failed to set next review date: %w", err)
	}
	return requireRow(result)
}

// ListDue returns one keyset-paginated batch of content matching the
// filter. Every query requires a site owner and a present next review
// date; the remaining conditions come from the structured filter, never
// from interpolated predicate strings.
func (r *PostgresContentRepository) ListDue(filter ContentFilter, afterID uuid.UUID, limit int) ([]Content, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM contents
		WHERE site_name <> ''
		  AND next_review_date IS NOT NULL
		  AND id > $1`
	args := []interface{}{afterID}

	if filter.SiteName != "" {
		args = append(args, filter.SiteName)
		query += fmt.Sprintf(" AND site_name = $%d", len(args))
	}
	if filter.ContentType != "" {
		args = append(args, filter.ContentType)
		query += fmt.Sprintf(" AND content_type = $%d", len(args))
	}
	if filter.DueOnOrBefore != nil {
		args = append(args, *filter.DueOnOrBefore)
		query += fmt.Sprintf(" AND next_review_date <= $%d", len(args))
	}
	if filter.HasOverride != nil {
		if *filter.HasOverride {
			query += " AND override_unit IS NOT NULL"
		} else {
			query += " AND override_unit IS NULL"
		}
	}
	if filter.OverrideEquals != nil {
		args = append(args, string(filter.OverrideEquals.Unit))
		query += fmt.Sprintf(" AND override_unit = $%d", len(args))
		args = append(args, filter.OverrideEquals.Count)
		query += fmt.Sprintf(" AND override_count = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))

	return r.queryContents(query, args...)
}

func (r *PostgresContentRepository) ListBySite(siteName string, afterID uuid.UUID, limit int) ([]Content, error) {
	return r.queryContents(`
		SELECT `+contentColumns+`
		FROM contents
		WHERE site_name = $1
		  AND id > $2
		ORDER BY id
		LIMIT $3
	`, siteName, afterID, limit)
}

func (r *PostgresContentRepository) ListDistinctOverrideDurations(siteName string) ([]review.Duration, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT override_unit, override_count
		FROM contents
		WHERE site_name = $1
		  AND override_unit IS NOT NULL
	`, siteName)
	if err != nil {
		return nil, fmt.Errorf("failed to list override durations: %w", err)
	}
	defer rows.Close()

	var durations []review.Duration
	for rows.Next() {
		var unit string
		var count int
		if err := rows.Scan(&unit, &count); err != nil {
			return nil, fmt.Errorf("failed to scan override duration: %w", err)
		}
		durations = append(durations, review.Duration{Unit: review.Unit(unit), Count: count})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating override durations: %w", err)
	}

	return durations, nil
}

func (r *PostgresContentRepository) queryContents(query string, args ...interface{}) ([]Content, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contents: %w", err)
	}
	defer rows.Close()

	var contents []Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		contents = append(contents, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content rows: %w", err)
	}

	return contents, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrContentNotFound
	}
	return nil
}
