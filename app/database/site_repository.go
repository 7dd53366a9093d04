package database

import (
	"database/sql"
	"fmt"
)

var ErrSiteNotFound = fmt.Errorf("site not found")

// PostgresSiteRepository handles database operations for registered sites
type PostgresSiteRepository struct {
	db *DB
}

func NewSiteRepository(db *DB) *PostgresSiteRepository {
	return &PostgresSiteRepository{db: db}
}

func (r *PostgresSiteRepository) GetSite(name string) (*Site, error) {
	var site Site
	err := r.db.QueryRow(`
		SELECT id, name, enabled, settings_hash, created_at, updated_at
		FROM sites
		WHERE name = $1
	`, name).Scan(&site.ID, &site.Name, &site.Enabled, &site.SettingsHash,
		&site.CreatedAt, &site.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSiteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return &site, nil
}

func (r *PostgresSiteRepository) GetSites() ([]Site, error) {
	rows, err := r.db.Query(`
		SELECT id, name, enabled, settings_hash, created_at, updated_at
		FROM sites
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		var site Site
		err := rows.Scan(&site.ID, &site.Name, &site.Enabled, &site.SettingsHash,
			&site.CreatedAt, &site.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site row: %w", err)
		}
		sites = append(sites, site)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating site rows: %w", err)
	}

	return sites, nil
}

// UpsertSite registers or refreshes a site row and reports whether the
// stored settings hash differed from the given one.
func (r *PostgresSiteRepository) UpsertSite(name string, enabled bool, settingsHash string) (bool, error) {
	existing, err := r.GetSite(name)
	if err != nil && err != ErrSiteNotFound {
		return false, fmt.Errorf("failed to check existing site: %w", err)
	}

	if existing == nil {
		_, err = r.db.Exec(`
			INSERT INTO sites (name, enabled, settings_hash)
			VALUES ($1, $2, $3)
		`, name, enabled, settingsHash)
		if err != nil {
			return false, fmt.Errorf("failed to insert site: %w", err)
		}
		// A brand new site has no stored dates to be stale.
		return false, nil
	}

	changed := existing.SettingsHash != settingsHash

	_, err = r.db.Exec(`
		UPDATE sites
		SET enabled = $2, settings_hash = $3, updated_at = NOW()
		WHERE name = $1
	`, name, enabled, settingsHash)
	if err != nil {
		return false, fmt.Errorf("failed to update site: %w", err)
	}

	return changed, nil
}
