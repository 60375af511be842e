package seed

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/liorbh/folio/internal/catalog"
	"github.com/liorbh/folio/internal/estimate"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

type projectTypeSeed struct {
	key, displayName string
	baseRate         float64
}

type featureSeed struct {
	key, displayName string
	cost             float64
}

type optionSeed struct {
	groupKey, optionKey, displayName string
	multiplier                       float64
}

var defaultProjectTypes = []projectTypeSeed{
	{"landing", "Landing page", 2500},
	{"website", "Marketing website", 6000},
	{"ecommerce", "E-commerce store", 14000},
	{"webapp", "Web application", 25000},
}

var defaultFeatures = []featureSeed{
	{"cms", "Content management", 2000},
	{"seo", "SEO setup", 1200},
	{"analytics", "Analytics dashboard", 1800},
	{"multilang", "Multi-language support", 2500},
	{"auth", "User accounts", 3500},
}

var defaultOptions = []optionSeed{
	{estimate.GroupComplexity, "simple", "Simple", 0.8},
	{estimate.GroupComplexity, "standard", "Standard", 1},
	{estimate.GroupComplexity, "advanced", "Advanced", 1.5},
	{estimate.GroupTimeline, "relaxed", "Flexible timeline", 0.9},
	{estimate.GroupTimeline, "standard", "Standard timeline", 1},
	{estimate.GroupTimeline, "rush", "Rush delivery", 1.4},
	{estimate.GroupTech, "standard", "Standard stack", 1},
	{estimate.GroupTech, "react", "React frontend", 1.1},
	{estimate.GroupTech, "custom", "Custom stack", 1.3},
	{estimate.GroupClientType, "individual", "Individual", 0.85},
	{estimate.GroupClientType, "startup", "Startup", 1},
	{estimate.GroupClientType, "business", "Small business", 1.1},
	{estimate.GroupClientType, "enterprise", "Enterprise", 1.3},
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureSettings(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureProjectTypes(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureFeatures(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureMultiplierOptions(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureAnchorRate(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureSettings(tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM settings WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check settings existence: %w", err)
	}
	if exists {
		return nil
	}

	def := catalog.DefaultSettings
	if _, err := tx.Exec(`
		INSERT INTO settings (id, reference_currency, per_page_rate, band_lower, band_upper)
		VALUES (1, ?, ?, ?, ?)
	`, def.ReferenceCurrency, def.PerPageRate, def.Band.Lower, def.Band.Upper); err != nil {
		return fmt.Errorf("insert settings singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureProjectTypes(tx *sql.Tx, stats *Stats) error {
	for i, pt := range defaultProjectTypes {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM project_types WHERE key = ? LIMIT 1)`, pt.key).Scan(&exists); err != nil {
			return fmt.Errorf("check project type existence: %w", err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO project_types (key, display_name, base_rate, sort_order, active)
			VALUES (?, ?, ?, ?, TRUE)
		`, pt.key, pt.displayName, pt.baseRate, i); err != nil {
			return fmt.Errorf("insert project type %q: %w", pt.key, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureFeatures(tx *sql.Tx, stats *Stats) error {
	for i, f := range defaultFeatures {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM features WHERE key = ? LIMIT 1)`, f.key).Scan(&exists); err != nil {
			return fmt.Errorf("check feature existence: %w", err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO features (key, display_name, cost, sort_order, active)
			VALUES (?, ?, ?, ?, TRUE)
		`, f.key, f.displayName, f.cost, i); err != nil {
			return fmt.Errorf("insert feature %q: %w", f.key, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureMultiplierOptions(tx *sql.Tx, stats *Stats) error {
	for i, o := range defaultOptions {
		var exists bool
		if err := tx.QueryRow(`
			SELECT EXISTS(
				SELECT 1 FROM multiplier_options
				WHERE group_key = ? AND option_key = ?
				LIMIT 1
			)
		`, o.groupKey, o.optionKey).Scan(&exists); err != nil {
			return fmt.Errorf("check multiplier option existence: %w", err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO multiplier_options (group_key, option_key, display_name, multiplier, sort_order, active)
			VALUES (?, ?, ?, ?, ?, TRUE)
		`, o.groupKey, o.optionKey, o.displayName, o.multiplier, i); err != nil {
			return fmt.Errorf("insert multiplier option %q/%q: %w", o.groupKey, o.optionKey, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureAnchorRate(tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM exchange_rates WHERE code = 'ILS')`).Scan(&exists); err != nil {
		return fmt.Errorf("check anchor rate existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`INSERT INTO exchange_rates (code, rate) VALUES ('ILS', 1)`); err != nil {
		return fmt.Errorf("insert anchor rate: %w", err)
	}
	stats.Inserts++
	return nil
}
