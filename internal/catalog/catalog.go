// Package catalog persists the pricing catalog and assembles the read-only
// model the estimate engine computes against.
package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/liorbh/folio/internal/currency"
	"github.com/liorbh/folio/internal/estimate"
)

// ErrNotFound is returned by updates targeting a row that does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Store wraps catalog access to a SQLite database.
type Store struct {
	db *sql.DB
}

// New returns a Store backed by db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Settings is the singleton pricing configuration row.
type Settings struct {
	ReferenceCurrency string        `json:"reference_currency"`
	PerPageRate       float64       `json:"per_page_rate"`
	Band              estimate.Band `json:"band"`
}

// DefaultSettings fills the singleton row wherever it is created, so the
// seed and EnsureSettings cannot drift apart.
var DefaultSettings = Settings{
	ReferenceCurrency: "ILS",
	PerPageRate:       450,
	Band:              estimate.Band{Lower: 0.85, Upper: 1.15},
}

// EnsureSettings inserts the default settings row if it is missing.
func (s *Store) EnsureSettings() error {
	def := DefaultSettings
	_, err := s.db.Exec(`
		INSERT INTO settings (id, reference_currency, per_page_rate, band_lower, band_upper)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, def.ReferenceCurrency, def.PerPageRate, def.Band.Lower, def.Band.Upper)
	if err != nil {
		return fmt.Errorf("insert default settings: %w", err)
	}
	return nil
}

// Settings reads the singleton settings row.
func (s *Store) Settings() (Settings, error) {
	var st Settings
	err := s.db.QueryRow(`
		SELECT reference_currency, per_page_rate, band_lower, band_upper
		FROM settings
		WHERE id = 1
	`).Scan(&st.ReferenceCurrency, &st.PerPageRate, &st.Band.Lower, &st.Band.Upper)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Settings{}, fmt.Errorf("settings singleton not found")
		}
		return Settings{}, fmt.Errorf("query settings: %w", err)
	}
	return st, nil
}

// UpdateSettings overwrites the singleton settings row.
func (s *Store) UpdateSettings(st Settings) error {
	_, err := s.db.Exec(`
		UPDATE settings
		SET
			reference_currency = ?,
			per_page_rate = ?,
			band_lower = ?,
			band_upper = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, st.ReferenceCurrency, st.PerPageRate, st.Band.Lower, st.Band.Upper)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// ProjectTypeRow is an admin view of a project type.
type ProjectTypeRow struct {
	ID          int64   `json:"id"`
	Key         string  `json:"key"`
	DisplayName string  `json:"display_name"`
	BaseRate    float64 `json:"base_rate"`
	SortOrder   int     `json:"sort_order"`
	Active      bool    `json:"active"`
}

// ListProjectTypes returns all project types ordered for display.
func (s *Store) ListProjectTypes() ([]ProjectTypeRow, error) {
	rows, err := s.db.Query(`
		SELECT id, key, display_name, base_rate, sort_order, active
		FROM project_types
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query project types: %w", err)
	}
	defer rows.Close()

	out := make([]ProjectTypeRow, 0)
	for rows.Next() {
		var row ProjectTypeRow
		if err := rows.Scan(&row.ID, &row.Key, &row.DisplayName, &row.BaseRate, &row.SortOrder, &row.Active); err != nil {
			return nil, fmt.Errorf("scan project type: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project types: %w", err)
	}
	return out, nil
}

// CreateProjectType inserts a new project type and returns its id.
func (s *Store) CreateProjectType(row ProjectTypeRow) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO project_types (key, display_name, base_rate, sort_order, active)
		VALUES (?, ?, ?, ?, ?)
	`, row.Key, row.DisplayName, row.BaseRate, row.SortOrder, row.Active)
	if err != nil {
		return 0, fmt.Errorf("insert project type: %w", err)
	}
	return result.LastInsertId()
}

// UpdateProjectType overwrites an existing project type.
func (s *Store) UpdateProjectType(id int64, row ProjectTypeRow) error {
	result, err := s.db.Exec(`
		UPDATE project_types
		SET
			key = ?,
			display_name = ?,
			base_rate = ?,
			sort_order = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, row.Key, row.DisplayName, row.BaseRate, row.SortOrder, row.Active, id)
	if err != nil {
		return fmt.Errorf("update project type: %w", err)
	}
	return requireAffected(result)
}

// FeatureRow is an admin view of a feature add-on.
type FeatureRow struct {
	ID          int64   `json:"id"`
	Key         string  `json:"key"`
	DisplayName string  `json:"display_name"`
	Cost        float64 `json:"cost"`
	SortOrder   int     `json:"sort_order"`
	Active      bool    `json:"active"`
}

// ListFeatures returns all feature add-ons ordered for display.
func (s *Store) ListFeatures() ([]FeatureRow, error) {
	rows, err := s.db.Query(`
		SELECT id, key, display_name, cost, sort_order, active
		FROM features
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	out := make([]FeatureRow, 0)
	for rows.Next() {
		var row FeatureRow
		if err := rows.Scan(&row.ID, &row.Key, &row.DisplayName, &row.Cost, &row.SortOrder, &row.Active); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate features: %w", err)
	}
	return out, nil
}

// CreateFeature inserts a new feature and returns its id.
func (s *Store) CreateFeature(row FeatureRow) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO features (key, display_name, cost, sort_order, active)
		VALUES (?, ?, ?, ?, ?)
	`, row.Key, row.DisplayName, row.Cost, row.SortOrder, row.Active)
	if err != nil {
		return 0, fmt.Errorf("insert feature: %w", err)
	}
	return result.LastInsertId()
}

// UpdateFeature overwrites an existing feature.
func (s *Store) UpdateFeature(id int64, row FeatureRow) error {
	result, err := s.db.Exec(`
		UPDATE features
		SET
			key = ?,
			display_name = ?,
			cost = ?,
			sort_order = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, row.Key, row.DisplayName, row.Cost, row.SortOrder, row.Active, id)
	if err != nil {
		return fmt.Errorf("update feature: %w", err)
	}
	return requireAffected(result)
}

// MultiplierOptionRow is an admin view of one option inside a multiplier group.
type MultiplierOptionRow struct {
	ID          int64   `json:"id"`
	GroupKey    string  `json:"group_key"`
	OptionKey   string  `json:"option_key"`
	DisplayName string  `json:"display_name"`
	Multiplier  float64 `json:"multiplier"`
	SortOrder   int     `json:"sort_order"`
	Active      bool    `json:"active"`
}

// ListMultiplierOptions returns all options grouped for display.
func (s *Store) ListMultiplierOptions() ([]MultiplierOptionRow, error) {
	rows, err := s.db.Query(`
		SELECT id, group_key, option_key, display_name, multiplier, sort_order, active
		FROM multiplier_options
		ORDER BY group_key, sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query multiplier options: %w", err)
	}
	defer rows.Close()

	out := make([]MultiplierOptionRow, 0)
	for rows.Next() {
		var row MultiplierOptionRow
		if err := rows.Scan(&row.ID, &row.GroupKey, &row.OptionKey, &row.DisplayName, &row.Multiplier, &row.SortOrder, &row.Active); err != nil {
			return nil, fmt.Errorf("scan multiplier option: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate multiplier options: %w", err)
	}
	return out, nil
}

// CreateMultiplierOption inserts a new option and returns its id.
func (s *Store) CreateMultiplierOption(row MultiplierOptionRow) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO multiplier_options (group_key, option_key, display_name, multiplier, sort_order, active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, row.GroupKey, row.OptionKey, row.DisplayName, row.Multiplier, row.SortOrder, row.Active)
	if err != nil {
		return 0, fmt.Errorf("insert multiplier option: %w", err)
	}
	return result.LastInsertId()
}

// UpdateMultiplierOption overwrites an existing option.
func (s *Store) UpdateMultiplierOption(id int64, row MultiplierOptionRow) error {
	result, err := s.db.Exec(`
		UPDATE multiplier_options
		SET
			group_key = ?,
			option_key = ?,
			display_name = ?,
			multiplier = ?,
			sort_order = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, row.GroupKey, row.OptionKey, row.DisplayName, row.Multiplier, row.SortOrder, row.Active, id)
	if err != nil {
		return fmt.Errorf("update multiplier option: %w", err)
	}
	return requireAffected(result)
}

// DiscountRow is an admin view of a discount code.
type DiscountRow struct {
	ID        int64                 `json:"id"`
	Code      string                `json:"code"`
	Type      estimate.DiscountType `json:"type"`
	Amount    float64               `json:"amount"`
	AppliesTo estimate.Scope        `json:"applies_to"`
	Active    bool                  `json:"active"`
}

// ListDiscounts returns all discount codes newest first.
func (s *Store) ListDiscounts() ([]DiscountRow, error) {
	rows, err := s.db.Query(`
		SELECT id, code, type, amount, applies_to_json, active
		FROM discounts
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query discounts: %w", err)
	}
	defer rows.Close()

	out := make([]DiscountRow, 0)
	for rows.Next() {
		var row DiscountRow
		var scopeJSON string
		if err := rows.Scan(&row.ID, &row.Code, &row.Type, &row.Amount, &scopeJSON, &row.Active); err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		if err := json.Unmarshal([]byte(scopeJSON), &row.AppliesTo); err != nil {
			return nil, fmt.Errorf("decode discount scope: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discounts: %w", err)
	}
	return out, nil
}

// CreateDiscount inserts a new discount code and returns its id.
func (s *Store) CreateDiscount(row DiscountRow) (int64, error) {
	scopeJSON, err := json.Marshal(row.AppliesTo)
	if err != nil {
		return 0, fmt.Errorf("encode discount scope: %w", err)
	}
	result, err := s.db.Exec(`
		INSERT INTO discounts (code, type, amount, applies_to_json, active)
		VALUES (?, ?, ?, ?, ?)
	`, row.Code, string(row.Type), row.Amount, string(scopeJSON), row.Active)
	if err != nil {
		return 0, fmt.Errorf("insert discount: %w", err)
	}
	return result.LastInsertId()
}

// UpdateDiscount overwrites an existing discount code.
func (s *Store) UpdateDiscount(id int64, row DiscountRow) error {
	scopeJSON, err := json.Marshal(row.AppliesTo)
	if err != nil {
		return fmt.Errorf("encode discount scope: %w", err)
	}
	result, err := s.db.Exec(`
		UPDATE discounts
		SET
			code = ?,
			type = ?,
			amount = ?,
			applies_to_json = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, row.Code, string(row.Type), row.Amount, string(scopeJSON), row.Active, id)
	if err != nil {
		return fmt.Errorf("update discount: %w", err)
	}
	return requireAffected(result)
}

// DiscountByCode looks up an active discount by its code. A missing or
// inactive code returns nil without an error; eligibility is the engine's
// concern, existence is this store's.
func (s *Store) DiscountByCode(code string) (*estimate.Discount, error) {
	var discountType string
	var amount float64
	var scopeJSON string
	err := s.db.QueryRow(`
		SELECT type, amount, applies_to_json
		FROM discounts
		WHERE code = ? AND active
	`, code).Scan(&discountType, &amount, &scopeJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query discount by code: %w", err)
	}

	var scope estimate.Scope
	if err := json.Unmarshal([]byte(scopeJSON), &scope); err != nil {
		return nil, fmt.Errorf("decode discount scope: %w", err)
	}

	return &estimate.Discount{
		Type:      estimate.DiscountType(discountType),
		Amount:    amount,
		AppliesTo: scope,
	}, nil
}

// RateRow is an admin view of one exchange-rate entry.
type RateRow struct {
	Code      string  `json:"code"`
	Rate      float64 `json:"rate"`
	UpdatedAt string  `json:"updated_at"`
}

// ListRates returns every stored exchange rate with its refresh timestamp.
func (s *Store) ListRates() ([]RateRow, error) {
	rows, err := s.db.Query(`
		SELECT code, rate, updated_at
		FROM exchange_rates
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("query exchange rates: %w", err)
	}
	defer rows.Close()

	out := make([]RateRow, 0)
	for rows.Next() {
		var row RateRow
		if err := rows.Scan(&row.Code, &row.Rate, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange rate: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchange rates: %w", err)
	}
	return out, nil
}

// Rates returns the exchange-rate table as the converter consumes it.
func (s *Store) Rates() (currency.Rates, error) {
	rows, err := s.ListRates()
	if err != nil {
		return nil, err
	}
	rates := make(currency.Rates, len(rows))
	for _, row := range rows {
		rates[row.Code] = row.Rate
	}
	return rates, nil
}

// UpsertRate stores or refreshes one exchange rate.
func (s *Store) UpsertRate(code string, rate float64) error {
	_, err := s.db.Exec(`
		INSERT INTO exchange_rates (code, rate)
		VALUES (?, ?)
		ON CONFLICT(code) DO UPDATE SET rate = excluded.rate, updated_at = CURRENT_TIMESTAMP
	`, code, rate)
	if err != nil {
		return fmt.Errorf("upsert exchange rate: %w", err)
	}
	return nil
}

// PricingModel assembles the engine's read-only model from the active
// catalog rows. Multiplier groups come back non-nil even when empty, so a
// migrated but unseeded catalog still satisfies the engine's structural
// check.
func (s *Store) PricingModel() (estimate.PricingModel, error) {
	settings, err := s.Settings()
	if err != nil {
		return estimate.PricingModel{}, err
	}

	model := estimate.PricingModel{
		ReferenceCurrency: settings.ReferenceCurrency,
		PerPageRate:       settings.PerPageRate,
		Band:              settings.Band,
		ProjectTypes:      make([]estimate.ProjectType, 0),
		Features:          make([]estimate.Feature, 0),
		MultiplierGroups:  make([]estimate.MultiplierGroup, 0),
	}

	projectTypes, err := s.ListProjectTypes()
	if err != nil {
		return estimate.PricingModel{}, err
	}
	for _, row := range projectTypes {
		if !row.Active {
			continue
		}
		model.ProjectTypes = append(model.ProjectTypes, estimate.ProjectType{
			Key:         row.Key,
			DisplayName: row.DisplayName,
			BaseRate:    row.BaseRate,
		})
	}

	features, err := s.ListFeatures()
	if err != nil {
		return estimate.PricingModel{}, err
	}
	for _, row := range features {
		if !row.Active {
			continue
		}
		model.Features = append(model.Features, estimate.Feature{
			Key:         row.Key,
			DisplayName: row.DisplayName,
			Cost:        row.Cost,
		})
	}

	options, err := s.ListMultiplierOptions()
	if err != nil {
		return estimate.PricingModel{}, err
	}
	for _, row := range options {
		if !row.Active {
			continue
		}
		option := estimate.MultiplierOption{
			Key:         row.OptionKey,
			DisplayName: row.DisplayName,
			Multiplier:  row.Multiplier,
		}
		n := len(model.MultiplierGroups)
		if n > 0 && model.MultiplierGroups[n-1].Key == row.GroupKey {
			model.MultiplierGroups[n-1].Options = append(model.MultiplierGroups[n-1].Options, option)
			continue
		}
		model.MultiplierGroups = append(model.MultiplierGroups, estimate.MultiplierGroup{
			Key:     row.GroupKey,
			Options: []estimate.MultiplierOption{option},
		})
	}

	return model, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
