package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/liorbh/folio/internal/catalog"
)

func (s *server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings()
	if err != nil {
		s.serverError(w, "failed to load settings", err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *server) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var settings catalog.Settings
	if err := readJSON(r, &settings); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateSettings(settings); msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.store.UpdateSettings(settings); err != nil {
		s.serverError(w, "failed to save settings", err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func validateSettings(settings catalog.Settings) string {
	if strings.TrimSpace(settings.ReferenceCurrency) == "" {
		return "reference_currency is required"
	}
	if settings.PerPageRate < 0 {
		return "per_page_rate must be greater than or equal to 0"
	}
	if settings.Band.Lower <= 0 || settings.Band.Upper <= 0 {
		return "band bounds must be greater than 0"
	}
	if settings.Band.Lower > 1 || settings.Band.Upper < 1 {
		return "band must bracket the total (lower <= 1 <= upper)"
	}
	return ""
}

func (s *server) handleProjectTypesList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListProjectTypes()
	if err != nil {
		s.serverError(w, "failed to load project types", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *server) handleProjectTypeCreate(w http.ResponseWriter, r *http.Request) {
	row, msg := decodeProjectType(r)
	if msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	id, err := s.store.CreateProjectType(row)
	if err != nil {
		s.serverError(w, "failed to create project type", err)
		return
	}
	row.ID = id
	s.writeJSON(w, http.StatusCreated, row)
}

func (s *server) handleProjectTypeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid project type id")
		return
	}

	row, msg := decodeProjectType(r)
	if msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.store.UpdateProjectType(id, row); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "project type not found")
			return
		}
		s.serverError(w, "failed to update project type", err)
		return
	}
	row.ID = id
	s.writeJSON(w, http.StatusOK, row)
}

func decodeProjectType(r *http.Request) (catalog.ProjectTypeRow, string) {
	var row catalog.ProjectTypeRow
	if err := readJSON(r, &row); err != nil {
		return row, "invalid request body"
	}

	row.Key = strings.TrimSpace(row.Key)
	row.DisplayName = strings.TrimSpace(row.DisplayName)
	if row.Key == "" {
		return row, "key is required"
	}
	if row.DisplayName == "" {
		return row, "display_name is required"
	}
	if row.BaseRate < 0 {
		return row, "base_rate must be greater than or equal to 0"
	}
	return row, ""
}

func (s *server) handleFeaturesList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListFeatures()
	if err != nil {
		s.serverError(w, "failed to load features", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *server) handleFeatureCreate(w http.ResponseWriter, r *http.Request) {
	row, msg := decodeFeature(r)
	if msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	id, err := s.store.CreateFeature(row)
	if err != nil {
		s.serverError(w, "failed to create feature", err)
		return
	}
	row.ID = id
	s.writeJSON(w, http.StatusCreated, row)
}

func (s *server) handleFeatureUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid feature id")
		return
	}

	row, msg := decodeFeature(r)
	if msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.store.UpdateFeature(id, row); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "feature not found")
			return
		}
		s.serverError(w, "failed to update feature", err)
		return
	}
	row.ID = id
	s.writeJSON(w, http.StatusOK, row)
}

func decodeFeature(r *http.Request) (catalog.FeatureRow, string) {
	var row catalog.FeatureRow
	if err := readJSON(r, &row); err != nil {
		return row, "invalid request body"
	}

	row.Key = strings.TrimSpace(row.Key)
	row.DisplayName = strings.TrimSpace(row.DisplayName)
	if row.Key == "" {
		return row, "key is required"
	}
	if row.DisplayName == "" {
		return row, "display_name is required"
	}
	if row.Cost < 0 {
		return row, "cost must be greater than or equal to 0"
	}
	return row, ""
}

func (s *server) handleMultipliersList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListMultiplierOptions()
	if err != nil {
		s.serverError(w, "failed to load multiplier options", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *server) handleMultiplierCreate(w http.ResponseWriter, r *http.Request) {
	row, msg := decodeMultiplierOption(r)
	if msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	id, err := s.store.CreateMultiplierOption(row)
	if err != nil {
		s.serverError(w, "failed to create multiplier option", err)
		return
	}
	row.ID = id
	s.writeJSON(w, http.StatusCreated, row)
}

func (s *server) handleMultiplierUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multiplier option id")
		return
	}

	row, msg := decodeMultiplierOption(r)
	if msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.store.UpdateMultiplierOption(id, row); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "multiplier option not found")
			return
		}
		s.serverError(w, "failed to update multiplier option", err)
		return
	}
	row.ID = id
	s.writeJSON(w, http.StatusOK, row)
}

func decodeMultiplierOption(r *http.Request) (catalog.MultiplierOptionRow, string) {
	var row catalog.MultiplierOptionRow
	if err := readJSON(r, &row); err != nil {
		return row, "invalid request body"
	}

	row.GroupKey = strings.TrimSpace(row.GroupKey)
	row.OptionKey = strings.TrimSpace(row.OptionKey)
	row.DisplayName = strings.TrimSpace(row.DisplayName)
	if row.GroupKey == "" {
		return row, "group_key is required"
	}
	if row.OptionKey == "" {
		return row, "option_key is required"
	}
	if row.DisplayName == "" {
		return row, "display_name is required"
	}
	if row.Multiplier <= 0 {
		return row, "multiplier must be greater than 0"
	}
	return row, ""
}
