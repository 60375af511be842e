package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/liorbh/folio/internal/estimate"
)

var intakeStatuses = []string{"new", "reviewed", "contacted", "archived"}

type intakeListItem struct {
	ID          int64   `json:"id"`
	CreatedAt   string  `json:"created_at"`
	ClientName  string  `json:"client_name"`
	ClientEmail string  `json:"client_email"`
	Status      string  `json:"status"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
}

type intakeDetail struct {
	intakeListItem
	Company    string              `json:"company"`
	Message    string              `json:"message"`
	AdminNotes string              `json:"admin_notes"`
	Inputs     estimate.Inputs     `json:"inputs"`
	Breakdown  estimate.Breakdown  `json:"breakdown"`
}

func (s *server) handleIntakesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && !validIntakeStatus(status) {
		s.writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	intakes, err := s.listIntakes(query, status)
	if err != nil {
		s.serverError(w, "failed to load intakes", err)
		return
	}
	s.writeJSON(w, http.StatusOK, intakes)
}

func (s *server) handleIntakeDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid intake id")
		return
	}

	detail, err := s.getIntakeDetail(id)
	if errors.Is(err, sql.ErrNoRows) {
		s.writeError(w, http.StatusNotFound, "intake not found")
		return
	}
	if err != nil {
		s.serverError(w, "failed to load intake", err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

type intakeStatusRequest struct {
	Status string `json:"status"`
}

func (s *server) handleIntakeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid intake id")
		return
	}

	var req intakeStatusRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validIntakeStatus(req.Status) {
		s.writeError(w, http.StatusBadRequest, "status must be one of: "+strings.Join(intakeStatuses, ", "))
		return
	}

	result, err := s.db.Exec(`
		UPDATE intakes
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, req.Status, id)
	if err != nil {
		s.serverError(w, "failed to update intake status", err)
		return
	}
	if !s.foundRow(w, result, "intake not found") {
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": req.Status})
}

type intakeNotesRequest struct {
	Notes string `json:"notes"`
}

func (s *server) handleIntakeNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid intake id")
		return
	}

	var req intakeNotesRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.db.Exec(`
		UPDATE intakes
		SET admin_notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, req.Notes, id)
	if err != nil {
		s.serverError(w, "failed to update intake notes", err)
		return
	}
	if !s.foundRow(w, result, "intake not found") {
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (s *server) foundRow(w http.ResponseWriter, result sql.Result, msg string) bool {
	affected, err := result.RowsAffected()
	if err != nil {
		s.serverError(w, "failed to read affected rows", err)
		return false
	}
	if affected == 0 {
		s.writeError(w, http.StatusNotFound, msg)
		return false
	}
	return true
}

func (s *server) listIntakes(query, status string) ([]intakeListItem, error) {
	search := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT
			id,
			created_at,
			client_name,
			client_email,
			status,
			currency,
			breakdown_json
		FROM intakes
		WHERE (? = '' OR client_name LIKE ? OR client_email LIKE ? OR COALESCE(message, '') LIKE ? OR COALESCE(admin_notes, '') LIKE ?)
		  AND (? = '' OR status = ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search, search, search, status, status)
	if err != nil {
		return nil, fmt.Errorf("query intakes: %w", err)
	}
	defer rows.Close()

	intakes := make([]intakeListItem, 0)
	for rows.Next() {
		var item intakeListItem
		var breakdownJSON string
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.ClientName, &item.ClientEmail, &item.Status, &item.Currency, &breakdownJSON); err != nil {
			return nil, fmt.Errorf("scan intake: %w", err)
		}
		item.Total = extractTotalFromJSON(breakdownJSON)
		intakes = append(intakes, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intakes: %w", err)
	}

	return intakes, nil
}

// getIntakeDetail reads the stored snapshot; the breakdown is never
// recalculated against the current catalog.
func (s *server) getIntakeDetail(id int64) (intakeDetail, error) {
	var detail intakeDetail
	var inputsJSON, breakdownJSON string
	err := s.db.QueryRow(`
		SELECT
			id,
			created_at,
			client_name,
			client_email,
			COALESCE(company, ''),
			COALESCE(message, ''),
			COALESCE(admin_notes, ''),
			status,
			currency,
			inputs_json,
			breakdown_json
		FROM intakes
		WHERE id = ?
	`, id).Scan(
		&detail.ID,
		&detail.CreatedAt,
		&detail.ClientName,
		&detail.ClientEmail,
		&detail.Company,
		&detail.Message,
		&detail.AdminNotes,
		&detail.Status,
		&detail.Currency,
		&inputsJSON,
		&breakdownJSON,
	)
	if err != nil {
		return intakeDetail{}, err
	}

	if err := json.Unmarshal([]byte(inputsJSON), &detail.Inputs); err != nil {
		return intakeDetail{}, fmt.Errorf("decode intake inputs: %w", err)
	}
	if err := json.Unmarshal([]byte(breakdownJSON), &detail.Breakdown); err != nil {
		return intakeDetail{}, fmt.Errorf("decode intake breakdown: %w", err)
	}
	detail.Total = detail.Breakdown.Total

	return detail, nil
}

func extractTotalFromJSON(breakdownJSON string) float64 {
	var snapshot struct {
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal([]byte(breakdownJSON), &snapshot); err != nil {
		return 0
	}
	return snapshot.Total
}

func validIntakeStatus(status string) bool {
	for _, s := range intakeStatuses {
		if s == status {
			return true
		}
	}
	return false
}
