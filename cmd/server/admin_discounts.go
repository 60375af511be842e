package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/liorbh/folio/internal/catalog"
	"github.com/liorbh/folio/internal/estimate"
)

func (s *server) handleDiscountsList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListDiscounts()
	if err != nil {
		s.serverError(w, "failed to load discounts", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *server) handleDiscountCreate(w http.ResponseWriter, r *http.Request) {
	row, msg := decodeDiscount(r)
	if msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	id, err := s.store.CreateDiscount(row)
	if err != nil {
		s.serverError(w, "failed to create discount", err)
		return
	}
	row.ID = id
	s.writeJSON(w, http.StatusCreated, row)
}

func (s *server) handleDiscountUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid discount id")
		return
	}

	row, msg := decodeDiscount(r)
	if msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.store.UpdateDiscount(id, row); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "discount not found")
			return
		}
		s.serverError(w, "failed to update discount", err)
		return
	}
	row.ID = id
	s.writeJSON(w, http.StatusOK, row)
}

func decodeDiscount(r *http.Request) (catalog.DiscountRow, string) {
	var row catalog.DiscountRow
	if err := readJSON(r, &row); err != nil {
		return row, "invalid request body"
	}

	row.Code = strings.ToUpper(strings.TrimSpace(row.Code))
	if row.Code == "" {
		return row, "code is required"
	}

	switch row.Type {
	case estimate.DiscountPercent:
		if row.Amount < 0 || row.Amount > 100 {
			return row, "percent amount must be between 0 and 100"
		}
	case estimate.DiscountFixed:
		if row.Amount < 0 {
			return row, "fixed amount must be greater than or equal to 0"
		}
	default:
		return row, "type must be percent or fixed"
	}

	return row, ""
}

type rateUpsertRequest struct {
	Code string  `json:"code"`
	Rate float64 `json:"rate"`
}

func (s *server) handleRatesList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListRates()
	if err != nil {
		s.serverError(w, "failed to load exchange rates", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *server) handleRateUpsert(w http.ResponseWriter, r *http.Request) {
	var req rateUpsertRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if req.Code == "" {
		s.writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Rate <= 0 {
		s.writeError(w, http.StatusBadRequest, "rate must be greater than 0")
		return
	}

	if err := s.store.UpsertRate(req.Code, req.Rate); err != nil {
		s.serverError(w, "failed to save exchange rate", err)
		return
	}
	s.writeJSON(w, http.StatusOK, req)
}
