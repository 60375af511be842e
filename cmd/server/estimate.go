package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/liorbh/folio/internal/currency"
	"github.com/liorbh/folio/internal/estimate"
)

type estimateRequest struct {
	estimate.Inputs
	DiscountCode string `json:"discount_code"`
}

type estimateResponse struct {
	Breakdown estimate.Breakdown `json:"breakdown"`
	Notes     []string           `json:"notes,omitempty"`
}

type modelResponse struct {
	Model      estimate.PricingModel `json:"model"`
	Currencies []string              `json:"currencies"`
}

func (s *server) handleModel(w http.ResponseWriter, r *http.Request) {
	model, err := s.store.PricingModel()
	if err != nil {
		s.serverError(w, "failed to load pricing model", err)
		return
	}

	rateRows, err := s.store.ListRates()
	if err != nil {
		s.serverError(w, "failed to load exchange rates", err)
		return
	}
	currencies := make([]string, 0, len(rateRows))
	for _, row := range rateRows {
		currencies = append(currencies, row.Code)
	}

	s.writeJSON(w, http.StatusOK, modelResponse{Model: model, Currencies: currencies})
}

func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, status, err := s.buildEstimate(req)
	if err != nil {
		if status == http.StatusInternalServerError {
			s.serverError(w, "failed to compute estimate", err)
			return
		}
		s.writeError(w, status, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// buildEstimate runs the full pipeline: model load, discount lookup,
// calculation in the reference currency, then the display-currency pass.
// Missing exchange rates and inapplicable discount codes degrade to notes,
// not failures.
func (s *server) buildEstimate(req estimateRequest) (estimateResponse, int, error) {
	model, err := s.store.PricingModel()
	if err != nil {
		return estimateResponse{}, http.StatusInternalServerError, err
	}

	var resp estimateResponse

	var discount *estimate.Discount
	code := strings.TrimSpace(req.DiscountCode)
	if code != "" {
		discount, err = s.store.DiscountByCode(code)
		if err != nil {
			return estimateResponse{}, http.StatusInternalServerError, err
		}
		if discount == nil {
			resp.Notes = append(resp.Notes, fmt.Sprintf("discount code %q is not valid", code))
		}
	}

	// The only calculate error is a misconfigured catalog; a partially
	// filled form never fails.
	breakdown, err := estimate.Calculate(model, req.Inputs, discount)
	if err != nil {
		return estimateResponse{}, http.StatusInternalServerError, err
	}

	if discount != nil && breakdown.DiscountApplied == nil {
		resp.Notes = append(resp.Notes, fmt.Sprintf("discount code %q does not apply to this configuration", code))
	}

	resp.Breakdown = breakdown
	if req.Currency != "" && req.Currency != breakdown.Currency {
		rates, err := s.store.Rates()
		if err != nil {
			return estimateResponse{}, http.StatusInternalServerError, err
		}

		converted, err := currency.ConvertBreakdown(breakdown, req.Currency, rates)
		if err != nil {
			var rateErr *currency.RateUnavailableError
			if !errors.As(err, &rateErr) {
				return estimateResponse{}, http.StatusInternalServerError, err
			}
			resp.Notes = append(resp.Notes, fmt.Sprintf("no exchange rate for %s; amounts are in %s", rateErr.Code, breakdown.Currency))
		} else {
			resp.Breakdown = converted
		}
	}

	return resp, http.StatusOK, nil
}

type intakeRequest struct {
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Company      string          `json:"company"`
	Message      string          `json:"message"`
	Inputs       estimate.Inputs `json:"inputs"`
	DiscountCode string          `json:"discount_code"`
}

type intakeCreateResponse struct {
	ID        int64              `json:"id"`
	Breakdown estimate.Breakdown `json:"breakdown"`
	Notes     []string           `json:"notes,omitempty"`
}

func (s *server) handleIntakeCreate(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		s.writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	est, status, err := s.buildEstimate(estimateRequest{Inputs: req.Inputs, DiscountCode: req.DiscountCode})
	if err != nil {
		if status == http.StatusInternalServerError {
			s.serverError(w, "failed to compute estimate", err)
			return
		}
		s.writeError(w, status, err.Error())
		return
	}

	inputsJSON, err := json.Marshal(req.Inputs)
	if err != nil {
		s.serverError(w, "failed to store intake", err)
		return
	}
	breakdownJSON, err := json.Marshal(est.Breakdown)
	if err != nil {
		s.serverError(w, "failed to store intake", err)
		return
	}

	result, err := s.db.Exec(`
		INSERT INTO intakes (client_name, client_email, company, message, inputs_json, breakdown_json, currency, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'new')
	`, req.Name, req.Email, strings.TrimSpace(req.Company), strings.TrimSpace(req.Message),
		string(inputsJSON), string(breakdownJSON), est.Breakdown.Currency)
	if err != nil {
		s.serverError(w, "failed to store intake", err)
		return
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.serverError(w, "failed to store intake", err)
		return
	}

	s.writeJSON(w, http.StatusCreated, intakeCreateResponse{
		ID:        id,
		Breakdown: est.Breakdown,
		Notes:     est.Notes,
	})
}
