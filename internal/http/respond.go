package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"contas/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// errInvalidDate covers request dates that fail to parse; the domain
// has no sentinel for it because dates arrive already parsed there.
var errInvalidDate = errors.New("invalid date, want YYYY-MM-DD")

var validationErrs = []error{
	errInvalidDate,
	core.ErrInvalidAmount,
	core.ErrInvalidMonth,
	core.ErrInvalidDay,
	core.ErrEmptyDescription,
	core.ErrDescriptionTooLong,
	core.ErrEmptyName,
	core.ErrInvalidCardKind,
	core.ErrInvalidMethod,
	core.ErrInvalidKind,
	core.ErrCardRequired,
	core.ErrInvalidInstallments,
	core.ErrNotCreditCard,
}

var notFoundErrs = []error{
	core.ErrCardNotFound,
	core.ErrTransactionNotFound,
	core.ErrDebtNotFound,
	core.ErrInvoiceNotFound,
	core.ErrBillNotFound,
}

var conflictErrs = []error{
	core.ErrDuplicateInvoice,
	core.ErrInvoiceAlreadyPaid,
	core.ErrInvoiceNotPayable,
	core.ErrDuplicateReport,
}

// writeError maps domain errors to HTTP statuses: validation failures
// are 422, missing rows 404, duplicates and terminal states 409,
// everything else a logged 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, sentinel := range validationErrs {
		if errors.Is(err, sentinel) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
	}
	for _, sentinel := range notFoundErrs {
		if errors.Is(err, sentinel) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
	}
	for _, sentinel := range conflictErrs {
		if errors.Is(err, sentinel) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
	}

	slog.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// ownerID reads the account identifier from the X-Owner-ID header.
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := r.Header.Get("X-Owner-ID")
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing X-Owner-ID header"})
		return "", false
	}
	return owner, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// parseAmount converts a decimal request field to Money.
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}
