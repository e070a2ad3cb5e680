package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dsek-LTH/new-web/internal/domain"
)

const (
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidID             = "invalid_id"
	codeInvalidIdentification = "invalid_identification"
	codeNameRequired          = "name_required"
	codeInvalidStock          = "invalid_stock"
	codeInvalidPrice          = "invalid_price"
	codeInvalidMaxPerUser     = "invalid_max_per_user"
	codeInvalidSaleWindow     = "invalid_sale_window"
	codeShoppableNotFound     = "shoppable_not_found"
	codeSaleNotOpen           = "sale_not_open"
	codeSaleClosed            = "sale_closed"
	codeSoldOut               = "sold_out"
	codeAlreadyInCart         = "already_in_cart"
	codeOwnershipLimit        = "ownership_limit_reached"
	codeAlreadyReserved       = "already_reserved"
	codeCartEmpty             = "cart_empty"
	codeIdempotencyRequired   = "idempotency_key_required"
	codePaymentFailed         = "payment_failed"
	codeConflict              = "conflict"
	codeInvalidSignature      = "invalid_signature"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the shop's error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidIdentification):
		writeError(w, http.StatusBadRequest, codeInvalidIdentification, err.Error())
	case errors.Is(err, domain.ErrIdempotencyKeyRequired):
		writeError(w, http.StatusBadRequest, codeIdempotencyRequired, err.Error())
	case errors.Is(err, domain.ErrShoppableNotFound):
		writeError(w, http.StatusNotFound, codeShoppableNotFound, err.Error())
	case errors.Is(err, domain.ErrSaleNotOpen):
		writeError(w, http.StatusConflict, codeSaleNotOpen, err.Error())
	case errors.Is(err, domain.ErrSaleClosed):
		writeError(w, http.StatusConflict, codeSaleClosed, err.Error())
	case errors.Is(err, domain.ErrSoldOut):
		writeError(w, http.StatusConflict, codeSoldOut, err.Error())
	case errors.Is(err, domain.ErrAlreadyInCart):
		writeError(w, http.StatusConflict, codeAlreadyInCart, err.Error())
	case errors.Is(err, domain.ErrOwnershipLimit):
		writeError(w, http.StatusConflict, codeOwnershipLimit, err.Error())
	case errors.Is(err, domain.ErrAlreadyReserved):
		writeError(w, http.StatusConflict, codeAlreadyReserved, err.Error())
	case errors.Is(err, domain.ErrCartEmpty):
		writeError(w, http.StatusConflict, codeCartEmpty, err.Error())
	case errors.Is(err, domain.ErrConcurrencyConflict):
		writeError(w, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, domain.ErrPaymentFailed):
		writeError(w, http.StatusBadGateway, codePaymentFailed, err.Error())
	case errors.Is(err, domain.ErrNameRequired):
		writeError(w, http.StatusBadRequest, codeNameRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidStock):
		writeError(w, http.StatusBadRequest, codeInvalidStock, err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
	case errors.Is(err, domain.ErrInvalidMaxPerUser):
		writeError(w, http.StatusBadRequest, codeInvalidMaxPerUser, err.Error())
	case errors.Is(err, domain.ErrInvalidSaleWindow):
		writeError(w, http.StatusBadRequest, codeInvalidSaleWindow, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
