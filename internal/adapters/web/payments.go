package web

import (
	"net/http"

	"pos-ledger/internal/app"
)

// recordPayment handles POST /api/payments. With sale_id set the payment is
// applied to that sale only; without, it is distributed across the customer's
// outstanding sales oldest-first and the response carries the breakdown.
func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerID     int64  `json:"customer_id"`
		SaleID         *int64 `json:"sale_id"`
		Amount         string `json:"amount"`
		Method         string `json:"method"`
		Notes          string `json:"notes"`
		IdempotencyKey string `json:"idempotency_key"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.RecordPaymentRequest{
		CustomerID:     body.CustomerID,
		SaleID:         body.SaleID,
		Amount:         body.Amount,
		Method:         body.Method,
		Notes:          body.Notes,
		IdempotencyKey: body.IdempotencyKey,
	}
	if claims := authFromContext(r.Context()); claims != nil {
		req.CreatedBy = &claims.UserID
	}

	result, err := h.svc.RecordPayment(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result)
}

// paymentPreview handles GET /api/customers/{id}/payment-preview?amount=.
// Read-only; safe to call on every keystroke of an amount field.
func (h *Handler) paymentPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.PreviewPayment(r.Context(), id, r.URL.Query().Get("amount"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// listPayments handles GET /api/customers/{id}/payments.
func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.ListPayments(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Payments)
}

// paymentDistributions handles GET /api/payments/{id}/distributions.
func (h *Handler) paymentDistributions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	distributions, err := h.svc.GetPaymentDistributions(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, distributions)
}
