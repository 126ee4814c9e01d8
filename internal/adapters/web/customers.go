package web

import (
	"net/http"

	"pos-ledger/internal/app"
)

type customerBody struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Notes    string `json:"notes"`
}

func (b customerBody) toRequest() app.CustomerRequest {
	return app.CustomerRequest{
		FullName: b.FullName,
		Phone:    b.Phone,
		Email:    b.Email,
		Address:  b.Address,
		Notes:    b.Notes,
	}
}

// listCustomers handles GET /api/customers?search=&with_debt=.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	withDebt := r.URL.Query().Get("with_debt") == "true"

	result, err := h.svc.ListCustomers(r.Context(), search, withDebt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Customers)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var body customerBody
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.CreateCustomer(r.Context(), body.toRequest())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result.Customer)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Customer)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body customerBody
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.UpdateCustomer(r.Context(), id, body.toRequest())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Customer)
}

func (h *Handler) deactivateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeactivateCustomer(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// customerDetail handles GET /api/customers/{id}/detail: the customer with
// their full sale and payment history.
func (h *Handler) customerDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.GetCustomerDetail(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, detail)
}
