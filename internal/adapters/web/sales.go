package web

import (
	"net/http"

	"pos-ledger/internal/app"
)

// listSales handles GET /api/sales?customer_id=&status=&from=&to=&limit=.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.ListSalesRequest{
		CustomerID: int64(queryInt(r, "customer_id", 0)),
		Status:     q.Get("status"),
		From:       q.Get("from"),
		To:         q.Get("to"),
		Limit:      queryInt(r, "limit", 0),
	}

	result, err := h.svc.ListSales(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sales)
}

// createSale handles POST /api/sales.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerID  int64  `json:"customer_id"`
		PaymentType string `json:"payment_type"`
		Notes       string `json:"notes"`
		Items       []struct {
			ProductID int64 `json:"product_id"`
			Quantity  int   `json:"quantity"`
		} `json:"items"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.CreateSaleRequest{
		CustomerID:  body.CustomerID,
		PaymentType: body.PaymentType,
		Notes:       body.Notes,
	}
	if claims := authFromContext(r.Context()); claims != nil {
		req.CreatedBy = &claims.UserID
	}
	for _, item := range body.Items {
		req.Lines = append(req.Lines, app.SaleLineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	result, err := h.svc.CreateSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result.Sale)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteSale(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
