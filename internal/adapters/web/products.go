package web

import (
	"net/http"

	"pos-ledger/internal/app"
)

type productBody struct {
	Name          string `json:"name"`
	Brand         string `json:"brand"`
	CategoryID    *int64 `json:"category_id"`
	Price         string `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
	MinStockAlert int    `json:"min_stock_alert"`
}

func (b productBody) toRequest() app.ProductRequest {
	return app.ProductRequest{
		Name:          b.Name,
		Brand:         b.Brand,
		CategoryID:    b.CategoryID,
		Price:         b.Price,
		StockQuantity: b.StockQuantity,
		MinStockAlert: b.MinStockAlert,
	}
}

// listProducts handles GET /api/products?search=&category_id=&in_stock=.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	categoryID := int64(queryInt(r, "category_id", 0))
	inStock := r.URL.Query().Get("in_stock") == "true"

	result, err := h.svc.ListProducts(r.Context(), search, categoryID, inStock)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Product)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var body productBody
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.CreateProduct(r.Context(), body.toRequest())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result.Product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body productBody
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.UpdateProduct(r.Context(), id, body.toRequest())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Product)
}

func (h *Handler) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeactivateProduct(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lowStock handles GET /api/products/low-stock.
func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.LowStockProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Products)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, categories)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	category, err := h.svc.CreateCategory(r.Context(), body.Name, body.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, category)
}
