package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ecommerce-shop/services/shop-api/internal/service"
)

type CartsHandler struct {
	Carts    *service.CartService
	Checkout *service.CheckoutService
	Log      zerolog.Logger
}

type addProductsReq struct {
	Products []service.AddItem `json:"products"`
}

type removeProductReq struct {
	ProductID string `json:"product_id"`
}

func (h *CartsHandler) List(w http.ResponseWriter, r *http.Request) {
	carts, err := h.Carts.ListCarts(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "", carts)
}

func (h *CartsHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.Carts.GetCart(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "", cart)
}

func (h *CartsHandler) AddProducts(w http.ResponseWriter, r *http.Request) {
	var req addProductsReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	cart, err := h.Carts.AddProducts(r.Context(), chi.URLParam(r, "id"), req.Products)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "products added to cart", cart)
}

// RemoveProduct takes the product id from the JSON body or the query string.
func (h *CartsHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" && r.ContentLength != 0 {
		var req removeProductReq
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, h.Log, err)
			return
		}
		productID = req.ProductID
	}
	cart, err := h.Carts.RemoveProduct(r.Context(), chi.URLParam(r, "id"), productID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "product removed from cart", cart)
}

func (h *CartsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cart, err := h.Carts.ClearCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "cart cleared", cart)
}

func (h *CartsHandler) Show(w http.ResponseWriter, r *http.Request) {
	view, err := h.Carts.ShowCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "", view)
}

func (h *CartsHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.Checkout.Checkout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusCreated, "purchase completed", ticket)
}
