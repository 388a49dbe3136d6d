package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cartflow/pkg/cart"
	"cartflow/pkg/cartview"
	"cartflow/pkg/catalog"
	"cartflow/pkg/checkout"
	"cartflow/pkg/logger"
	"cartflow/pkg/order"
	"cartflow/pkg/otel"
)

// catalogSource is the read side of the catalog loader.
type catalogSource interface {
	Snapshot() catalog.Snapshot
}

type api struct {
	log      *logger.Logger
	tracer   trace.Tracer
	sessions *sessions
	catalog  catalogSource
	views    cartview.Aggregator
	checkout *checkout.Service
	orders   order.Repository
}

func (a *api) routes() http.Handler {
	r := mux.NewRouter().UseEncodedPath()
	r.Use(a.traceMiddleware)

	c := r.PathPrefix("/cart").Subrouter()
	c.Use(a.sessions.middleware)
	c.HandleFunc("", a.getCartHandler).Methods(http.MethodGet)
	c.HandleFunc("", a.clearCartHandler).Methods(http.MethodDelete)
	c.HandleFunc("/view", a.viewCartHandler).Methods(http.MethodGet)
	c.HandleFunc("/items/{key}", a.addItemHandler).Methods(http.MethodPost)
	c.HandleFunc("/items/{key}", a.updateItemHandler).Methods(http.MethodPut)
	c.HandleFunc("/items/{key}", a.removeItemHandler).Methods(http.MethodDelete)
	c.HandleFunc("/promo", a.applyPromoHandler).Methods(http.MethodPut)
	c.HandleFunc("/promo", a.removePromoHandler).Methods(http.MethodDelete)

	r.Handle("/checkout", a.sessions.middleware(http.HandlerFunc(a.checkoutHandler))).Methods(http.MethodPost)
	r.HandleFunc("/orders", a.listOrdersHandler).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}", a.getOrderHandler).Methods(http.MethodGet)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	return r
}

// getCartHandler returns the raw cart ledger.
// @Summary Get cart
// @Produce json
// @Success 200 {object} cart.Snapshot
// @Router /cart [get]
func (a *api) getCartHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "getCartHandler")
	defer span.End()

	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).store.Snapshot())
}

// addItemHandler adds quantity (default 1) of an item.
// @Summary Add item
// @Accept json
// @Produce json
// @Param key path string true "Item identifier"
// @Param body body quantityRequest false "Quantity to add"
// @Success 200 {object} cart.Snapshot
// @Router /cart/items/{key} [post]
func (a *api) addItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addItemHandler")
	defer span.End()

	id, err := itemKey(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	delta := 1
	if req, ok, err := decodeQuantity(r); err != nil {
		a.fail(w, r, err)
		return
	} else if ok {
		delta = req.Quantity
	}
	span.SetAttributes(attribute.String("cart.key", id.Encode()), attribute.Int("cart.delta", delta))

	store := sessionFrom(ctx).store
	if err := store.Add(ctx, id, delta); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Snapshot())
}

// updateItemHandler sets the quantity of an item.
// @Summary Update item quantity
// @Accept json
// @Produce json
// @Param key path string true "Item identifier"
// @Param body body quantityRequest true "New quantity"
// @Success 200 {object} cart.Snapshot
// @Router /cart/items/{key} [put]
func (a *api) updateItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateItemHandler")
	defer span.End()

	id, err := itemKey(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req, ok, err := decodeQuantity(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !ok {
		a.fail(w, r, errBadRequest)
		return
	}

	store := sessionFrom(ctx).store
	if err := store.Update(ctx, id, req.Quantity); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Snapshot())
}

// removeItemHandler removes one unit of an item.
// @Summary Remove item
// @Produce json
// @Param key path string true "Item identifier"
// @Success 200 {object} cart.Snapshot
// @Router /cart/items/{key} [delete]
func (a *api) removeItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "removeItemHandler")
	defer span.End()

	id, err := itemKey(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	store := sessionFrom(ctx).store
	if err := store.Remove(ctx, id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Snapshot())
}

// clearCartHandler empties the cart.
// @Summary Clear cart
// @Success 204
// @Router /cart [delete]
func (a *api) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "clearCartHandler")
	defer span.End()

	if err := sessionFrom(ctx).store.Clear(ctx); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// viewCartHandler resolves the cart against the catalog.
// @Summary Cart view
// @Produce json
// @Success 200 {object} cartview.View
// @Success 202 {object} cartview.View "Catalog still loading"
// @Failure 502 {object} cartview.View "Catalog unavailable"
// @Router /cart/view [get]
func (a *api) viewCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "viewCartHandler")
	defer span.End()

	sess := sessionFrom(ctx)
	view := a.views.View(ctx, sess.store.Entries(), a.catalog.Snapshot(), sess.promo.Code())

	status := http.StatusOK
	switch view.Status {
	case catalog.StatusLoading:
		status = http.StatusAccepted
	case catalog.StatusFailed:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, view)
}

// applyPromoHandler activates a promo code for the cart.
// @Summary Apply promo code
// @Accept json
// @Produce json
// @Param body body promoRequest true "Promo code"
// @Success 200 {object} cartview.Promo
// @Failure 422 {string} string "Unknown promo code"
// @Router /cart/promo [put]
func (a *api) applyPromoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "applyPromoHandler")
	defer span.End()

	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, r, errBadRequest)
		return
	}
	promo, err := sessionFrom(ctx).promo.Apply(req.Code)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promo)
}

// removePromoHandler clears the active promo code.
// @Summary Remove promo code
// @Success 204
// @Router /cart/promo [delete]
func (a *api) removePromoHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "removePromoHandler")
	defer span.End()

	sessionFrom(r.Context()).promo.Remove()
	w.WriteHeader(http.StatusNoContent)
}

// checkoutHandler places one order per orderable cart line.
// @Summary Checkout
// @Accept json
// @Produce json
// @Param body body checkout.Request true "Checkout form"
// @Success 201 {object} checkout.Receipt
// @Failure 422 {string} string "Nothing to order"
// @Failure 503 {string} string "Catalog loading"
// @Router /checkout [post]
func (a *api) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "checkoutHandler")
	defer span.End()

	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, r, errBadRequest)
		return
	}

	sess := sessionFrom(ctx)
	snap := a.catalog.Snapshot()
	view := a.views.View(ctx, sess.store.Entries(), snap, sess.promo.Code())

	receipt, err := a.checkout.Place(ctx, sess.store, view, req)
	if err != nil {
		if errors.Is(err, checkout.ErrCatalogNotReady) && snap.Status == catalog.StatusFailed {
			err = snap.Err
		}
		a.fail(w, r, err)
		return
	}
	sess.promo.Remove()
	writeJSON(w, http.StatusCreated, receipt)
}

// listOrdersHandler lists orders.
// @Summary List orders
// @Produce json
// @Success 200 {array} order.Order
// @Router /orders [get]
func (a *api) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	orders, err := a.orders.List(ctx)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// getOrderHandler retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Router /orders/{id} [get]
func (a *api) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	o, err := a.orders.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *api) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.InjectTracing(r.Context(), a.tracer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var errBadRequest = errors.New("invalid request body")

// fail writes err with the status it maps to. Unexpected errors are logged.
func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, cart.ErrMalformedIdentifier),
		errors.Is(err, checkout.ErrInvalidCustomer):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cartview.ErrUnknownPromo),
		errors.Is(err, checkout.ErrNothingToOrder):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, checkout.ErrCatalogNotReady):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type promoRequest struct {
	Code string `json:"code"`
}

// itemKey decodes the escaped {key} path variable.
func itemKey(r *http.Request) (cart.Identifier, error) {
	raw, err := url.PathUnescape(mux.Vars(r)["key"])
	if err != nil {
		return cart.Identifier{}, errors.Join(cart.ErrMalformedIdentifier, err)
	}
	return cart.Decode(raw)
}

// decodeQuantity reads an optional quantity body. ok is false for an empty body.
func decodeQuantity(r *http.Request) (quantityRequest, bool, error) {
	var req quantityRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		return req, false, nil
	}
	if err != nil {
		return req, false, errBadRequest
	}
	return req, true, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
