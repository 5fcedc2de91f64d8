// Package http exposes the bridge operations as the WordPress-style REST routes MainStem calls.
package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mainstem/mainstem-bridge/internal/orders/app"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	maxRequestBytes      = 1 << 20
)

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service *app.Service
	logger  *slog.Logger
	apiKey  string
}

// NewHandler constructs a Handler. Every route requires apiKey in the MainStemAPIKey header.
func NewHandler(service *app.Service, logger *slog.Logger, apiKey string) *Handler {
	return &Handler{service: service, logger: logger, apiKey: apiKey}
}

// Register binds the routes under basePath, for example /wp-json/mainstem/v1.
func (h *Handler) Register(mux *http.ServeMux, basePath string) {
	basePath = strings.TrimSuffix(basePath, "/")
	mux.Handle("POST "+basePath+"/orders", WithAuth(http.HandlerFunc(h.createOrder), h.apiKey))
	mux.Handle("GET "+basePath+"/orders/{id}", WithAuth(http.HandlerFunc(h.getOrderStatus), h.apiKey))
	mux.Handle("GET "+basePath+"/products", WithAuth(http.HandlerFunc(h.listProducts), h.apiKey))
	mux.HandleFunc(basePath+"/", func(w http.ResponseWriter, _ *http.Request) { writeNoRoute(w) })
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "mainstem_invalid_request", "could not read request body")
		return
	}
	fingerprint := fingerprintOf(body)

	var payload createOrderRequest
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "mainstem_invalid_request", "invalid JSON payload")
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if idemKey != "" {
		stored, err := h.service.ReserveIdempotencyKey(ctx, idemKey, fingerprint)
		if err != nil {
			h.internalError(ctx, w, "idempotency lookup failed", err)
			return
		}
		if stored != nil {
			switch {
			case stored.Fingerprint != "" && stored.Fingerprint != fingerprint:
				h.writeServiceError(ctx, w, ports.ErrIdempotencyKeyReused)
			case stored.Pending():
				h.writeServiceError(ctx, w, ports.ErrIdempotencyRequestInProgress)
			default:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(stored.StatusCode)
				_, _ = w.Write(stored.Body)
			}
			return
		}
	}
	// Store calls ignore request cancellation.
	storeCtx := context.WithoutCancel(ctx)

	orderID, err := h.service.CreateOrder(ctx, payload.input())
	if err != nil {
		if orderID == 0 {
			if idemKey != "" {
				if err := h.service.ReleaseIdempotencyKey(storeCtx, idemKey); err != nil {
					h.logger.WarnContext(ctx, "failed to release idempotency key", "error", err)
				}
			}
			h.writeServiceError(ctx, w, err)
			return
		}
		h.logger.WarnContext(ctx, "order created with errors", "order_id", orderID, "error", err)
	}

	response, err := json.Marshal(createOrderResponse{WasSuccessful: true, ID: orderID})
	if err != nil {
		h.internalError(ctx, w, "encode create response", err)
		return
	}

	if idemKey != "" {
		stored := ports.StoredResponse{
			StatusCode:  http.StatusCreated,
			Body:        response,
			OrderID:     orderID,
			Fingerprint: fingerprint,
		}
		if err := h.service.SaveIdempotentResponse(storeCtx, idemKey, stored); err != nil {
			h.logger.WarnContext(ctx, "failed to store idempotent response", "order_id", orderID, "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(response)
}

func (h *Handler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	if !isDigits(raw) {
		writeNoRoute(w)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "mainstem_invalid_request", "invalid order id")
		return
	}

	status, err := h.service.GetOrderStatus(r.Context(), id)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductsResponse(products))
}

// writeServiceError maps port sentinels to REST errors. Unknown errors are logged, not leaked.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "mainstem_order_not_found", "Order not found")
	case errors.Is(err, ports.ErrProductNotFound):
		writeError(w, http.StatusBadRequest, "mainstem_product_not_found", err.Error())
	case errors.Is(err, ports.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "mainstem_invalid_request", err.Error())
	case errors.Is(err, ports.ErrIdempotencyKeyReused):
		writeError(w, http.StatusConflict, "mainstem_idempotency_conflict", err.Error())
	case errors.Is(err, ports.ErrIdempotencyRequestInProgress):
		writeError(w, http.StatusConflict, "mainstem_idempotency_in_progress", err.Error())
	default:
		h.internalError(ctx, w, "request failed", err)
	}
}

func (h *Handler) internalError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg, "error", err)
	writeError(w, http.StatusInternalServerError, "mainstem_internal_error", "Internal server error")
}

func fingerprintOf(body []byte) string {
	sum := sha256.Sum256(bytes.TrimSpace(body))
	return hex.EncodeToString(sum[:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, restError{Code: code, Message: message, Data: restErrorData{Status: status}})
}

func writeNoRoute(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "rest_no_route", "No route was found matching the URL and request method.")
}
