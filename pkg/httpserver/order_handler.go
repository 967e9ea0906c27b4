package httpserver

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/orderwatch"
)

// OrderHandler serves read-only order lookups backed by the order index.
type OrderHandler struct {
	getter orderwatch.OrderGetter
	logger *zap.Logger
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(getter orderwatch.OrderGetter, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		getter: getter,
		logger: logger,
	}
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleGetOrder handles GET /api/orders/{hash} requests.
func (h *OrderHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "hash")
	if len(raw) != 2+common.HashLength*2 || raw[:2] != "0x" {
		h.writeError(w, "hash must be a 0x-prefixed 32-byte hex string", http.StatusBadRequest)
		return
	}
	hash := common.HexToHash(raw)

	h.logger.Debug("order-request-received", zap.String("order-hash", hash.Hex()))

	order, err := h.getter.GetOrderByHash(r.Context(), hash)
	if err != nil {
		h.logger.Debug("order-lookup-failed",
			zap.String("order-hash", hash.Hex()),
			zap.Error(err))
		h.writeError(w, "order not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(order); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *OrderHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
