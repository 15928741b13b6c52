package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"pricewise/internal/pkg/logger"
	"pricewise/internal/service/pricing/application"
	"pricewise/internal/service/pricing/domain"
)

const historyPathPrefix = "/price_history/"

// PricingService 是 handler 依赖的应用层接口。
type PricingService interface {
	CalculatePrice(ctx context.Context, req *application.CalculatePriceRequest) (*domain.PricingDecision, error)
	GetPriceHistory(ctx context.Context, productID string, limit int) (*application.PriceHistoryResponse, error)
	CommitPrice(ctx context.Context, req *application.CommitPriceRequest) (*domain.Product, error)
}

// PricingHandler 封装了 pricing 服务的 HTTP 处理器
type PricingHandler struct {
	service PricingService
}

func NewPricingHandler(service PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *PricingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/calculate_price", h.handleCalculatePrice)
	mux.HandleFunc(historyPathPrefix, h.handlePriceHistory)
	mux.HandleFunc("/commit_price", h.handleCommitPrice)
}

// extractContext 从请求头恢复追踪上下文，并把 trace_id 挂到请求日志上。
func extractContext(r *http.Request) context.Context {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	l := logger.Ctx(ctx).With().Str("path", r.URL.Path).Logger()
	return l.WithContext(ctx)
}

func (h *PricingHandler) handleCalculatePrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := extractContext(r)

	var req application.CalculatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	// 上游网关可以通过 Baggage 传递用户身份
	if req.UserID == "" {
		req.UserID = baggage.FromContext(ctx).Member("user_id").Value()
	}

	decision, err := h.service.CalculatePrice(ctx, &req)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (h *PricingHandler) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := extractContext(r)

	productID := strings.TrimPrefix(r.URL.Path, historyPathPrefix)
	if productID == "" || strings.Contains(productID, "/") {
		writeError(w, http.StatusBadRequest, "productId is required in path")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	resp, err := h.service.GetPriceHistory(ctx, productID, limit)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PricingHandler) handleCommitPrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := extractContext(r)

	var req application.CommitPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	product, err := h.service.CommitPrice(ctx, &req)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// fail 根据错误类型返回不同的 HTTP 状态码
func (h *PricingHandler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Ctx(ctx).Error().Err(err).Msg("request failed")
		trace.SpanFromContext(ctx).RecordError(err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrPriceOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDecisionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
