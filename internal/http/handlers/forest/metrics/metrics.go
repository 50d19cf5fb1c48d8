// Package metrics реализует HTTP-обработчик показателей леса пользователя.
package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/idleforest/idleforest/internal/http/middlewarectx"
	"github.com/idleforest/idleforest/internal/http/response"
	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/services/forest"
)

// Service считает показатели по данным сервера.
type Service interface {
	ForUser(ctx context.Context, userID string) (forest.Metrics, error)
}

// Handler обрабатывает запрос показателей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Показатели леса
// @Description Деревья, доля пользователя в заработке сети, сэкономленный CO2 и семена.
// @Tags Forest
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=forest.Metrics}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 502 {object} response.ErrorResponse "Сервис статистики недоступен"
// @Router /forest/metrics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.forest.metrics"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	m, err := h.service.ForUser(r.Context(), userID)
	if err != nil {
		log.Error("failed to compute forest metrics", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to compute forest metrics"))
		return
	}

	render.JSON(w, r, response.OKWithData(m))
}
