// Package stats реализует HTTP-обработчик статистики приглашений.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/idleforest/idleforest/internal/http/middlewarectx"
	"github.com/idleforest/idleforest/internal/http/response"
	"github.com/idleforest/idleforest/internal/lib/sl"
	referralservice "github.com/idleforest/idleforest/internal/services/referral"
)

// Service возвращает статистику приглашений пользователя.
type Service interface {
	Stats(ctx context.Context, userID string) (*referralservice.Summary, error)
}

// Handler обрабатывает запрос статистики.
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
// @Summary Статистика приглашений
// @Description Число приглашённых, очки и деревья, заработанные за приглашения (одно дерево за три приглашения).
// @Tags Referral
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=services.Summary}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /referral/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.referral.stats"

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

	summary, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		log.Error("failed to get referral stats", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get referral stats"))
		return
	}

	render.JSON(w, r, response.OKWithData(summary))
}
