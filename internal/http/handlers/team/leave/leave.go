// Package leave реализует HTTP-обработчик: выход из команды.
package leave

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/idleforest/idleforest/internal/http/middlewarectx"
	"github.com/idleforest/idleforest/internal/http/response"
	"github.com/idleforest/idleforest/internal/lib/sl"
)

// Service удаляет пользователя из команды.
type Service interface {
	Leave(ctx context.Context, teamID, userID string) error
}

// Handler обрабатывает запросы выхода из команды.
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
// @Summary Выход из команды
// @Tags Teams
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID команды"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 404 {object} response.ErrorResponse "Пользователь не состоит в команде"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /teams/{id}/leave [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.leave"

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

	teamID := chi.URLParam(r, "id")
	if teamID == "" {
		log.Error("missing team id")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	if err := h.service.Leave(r.Context(), teamID, userID); err != nil {
		log.Error("failed to leave team", sl.Err(err))
		status, msg := response.StatusFor(err)
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("user left team", slog.String("team_id", teamID), slog.String("user_id", userID))
	render.JSON(w, r, response.OK())
}
