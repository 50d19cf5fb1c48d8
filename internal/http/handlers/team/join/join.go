// Package join реализует HTTP-обработчик: вступление в команду.
package join

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

// Service добавляет пользователя в команду.
type Service interface {
	Join(ctx context.Context, teamID, userID string) error
}

// Handler обрабатывает запросы вступления в команду.
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
// @Summary Вступление в команду
// @Tags Teams
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID команды"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 404 {object} response.ErrorResponse "Команда не найдена"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже в команде"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /teams/{id}/join [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.join"

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

	if err := h.service.Join(r.Context(), teamID, userID); err != nil {
		log.Error("failed to join team", sl.Err(err))
		status, msg := response.StatusFor(err)
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("user joined team", slog.String("team_id", teamID), slog.String("user_id", userID))
	render.JSON(w, r, response.OK())
}
