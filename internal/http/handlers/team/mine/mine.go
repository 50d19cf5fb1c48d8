// Package mine реализует HTTP-обработчик команды текущего пользователя.
package mine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/idleforest/idleforest/internal/http/middlewarectx"
	"github.com/idleforest/idleforest/internal/http/response"
	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/storage"
)

// Service возвращает команду пользователя.
type Service interface {
	Mine(ctx context.Context, userID string) (*models.Team, error)
}

// Handler обрабатывает запрос команды пользователя.
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
// @Summary Моя команда
// @Description Возвращает команду пользователя сессии или null, если он ни в одной не состоит.
// @Tags Teams
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Team}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /teams/mine [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.mine"

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

	team, err := h.service.Mine(r.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		render.JSON(w, r, response.OK())
		return
	}
	if err != nil {
		log.Error("failed to get team", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get team"))
		return
	}

	render.JSON(w, r, response.OKWithData(team))
}
