// Package list реализует HTTP-обработчик списка команд.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/idleforest/idleforest/internal/http/response"
	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/models"
)

// Service возвращает все команды с участниками.
type Service interface {
	List(ctx context.Context) ([]models.Team, error)
}

// Handler обрабатывает запрос списка команд.
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
// @Summary Список команд
// @Description Возвращает команды с участниками и их профилями.
// @Tags Teams
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Team}
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /teams [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	teams, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list teams", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list teams"))
		return
	}
	if teams == nil {
		teams = []models.Team{}
	}

	log.Debug("teams listed", slog.Int("count", len(teams)))
	render.JSON(w, r, response.OKWithData(teams))
}
