// Package link реализует HTTP-обработчик привязки устройства к текущему пользователю.
package link

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/idleforest/idleforest/internal/http/middlewarectx"
	"github.com/idleforest/idleforest/internal/http/response"
	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/models"
)

// Linker привязывает устройство к пользователю. Ошибки логируются внутри и не возвращаются.
type Linker interface {
	LinkUser(ctx context.Context, nodeID, userID string)
}

// Handler обрабатывает запросы привязки устройства.
type Handler struct {
	log      *slog.Logger
	linker   Linker
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, linker Linker) *Handler {
	return &Handler{
		log:      log,
		linker:   linker,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Привязка устройства
// @Description Привязывает устройство к пользователю сессии. Уже привязанное устройство не перепривязывается.
// @Tags Nodes
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.LinkNodeRequest true "Идентификатор устройства"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /nodes/link [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.node.link"

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

	var req models.LinkNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	h.linker.LinkUser(r.Context(), req.NodeIdentifier, userID)
	render.JSON(w, r, response.OK())
}
