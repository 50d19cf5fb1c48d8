// Package code реализует HTTP-обработчик получения реферального кода пользователя.
package code

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

// Service возвращает выданный пользователю код.
type Service interface {
	Code(ctx context.Context, userID string) (*models.ReferralCode, error)
}

// Handler обрабатывает запрос кода.
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
// @Summary Реферальный код
// @Description Возвращает код пользователя или пустой ответ, если код ещё не выдан.
// @Tags Referral
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.ReferralCode}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /referral/code [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.referral.code"

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

	code, err := h.service.Code(r.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		render.JSON(w, r, response.OK())
		return
	}
	if err != nil {
		log.Error("failed to get referral code", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get referral code"))
		return
	}

	render.JSON(w, r, response.OKWithData(code))
}
