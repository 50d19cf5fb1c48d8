package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/idleforest/idleforest/internal/http/response"
	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/localstore"
	"github.com/idleforest/idleforest/internal/models"
)

const shutdownTimeout = 5 * time.Second

type storeReferralCodeRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type shareRequest struct {
	Platform string `json:"platform"`
}

type rateRequest struct {
	URL string `json:"url"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Routes локальные эндпоинты, которыми страницы расширения общаются с агентом.
func (a *Agent) Routes(gatherer prometheus.Gatherer) http.Handler {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Route("/messages", func(r chi.Router) {
		r.Post("/storeReferralCode", a.storeReferralCode(validate))
		r.Get("/getReferralCode", a.getReferralCode)
		r.Post("/share", a.share)
		r.Post("/rate", a.rate)
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

// ServeMessages слушает addr до отмены ctx.
// Перед запуском инициализирует сторону SDK для страниц расширения;
// ошибка только логируется.
func (a *Agent) ServeMessages(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	if err := a.sdk.InitContentScript(ctx); err != nil {
		a.log.Error("failed to init sdk content script", sl.Err(err))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Routes(gatherer),
		ReadHeaderTimeout: shutdownTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("message server starting on", slog.String("address", addr))
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(timeoutCtx)
	}
}

func (a *Agent) storeReferralCode(validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "agent.messages.storeReferralCode"
		log := a.log.With(slog.String("op", op))

		var req storeReferralCodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			log.Error("validation failed", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
			return
		}

		if err := a.store.Set(r.Context(), localstore.KeyReferralCode, req.Code); err != nil {
			log.Error("failed to store referral code", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, successResponse{Error: "failed to store referral code"})
			return
		}
		log.Info("referral code stored", slog.String("code", req.Code))
		render.JSON(w, r, successResponse{Success: true})
	}
}

func (a *Agent) getReferralCode(w http.ResponseWriter, r *http.Request) {
	code, _, err := a.store.GetString(r.Context(), localstore.KeyReferralCode)
	if err != nil {
		a.log.Error("failed to read referral code", slog.String("op", "agent.messages.getReferralCode"), sl.Err(err))
	}
	render.JSON(w, r, map[string]any{"referralCode": code})
}

func (a *Agent) share(w http.ResponseWriter, r *http.Request) {
	const op = "agent.messages.share"
	log := a.log.With(slog.String("op", op))

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("share event without body", sl.Err(err))
	}
	log.Info("share event", slog.String("platform", req.Platform))

	err := a.updateHelpTasks(r.Context(), func(t *models.HelpTasks) {
		t.Shared = true
	})
	if err != nil {
		log.Error("failed to store help tasks", sl.Err(err))
		render.JSON(w, r, successResponse{Error: err.Error()})
		return
	}
	render.JSON(w, r, successResponse{Success: true})
}

func (a *Agent) rate(w http.ResponseWriter, r *http.Request) {
	const op = "agent.messages.rate"
	log := a.log.With(slog.String("op", op))

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("rate event without body", sl.Err(err))
	}
	log.Info("rate event", slog.String("url", req.URL))

	now := a.clock.Now().UTC().Format(localstore.TimeLayout)
	err := a.updateHelpTasks(r.Context(), func(t *models.HelpTasks) {
		t.Rated = true
		t.RateHistory = append(t.RateHistory, models.RateRecord{URL: req.URL, At: now})
	})
	if err != nil {
		log.Error("failed to store help tasks", sl.Err(err))
		render.JSON(w, r, successResponse{Error: err.Error()})
		return
	}
	render.JSON(w, r, successResponse{Success: true})
}

// updateHelpTasks читает состояние заданий, применяет fn и сохраняет результат.
// Повреждённое состояние хранилище отдаёт как отсутствующее, и оно начинается заново.
func (a *Agent) updateHelpTasks(ctx context.Context, fn func(*models.HelpTasks)) error {
	var tasks models.HelpTasks
	found, err := a.store.Get(ctx, localstore.KeyHelpTasks, &tasks)
	if err != nil {
		return err
	}
	if !found {
		tasks = models.HelpTasks{}
	}
	fn(&tasks)
	return a.store.Set(ctx, localstore.KeyHelpTasks, tasks)
}
