// Package decision реализует HTTP-обработчик текущего решения о доступе.
//
// Handler возвращает режим приложения, который гейткипер вывел из
// сессии, проверки версии и заполненности профиля. Решение читается
// из оркестратора без блокировки его цикла.
package decision

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/sidequest-campus/gatekeeper/internal/http/response"
	"github.com/sidequest-campus/gatekeeper/internal/models"
)

// Gate описывает источник текущего решения о доступе.
type Gate interface {
	Current() models.AccessDecision
}

// Handler управляет HTTP-запросами на чтение решения о доступе.
type Handler struct {
	log  *slog.Logger
	gate Gate
}

// New создаёт новый Handler с переданным логгером и оркестратором.
func New(log *slog.Logger, gate Gate) *Handler {
	return &Handler{
		log:  log,
		gate: gate,
	}
}

// ServeHTTP возвращает текущее решение о доступе в формате JSON.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.decision"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	decision := h.gate.Current()

	log.Info("access decision served", slog.String("mode", string(decision.Mode)))
	render.JSON(w, r, response.StatusOKWithData(decision))
}
