// handler.go — APIHandler собирает доменные обработчики в один объект
// и монтирует маршруты HTTP API.
package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIHandler — единый обработчик всех endpoints Hash Verifier.
type APIHandler struct {
	documents *DocumentsHandler
	verify    *VerifyHandler
	search    *SearchHandler
	stats     *StatsHandler
	health    *HealthHandler
}

// NewAPIHandler создаёт единый handler для всех endpoints.
func NewAPIHandler(
	documents *DocumentsHandler,
	verify *VerifyHandler,
	search *SearchHandler,
	stats *StatsHandler,
	health *HealthHandler,
) *APIHandler {
	return &APIHandler{
		documents: documents,
		verify:    verify,
		search:    search,
		stats:     stats,
		health:    health,
	}
}

// Routes монтирует все маршруты API на переданный роутер.
//
// Порядок регистрации внутри /api/v1/verify важен: статический путь
// /integrity должен быть объявлен раньше параметрического /{code},
// иначе chi сопоставит "integrity" как значение code.
func (h *APIHandler) Routes(router chi.Router) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", h.documents.Register)
		r.Get("/document-types", h.documents.ListTypes)

		r.Route("/verify", func(r chi.Router) {
			r.Post("/integrity", h.verify.VerifyIntegrity)
			r.Get("/{code}", h.verify.VerifyCode)
		})

		r.Get("/search", h.search.Search)
		r.Get("/stats", h.stats.GetStatistics)
	})

	router.Get("/health/live", h.health.HealthLive)
	router.Get("/health/ready", h.health.HealthReady)

	router.Method("GET", "/metrics", promhttp.Handler())
}
