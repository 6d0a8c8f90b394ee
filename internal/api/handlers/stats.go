// stats.go — обработчик статистики реестра.
package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/hashverify/internal/api/errors"
	"github.com/bigkaa/hashverify/internal/service"
)

// StatsHandler — обработчик статистики реестра.
type StatsHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

// NewStatsHandler создаёт обработчик статистики.
func NewStatsHandler(stats *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: logger.With(slog.String("component", "stats_handler")),
	}
}

// GetStatistics обрабатывает GET /api/v1/stats.
// Каждый запрос заново обходит файловое дерево реестра.
func (h *StatsHandler) GetStatistics(w http.ResponseWriter, _ *http.Request) {
	stats, err := h.stats.ComputeStatistics()
	if err != nil {
		h.logger.Error("Ошибка подсчёта статистики", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Ошибка чтения реестра")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
