// search.go — обработчик частичного поиска по подстроке кода.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/hashverify/internal/api/errors"
	"github.com/bigkaa/hashverify/internal/domain/model"
	"github.com/bigkaa/hashverify/internal/service"
)

// minQueryLen — минимальная длина поисковой подстроки.
const minQueryLen = 3

// maxSearchLimit — верхняя граница параметра limit.
const maxSearchLimit = 100

// searchResponse — тело ответа GET /api/v1/search.
type searchResponse struct {
	Success bool                  `json:"success"`
	Query   string                `json:"query"`
	Count   int                   `json:"count"`
	Results []model.SearchSummary `json:"results"`
}

// SearchHandler — обработчик частичного поиска.
type SearchHandler struct {
	lookup *service.LookupService
	// defaultLimit — предел результатов при отсутствии параметра limit (HV_SEARCH_LIMIT)
	defaultLimit int
	logger       *slog.Logger
}

// NewSearchHandler создаёт обработчик поиска.
func NewSearchHandler(lookup *service.LookupService, defaultLimit int, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		lookup:       lookup,
		defaultLimit: defaultLimit,
		logger:       logger.With(slog.String("component", "search_handler")),
	}
}

// Search обрабатывает GET /api/v1/search?q=...&limit=...
// Подстрока ищется в полном hash-коде и коротком коде без учёта
// регистра. Возвращаются первые N встреченных совпадений.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var query string
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &query); err != nil {
		apierrors.ValidationError(w, "Параметр q обязателен: "+err.Error())
		return
	}
	if len(query) < minQueryLen {
		apierrors.ValidationError(w,
			fmt.Sprintf("Поисковая подстрока должна содержать не менее %d символов", minQueryLen))
		return
	}

	limit := h.defaultLimit
	if r.URL.Query().Has("limit") {
		if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
			apierrors.ValidationError(w, "Некорректный параметр limit: "+err.Error())
			return
		}
		if limit < 1 || limit > maxSearchLimit {
			apierrors.ValidationError(w,
				fmt.Sprintf("Параметр limit должен быть в диапазоне 1-%d", maxSearchLimit))
			return
		}
	}

	results, err := h.lookup.SearchPartial(query, limit)
	if err != nil {
		h.logger.Error("Ошибка частичного поиска",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка чтения реестра")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Success: true,
		Query:   query,
		Count:   len(results),
		Results: results,
	})
}
