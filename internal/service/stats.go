// stats.go — агрегированная статистика реестра: количество записей,
// распределение по типам и владельцам, список последних регистраций.
package service

import (
	"log/slog"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/hashverify/internal/domain/code"
	"github.com/bigkaa/hashverify/internal/domain/model"
	"github.com/bigkaa/hashverify/internal/storage/registry"
)

// RecentLimit — размер списка последних зарегистрированных документов.
const RecentLimit = 5

// documentsTotal — количество валидных записей реестра по данным
// последнего подсчёта статистики.
var documentsTotal = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "hv_documents_total",
	Help: "Количество записей реестра по данным последнего подсчёта статистики.",
})

// StatsService — подсчёт статистики реестра.
type StatsService struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// NewStatsService создаёт сервис статистики.
func NewStatsService(reg *registry.Registry, logger *slog.Logger) *StatsService {
	return &StatsService{
		reg:    reg,
		logger: logger.With(slog.String("component", "stats_service")),
	}
}

// ComputeStatistics обходит все партиции один раз и возвращает:
// общее количество записей, количество по отображаемому типу,
// количество по владельцу и RecentLimit последних регистраций.
//
// Сортировка последних — по creation_timestamp_iso в убывающем
// порядке: RFC 3339 в UTC сортируется лексикографически. Записи без
// ISO-метки уходят в конец.
func (s *StatsService) ComputeStatistics() (*model.Stats, error) {
	stats := &model.Stats{
		ByType:          make(map[string]int),
		ByUser:          make(map[string]int),
		RecentDocuments: []model.RecentDocument{},
	}

	all := make([]model.RecentDocument, 0, RecentLimit)

	err := s.reg.Scan("", func(userID string, rec *model.Record) bool {
		stats.TotalDocuments++

		display := displayOrUnknown(rec.DocumentInfo.TypeDisplay)
		stats.ByType[display]++
		stats.ByUser[userID]++

		short := rec.HashInfo.ShortCode
		if short == "" {
			short = code.DeriveShortCode(rec.HashInfo.HashCode)
		}

		all = append(all, model.RecentDocument{
			HashCode:     rec.HashInfo.HashCode,
			ShortCode:    short,
			DocumentType: display,
			ClientName:   displayOrUnknown(rec.UserInfo.ClientName),
			CreationDate: rec.DocumentInfo.CreationTimestampISO,
			UserID:       userID,
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreationDate > all[j].CreationDate
	})
	if len(all) > RecentLimit {
		all = all[:RecentLimit]
	}
	stats.RecentDocuments = all

	documentsTotal.Set(float64(stats.TotalDocuments))

	return stats, nil
}
