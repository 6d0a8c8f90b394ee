// lookup.go — сервис поиска записей реестра: по полному hash-коду,
// по короткому коду, универсальный Resolve и частичный поиск по
// подстроке. Каждый поиск — живой обход файлового дерева без кэшей
// и индексов.
package service

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/hashverify/internal/domain/code"
	"github.com/bigkaa/hashverify/internal/domain/model"
	"github.com/bigkaa/hashverify/internal/storage/registry"
)

// DefaultSearchLimit — предел результатов частичного поиска по умолчанию.
const DefaultSearchLimit = 10

// ErrInvalidCode — вход не соответствует ни полной, ни короткой форме кода.
var ErrInvalidCode = errors.New("код не соответствует ни полной, ни короткой форме")

// CodeKind — вид кода, распознанный при Resolve.
type CodeKind string

const (
	// KindHashCode — полный hash-код PP-XXXXXXXXXXXX
	KindHashCode CodeKind = "hash_code"
	// KindShortCode — 6-символьный короткий код
	KindShortCode CodeKind = "short_code"
)

// Prometheus-метрики поиска.
var (
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hv_lookups_total",
			Help: "Общее количество поисков записи по коду.",
		},
		[]string{"kind", "result"},
	)
	searchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hv_search_total",
		Help: "Общее количество запросов частичного поиска.",
	})
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hv_search_duration_seconds",
		Help:    "Длительность запросов частичного поиска.",
		Buckets: prometheus.DefBuckets,
	})
)

// LookupService — поиск записей реестра.
//
// Межпользовательская уникальность hash-кодов не обеспечивается: при
// дубликатах в разных партициях возвращается первая встреченная
// запись. Порядок обхода — партиции, затем файлы внутри партиции, в
// остальном не специфицирован; вызывающая сторона не должна полагаться
// на конкретный выбор среди дубликатов.
type LookupService struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// NewLookupService создаёт сервис поиска.
func NewLookupService(reg *registry.Registry, logger *slog.Logger) *LookupService {
	return &LookupService{
		reg:    reg,
		logger: logger.With(slog.String("component", "lookup_service")),
	}
}

// FindByHashCode возвращает первую запись с указанным hash-кодом
// (сравнение без учёта регистра) или nil, если запись не найдена.
func (s *LookupService) FindByHashCode(hashCode string) (*model.Record, error) {
	target := code.Normalize(hashCode)

	var found *model.Record
	err := s.reg.Scan("", func(_ string, rec *model.Record) bool {
		if strings.ToUpper(rec.HashInfo.HashCode) == target {
			found = rec
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FindByShortCode возвращает первую запись с указанным коротким кодом
// или nil. Сначала сравнивается сохранённый short_code; у старых
// записей, созданных до появления коротких кодов, он отсутствует —
// тогда код выводится из hash-кода на лету и не сохраняется обратно.
func (s *LookupService) FindByShortCode(shortCode string) (*model.Record, error) {
	target := code.Normalize(shortCode)

	var found *model.Record
	err := s.reg.Scan("", func(_ string, rec *model.Record) bool {
		stored := rec.HashInfo.ShortCode
		if stored == "" {
			stored = code.DeriveShortCode(rec.HashInfo.HashCode)
		}
		if strings.ToUpper(stored) == target {
			found = rec
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Resolve классифицирует код (полная форма имеет приоритет, затем
// короткая) и выполняет соответствующий поиск. Возвращает распознанный
// вид кода, чтобы вызывающая сторона могла сформулировать сообщение
// «не найдено». Для входа, не соответствующего ни одной форме,
// возвращается ErrInvalidCode.
func (s *LookupService) Resolve(codeStr string) (*model.Record, CodeKind, error) {
	var (
		rec  *model.Record
		kind CodeKind
		err  error
	)

	switch {
	case code.ValidateHashCode(codeStr):
		kind = KindHashCode
		rec, err = s.FindByHashCode(codeStr)
	case code.ValidateShortCode(codeStr):
		kind = KindShortCode
		rec, err = s.FindByShortCode(codeStr)
	default:
		return nil, "", ErrInvalidCode
	}

	if err != nil {
		return nil, kind, err
	}

	result := "found"
	if rec == nil {
		result = "not_found"
	}
	lookupsTotal.WithLabelValues(string(kind), result).Inc()

	return rec, kind, nil
}

// SearchPartial выполняет частичный поиск: подстрока query (без учёта
// регистра) ищется в полном hash-коде и в сохранённом либо выведенном
// коротком коде. Обход останавливается после limit совпадений — это
// «первые N встреченных», а не топ-N по релевантности.
func (s *LookupService) SearchPartial(query string, limit int) ([]model.SearchSummary, error) {
	start := time.Now()
	searchTotal.Inc()

	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := code.Normalize(query)

	results := make([]model.SearchSummary, 0, limit)
	err := s.reg.Scan("", func(_ string, rec *model.Record) bool {
		short := rec.HashInfo.ShortCode
		if short == "" {
			short = code.DeriveShortCode(rec.HashInfo.HashCode)
		}

		if !strings.Contains(strings.ToUpper(rec.HashInfo.HashCode), q) &&
			!strings.Contains(strings.ToUpper(short), q) {
			return true
		}

		results = append(results, model.SearchSummary{
			HashCode:     rec.HashInfo.HashCode,
			ShortCode:    short,
			DocumentType: displayOrUnknown(rec.DocumentInfo.TypeDisplay),
			ClientName:   displayOrUnknown(rec.UserInfo.ClientName),
			CreationDate: displayOrUnknown(rec.DocumentInfo.CreationTimestamp),
		})
		return len(results) < limit
	})

	searchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return results, nil
}

// displayOrUnknown подставляет "Unknown" вместо пустого отображаемого
// значения.
func displayOrUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
