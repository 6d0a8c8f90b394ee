// integrity.go — проверка целостности документа: digest переданного
// содержимого сравнивается с digest'ом, сохранённым при регистрации.
package service

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/hashverify/internal/domain/code"
)

// integrityChecksTotal — счётчик проверок целостности по исходу.
var integrityChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hv_integrity_checks_total",
		Help: "Общее количество проверок целостности документов.",
	},
	[]string{"result"},
)

// IntegrityResult — результат проверки целостности.
// Оба digest'а возвращаются для диагностики на стороне вызывающего.
type IntegrityResult struct {
	Valid          bool   `json:"valid"`
	HashCode       string `json:"hash_code"`
	CalculatedHash string `json:"calculated_hash,omitempty"`
	StoredHash     string `json:"stored_hash,omitempty"`
	Message        string `json:"message"`
}

// IntegrityService — проверка целостности документов.
type IntegrityService struct {
	lookup *LookupService
	logger *slog.Logger
}

// NewIntegrityService создаёт сервис проверки целостности.
func NewIntegrityService(lookup *LookupService, logger *slog.Logger) *IntegrityService {
	return &IntegrityService{
		lookup: lookup,
		logger: logger.With(slog.String("component", "integrity_service")),
	}
}

// Verify разрешает код в запись реестра и сравнивает digest переданного
// содержимого с сохранённым (без учёта регистра).
//
// Несовпадение digest'ов — нормальный результат (valid=false), а не
// ошибка; она возвращается только для некорректного формата кода
// (ErrInvalidCode) или сбоя чтения реестра. Пустой сохранённый digest
// никогда не считается совпадением.
func (s *IntegrityService) Verify(codeStr string, content []byte) (*IntegrityResult, error) {
	rec, _, err := s.lookup.Resolve(codeStr)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		integrityChecksTotal.WithLabelValues("not_found").Inc()
		return &IntegrityResult{
			Valid:    false,
			HashCode: code.Normalize(codeStr),
			Message:  "Код не найден в реестре",
		}, nil
	}

	calculated := contentDigest(content)
	stored := rec.HashInfo.ContentHash

	valid := stored != "" && strings.EqualFold(calculated, stored)

	result := "invalid"
	message := "Документ был изменён или не является подлинным"
	if valid {
		result = "valid"
		message = "Документ подлинный и не был изменён"
	}
	integrityChecksTotal.WithLabelValues(result).Inc()

	s.logger.Info("Проверка целостности выполнена",
		slog.String("hash_code", rec.HashInfo.HashCode),
		slog.Bool("valid", valid),
	)

	return &IntegrityResult{
		Valid:          valid,
		HashCode:       strings.ToUpper(rec.HashInfo.HashCode),
		CalculatedHash: calculated,
		StoredHash:     stored,
		Message:        message,
	}, nil
}

// contentDigest вычисляет SHA-256 digest содержимого в нижнем
// регистре hex. Поле algorithm записи информационное: поддерживается
// единственный эталонный алгоритм.
func contentDigest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
