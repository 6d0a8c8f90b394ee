// Пакет service — бизнес-логика реестра hash-кодов.
// register.go — сервис регистрации документов.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apierrors "github.com/bigkaa/hashverify/internal/api/errors"
	"github.com/bigkaa/hashverify/internal/domain/code"
	"github.com/bigkaa/hashverify/internal/domain/model"
	"github.com/bigkaa/hashverify/internal/storage/registry"
)

// Prometheus-метрики регистрации.
var registrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hv_registrations_total",
		Help: "Общее количество запросов регистрации документов.",
	},
	[]string{"result"},
)

// RegisterParams — параметры регистрации документа.
type RegisterParams struct {
	// HashCode — полный hash-код документа (обязательно)
	HashCode string
	// UserID — идентификатор регистрирующего приложения (обязательно)
	UserID string
	// ContentHash — SHA-256 digest содержимого документа (опционально)
	ContentHash string
	// ClientName — имя клиента (опционально)
	ClientName string
	// DocumentType — внутренний код типа (опционально, выводится из префикса)
	DocumentType string
	// DocumentTypeDisplay — отображаемое название типа (опционально)
	DocumentTypeDisplay string
	// FileName — оригинальное имя файла (опционально)
	FileName string
	// FileSize — размер документа в байтах (опционально)
	FileSize int64
	// FormData — произвольные данные формы (опционально)
	FormData map[string]any
	// Overwrite — заменить существующую регистрацию пары (user_id, hash-код)
	Overwrite bool
}

// RegisterResult — результат успешной регистрации.
type RegisterResult struct {
	// Path — путь записанного metadata-файла
	Path string
	// HashCode — канонический hash-код (верхний регистр)
	HashCode string
	// ShortCode — производный короткий код
	ShortCode string
	// TraceID — сгенерированный идентификатор регистрации
	TraceID string
	// Record — записанная запись реестра
	Record *model.Record
}

// RegisterError — ошибка регистрации с HTTP-кодом.
type RegisterError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// RegisterService — сервис регистрации документов.
type RegisterService struct {
	reg    *registry.Registry
	logger *slog.Logger
	// now — источник времени, подменяется в тестах
	now func() time.Time
}

// NewRegisterService создаёт сервис регистрации.
func NewRegisterService(reg *registry.Registry, logger *slog.Logger) *RegisterService {
	return &RegisterService{
		reg:    reg,
		logger: logger.With(slog.String("component", "register_service")),
		now:    time.Now,
	}
}

// Register регистрирует документ в реестре.
//
// Поток:
//  1. Канонизация и валидация hash-кода
//  2. Санитизация user_id
//  3. Генерация trace_id, вывод short_code
//  4. Формирование записи и атомарная запись через Registry
//
// Тип документа и его отображаемое название, если не переданы,
// выводятся из префикса hash-кода по статической таблице типов.
func (s *RegisterService) Register(params RegisterParams) (*RegisterResult, *RegisterError) {
	hashCode := code.Normalize(params.HashCode)
	if !code.ValidateHashCode(hashCode) {
		registrationsTotal.WithLabelValues("invalid").Inc()
		return nil, &RegisterError{
			StatusCode: 400,
			Code:       apierrors.CodeValidationError,
			Message:    fmt.Sprintf("Некорректный формат hash-кода %q, ожидается XX-XXXXXXXXXXXX", params.HashCode),
		}
	}

	userID := model.SanitizeUserID(params.UserID)
	if userID == "" {
		registrationsTotal.WithLabelValues("invalid").Inc()
		return nil, &RegisterError{
			StatusCode: 400,
			Code:       apierrors.CodeValidationError,
			Message:    "Идентификатор пользователя обязателен и не может быть пустым",
		}
	}

	traceID := uuid.New().String()
	shortCode := code.DeriveShortCode(hashCode)

	docType := params.DocumentType
	docTypeDisplay := params.DocumentTypeDisplay
	if docType == "" || docTypeDisplay == "" {
		if t, ok := code.ClassifyType(hashCode); ok {
			if docType == "" {
				docType = t.Code
			}
			if docTypeDisplay == "" {
				docTypeDisplay = t.Display
			}
		}
	}

	formData := params.FormData
	if formData == nil {
		formData = map[string]any{}
	}

	now := s.now()
	rec := &model.Record{
		Version: model.SchemaVersion,
		TraceID: traceID,
		HashInfo: model.HashInfo{
			HashCode:    hashCode,
			ShortCode:   shortCode,
			Algorithm:   model.DefaultAlgorithm,
			ContentHash: params.ContentHash,
			FileSize:    params.FileSize,
		},
		DocumentInfo: model.DocumentInfo{
			Type:                 docType,
			TypeDisplay:          docTypeDisplay,
			FileName:             params.FileName,
			CreationTimestamp:    now.Format("02/01/2006 15:04:05"),
			CreationTimestampISO: now.UTC().Format(time.RFC3339),
		},
		UserInfo: model.UserInfo{
			UserID:     userID,
			ClientName: params.ClientName,
		},
		FormData: formData,
	}

	path, err := s.reg.Create(rec, params.Overwrite)
	if err != nil {
		var dup *registry.DuplicateError
		switch {
		case errors.As(err, &dup):
			registrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, &RegisterError{
				StatusCode: 409,
				Code:       apierrors.CodeAlreadyRegistered,
				Message:    fmt.Sprintf("Hash-код %s уже зарегистрирован для пользователя %s", dup.HashCode, dup.UserID),
			}
		case errors.Is(err, registry.ErrInvalidHash), errors.Is(err, registry.ErrEmptyUserID):
			// Проверено выше; сюда попадает только при рассинхронизации правил
			registrationsTotal.WithLabelValues("invalid").Inc()
			return nil, &RegisterError{
				StatusCode: 400,
				Code:       apierrors.CodeValidationError,
				Message:    err.Error(),
			}
		default:
			s.logger.Error("Ошибка сохранения записи реестра",
				slog.String("hash_code", hashCode),
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			registrationsTotal.WithLabelValues("error").Inc()
			return nil, &RegisterError{
				StatusCode: 500,
				Code:       apierrors.CodeInternalError,
				Message:    "Ошибка сохранения записи реестра",
			}
		}
	}

	registrationsTotal.WithLabelValues("success").Inc()

	s.logger.Info("Документ зарегистрирован",
		slog.String("hash_code", hashCode),
		slog.String("short_code", shortCode),
		slog.String("user_id", userID),
		slog.String("trace_id", traceID),
		slog.Bool("overwrite", params.Overwrite),
		slog.String("path", path),
	)

	return &RegisterResult{
		Path:      path,
		HashCode:  hashCode,
		ShortCode: shortCode,
		TraceID:   traceID,
		Record:    rec,
	}, nil
}
