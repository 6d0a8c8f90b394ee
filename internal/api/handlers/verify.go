// verify.go — обработчики проверки кодов и целостности документов.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/hashverify/internal/api/errors"
	"github.com/bigkaa/hashverify/internal/domain/model"
	"github.com/bigkaa/hashverify/internal/service"
)

// verifyResponse — тело ответа успешной проверки кода.
type verifyResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	CodeKind service.CodeKind `json:"code_kind"`
	Metadata *model.Record    `json:"metadata"`
}

// VerifyHandler — обработчики проверки кодов и целостности.
type VerifyHandler struct {
	lookup    *service.LookupService
	integrity *service.IntegrityService
	// maxUploadSize — лимит размера файла проверки целостности (HV_MAX_UPLOAD_SIZE)
	maxUploadSize int64
	logger        *slog.Logger
}

// NewVerifyHandler создаёт обработчик проверки кодов.
func NewVerifyHandler(lookup *service.LookupService, integrity *service.IntegrityService, maxUploadSize int64, logger *slog.Logger) *VerifyHandler {
	return &VerifyHandler{
		lookup:        lookup,
		integrity:     integrity,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "verify_handler")),
	}
}

// VerifyCode обрабатывает GET /api/v1/verify/{code}.
// Принимает полный hash-код или 6-символьный короткий код и
// возвращает запись реестра.
func (h *VerifyHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	codeStr := chi.URLParam(r, "code")

	rec, kind, err := h.lookup.Resolve(codeStr)
	switch {
	case errors.Is(err, service.ErrInvalidCode):
		apierrors.ValidationError(w,
			fmt.Sprintf("Код %q не соответствует ни полной (XX-XXXXXXXXXXXX), ни короткой (6 символов) форме", codeStr))
		return
	case err != nil:
		h.logger.Error("Ошибка поиска записи реестра",
			slog.String("code", codeStr),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка чтения реестра")
		return
	}

	if rec == nil {
		message := fmt.Sprintf("Hash-код %s не найден в реестре", codeStr)
		if kind == service.KindShortCode {
			message = fmt.Sprintf("Короткий код %s не найден в реестре", codeStr)
		}
		apierrors.NotFound(w, message)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success:  true,
		Message:  "Документ найден в реестре",
		CodeKind: kind,
		Metadata: rec,
	})
}

// VerifyIntegrity обрабатывает POST /api/v1/verify/integrity.
// Сравнивает SHA-256 digest загруженного файла с digest'ом,
// сохранённым при регистрации. Несовпадение — нормальный ответ 200
// с valid=false, не ошибка.
func (h *VerifyHandler) VerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	var hashCode string
	if err := runtime.BindQueryParameter("form", true, true, "hash_code", r.URL.Query(), &hashCode); err != nil {
		apierrors.ValidationError(w, "Параметр hash_code обязателен: "+err.Error())
		return
	}

	// +1 байт сверх лимита, чтобы отличить «ровно лимит» от «превышен»
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.FileTooLarge(w,
				fmt.Sprintf("Файл превышает максимальный размер %d байт", h.maxUploadSize))
			return
		}
		apierrors.ValidationError(w, "Некорректный multipart-запрос: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Поле file обязательно: "+err.Error())
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxUploadSize {
		apierrors.FileTooLarge(w,
			fmt.Sprintf("Файл %s превышает максимальный размер %d байт", header.Filename, h.maxUploadSize))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		apierrors.InternalError(w, "Ошибка чтения загруженного файла")
		return
	}
	if len(content) == 0 {
		apierrors.ValidationError(w, "Загружен пустой файл")
		return
	}

	result, err := h.integrity.Verify(hashCode, content)
	switch {
	case errors.Is(err, service.ErrInvalidCode):
		apierrors.ValidationError(w,
			fmt.Sprintf("Код %q не соответствует ни полной, ни короткой форме", hashCode))
		return
	case err != nil:
		h.logger.Error("Ошибка проверки целостности",
			slog.String("hash_code", hashCode),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка чтения реестра")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
