// Пакет model — доменные модели реестра hash-кодов.
// Record — единица хранения, соответствует содержимому metadata_*.json.
package model

import (
	"strings"
)

// SchemaVersion — версия схемы metadata-файла.
const SchemaVersion = "1.0"

// DefaultAlgorithm — алгоритм подсчёта content_hash по умолчанию.
const DefaultAlgorithm = "SHA-256"

// HashInfo — блок hash-кодов и digest'ов записи.
type HashInfo struct {
	// HashCode — полный hash-код документа (PP-XXXXXXXXXXXX, верхний регистр)
	HashCode string `json:"hash_code"`

	// ShortCode — производный 6-символьный код. У старых записей может
	// отсутствовать, тогда он выводится при чтении (см. LookupService).
	ShortCode string `json:"short_code"`

	// Algorithm — алгоритм подсчёта content_hash (информационное поле)
	Algorithm string `json:"algorithm"`

	// ContentHash — digest бинарного содержимого документа (hex, может
	// быть пустым — тогда проверка целостности всегда отрицательна)
	ContentHash string `json:"content_hash"`

	// MetadataHash — зарезервировано, проверкой не используется
	MetadataHash string `json:"metadata_hash"`

	// CombinedHash — зарезервировано, проверкой не используется
	CombinedHash string `json:"combined_hash"`

	// FileSize — размер исходного документа в байтах
	FileSize int64 `json:"file_size"`
}

// DocumentInfo — блок сведений о документе.
type DocumentInfo struct {
	// Type — внутренний код типа документа
	Type string `json:"type"`

	// TypeDisplay — отображаемое название типа
	TypeDisplay string `json:"type_display"`

	// FileName — оригинальное имя файла документа
	FileName string `json:"file_name"`

	// CreationTimestamp — локальная метка времени для отображения
	// (dd/mm/yyyy HH:MM:SS)
	CreationTimestamp string `json:"creation_timestamp"`

	// CreationTimestampISO — метка времени RFC 3339 в UTC. Ключ
	// сортировки для списка последних документов: сортируется
	// лексикографически.
	CreationTimestampISO string `json:"creation_timestamp_iso"`
}

// UserInfo — блок сведений о владельце записи.
type UserInfo struct {
	// UserID — санитизированный идентификатор приложения/пользователя,
	// определяет партицию хранения
	UserID string `json:"user_id"`

	// ClientName — отображаемое имя клиента
	ClientName string `json:"client_name"`
}

// Record — запись реестра. Запись неизменяема после создания; замена
// возможна только явной перезаписью, удаление выполняется вне сервиса.
type Record struct {
	// Version — версия схемы (информационное поле)
	Version string `json:"version"`

	// TraceID — уникальный идентификатор регистрации (UUID v4),
	// первые 8 символов входят в ключ хранения
	TraceID string `json:"trace_id"`

	HashInfo     HashInfo     `json:"hash_info"`
	DocumentInfo DocumentInfo `json:"document_info"`
	UserInfo     UserInfo     `json:"user_info"`

	// FormData — произвольные пары ключ/значение вызывающего
	// приложения. Непрозрачны для сервиса, сохраняются и возвращаются
	// как есть.
	FormData map[string]any `json:"form_data"`
}

// SearchSummary — краткое описание записи в результатах поиска.
type SearchSummary struct {
	HashCode     string `json:"hash_code"`
	ShortCode    string `json:"short_code"`
	DocumentType string `json:"document_type"`
	ClientName   string `json:"client_name"`
	CreationDate string `json:"creation_date"`
}

// RecentDocument — элемент списка последних зарегистрированных
// документов. CreationDate — метка RFC 3339 UTC.
type RecentDocument struct {
	HashCode     string `json:"hash_code"`
	ShortCode    string `json:"short_code"`
	DocumentType string `json:"document_type"`
	ClientName   string `json:"client_name"`
	CreationDate string `json:"creation_date"`
	UserID       string `json:"user_id"`
}

// Stats — агрегированная статистика реестра.
type Stats struct {
	TotalDocuments  int              `json:"total_documents"`
	ByType          map[string]int   `json:"by_type"`
	ByUser          map[string]int   `json:"by_user"`
	RecentDocuments []RecentDocument `json:"recent_documents"`
}

// SanitizeUserID приводит идентификатор пользователя к безопасной для
// файловой системы форме: краевые пробелы отбрасываются, буквы, цифры,
// дефис и подчёркивание сохраняются, все прочие символы заменяются на
// подчёркивание. Пустой результат — ошибка входных данных, проверяется
// вызывающей стороной.
func SanitizeUserID(raw string) string {
	trimmed := strings.TrimSpace(raw)

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
