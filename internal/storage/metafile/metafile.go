// Пакет metafile — чтение и запись файлов метаданных (metadata_*.json).
// Каждая регистрация документа описывается одним metadata-файлом,
// который является единственным источником истины для записи реестра.
// Все операции записи выполняются атомарно: temp → fsync → rename,
// поэтому конкурентный читатель никогда не видит частично записанный
// файл.
package metafile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bigkaa/hashverify/internal/domain/model"
)

// Prefix — префикс имени metadata-файла.
const Prefix = "metadata_"

// Suffix — расширение metadata-файла.
const Suffix = ".json"

// maxMetaFileSize — максимальный допустимый размер metadata-файла
// (64 КБ). form_data — открытое отображение, ограничение защищает
// гарантию атомарности записи.
const maxMetaFileSize = 64 * 1024

// traceKeyLen — количество символов trace_id, входящих в имя файла.
const traceKeyLen = 8

// safeHash возвращает hash-код в форме для имени файла:
// верхний регистр, дефис заменён на подчёркивание.
func safeHash(hashCode string) string {
	return strings.ReplaceAll(strings.ToUpper(hashCode), "-", "_")
}

// FileName возвращает имя metadata-файла для пары (hash-код, trace_id).
// Формат: metadata_{HASH}_{trace8}.json. Имя детерминированное:
// одинаковые входы всегда дают одинаковый ключ хранения — на этом
// построена проверка дубликатов в реестре.
func FileName(hashCode, traceID string) string {
	trace := traceID
	if len(trace) > traceKeyLen {
		trace = trace[:traceKeyLen]
	}
	return Prefix + safeHash(hashCode) + "_" + trace + Suffix
}

// GlobPattern возвращает glob-шаблон всех metadata-файлов указанного
// hash-кода независимо от trace_id.
func GlobPattern(hashCode string) string {
	return Prefix + safeHash(hashCode) + "_*" + Suffix
}

// Write атомарно записывает запись реестра в metadata-файл.
// Паттерн: JSON → temp файл → fsync → atomic rename.
// Возвращает ошибку, если сериализованные данные превышают 64 КБ.
func Write(path string, rec *model.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %w", err)
	}

	// Проверка размера для гарантии атомарности
	if len(data) > maxMetaFileSize {
		return fmt.Errorf("размер metadata-файла (%d байт) превышает максимум (%d байт)", len(data), maxMetaFileSize)
	}

	// Создаём директорию если не существует
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}

	// Атомарная запись: temp → fsync → rename
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}

// Read читает и десериализует запись реестра из metadata-файла.
// Возвращает ошибку, если файл не найден, содержит невалидный JSON
// или не содержит hash_code — такие записи читатели пропускают.
func Read(path string) (*model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения metadata-файла %s: %w", path, err)
	}

	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("ошибка десериализации metadata-файла %s: %w", path, err)
	}

	if rec.HashInfo.HashCode == "" {
		return nil, fmt.Errorf("metadata-файл %s: пустой hash_code", path)
	}

	return &rec, nil
}

// ScanDir обходит metadata-файлы директории-партиции, вызывая fn для
// каждой валидной записи. Повреждённые и посторонние файлы молча
// пропускаются — это сознательная устойчивость обхода, а не потеря
// валидных данных. fn возвращает false для досрочной остановки.
//
// Возвращает false, если обход остановлен fn (не пройден до конца).
// Несуществующая директория — не ошибка: ноль записей.
func ScanDir(dir string, fn func(rec *model.Record) bool) (bool, error) {
	pattern := filepath.Join(dir, Prefix+"*"+Suffix)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return false, fmt.Errorf("ошибка сканирования директории %s: %w", dir, err)
	}

	for _, path := range matches {
		rec, err := Read(path)
		if err != nil {
			// Пропускаем невалидные metadata-файлы
			continue
		}
		if !fn(rec) {
			return false, nil
		}
	}

	return true, nil
}
