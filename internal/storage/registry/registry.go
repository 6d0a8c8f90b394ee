// Пакет registry — партиционированное хранилище записей реестра.
//
// Каждому владельцу (user_id) соответствует директория-партиция внутри
// dataDir; запись хранится в файле metadata_{HASH}_{trace8}.json.
// Хранилище не держит состояния в памяти: ни кэшей, ни индексов —
// каждый поиск заново обходит файловое дерево.
//
// Проверка дубликата и последующая запись не атомарны: два
// конкурентных Create для одной пары (user_id, hash-код) могут пройти
// проверку одновременно. Принята семантика «как минимум один
// выигрывает», блокировка на последовательность check-then-write
// сознательно не вводится.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bigkaa/hashverify/internal/domain/code"
	"github.com/bigkaa/hashverify/internal/domain/model"
	"github.com/bigkaa/hashverify/internal/storage/metafile"
)

// Ошибки хранилища.
var (
	// ErrInvalidHash — hash-код не соответствует форме PP-XXXXXXXXXXXX.
	ErrInvalidHash = errors.New("некорректный формат hash-кода")
	// ErrEmptyUserID — идентификатор пользователя пуст после санитизации.
	ErrEmptyUserID = errors.New("идентификатор пользователя пуст")
)

// DuplicateError — пара (user_id, hash-код) уже зарегистрирована,
// перезапись не запрошена.
type DuplicateError struct {
	UserID   string
	HashCode string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("hash-код %s уже зарегистрирован для пользователя %s", e.HashCode, e.UserID)
}

// Registry — файловое хранилище записей реестра.
type Registry struct {
	// dataDir — корневая директория партиций (HV_DATA_DIR)
	dataDir string
	logger  *slog.Logger
}

// New создаёт Registry. Проверяет и создаёт корневую директорию,
// если она не существует.
func New(dataDir string, logger *slog.Logger) (*Registry, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}

	return &Registry{
		dataDir: dataDir,
		logger:  logger.With(slog.String("component", "registry")),
	}, nil
}

// DataDir возвращает путь к корневой директории данных.
func (r *Registry) DataDir() string {
	return r.dataDir
}

// Create сохраняет запись реестра и возвращает путь записанного
// metadata-файла.
//
// Поток:
//  1. Валидация hash-кода
//  2. Санитизация user_id (партиция создаётся при отсутствии —
//     единственный неявный побочный эффект)
//  3. Проверка дубликата по всем trace_id этой пары (user_id, hash-код)
//  4. Атомарная запись metadata-файла
//
// overwrite=true заменяет запись: прежние metadata-файлы пары
// удаляются, так как ключ хранения включает новый trace_id.
func (r *Registry) Create(rec *model.Record, overwrite bool) (string, error) {
	if !code.ValidateHashCode(rec.HashInfo.HashCode) {
		return "", ErrInvalidHash
	}

	userID := model.SanitizeUserID(rec.UserInfo.UserID)
	if userID == "" {
		return "", ErrEmptyUserID
	}
	rec.UserInfo.UserID = userID

	partition := filepath.Join(r.dataDir, userID)
	if err := os.MkdirAll(partition, 0o750); err != nil {
		return "", fmt.Errorf("не удалось создать партицию %s: %w", partition, err)
	}

	// Проверка дубликата: любой существующий metadata-файл этой пары
	matches, err := filepath.Glob(filepath.Join(partition, metafile.GlobPattern(rec.HashInfo.HashCode)))
	if err != nil {
		return "", fmt.Errorf("ошибка проверки дубликата: %w", err)
	}
	if len(matches) > 0 {
		if !overwrite {
			return "", &DuplicateError{UserID: userID, HashCode: rec.HashInfo.HashCode}
		}
		for _, m := range matches {
			if rmErr := os.Remove(m); rmErr != nil && !os.IsNotExist(rmErr) {
				return "", fmt.Errorf("ошибка удаления прежней записи %s: %w", m, rmErr)
			}
		}
	}

	path := filepath.Join(partition, metafile.FileName(rec.HashInfo.HashCode, rec.TraceID))
	if err := metafile.Write(path, rec); err != nil {
		return "", fmt.Errorf("ошибка записи metadata-файла: %w", err)
	}

	r.logger.Debug("Запись реестра сохранена",
		slog.String("hash_code", rec.HashInfo.HashCode),
		slog.String("user_id", userID),
		slog.String("path", path),
	)

	return path, nil
}

// Scan обходит записи реестра: партицию указанного пользователя или
// все партиции при пустом userID. fn получает имя партиции и запись;
// возврат false останавливает обход досрочно.
//
// Обход «живой», без снапшота: запись, созданная во время обхода,
// может как попасть в результат, так и не попасть. Повреждённые
// metadata-файлы пропускаются на уровне metafile.
func (r *Registry) Scan(userID string, fn func(userID string, rec *model.Record) bool) error {
	if userID != "" {
		safe := model.SanitizeUserID(userID)
		if safe == "" {
			return ErrEmptyUserID
		}
		_, err := metafile.ScanDir(filepath.Join(r.dataDir, safe), func(rec *model.Record) bool {
			return fn(safe, rec)
		})
		return err
	}

	entries, err := os.ReadDir(r.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("ошибка чтения директории данных %s: %w", r.dataDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		partition := entry.Name()
		completed, err := metafile.ScanDir(filepath.Join(r.dataDir, partition), func(rec *model.Record) bool {
			return fn(partition, rec)
		})
		if err != nil {
			// Проблемная партиция не прерывает обход остальных
			r.logger.Warn("Ошибка обхода партиции",
				slog.String("partition", partition),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !completed {
			return nil
		}
	}

	return nil
}
