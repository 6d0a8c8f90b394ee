// Пакет config — загрузка и валидация конфигурации Hash Verifier
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Hash Verifier.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Путь к корневой директории данных реестра
	DataDir string
	// Максимальный размер загружаемого файла при проверке целостности
	MaxUploadSize int64
	// Предел результатов частичного поиска по умолчанию
	SearchLimit int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// HV_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("HV_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("HV_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("HV_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// HV_DATA_DIR — обязательный
	cfg.DataDir, err = getEnvRequired("HV_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// HV_MAX_UPLOAD_SIZE — максимальный размер файла проверки целостности
	// (по умолчанию 32 MB)
	maxUploadSize, err := getEnvInt64("HV_MAX_UPLOAD_SIZE", 32<<20)
	if err != nil {
		return nil, fmt.Errorf("HV_MAX_UPLOAD_SIZE: %w", err)
	}
	if maxUploadSize <= 0 {
		return nil, fmt.Errorf("HV_MAX_UPLOAD_SIZE: значение должно быть положительным")
	}
	cfg.MaxUploadSize = maxUploadSize

	// HV_SEARCH_LIMIT — предел результатов поиска (по умолчанию 10)
	searchLimit, err := getEnvInt("HV_SEARCH_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("HV_SEARCH_LIMIT: %w", err)
	}
	if searchLimit < 1 || searchLimit > 100 {
		return nil, fmt.Errorf("HV_SEARCH_LIMIT: значение %d вне допустимого диапазона 1-100", searchLimit)
	}
	cfg.SearchLimit = searchLimit

	// HV_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("HV_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("HV_LOG_LEVEL: %w", err)
	}

	// HV_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("HV_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("HV_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// HV_HTTP_READ_TIMEOUT — таймаут чтения запроса (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("HV_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HV_HTTP_READ_TIMEOUT: %w", err)
	}

	// HV_HTTP_WRITE_TIMEOUT — таймаут записи ответа (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("HV_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HV_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// HV_HTTP_IDLE_TIMEOUT — таймаут idle-соединений (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("HV_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HV_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// HV_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("HV_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HV_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
