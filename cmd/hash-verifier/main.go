// main.go — точка входа Hash Verifier: реестра и сервиса проверки
// подлинности hash-кодов сгенерированных документов.
package main

import (
	"log"
	"log/slog"

	"github.com/bigkaa/hashverify/internal/api/contract"
	"github.com/bigkaa/hashverify/internal/api/handlers"
	"github.com/bigkaa/hashverify/internal/api/middleware"
	"github.com/bigkaa/hashverify/internal/config"
	"github.com/bigkaa/hashverify/internal/server"
	"github.com/bigkaa/hashverify/internal/service"
	"github.com/bigkaa/hashverify/internal/storage/registry"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Hash Verifier запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
	)

	// 3. Хранилище реестра
	reg, err := registry.New(cfg.DataDir, logger)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища", slog.String("error", err.Error()))
		log.Fatalf("Ошибка инициализации хранилища: %v", err)
	}

	// 4. Сервисы
	registerSvc := service.NewRegisterService(reg, logger)
	lookupSvc := service.NewLookupService(reg, logger)
	statsSvc := service.NewStatsService(reg, logger)
	integritySvc := service.NewIntegrityService(lookupSvc, logger)

	// 5. Обработчики
	apiHandler := handlers.NewAPIHandler(
		handlers.NewDocumentsHandler(registerSvc, logger),
		handlers.NewVerifyHandler(lookupSvc, integritySvc, cfg.MaxUploadSize, logger),
		handlers.NewSearchHandler(lookupSvc, cfg.SearchLimit, logger),
		handlers.NewStatsHandler(statsSvc, logger),
		handlers.NewHealthHandler(cfg.DataDir),
	)

	// 6. Валидация запросов по встроенному OpenAPI-контракту
	validator, err := middleware.NewOpenAPIValidator(contract.Spec)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-контракта", slog.String("error", err.Error()))
		log.Fatalf("Ошибка загрузки OpenAPI-контракта: %v", err)
	}

	// 7. HTTP-сервер
	srv := server.New(cfg, logger, apiHandler,
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
		validator,
	)

	// 8. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	logger.Info("Hash Verifier остановлен")
}
