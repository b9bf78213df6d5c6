package main

import (
	"net/http"

	"marketplace-be/internal/config"
	"marketplace-be/internal/db"
	"marketplace-be/internal/httpx"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/order"
	"marketplace-be/internal/user"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := db.Open(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, userRepo)

	handler := httpx.NewHandler(userSvc, orderSvc)
	router := httpx.NewRouter(handler)

	logger.L().Info("server listening", zap.String("port", cfg.AppPort))
	if err := http.ListenAndServe(":"+cfg.AppPort, router); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
