package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labelops/cache"
	"labelops/config"
	"labelops/core/release"
	"labelops/core/workflow"
	"labelops/db"
	"labelops/logger"
	"labelops/model"
	"labelops/repository"
	"labelops/storage"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Start wires the application and runs the HTTP server until interrupted.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogOutputPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	gdb, err := db.ConnectGormDB(cfg)
	if err != nil {
		logger.Error("failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.CloseGormDB(gdb)

	if err := db.AutoMigrateModels(gdb, &model.Release{}, &model.Track{}); err != nil {
		logger.Error("failed to migrate database schema", zap.Error(err))
		os.Exit(1)
	}

	objects, err := storage.NewMinioStorage(cfg)
	if err != nil {
		logger.Error("failed to initialize object storage", zap.Error(err))
		os.Exit(1)
	}

	// The release cache is optional: without Redis every read falls
	// through to the database.
	var releaseCache release.Cache
	if redisClient, err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("redis unavailable, running without release cache", zap.Error(err))
	} else {
		defer redisClient.Close()
		releaseCache = cache.NewReleaseCache(redisClient)
	}

	rules := workflow.PermissiveRules()
	if cfg.StrictWorkflowRules {
		rules = workflow.StrictRules()
	}

	store := repository.NewGormStore(gdb)
	machine := workflow.NewMachine(rules)
	orchestrator := release.NewOrchestrator(store, machine, objects, releaseCache)
	apiHandler := NewAPIHandler(orchestrator, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/releases", apiHandler.AuthMiddleware(apiHandler.ListReleasesHandler)).Methods(http.MethodGet)
	api.HandleFunc("/releases", apiHandler.AuthMiddleware(apiHandler.CreateReleaseHandler)).Methods(http.MethodPost)
	api.HandleFunc("/releases/{id}", apiHandler.AuthMiddleware(apiHandler.GetReleaseHandler)).Methods(http.MethodGet)
	api.HandleFunc("/releases/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateReleaseHandler)).Methods(http.MethodPut)
	api.HandleFunc("/releases/{id}/submit", apiHandler.AuthMiddleware(apiHandler.SubmitReleaseHandler)).Methods(http.MethodPost)
	api.HandleFunc("/releases/{id}/status", apiHandler.AuthMiddleware(apiHandler.UpdateStatusHandler)).Methods(http.MethodPatch)
	api.HandleFunc("/releases/{id}/tracks", apiHandler.AuthMiddleware(apiHandler.AddTrackHandler)).Methods(http.MethodPost)
	api.HandleFunc("/releases/{id}/tracks/order", apiHandler.AuthMiddleware(apiHandler.ReorderTracksHandler)).Methods(http.MethodPut)
	api.HandleFunc("/tracks/{trackId}", apiHandler.AuthMiddleware(apiHandler.UpdateTrackHandler)).Methods(http.MethodPut)
	api.HandleFunc("/tracks/{trackId}", apiHandler.AuthMiddleware(apiHandler.DeleteTrackHandler)).Methods(http.MethodDelete)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
