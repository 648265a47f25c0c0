package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quizbank/internal/app"
	"quizbank/internal/db"
	"quizbank/internal/logger"
	"quizbank/internal/question"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Printf("config error: %v", err)
		os.Exit(1)
	}

	lg, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Printf("logger error: %v", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		dbConn *sql.DB
		tables question.TableReader
	)
	if strings.TrimSpace(cfg.BankDBDSN) != "" {
		dbConn, err = db.OpenPostgresWithConfig(ctx, cfg.BankDBDSN, db.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifeMins) * time.Minute,
		})
		if err != nil {
			lg.Fatal("database error", zap.Error(err))
		}
		defer dbConn.Close()
		tables = db.NewTableReader(dbConn)
	}

	store := question.NewStore()
	bankSvc := question.NewService(store, tables, lg)
	if err := preload(ctx, cfg, bankSvc); err != nil {
		lg.Fatal("preload bank", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.NewRouter(cfg, lg, store, bankSvc, dbConn),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("quizbank listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown", zap.Error(err))
	}
}

// preload installs the configured bank. Tables win over files when both are
// set; with neither the server starts empty and waits for an upload.
func preload(ctx context.Context, cfg app.Config, svc *question.Service) error {
	switch {
	case strings.TrimSpace(cfg.BankDBQuestionTable) != "" && strings.TrimSpace(cfg.BankDBDSN) != "":
		_, err := svc.LoadTables(ctx, cfg.BankDBQuestionTable, cfg.BankDBAnswerTable)
		return err
	case strings.TrimSpace(cfg.BankQuestionsFile) != "":
		_, err := svc.LoadFiles(ctx, cfg.BankQuestionsFile, cfg.BankAnswersFile)
		return err
	}
	return nil
}
