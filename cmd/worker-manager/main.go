// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appaws "school-pickup/internal/common/aws"
	"school-pickup/internal/common/camunda"
	"school-pickup/internal/common/config"
	"school-pickup/internal/common/database"
	"school-pickup/internal/common/logger"
	"school-pickup/internal/common/observability"
	"school-pickup/internal/notification"
	"school-pickup/internal/push"
	"school-pickup/internal/realtime"
	"school-pickup/internal/receipt"
	"school-pickup/internal/store"
	"school-pickup/internal/subscription"

	csn "school-pickup/internal/workers/notification/cancel-scheduled-notification"
	dn "school-pickup/internal/workers/notification/delete-notification"
	mnr "school-pickup/internal/workers/notification/mark-notifications-read"
	qn "school-pickup/internal/workers/notification/query-notifications"
	rd "school-pickup/internal/workers/notification/register-device"
	sn "school-pickup/internal/workers/notification/send-notification"
	afr "school-pickup/internal/workers/receipt/add-fast-request"
	crr "school-pickup/internal/workers/receipt/create-receipt-request"
	qrr "school-pickup/internal/workers/receipt/query-receipt-requests"
	rrr "school-pickup/internal/workers/receipt/remove-receipt-request"
	urr "school-pickup/internal/workers/receipt/update-receipt-request"
	urs "school-pickup/internal/workers/receipt/update-receipt-status"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()

	// --- Push gateway and email fallback ---
	var snsAPI appaws.SNSAPI
	if cfg.Notifications.Push.Provider == "sns" {
		client, err := appaws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		snsAPI = client
	}
	gateway, err := push.New(cfg.Notifications.Push, snsAPI, log)
	if err != nil {
		zapLog.Fatal("push gateway failed", zap.Error(err))
	}

	var mailer appaws.SESAPI
	if cfg.Notifications.Email.Enabled {
		client, err := appaws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		mailer = client
	}

	// --- Domain services ---
	directory := store.NewDirectory(pg)
	notifications := notification.NewService(
		store.NewNotificationStore(pg, cfg.Pickup.NotificationsPath),
		directory,
		gateway,
		mailer,
		notification.Options{
			SchedulingEnabled: cfg.Notifications.Push.SchedulingEnabled,
			EmailEnabled:      cfg.Notifications.Email.Enabled,
			FromEmail:         cfg.Notifications.Email.FromEmail,
		},
		log,
	)
	receipts := receipt.NewService(
		store.NewReceiptStore(pg, cfg.Pickup.ListBasePath),
		directory,
		subscription.NewChecker(pg, rdb.Client, log),
		notifications,
		realtime.NewPublisher(rdb.Client, cfg.Realtime.ChannelPrefix, log),
		receipt.Options{
			Location:         cfg.Pickup.Location(),
			FastWindowBefore: time.Duration(cfg.Pickup.FastWindowBefore) * time.Minute,
			FastWindowAfter:  time.Duration(cfg.Pickup.FastWindowAfter) * time.Minute,
		},
		log,
	)

	// --- Workers ---
	var workers []worker.JobWorker
	register := func(taskType string, handler camunda.JobHandler, err error) {
		if err != nil {
			zapLog.Fatal("failed to create handler", zap.String("taskType", taskType), zap.Error(err))
		}
		if w := camunda.StartWorker(zeebe.Raw(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log); w != nil {
			workers = append(workers, w)
		}
	}

	{
		h, err := crr.NewHandler(crr.FromWorkerConfig(config.GetWorkerConfig(cfg, crr.TaskType)), receipts, obs, log)
		register(crr.TaskType, h, err)
	}
	{
		h, err := urs.NewHandler(urs.FromWorkerConfig(config.GetWorkerConfig(cfg, urs.TaskType)), receipts, obs, log)
		register(urs.TaskType, h, err)
	}
	{
		h, err := afr.NewHandler(afr.FromWorkerConfig(config.GetWorkerConfig(cfg, afr.TaskType)), receipts, obs, log)
		register(afr.TaskType, h, err)
	}
	{
		h, err := urr.NewHandler(urr.FromWorkerConfig(config.GetWorkerConfig(cfg, urr.TaskType)), receipts, obs, log)
		register(urr.TaskType, h, err)
	}
	{
		h, err := rrr.NewHandler(rrr.FromWorkerConfig(config.GetWorkerConfig(cfg, rrr.TaskType)), receipts, obs, log)
		register(rrr.TaskType, h, err)
	}
	{
		h, err := qrr.NewHandler(qrr.FromWorkerConfig(config.GetWorkerConfig(cfg, qrr.TaskType)), receipts, obs, log)
		register(qrr.TaskType, h, err)
	}
	{
		h, err := sn.NewHandler(sn.FromWorkerConfig(config.GetWorkerConfig(cfg, sn.TaskType)), notifications, obs, log)
		register(sn.TaskType, h, err)
	}
	{
		h, err := mnr.NewHandler(mnr.FromWorkerConfig(config.GetWorkerConfig(cfg, mnr.TaskType)), notifications, obs, log)
		register(mnr.TaskType, h, err)
	}
	{
		h, err := csn.NewHandler(csn.FromWorkerConfig(config.GetWorkerConfig(cfg, csn.TaskType)), notifications, obs, log)
		register(csn.TaskType, h, err)
	}
	{
		h, err := dn.NewHandler(dn.FromWorkerConfig(config.GetWorkerConfig(cfg, dn.TaskType)), notifications, obs, log)
		register(dn.TaskType, h, err)
	}
	{
		h, err := rd.NewHandler(rd.FromWorkerConfig(config.GetWorkerConfig(cfg, rd.TaskType)), notifications, obs, log)
		register(rd.TaskType, h, err)
	}
	{
		h, err := qn.NewHandler(qn.FromWorkerConfig(config.GetWorkerConfig(cfg, qn.TaskType)), notifications, obs, log)
		register(qn.TaskType, h, err)
	}
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := readiness(checkCtx, pg, rdb, zeebe); err != nil {
			log.Warn("readiness check failed", map[string]interface{}{"error": err.Error()})
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Server.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping workers", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping health server", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped gracefully", nil)
}

func readiness(ctx context.Context, pg *database.PostgresClient, rdb *database.RedisClient, zeebe *camunda.Client) error {
	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := rdb.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return zeebe.HealthCheck(ctx)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
