package cron

import (
	"context"
	"time"

	"labbook/config"
	"labbook/services/crm"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt is the Redis connection shared by the lead queue client and worker.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitLeadWorker runs the CRM lead worker in the background. The returned
// server is shut down by the caller.
func InitLeadWorker(ctx context.Context, submitter crm.Submitter, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar().Named("asynq"),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(crm.TypeLead, crm.HandleLeadTask(submitter, logger))

	go monitorRedisConnection(ctx, logger)

	go func() {
		logger.Info("Starting CRM lead worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("Lead worker failed to start", zap.Int("attempt", attempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Lead worker gave up; contact leads stay queued")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()
	return srv
}

// monitorRedisConnection pings the queue database to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	opt := QueueRedisOpt()
	client := redis.NewClient(&redis.Options{Addr: opt.Addr, Password: opt.Password, DB: opt.DB})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Lead queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
