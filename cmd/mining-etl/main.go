package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logpkg "mining-etl/common/logger"
	"mining-etl/internal/config"
	"mining-etl/internal/service"

	"go.uber.org/zap"
)

const usage = `Usage: mining-etl <task>

Tasks:
  production    clean production logs, write anomalies and daily production metrics
  utilization   aggregate equipment sensors, write equipment utilization
  all           full pipeline: production + utilization + rainfall
  forecast      train production forecast from daily metrics
  report        export daily metrics and anomalies to Excel
`

func main() {
	if len(os.Args) < 2 || !service.ValidTask(os.Args[1]) {
		fmt.Print(usage)
		return
	}
	task := os.Args[1]

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	log, err := logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, "mining-etl")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 收到信号时取消当前任务
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info("Received signal, cancelling run", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	pipeline, err := service.NewPipelineFromConfig(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize pipeline", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}

	_, runErr := pipeline.Run(ctx, task)
	if err := pipeline.Close(); err != nil {
		log.Warn("Error closing connections", zap.Error(err))
	}
	if runErr != nil {
		log.Error("ETL run failed", zap.String("task", task), zap.Error(runErr))
		log.Sync()
		os.Exit(1)
	}
}
