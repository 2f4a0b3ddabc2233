/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stargatehub/events-gin/internal/api"
	"github.com/stargatehub/events-gin/internal/config"
	"github.com/stargatehub/events-gin/internal/container"
	"github.com/stargatehub/events-gin/internal/metrics"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the Events Gin API server.
The server listens on the configured host and port, serves the merged
event feed and exposes sync trigger and status endpoints. A background
loop re-syncs all sources on the configured interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化容器
		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 3. 初始化控制器
		eventController := api.NewEventController(ctr.QueryService())
		syncController := api.NewSyncController(ctr.SyncService(), ctr.StatusService(), ctr.Registry())

		// 4. 设置路由
		router := api.SetupRoutes(cfg, ctr.Logger(), ctr.DB(), eventController, syncController)

		// 5. 启动数据库连接池指标采集
		collector := metrics.NewCollector(ctr.DB(), 30*time.Second)
		collector.Start()
		defer collector.Stop()

		// 6. 启动后台定时同步
		syncCtx, stopSync := context.WithCancel(context.Background())
		defer stopSync()
		if cfg.Sync.IntervalMinutes > 0 {
			go runScheduledSync(syncCtx, cfg, ctr)
		}

		// 7. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		// 启动服务器（在 goroutine 中）
		go func() {
			log.Printf("Server starting on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")
		stopSync()

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		log.Println("Server exited")
		return nil
	},
}

// runScheduledSync 周期性触发非强制全量同步
// 同步结果逐来源记录在日志和指标里, 这里不再额外处理
func runScheduledSync(ctx context.Context, cfg *config.Config, ctr *container.Container) {
	interval := time.Duration(cfg.Sync.IntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Sync.TimeoutSeconds)*time.Second)
			ctr.SyncService().SyncAll(syncCtx, false)
			cancel()
		}
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 服务器配置标志
	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}
