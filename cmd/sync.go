/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/stargatehub/events-gin/internal/config"
	"github.com/stargatehub/events-gin/internal/container"
	"github.com/stargatehub/events-gin/internal/model"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync events from external providers",
	Long: `Fetch events from the registered external providers and merge them
into the canonical store. By default all providers are synced; use
--source to sync a single provider. Provider failures are reported
per source and do not abort the run.

Intended to run on a schedule (e.g. hourly via cron) as well as on demand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		sourceName, _ := cmd.Flags().GetString("source")
		forced, _ := cmd.Flags().GetBool("force")
		timeoutSec, _ := cmd.Flags().GetInt("timeout")

		// 1. 加载配置
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

		if timeoutSec <= 0 {
			timeoutSec = cfg.Sync.TimeoutSeconds
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
		defer cancel()

		// 3. 执行同步
		var result *model.SyncResult
		if sourceName != "" {
			result, err = ctr.SyncService().SyncOne(ctx, sourceName, forced)
			if err != nil {
				// 未知来源属于调用方错误, 以非零退出码结束
				return err
			}
		} else {
			result = ctr.SyncService().SyncAll(ctx, forced)
		}

		printSyncResult(result)
		return nil
	},
}

// printSyncResult 打印逐来源成功/失败统计
func printSyncResult(result *model.SyncResult) {
	names := make([]string, 0, len(result.PerSource))
	for name := range result.PerSource {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Sync finished (forced=%v, duration=%s)\n", result.Forced, result.Duration)
	for _, name := range names {
		outcome := result.PerSource[name]
		switch {
		case outcome.Cached:
			fmt.Printf("  %-10s ok      %3d events (cached)\n", name, outcome.Count)
		case outcome.Status == model.SyncStatusSuccess:
			fmt.Printf("  %-10s ok      %3d events\n", name, outcome.Count)
		default:
			fmt.Printf("  %-10s error   %3d events (fallback): %s\n", name, outcome.Count, outcome.Error)
		}
	}
	fmt.Printf("Total synced: %d\n", result.TotalSynced)
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	syncCmd.Flags().String("source", "", "Sync a single provider (default: all registered providers)")
	syncCmd.Flags().Bool("force", false, "Bypass the response cache and refetch from providers")
	syncCmd.Flags().Int("timeout", 0, "Overall sync timeout in seconds (default: sync.timeout_seconds)")
}
