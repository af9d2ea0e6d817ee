package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/core"
	"github.com/RecoveryAshes/ListHarvest/internal/crawlers"
	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/RecoveryAshes/ListHarvest/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 采集参数
	targetURL  string
	quotaFlag  string
	engine     string
	outputPath string
	reportPath string
	origin     string
	headless   bool
	stealth    bool
	noProgress bool
	cooldown   time.Duration
	backoff    time.Duration
	maxRetries int

	// 批量处理参数
	urlFile         string
	parallel        int
	batchDelay      time.Duration
	continueOnError bool
)

// appConfig 在PersistentPreRunE中加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "listharvest",
	Short: "搜索结果列表采集工具",
	Long: `ListHarvest - 分页/无限滚动搜索结果列表采集工具

从搜索结果页中逐页提取列表卡片 (名称 + 详情链接),按名称去重,
达到目标数量或没有更多内容时停止,结果导出为 xlsx / csv / json。

  • 滚动加载和"加载更多"按钮两种翻页方式
  • 浏览器渲染 (rod) 和静态分页 (static) 两种引擎
  • 空页冷却、翻页失败退避重试
  • 批量URL处理

示例:
  listharvest -u "https://www.booking.com/searchresults.html?ss=Seoul" -n 100
  listharvest -f urls.txt -n 50 --parallel 2 -o out/hotels.xlsx

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig = config
		return nil
	},
	RunE: run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ListHarvest %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func run(cmd *cobra.Command, args []string) error {
	// Ctrl+C 停止采集,已收集的记录仍会导出
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 缺少URL或目标数量时从终端读取
	if (targetURL == "" && urlFile == "") || (quotaFlag == "" && appConfig.Harvest.Quota == 0) {
		if !stdinIsTerminal() {
			return fmt.Errorf("%w: 请使用 --url/-u (或 --url-file/-f) 和 --quota/-n", errNotInteractive)
		}
		p := newPrompter(os.Stdin, os.Stdout)
		needQuota := quotaFlag
		if needQuota == "" && appConfig.Harvest.Quota > 0 {
			needQuota = strconv.Itoa(appConfig.Harvest.Quota)
		}
		promptURL := targetURL
		if urlFile != "" {
			promptURL = urlFile // 批量模式不需要URL
		}
		u, q, err := p.fillMissing(promptURL, needQuota)
		if err != nil {
			return err
		}
		if urlFile == "" {
			targetURL = u
		}
		quotaFlag = q
	}

	quota := appConfig.Harvest.Quota
	if quotaFlag != "" {
		var err error
		if quota, err = ParseQuota(quotaFlag); err != nil {
			return err
		}
	}

	appConfig.MergeCLIFlags(collectOverrides(cmd, quota))

	// 参数校验在启动浏览器之前完成
	if err := appConfig.Validate(); err != nil {
		return err
	}
	if err := ValidateFlags(targetURL, appConfig.Harvest.Quota, appConfig.Batch.Parallel); err != nil {
		return err
	}
	if err := appConfig.Harvest.Validate(); err != nil {
		return err
	}

	// 初始化日志系统
	logConfig := appConfig.LogConfig()
	if verbose {
		logConfig.Level = "debug"
	}
	// 进度条占用终端时日志只写文件
	logConfig.NoConsole = appConfig.Output.Progress && stdoutIsTerminal() && urlFile == ""
	if err := utils.InitLogger(logConfig); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}
	if !stdoutIsTerminal() {
		appConfig.Output.Progress = false
	}

	if urlFile != "" {
		return runBatch(ctx)
	}
	return runSingle(ctx)
}

// runSingle 单URL采集
func runSingle(ctx context.Context) error {
	harvester := core.NewHarvester(appConfig, core.WithOutput(os.Stdout))

	result, err := harvester.Run(ctx, targetURL, appConfig.Output.Path, "")
	if result != nil && appConfig.Output.Report != "" {
		if rerr := utils.SaveReport(appConfig.Output.Report, result.Report); rerr != nil {
			utils.Warnf("保存报告失败: %v", rerr)
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			utils.Warnf("采集已中断,已保存部分结果")
			return nil
		}
		return fmt.Errorf("采集失败: %w", err)
	}

	utils.Info("✨ 采集任务完成!")
	return nil
}

// runBatch 批量采集
func runBatch(ctx context.Context) error {
	if err := ValidateURLFile(urlFile); err != nil {
		return err
	}
	urls, err := utils.ReadURLsFromFile(urlFile)
	if err != nil {
		return fmt.Errorf("读取URL文件失败: %w", err)
	}

	opts := []core.HarvesterOption{core.WithOutput(os.Stdout)}
	if appConfig.Batch.Parallel > 1 {
		opts = append(opts, core.WithoutProgress())
	}

	// 所有查询共享一个浏览器,每个查询使用独立页面
	if appConfig.Engine == models.EngineRod {
		browser, err := crawlers.LaunchBrowser(appConfig.Browser)
		if err != nil {
			return err
		}
		defer crawlers.CloseBrowser(browser)
		opts = append(opts, core.WithBrowser(browser))
	}

	monitor := crawlers.NewResourceMonitor(appConfig.ResourceMonitorConfig())
	batch := core.NewBatchHarvester(appConfig, core.NewHarvester(appConfig, opts...), monitor, os.Stdout)

	summary, err := batch.Run(ctx, urls)
	if err != nil {
		return fmt.Errorf("批量采集失败: %w", err)
	}
	if summary.FailCount > 0 && !appConfig.Batch.ContinueOnError {
		return fmt.Errorf("批量采集在第一个错误后停止 (失败 %d 个)", summary.FailCount)
	}

	utils.Info("✨ 批量采集任务完成!")
	return nil
}

// collectOverrides 收集用户显式指定的参数
func collectOverrides(cmd *cobra.Command, quota int) core.Overrides {
	flags := cmd.Flags()
	o := core.Overrides{
		Quota:      quota,
		Engine:     engine,
		Output:     outputPath,
		Report:     reportPath,
		LogLevel:   logLevel,
		Origin:     origin,
		NoProgress: noProgress,
	}
	if flags.Changed("parallel") {
		o.Parallel = parallel
	}
	if flags.Changed("headless") {
		o.Headless = &headless
	}
	if flags.Changed("stealth") {
		o.Stealth = &stealth
	}
	if flags.Changed("cooldown") {
		o.Cooldown = &cooldown
	}
	if flags.Changed("backoff") {
		o.RevealBackoff = &backoff
	}
	if flags.Changed("max-retries") {
		o.MaxRetries = &maxRetries
	}
	if flags.Changed("continue-on-error") {
		o.ContinueOnError = &continueOnError
	}
	if flags.Changed("batch-delay") {
		o.BatchDelay = &batchDelay
	}
	return o
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 采集参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "搜索结果页URL")
	rootCmd.Flags().StringVarP(&quotaFlag, "quota", "n", "", "要采集的记录数量 (正整数)")
	rootCmd.Flags().StringVar(&engine, "engine", "", "导航引擎 (rod|static)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "导出文件路径,扩展名决定格式 (.xlsx|.csv|.json)")
	rootCmd.Flags().StringVar(&reportPath, "report", "", "JSON运行报告路径")
	rootCmd.Flags().StringVar(&origin, "origin", "", "站点源,用于补全相对链接 (默认取搜索URL)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().BoolVar(&stealth, "stealth", false, "注入stealth脚本")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "不显示进度条")
	rootCmd.Flags().DurationVar(&cooldown, "cooldown", 60*time.Second, "没有新记录时的冷却时间")
	rootCmd.Flags().DurationVar(&backoff, "backoff", 30*time.Second, "翻页失败后的重试间隔")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", 5, "翻页连续失败的最大重试次数")

	// 批量处理参数
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文件路径")
	rootCmd.Flags().IntVar(&parallel, "parallel", 1, "批量模式同时采集的URL数")
	rootCmd.Flags().DurationVar(&batchDelay, "batch-delay", 0, "批量处理URL间延迟")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
