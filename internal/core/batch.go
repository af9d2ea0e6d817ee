package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/crawlers"
	"github.com/RecoveryAshes/ListHarvest/internal/harvest"
	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/RecoveryAshes/ListHarvest/internal/utils"
)

// BatchResult 单个查询的结果
type BatchResult struct {
	URL        string
	OutputPath string
	Success    bool
	Error      error
	Report     models.HarvestReport
	Skipped    bool // 因前面的查询失败而未执行
}

// BatchSummary 批量采集摘要
type BatchSummary struct {
	TotalURLs      int
	SuccessCount   int
	FailCount      int
	SkippedCount   int
	TotalCollected int
	TotalDuration  float64
	Results        []BatchResult
}

// Reports 已执行查询的报告
func (s *BatchSummary) Reports() []models.HarvestReport {
	reports := make([]models.HarvestReport, 0, len(s.Results))
	for _, r := range s.Results {
		if !r.Skipped && r.Report.TaskID != "" {
			reports = append(reports, r.Report)
		}
	}
	return reports
}

// BatchHarvester 批量采集器
// 每个查询使用独立的导航面和去重集合,共享同一个浏览器
type BatchHarvester struct {
	config    *Config
	harvester *Harvester
	monitor   *crawlers.ResourceMonitor
	out       io.Writer
}

// NewBatchHarvester 创建批量采集器
// harvester应已配置好共享浏览器 (rod引擎)
func NewBatchHarvester(config *Config, harvester *Harvester, monitor *crawlers.ResourceMonitor, out io.Writer) *BatchHarvester {
	return &BatchHarvester{
		config:    config,
		harvester: harvester,
		monitor:   monitor,
		out:       out,
	}
}

// Parallelism 实际并发数,受资源监控限制
func (b *BatchHarvester) Parallelism(total int) int {
	parallel := b.config.Batch.Parallel
	if b.monitor != nil {
		if limit := b.monitor.MaxSessions(); limit < parallel {
			utils.Infof("系统资源限制并发数: %d -> %d", parallel, limit)
			parallel = limit
		}
	}
	if parallel > total {
		parallel = total
	}
	if parallel < 1 {
		parallel = 1
	}
	return parallel
}

// Run 批量采集URL列表
func (b *BatchHarvester) Run(ctx context.Context, urls []string) (*BatchSummary, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("URL列表为空")
	}

	parallel := b.Parallelism(len(urls))
	utils.Infof("🚀 开始批量采集: %d个URL, 并发数 %d", len(urls), parallel)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startTime := time.Now()
	results := make([]BatchResult, len(urls))

	if parallel == 1 {
		b.runSequential(ctx, cancel, urls, results)
	} else {
		b.runParallel(ctx, cancel, urls, results, parallel)
	}

	summary := &BatchSummary{
		TotalURLs:     len(urls),
		TotalDuration: time.Since(startTime).Seconds(),
		Results:       results,
	}
	for _, r := range results {
		switch {
		case r.Skipped:
			summary.SkippedCount++
		case r.Success:
			summary.SuccessCount++
			summary.TotalCollected += r.Report.Stats.Collected
		default:
			summary.FailCount++
		}
	}

	b.printSummary(summary)

	if b.config.Output.Report != "" {
		if err := utils.SaveBatchReport(b.config.Output.Report, summary.Reports()); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// runSequential 顺序执行,查询之间等待batch.delay
func (b *BatchHarvester) runSequential(ctx context.Context, cancel context.CancelFunc, urls []string, results []BatchResult) {
	for i, target := range urls {
		if ctx.Err() != nil {
			results[i] = BatchResult{URL: target, Skipped: true}
			continue
		}

		utils.Infof("==================== [%d/%d] ====================", i+1, len(urls))
		results[i] = b.runOne(ctx, i, target, "")

		if !results[i].Success && !b.config.Batch.ContinueOnError {
			utils.Warnf("遇到错误,停止批量采集")
			cancel()
			continue
		}

		// 批量延迟 (最后一个URL不需要延迟)
		if i < len(urls)-1 && b.config.Batch.Delay > 0 {
			utils.Infof("⏳ 等待 %s 后继续下一个URL...", b.config.Batch.Delay)
			// 取消后在下一轮标记为未执行
			_ = harvest.SystemClock{}.Sleep(ctx, b.config.Batch.Delay)
		}
	}
}

// runParallel 并行执行,同时运行的查询数不超过parallel
func (b *BatchHarvester) runParallel(ctx context.Context, cancel context.CancelFunc, urls []string, results []BatchResult, parallel int) {
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup

	for i, target := range urls {
		if ctx.Err() != nil {
			results[i] = BatchResult{URL: target, Skipped: true}
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = BatchResult{URL: target, Skipped: true}
			continue
		}

		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			defer func() { <-sem }()

			label := fmt.Sprintf("[%d/%d] ", i+1, len(urls))
			results[i] = b.runOne(ctx, i, target, label)
			if !results[i].Success && !b.config.Batch.ContinueOnError {
				utils.Warnf("%s遇到错误,停止批量采集", label)
				cancel()
			}
		}(i, target)
	}

	wg.Wait()
}

// runOne 执行单个查询
func (b *BatchHarvester) runOne(ctx context.Context, index int, target, label string) BatchResult {
	outputPath := utils.IndexedPath(b.config.Output.Path, index+1)
	result := BatchResult{URL: target, OutputPath: outputPath}

	run, err := b.harvester.Run(ctx, target, outputPath, label)
	if run != nil {
		result.Report = run.Report
	}
	if err != nil {
		utils.Errorf("❌ %s采集失败: %v", label, err)
		result.Error = err
		return result
	}

	result.Success = true
	utils.Infof("✅ %s采集完成: %d 条记录", label, run.Report.Stats.Collected)
	return result
}

// printSummary 打印批量采集摘要
func (b *BatchHarvester) printSummary(summary *BatchSummary) {
	utils.Infof("==================== 批量采集摘要 ====================")
	utils.Infof("总URL数: %d", summary.TotalURLs)
	utils.Infof("成功: %d", summary.SuccessCount)
	utils.Infof("失败: %d", summary.FailCount)
	if summary.SkippedCount > 0 {
		utils.Infof("未执行: %d", summary.SkippedCount)
	}
	utils.Infof("总记录数: %d", summary.TotalCollected)
	utils.Infof("总耗时: %.2f秒", summary.TotalDuration)

	for i, r := range summary.Results {
		if r.Error != nil {
			utils.Infof("  [%d] %s - %v", i+1, r.URL, r.Error)
		}
	}

	if b.out != nil {
		utils.PrintBatchSummary(b.out, summary.Reports())
	}
}
