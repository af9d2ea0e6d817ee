package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/RecoveryAshes/ListHarvest/internal/crawlers"
	"github.com/RecoveryAshes/ListHarvest/internal/harvest"
	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/RecoveryAshes/ListHarvest/internal/utils"
	"github.com/go-rod/rod"
)

// SurfaceFactory 为一次采集创建导航面
type SurfaceFactory func(engine models.Engine) (harvest.Surface, error)

// Harvester 单次采集: 打开导航面、运行采集循环、导出结果
// 可被多个goroutine同时使用
type Harvester struct {
	config     *Config
	browser    *rod.Browser
	newSurface SurfaceFactory
	out        io.Writer
	progress   bool
	clock      harvest.Clock
}

// HarvesterOption Harvester选项
type HarvesterOption func(*Harvester)

// WithBrowser 使用已启动的浏览器,由调用方负责关闭
func WithBrowser(browser *rod.Browser) HarvesterOption {
	return func(h *Harvester) {
		h.browser = browser
	}
}

// WithSurfaceFactory 替换导航面的创建方式
func WithSurfaceFactory(factory SurfaceFactory) HarvesterOption {
	return func(h *Harvester) {
		h.newSurface = factory
	}
}

// WithOutput 设置进度条和摘要表的输出,nil表示不输出
func WithOutput(w io.Writer) HarvesterOption {
	return func(h *Harvester) {
		h.out = w
	}
}

// WithoutProgress 不显示进度条,批量并行时使用
func WithoutProgress() HarvesterOption {
	return func(h *Harvester) {
		h.progress = false
	}
}

// WithHarvestClock 替换采集循环的时钟
func WithHarvestClock(clock harvest.Clock) HarvesterOption {
	return func(h *Harvester) {
		h.clock = clock
	}
}

// NewHarvester 创建采集器
func NewHarvester(config *Config, opts ...HarvesterOption) *Harvester {
	h := &Harvester{
		config:   config,
		progress: config.Output.Progress,
		clock:    harvest.SystemClock{},
	}
	h.newSurface = h.openSurface
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RunResult 一次采集的结果
type RunResult struct {
	Task    *models.HarvestTask
	Records []models.Record
	Report  models.HarvestReport
}

// Run 采集一个搜索结果页,导出到outputPath
// 返回错误时RunResult仍包含已收集的部分结果 (输入校验失败除外)
func (h *Harvester) Run(ctx context.Context, searchURL, outputPath, label string) (*RunResult, error) {
	task, err := models.NewHarvestTask(searchURL, h.config.Harvest, h.config.Engine)
	if err != nil {
		return nil, err
	}

	utils.Infof("==========================================")
	utils.Infof("开始采集: %s", searchURL)
	utils.Infof("任务ID: %s", task.ID)
	utils.Infof("引擎: %s, 目标数量: %d", task.Engine, task.Config.Quota)
	utils.Infof("==========================================")

	task.Start()
	result, runErr := h.collect(ctx, task, label)

	var records []models.Record
	reason := models.StopAborted
	stats := models.TaskStats{}
	if result != nil {
		records = result.Records
		reason = result.Reason
		stats = result.State.Stats
	}
	task.Finish(reason, stats, runErr)

	// 即使中途失败也导出已收集的记录
	exportPath := ""
	if err := utils.Export(outputPath, records); err != nil {
		if !errors.Is(err, utils.ErrNothingToExport) {
			return nil, fmt.Errorf("导出失败: %w", err)
		}
		utils.Warnf("%s%s", label, err.Error())
		if h.out != nil {
			fmt.Fprintf(h.out, "%s没有找到任何记录,未生成文件\n", label)
		}
	} else {
		exportPath = outputPath
	}

	report := models.NewHarvestReport(task, exportPath)
	if h.out != nil {
		utils.PrintSummary(h.out, report)
	}

	return &RunResult{Task: task, Records: records, Report: report}, runErr
}

// collect 打开导航面并运行采集循环
func (h *Harvester) collect(ctx context.Context, task *models.HarvestTask, label string) (result *harvest.Result, err error) {
	defer func() {
		// rod在浏览器意外断开时可能panic
		if r := recover(); r != nil {
			utils.Errorf("采集过程发生panic: %v", r)
			err = fmt.Errorf("%w: %v", models.ErrSurface, r)
		}
	}()

	surface, err := h.newSurface(task.Engine)
	if err != nil {
		return nil, fmt.Errorf("%w: 创建导航面失败: %w", models.ErrSurface, err)
	}
	defer func() {
		if cerr := surface.Close(); cerr != nil {
			utils.Warnf("关闭导航面失败: %v", cerr)
		}
	}()

	if err := surface.Navigate(ctx, task.SearchURL); err != nil {
		return nil, fmt.Errorf("%w: 打开搜索页失败: %w", models.ErrSurface, err)
	}

	origin := h.config.Site.Origin
	if origin == "" {
		origin = models.OriginOf(task.SearchURL)
	}

	var reporter harvest.ProgressReporter = harvest.NopReporter{}
	if h.progress && h.out != nil {
		reporter = utils.NewConsoleProgress(task.Config.Quota, label, h.out)
	}

	orchestrator := harvest.NewOrchestrator(
		surface,
		harvest.NewExtractor(h.config.Selectors, origin),
		task.Config,
		h.config.PaginationFor(task.Engine),
		harvest.WithClock(h.clock),
		harvest.WithReporter(reporter),
	)
	return orchestrator.Run(ctx)
}

// openSurface 按引擎创建导航面
func (h *Harvester) openSurface(engine models.Engine) (harvest.Surface, error) {
	switch engine {
	case models.EngineStatic:
		return crawlers.NewStaticSurface(h.config.Static), nil
	case models.EngineRod:
		if h.browser != nil {
			return crawlers.NewRodSurface(h.browser, h.config.Browser)
		}
		// 单次运行时独占浏览器,关闭页面时一并关闭
		browser, err := crawlers.LaunchBrowser(h.config.Browser)
		if err != nil {
			return nil, err
		}
		surface, err := crawlers.NewRodSurface(browser, h.config.Browser)
		if err != nil {
			crawlers.CloseBrowser(browser)
			return nil, err
		}
		return &ownedBrowserSurface{RodSurface: surface, browser: browser}, nil
	default:
		return nil, fmt.Errorf("未知引擎: %s", engine)
	}
}

// ownedBrowserSurface 关闭时同时关闭浏览器
type ownedBrowserSurface struct {
	*crawlers.RodSurface
	browser *rod.Browser
}

func (s *ownedBrowserSurface) Close() error {
	err := s.RodSurface.Close()
	crawlers.CloseBrowser(s.browser)
	return err
}
