package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"
)

// SaveReport 保存JSON运行报告
func SaveReport(path string, report models.HarvestReport) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}

	data, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// SaveBatchReport 保存批量运行报告
func SaveBatchReport(path string, reports []models.HarvestReport) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// ConsoleProgress 终端进度展示
// 实现harvest.ProgressReporter
type ConsoleProgress struct {
	bar   *progressbar.ProgressBar
	label string
}

// NewConsoleProgress 创建终端进度展示,label用于区分批量任务
func NewConsoleProgress(quota int, label string, w io.Writer) *ConsoleProgress {
	return &ConsoleProgress{
		bar:   NewProgressBar(quota, label+"采集中", w),
		label: label,
	}
}

// Progress 更新已收集数量和预计剩余时间
func (p *ConsoleProgress) Progress(collected, _ int, eta time.Duration) {
	p.bar.Describe(fmt.Sprintf("%s预计剩余 %s", p.label, FormatClock(eta)))
	_ = p.bar.Set(collected)
}

// Countdown 显示冷却/重试倒计时
func (p *ConsoleProgress) Countdown(label string, remaining time.Duration) {
	p.bar.Describe(fmt.Sprintf("%s%s: 剩余 %d 秒", p.label, countdownLabel(label), int(remaining.Round(time.Second)/time.Second)))
	_ = p.bar.RenderBlank()
}

// Stopped 结束进度条
func (p *ConsoleProgress) Stopped(reason models.StopReason, collected int) {
	p.bar.Describe(fmt.Sprintf("%s已结束 (%s), 共 %d 条", p.label, reason, collected))
	_ = p.bar.Finish()
}

// countdownLabel 倒计时标签的中文显示
func countdownLabel(label string) string {
	switch label {
	case "cooldown":
		return "冷却"
	case "backoff":
		return "翻页重试等待"
	case "extraction retry":
		return "解析重试等待"
	default:
		return label
	}
}

// FormatClock 格式化为HH:MM:SS,超过24小时不回绕
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// PrintSummary 输出单次运行摘要表
func PrintSummary(w io.Writer, report models.HarvestReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"项目", "值"})
	t.AppendRows([]table.Row{
		{"任务ID", report.TaskID},
		{"搜索URL", report.SearchURL},
		{"引擎", report.Engine},
		{"目标数量", report.Quota},
		{"已收集", report.Stats.Collected},
		{"重复跳过", report.Stats.Duplicates},
		{"结束原因", report.StopReason},
		{"翻页次数", fmt.Sprintf("%d (滚动 %d, 点击 %d, 失败 %d)",
			report.Stats.Reveals, report.Stats.ScrollReveals, report.Stats.ClickReveals, report.Stats.RevealFailures)},
		{"冷却次数", report.Stats.Cooldowns},
		{"耗时", FormatClock(time.Duration(report.Duration * float64(time.Second)))},
	})
	if report.ExportPath != "" {
		t.AppendRow(table.Row{"导出文件", report.ExportPath})
	}
	if report.Error != "" {
		t.AppendRow(table.Row{"错误", report.Error})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// PrintBatchSummary 输出批量运行摘要表
func PrintBatchSummary(w io.Writer, reports []models.HarvestReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "搜索URL", "状态", "已收集", "结束原因", "导出文件"})

	total := 0
	for i, r := range reports {
		total += r.Stats.Collected
		t.AppendRow(table.Row{i + 1, r.SearchURL, r.Status, r.Stats.Collected, r.StopReason, r.ExportPath})
	}
	t.AppendFooter(table.Row{"", "合计", "", total, "", ""})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
