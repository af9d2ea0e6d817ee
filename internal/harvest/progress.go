package harvest

import (
	"context"
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/models"
)

// 倒计时标签
const (
	CountdownCooldown   = "cooldown"
	CountdownBackoff    = "backoff"
	CountdownExtraction = "extraction retry"
)

// ProgressReporter 进度展示
// 只用于观察,返回值不影响任何控制决策
type ProgressReporter interface {
	// Progress 收集数量和预计剩余时间
	Progress(collected, quota int, eta time.Duration)

	// Countdown 冷却/重试倒计时,每秒调用一次
	Countdown(label string, remaining time.Duration)

	// Stopped 采集结束
	Stopped(reason models.StopReason, collected int)
}

// NopReporter 不输出任何内容
type NopReporter struct{}

// Progress 忽略
func (NopReporter) Progress(int, int, time.Duration) {}

// Countdown 忽略
func (NopReporter) Countdown(string, time.Duration) {}

// Stopped 忽略
func (NopReporter) Stopped(models.StopReason, int) {}

// countdown 以1秒为步长等待d,每步报告剩余时间
func countdown(ctx context.Context, clock Clock, reporter ProgressReporter, label string, d time.Duration) error {
	remaining := d
	for remaining > 0 {
		reporter.Countdown(label, remaining)

		step := time.Second
		if remaining < step {
			step = remaining
		}
		if err := clock.Sleep(ctx, step); err != nil {
			return err
		}
		remaining -= step
	}
	return nil
}
