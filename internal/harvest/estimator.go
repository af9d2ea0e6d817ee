package harvest

import (
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/utils"
)

// Estimator 按已用时间线性外推剩余时间
type Estimator struct {
	clock Clock
}

// NewEstimator 创建估算器
func NewEstimator(clock Clock) *Estimator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Estimator{clock: clock}
}

// Estimate 预计剩余时间
// collected为0时无法计算速率,返回0
func (e *Estimator) Estimate(start time.Time, collected, quota int) time.Duration {
	if collected <= 0 || collected >= quota {
		return 0
	}
	elapsed := e.clock.Now().Sub(start)
	if elapsed <= 0 {
		return 0
	}
	rate := elapsed / time.Duration(collected)
	return rate * time.Duration(quota-collected)
}

// FormatETA 格式化为HH:MM:SS
func FormatETA(d time.Duration) string {
	return utils.FormatClock(d)
}
