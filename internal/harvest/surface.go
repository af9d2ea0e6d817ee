// Package harvest 实现列表采集的核心循环:
// 翻页驱动、记录提取、去重、进度估算和终止决策。
//
// 本包不依赖任何具体的浏览器技术,只通过Surface接口操作当前页面。
package harvest

import (
	"context"
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/models"
)

// Handle 页面上可交互元素的句柄
type Handle interface {
	String() string
}

// Surface 导航面
// 代表一个有状态的"当前页面",同一时刻只能被一个调用方推进
type Surface interface {
	// Navigate 打开URL
	Navigate(ctx context.Context, url string) error

	// Snapshot 返回当前页面的HTML
	Snapshot(ctx context.Context) (string, error)

	// ScrollToEnd 滚动到当前内容末尾
	ScrollToEnd(ctx context.Context) error

	// MeasureContentExtent 测量当前内容高度
	MeasureContentExtent(ctx context.Context) (float64, error)

	// FindActionable 查找匹配定位的元素,不存在时返回false
	FindActionable(ctx context.Context, locator models.Locator) (Handle, bool, error)

	// WaitUntilActionable 在超时内等待元素可点击
	WaitUntilActionable(ctx context.Context, handle Handle, timeout time.Duration) bool

	// Click 点击元素
	Click(ctx context.Context, handle Handle) error

	// Close 释放资源
	Close() error
}
