package harvest

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/RecoveryAshes/ListHarvest/internal/utils"
)

// Paginator 翻页驱动
// 每次调用依次尝试滚动和点击"加载更多",不需要预先知道页面使用哪种方式
type Paginator struct {
	surface Surface
	clock   Clock
	config  models.PaginationConfig
}

// NewPaginator 创建翻页驱动
func NewPaginator(surface Surface, clock Clock, config models.PaginationConfig) *Paginator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Paginator{
		surface: surface,
		clock:   clock,
		config:  config,
	}
}

// Reveal 推进一步并报告结果
func (p *Paginator) Reveal(ctx context.Context) models.RevealOutcome {
	if p.config.ScrollEnabled {
		if p.scroll(ctx) {
			return models.Progressed(models.StrategyScroll)
		}
		if p.config.LoadMore.IsZero() {
			return models.Exhausted(models.StrategyScroll)
		}
	} else if p.config.LoadMore.IsZero() {
		return models.Exhausted("")
	}

	return p.clickLoadMore(ctx)
}

// scroll 滚动到末尾,内容高度增加视为有进展
func (p *Paginator) scroll(ctx context.Context) bool {
	before, err := p.surface.MeasureContentExtent(ctx)
	if err != nil {
		utils.Debugf("测量页面高度失败: %v", err)
		return false
	}

	if err := p.surface.ScrollToEnd(ctx); err != nil {
		utils.Debugf("滚动失败: %v", err)
		return false
	}

	if err := p.clock.Sleep(ctx, p.config.ScrollSettle); err != nil {
		return false
	}

	after, err := p.surface.MeasureContentExtent(ctx)
	if err != nil {
		utils.Debugf("测量页面高度失败: %v", err)
		return false
	}

	utils.Debugf("滚动前高度: %.0f, 滚动后高度: %.0f", before, after)
	return after > before
}

// clickLoadMore 点击"加载更多"
func (p *Paginator) clickLoadMore(ctx context.Context) models.RevealOutcome {
	handle, found, err := p.surface.FindActionable(ctx, p.config.LoadMore)
	if err != nil {
		return models.TransientFailure(models.StrategyClick, fmt.Sprintf("查找按钮失败: %v", err))
	}
	if !found {
		return models.Exhausted(models.StrategyClick)
	}

	if !p.surface.WaitUntilActionable(ctx, handle, p.config.ActionableTimeout) {
		return models.TransientFailure(models.StrategyClick,
			fmt.Sprintf("按钮 %s 在 %s 内不可点击", handle, p.config.ActionableTimeout))
	}

	if err := p.surface.Click(ctx, handle); err != nil {
		return models.TransientFailure(models.StrategyClick, fmt.Sprintf("点击失败: %v", err))
	}

	if err := p.clock.Sleep(ctx, p.config.ClickSettle); err != nil {
		return models.TransientFailure(models.StrategyClick, err.Error())
	}

	return models.Progressed(models.StrategyClick)
}
