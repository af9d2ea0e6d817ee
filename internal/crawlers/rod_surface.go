package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/harvest"
	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/RecoveryAshes/ListHarvest/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const (
	scrollToEndJS   = `() => window.scrollTo(0, document.body.scrollHeight)`
	contentExtentJS = `() => document.body.scrollHeight`
)

// RodSurface 基于go-rod标签页的导航面
// 一个RodSurface独占一个标签页,不能并发使用
type RodSurface struct {
	page   *rod.Page
	config models.BrowserConfig
}

var _ harvest.Surface = (*RodSurface)(nil)

// rodHandle 页面元素句柄
type rodHandle struct {
	el   *rod.Element
	desc string
}

func (h *rodHandle) String() string {
	return h.desc
}

// NewRodSurface 在浏览器中打开新标签页
func NewRodSurface(browser *rod.Browser, config models.BrowserConfig) (*RodSurface, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}

	if config.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			utils.Warnf("注入stealth脚本失败,继续执行: %v", err)
		}
	}

	if config.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: config.UserAgent}); err != nil {
			utils.Warnf("设置User-Agent失败: %v", err)
		}
	}

	return &RodSurface{page: page, config: config}, nil
}

// Navigate 打开URL并等待加载完成
func (s *RodSurface) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if s.config.NavigationTimeout > 0 {
		p = p.Timeout(s.config.NavigationTimeout)
	}

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("导航到 %s 失败: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败: %w", err)
	}

	utils.Debugf("页面已加载: %s", url)
	return nil
}

// Snapshot 当前DOM序列化结果
func (s *RodSurface) Snapshot(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// ScrollToEnd 滚动到页面底部
func (s *RodSurface) ScrollToEnd(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(scrollToEndJS)
	return err
}

// MeasureContentExtent 页面内容高度
func (s *RodSurface) MeasureContentExtent(ctx context.Context) (float64, error) {
	res, err := s.page.Context(ctx).Eval(contentExtentJS)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

// FindActionable 查找元素,Text非空时按正则匹配元素文本
func (s *RodSurface) FindActionable(ctx context.Context, locator models.Locator) (harvest.Handle, bool, error) {
	p := s.page.Context(ctx)

	var (
		found bool
		el    *rod.Element
		err   error
	)
	if locator.Text != "" {
		found, el, err = p.HasR(locator.CSS, locator.Text)
	} else {
		found, el, err = p.Has(locator.CSS)
	}
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &rodHandle{el: el, desc: locator.String()}, true, nil
}

// WaitUntilActionable 等待元素可见且未被遮挡
func (s *RodSurface) WaitUntilActionable(ctx context.Context, handle harvest.Handle, timeout time.Duration) bool {
	h, ok := handle.(*rodHandle)
	if !ok {
		return false
	}
	if _, err := h.el.Context(ctx).Timeout(timeout).WaitInteractable(); err != nil {
		utils.Debugf("元素 %s 不可交互: %v", h.desc, err)
		return false
	}
	return true
}

// Click 左键单击
func (s *RodSurface) Click(ctx context.Context, handle harvest.Handle) error {
	h, ok := handle.(*rodHandle)
	if !ok {
		return fmt.Errorf("无效的元素句柄: %v", handle)
	}
	return h.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// Close 关闭标签页
func (s *RodSurface) Close() error {
	return s.page.Close()
}
