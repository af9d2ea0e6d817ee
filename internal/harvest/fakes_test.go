package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/models"
)

// fakeClock 假时钟,Sleep只推进时间
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// total 累计等待时间
func (c *fakeClock) total() time.Duration {
	var sum time.Duration
	for _, d := range c.sleeps {
		sum += d
	}
	return sum
}

// fakeHandle 按钮句柄
type fakeHandle string

func (h fakeHandle) String() string {
	return string(h)
}

// fakeSurface 按页面列表模拟的导航面
// 滚动或点击把cursor推进到下一页,Snapshot返回当前页
type fakeSurface struct {
	pages  [][]string
	cursor int

	scrollable bool  // 滚动是否能加载下一页
	hasButton  bool  // 是否存在"加载更多"按钮
	actionable bool  // 按钮是否可点击
	clickErr   error // 点击返回的错误
	measureErr error
	snapshotFn func(call int) (string, error)

	snapshotN int
	scrollN   int
	findN     int
	waitN     int
	clickN    int
	navigated string
	closed    bool
}

func (s *fakeSurface) Navigate(_ context.Context, url string) error {
	s.navigated = url
	return nil
}

func (s *fakeSurface) Snapshot(_ context.Context) (string, error) {
	call := s.snapshotN
	s.snapshotN++
	if s.snapshotFn != nil {
		return s.snapshotFn(call)
	}
	return renderPage(s.pages[s.cursor]...), nil
}

func (s *fakeSurface) ScrollToEnd(_ context.Context) error {
	s.scrollN++
	if s.scrollable && s.cursor < len(s.pages)-1 {
		s.cursor++
	}
	return nil
}

func (s *fakeSurface) MeasureContentExtent(_ context.Context) (float64, error) {
	if s.measureErr != nil {
		return 0, s.measureErr
	}
	return float64(1000 * (s.cursor + 1)), nil
}

func (s *fakeSurface) FindActionable(_ context.Context, locator models.Locator) (Handle, bool, error) {
	s.findN++
	if !s.hasButton || s.cursor >= len(s.pages)-1 {
		return nil, false, nil
	}
	return fakeHandle(locator.String()), true, nil
}

func (s *fakeSurface) WaitUntilActionable(_ context.Context, _ Handle, _ time.Duration) bool {
	s.waitN++
	return s.actionable
}

func (s *fakeSurface) Click(_ context.Context, _ Handle) error {
	s.clickN++
	if s.clickErr != nil {
		return s.clickErr
	}
	s.cursor++
	return nil
}

func (s *fakeSurface) Close() error {
	s.closed = true
	return nil
}

// renderPage 生成包含列表卡片的页面
func renderPage(names ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div id=\"results\">")
	for _, name := range names {
		fmt.Fprintf(&b,
			`<div data-testid="property-card"><div data-testid="title">%s</div><a data-testid="title-link" href="/hotel/%s.html">查看</a></div>`,
			name, strings.ToLower(name))
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

// recordingReporter 记录进度回调
type recordingReporter struct {
	progress   []int
	etas       []time.Duration
	countdowns map[string]int
	stopped    models.StopReason
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{countdowns: make(map[string]int)}
}

func (r *recordingReporter) Progress(collected, _ int, eta time.Duration) {
	r.progress = append(r.progress, collected)
	r.etas = append(r.etas, eta)
}

func (r *recordingReporter) Countdown(label string, _ time.Duration) {
	r.countdowns[label]++
}

func (r *recordingReporter) Stopped(reason models.StopReason, _ int) {
	r.stopped = reason
}

var errBrowserGone = errors.New("browser disconnected")

// names 提取记录名称
func names(records []models.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Identity().OrSentinel())
	}
	return out
}
