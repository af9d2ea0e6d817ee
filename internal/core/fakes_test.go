package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/harvest"
	"github.com/RecoveryAshes/ListHarvest/internal/models"
)

// fakeClock 并发安全的假时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

type fakeHandle string

func (h fakeHandle) String() string {
	return string(h)
}

// catalogSurface 按URL返回预设页面,点击"加载更多"进入下一页
type catalogSurface struct {
	catalogs    map[string][]string
	navigateErr error
	panicOn     string // 在该URL的快照时panic

	url    string
	cursor int
	closed bool
}

func (s *catalogSurface) Navigate(_ context.Context, url string) error {
	if s.navigateErr != nil {
		return s.navigateErr
	}
	if _, ok := s.catalogs[url]; !ok {
		return fmt.Errorf("404: %s", url)
	}
	s.url = url
	s.cursor = 0
	return nil
}

func (s *catalogSurface) Snapshot(context.Context) (string, error) {
	if s.panicOn != "" && s.url == s.panicOn {
		panic("websocket closed")
	}
	return s.catalogs[s.url][s.cursor], nil
}

func (s *catalogSurface) ScrollToEnd(context.Context) error {
	return nil
}

func (s *catalogSurface) MeasureContentExtent(context.Context) (float64, error) {
	return 1000, nil
}

func (s *catalogSurface) FindActionable(context.Context, models.Locator) (harvest.Handle, bool, error) {
	if s.cursor >= len(s.catalogs[s.url])-1 {
		return nil, false, nil
	}
	return fakeHandle("load-more"), true, nil
}

func (s *catalogSurface) WaitUntilActionable(context.Context, harvest.Handle, time.Duration) bool {
	return true
}

func (s *catalogSurface) Click(context.Context, harvest.Handle) error {
	s.cursor++
	return nil
}

func (s *catalogSurface) Close() error {
	s.closed = true
	return nil
}

// catalogFactory 每次创建新的导航面
func catalogFactory(catalogs map[string][]string, configure func(*catalogSurface)) (SurfaceFactory, *[]*catalogSurface) {
	var (
		mu      sync.Mutex
		created []*catalogSurface
	)
	factory := func(models.Engine) (harvest.Surface, error) {
		s := &catalogSurface{catalogs: catalogs}
		if configure != nil {
			configure(s)
		}
		mu.Lock()
		created = append(created, s)
		mu.Unlock()
		return s, nil
	}
	return factory, &created
}

// renderPage 生成包含列表卡片的页面
func renderPage(names ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, name := range names {
		fmt.Fprintf(&b,
			`<div data-testid="property-card"><div data-testid="title">%s</div><a data-testid="title-link" href="/hotel/%s.html">查看</a></div>`,
			name, strings.ToLower(name))
	}
	b.WriteString("</body></html>")
	return b.String()
}

// testConfig 快速运行的默认配置
func testConfig(quota int) *Config {
	harvestCfg := models.DefaultHarvestConfig()
	harvestCfg.Quota = quota

	return &Config{
		Engine:     models.EngineRod,
		Harvest:    harvestCfg,
		Pagination: models.DefaultPaginationConfig(),
		Selectors:  models.DefaultSelectors(),
		Browser:    models.DefaultBrowserConfig(),
		Static:     models.DefaultStaticConfig(),
		Output:     OutputConfig{Path: "hotels.csv"},
		Batch:      BatchConfig{Parallel: 1, ContinueOnError: true},
	}
}
