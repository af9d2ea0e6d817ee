package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/ListHarvest/internal/harvest"
	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/RecoveryAshes/ListHarvest/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
)

// StaticSurface 基于Colly的静态分页导航面
// 页面不执行脚本:滚动不产生新内容,"加载更多"就是跟随下一页链接
type StaticSurface struct {
	collector *colly.Collector
	config    models.StaticConfig

	current *url.URL
	body    []byte
	pages   int // 已加载的页数,作为内容高度

	// 最近一次请求的结果,由回调写入
	lastBody []byte
	lastErr  error
}

var _ harvest.Surface = (*StaticSurface)(nil)

// staticHandle 下一页链接
type staticHandle struct {
	href string
}

func (h staticHandle) String() string {
	return h.href
}

// NewStaticSurface 创建静态导航面
func NewStaticSurface(config models.StaticConfig) *StaticSurface {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
	)
	if config.UserAgent != "" {
		c.UserAgent = config.UserAgent
	}

	if config.InsecureSkipVerify {
		c.WithTransport(&http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		})
		utils.Debugf("静态导航面: TLS证书验证已禁用")
	}

	if config.Timeout > 0 {
		c.SetRequestTimeout(config.Timeout)
	}

	if config.Delay > 0 {
		if err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: 1,
			Delay:       config.Delay,
		}); err != nil {
			utils.Warnf("设置请求间隔失败: %v", err)
		}
	}

	s := &StaticSurface{
		collector: c,
		config:    config,
	}
	s.setupCallbacks()
	return s
}

// setupCallbacks 设置Colly回调
func (s *StaticSurface) setupCallbacks() {
	s.collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
		utils.Debugf("访问: %s", r.URL.String())
	})

	s.collector.OnResponse(func(r *colly.Response) {
		body := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressResponse(encoding, r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", r.Request.URL, encoding, err)
			} else {
				body = decompressed
			}
		}
		s.lastBody = body
	})

	s.collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			s.lastErr = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
			return
		}
		s.lastErr = err
	})
}

// fetch 同步请求页面并替换当前内容
func (s *StaticSurface) fetch(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("解析URL失败: %w", err)
	}

	s.lastBody, s.lastErr = nil, nil
	if err := s.collector.Visit(target); err != nil {
		return fmt.Errorf("请求 %s 失败: %w", target, err)
	}
	if s.lastErr != nil {
		return fmt.Errorf("请求 %s 失败: %w", target, s.lastErr)
	}

	s.current = parsed
	s.body = s.lastBody
	s.pages++
	return nil
}

// Navigate 加载第一页
func (s *StaticSurface) Navigate(ctx context.Context, target string) error {
	s.pages = 0
	return s.fetch(ctx, target)
}

// Snapshot 当前页面HTML
func (s *StaticSurface) Snapshot(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.current == nil {
		return "", errors.New("尚未加载任何页面")
	}
	return string(s.body), nil
}

// ScrollToEnd 静态页面无需滚动
func (s *StaticSurface) ScrollToEnd(context.Context) error {
	return nil
}

// MeasureContentExtent 已加载页数
func (s *StaticSurface) MeasureContentExtent(context.Context) (float64, error) {
	return float64(s.pages), nil
}

// FindActionable 在当前页面中查找下一页链接
func (s *StaticSurface) FindActionable(ctx context.Context, locator models.Locator) (harvest.Handle, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.current == nil {
		return nil, false, errors.New("尚未加载任何页面")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(s.body))
	if err != nil {
		return nil, false, fmt.Errorf("解析页面失败: %w", err)
	}

	selection := doc.Find(locator.CSS)
	if locator.Text != "" {
		pattern, err := regexp.Compile(locator.Text)
		if err != nil {
			return nil, false, fmt.Errorf("无效的文本匹配规则 %q: %w", locator.Text, err)
		}
		selection = selection.FilterFunction(func(_ int, sel *goquery.Selection) bool {
			return pattern.MatchString(strings.TrimSpace(sel.Text()))
		})
	}

	var href string
	selection.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if v, ok := sel.Attr("href"); ok && strings.TrimSpace(v) != "" {
			href = strings.TrimSpace(v)
			return false
		}
		return true
	})
	if href == "" {
		return nil, false, nil
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, false, nil
	}
	return staticHandle{href: s.current.ResolveReference(ref).String()}, true, nil
}

// WaitUntilActionable 链接总是可跟随
func (s *StaticSurface) WaitUntilActionable(_ context.Context, handle harvest.Handle, _ time.Duration) bool {
	h, ok := handle.(staticHandle)
	return ok && h.href != ""
}

// Click 跟随下一页链接
func (s *StaticSurface) Click(ctx context.Context, handle harvest.Handle) error {
	h, ok := handle.(staticHandle)
	if !ok {
		return fmt.Errorf("无效的链接句柄: %v", handle)
	}
	return s.fetch(ctx, h.href)
}

// Close 静态导航面无需释放资源
func (s *StaticSurface) Close() error {
	return nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	var reader io.Reader
	switch encoding {
	case "gzip":
		// Colly会自动解压gzip响应,此时正文已不是gzip格式
		if !bytes.HasPrefix(body, []byte{0x1f, 0x8b}) {
			return body, nil
		}
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer gz.Close()
		reader = gz

	case "deflate":
		fl := flate.NewReader(bytes.NewReader(body))
		defer fl.Close()
		reader = fl

	case "br":
		reader = brotli.NewReader(bytes.NewReader(body))

	case "", "identity":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%s读取失败: %w", encoding, err)
	}
	return decompressed, nil
}
