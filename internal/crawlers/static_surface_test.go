package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/harvest"
	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalogPages 服务端分页的测试目录
var catalogPages = [][]string{
	{"Alpha", "Beta"},
	{"Beta", "Gamma"},
	{"Delta"},
}

func catalogHTML(page int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, name := range catalogPages[page-1] {
		fmt.Fprintf(&b,
			`<div data-testid="property-card"><div data-testid="title">%s</div><a data-testid="title-link" href="/item/%s">详情</a></div>`,
			name, strings.ToLower(name))
	}
	if page < len(catalogPages) {
		fmt.Fprintf(&b, `<a rel="next" href="/list?page=%d">下一页</a>`, page+1)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func newCatalogServer(t *testing.T, encoding string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/list" {
			http.NotFound(w, r)
			return
		}
		page := 1
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
		if page < 1 || page > len(catalogPages) {
			http.NotFound(w, r)
			return
		}

		body := []byte(catalogHTML(page))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if encoding == "br" {
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			bw.Write(body)
			bw.Close()
			body = buf.Bytes()
			w.Header().Set("Content-Encoding", "br")
		}
		w.Write(body)
	}))
}

func TestStaticSurface_Pagination(t *testing.T) {
	server := newCatalogServer(t, "")
	defer server.Close()

	ctx := context.Background()
	surface := NewStaticSurface(models.DefaultStaticConfig())
	require.NoError(t, surface.Navigate(ctx, server.URL+"/list"))

	snapshot, err := surface.Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, snapshot, "Alpha")

	extent, err := surface.MeasureContentExtent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, extent)

	handle, found, err := surface.FindActionable(ctx, models.Locator{CSS: `a[rel="next"]`})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, server.URL+"/list?page=2", handle.String())
	assert.True(t, surface.WaitUntilActionable(ctx, handle, time.Second))

	require.NoError(t, surface.Click(ctx, handle))
	snapshot, err = surface.Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, snapshot, "Gamma")
	assert.NotContains(t, snapshot, "Alpha")

	extent, _ = surface.MeasureContentExtent(ctx)
	assert.Equal(t, 2.0, extent)
}

func TestStaticSurface_FindActionableByText(t *testing.T) {
	server := newCatalogServer(t, "")
	defer server.Close()

	ctx := context.Background()
	surface := NewStaticSurface(models.DefaultStaticConfig())
	require.NoError(t, surface.Navigate(ctx, server.URL+"/list"))

	tests := []struct {
		name      string
		locator   models.Locator
		wantFound bool
	}{
		{"文本匹配", models.Locator{CSS: "a", Text: "下一页"}, true},
		{"文本不匹配", models.Locator{CSS: "a", Text: "^Load more$"}, false},
		{"选择器不存在", models.Locator{CSS: "button.more"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found, err := surface.FindActionable(ctx, tt.locator)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
		})
	}

	_, _, err := surface.FindActionable(ctx, models.Locator{CSS: "a", Text: "("})
	assert.Error(t, err, "无效正则应返回错误")
}

func TestStaticSurface_NavigateError(t *testing.T) {
	server := newCatalogServer(t, "")
	defer server.Close()

	surface := NewStaticSurface(models.DefaultStaticConfig())
	err := surface.Navigate(context.Background(), server.URL+"/missing")
	assert.Error(t, err)

	_, err = surface.Snapshot(context.Background())
	assert.Error(t, err, "未加载页面时不能获取快照")
}

func TestStaticSurface_BrotliResponse(t *testing.T) {
	server := newCatalogServer(t, "br")
	defer server.Close()

	ctx := context.Background()
	surface := NewStaticSurface(models.DefaultStaticConfig())
	require.NoError(t, surface.Navigate(ctx, server.URL+"/list"))

	snapshot, err := surface.Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, snapshot, "Alpha")
}

func TestStaticSurface_HarvestAllPages(t *testing.T) {
	server := newCatalogServer(t, "")
	defer server.Close()

	ctx := context.Background()
	surface := NewStaticSurface(models.DefaultStaticConfig())
	require.NoError(t, surface.Navigate(ctx, server.URL+"/list"))

	config := models.DefaultHarvestConfig()
	config.Quota = 10
	config.PolitenessDelay = 0
	config.Cooldown = 0

	pagination := models.DefaultPaginationConfig()
	pagination.ScrollEnabled = false
	pagination.ClickSettle = 0
	pagination.LoadMore = models.DefaultStaticConfig().NextPage

	extractor := harvest.NewExtractor(models.DefaultSelectors(), server.URL)
	result, err := harvest.NewOrchestrator(surface, extractor, config, pagination).Run(ctx)
	require.NoError(t, err)

	var got []string
	for _, r := range result.Records {
		got = append(got, r.Identity().OrSentinel())
	}
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma", "Delta"}, got)
	assert.Equal(t, models.StopNoMoreContent, result.Reason)
	assert.Equal(t, server.URL+"/item/alpha", result.Records[0].Locator().OrSentinel())
}

func TestDecompressResponse(t *testing.T) {
	plain := []byte("<html>列表</html>")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write(plain)
	gw.Close()

	var fl bytes.Buffer
	fw, _ := flate.NewWriter(&fl, flate.DefaultCompression)
	fw.Write(plain)
	fw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write(plain)
	bw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"gzip", "gzip", gz.Bytes()},
		{"已解压的gzip", "gzip", plain},
		{"deflate", "deflate", fl.Bytes()},
		{"brotli", "br", br.Bytes()},
		{"无压缩", "", plain},
		{"未知编码", "zstd", plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decompressResponse(tt.encoding, tt.body)
			require.NoError(t, err)
			assert.Equal(t, plain, got)
		})
	}
}
