package harvest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"golang.org/x/net/html"
)

// 提取错误
var (
	ErrEmptySnapshot     = fmt.Errorf("%w: 页面快照为空", models.ErrExtraction)
	ErrMalformedSnapshot = fmt.Errorf("%w: 页面快照无法解析", models.ErrExtraction)
)

// Extractor 记录提取器
// 从页面快照中解析列表卡片,每张卡片产生一条记录
type Extractor struct {
	selectors models.Selectors
	base      *url.URL // 站点源,为nil时相对地址保持原样
}

// NewExtractor 创建提取器
// origin为空或无法解析时,相对地址不做转换
func NewExtractor(selectors models.Selectors, origin string) *Extractor {
	e := &Extractor{selectors: selectors}
	if origin = models.OriginOf(origin); origin != "" {
		e.base, _ = url.Parse(origin)
	}
	return e
}

// Extract 提取快照中的新记录并登记到seen
// 返回按文档顺序排列的新记录,以及跳过的重复数量。
// 字段缺失不会丢弃记录,只有整体解析失败才返回错误。
func (e *Extractor) Extract(snapshot string, seen *SeenSet) ([]models.Record, int, error) {
	if strings.TrimSpace(snapshot) == "" {
		return nil, 0, ErrEmptySnapshot
	}

	root, err := html.Parse(strings.NewReader(snapshot))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	var (
		records    []models.Record
		duplicates int
	)
	doc.Find(e.selectors.Card).Each(func(_ int, card *goquery.Selection) {
		record := models.NewRecord(e.identity(card), e.locator(card))

		key := record.Key()
		if seen.Seen(key) {
			duplicates++
			return
		}
		seen.Mark(key)
		records = append(records, record)
	})

	return records, duplicates, nil
}

// identity 卡片名称
func (e *Extractor) identity(card *goquery.Selection) models.Field {
	name := card.Find(e.selectors.Name).First()
	if name.Length() == 0 {
		return models.Missing()
	}
	return models.Present(collapseSpace(name.Text()))
}

// locator 卡片详情地址
func (e *Extractor) locator(card *goquery.Selection) models.Field {
	href, ok := card.Find(e.selectors.Link).First().Attr("href")
	if !ok {
		return models.Missing()
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return models.Missing()
	}

	ref, err := url.Parse(href)
	if err != nil {
		return models.Missing()
	}
	if ref.IsAbs() || e.base == nil {
		return models.Present(href)
	}
	return models.Present(e.base.ResolveReference(ref).String())
}

// collapseSpace 合并连续空白
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsExtractionError 是否为快照解析错误
func IsExtractionError(err error) bool {
	return errors.Is(err, models.ErrExtraction)
}
