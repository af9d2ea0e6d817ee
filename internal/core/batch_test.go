package core

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var batchCatalogs = map[string][]string{
	"https://example.com/search?city=seoul": {renderPage("Seoul A", "Seoul B")},
	"https://example.com/search?city=busan": {renderPage("Busan A"), renderPage("Busan B")},
	"https://example.com/search?city=jeju":  {renderPage("Jeju A")},
}

func newTestBatch(t *testing.T, config *Config) (*BatchHarvester, *bytes.Buffer) {
	t.Helper()
	config.Output.Path = filepath.Join(t.TempDir(), "hotels.csv")

	factory, _ := catalogFactory(batchCatalogs, nil)
	h := NewHarvester(config, WithSurfaceFactory(factory), WithHarvestClock(newFakeClock()))

	var out bytes.Buffer
	return NewBatchHarvester(config, h, nil, &out), &out
}

func TestBatchHarvester_Run(t *testing.T) {
	urls := []string{
		"https://example.com/search?city=seoul",
		"https://example.com/search?city=busan",
		"https://example.com/search?city=jeju",
	}

	for _, parallel := range []int{1, 3} {
		config := testConfig(10)
		config.Batch.Parallel = parallel
		b, out := newTestBatch(t, config)

		summary, err := b.Run(context.Background(), urls)
		require.NoError(t, err)

		assert.Equal(t, 3, summary.SuccessCount, "并发数 %d", parallel)
		assert.Equal(t, 0, summary.FailCount)
		assert.Equal(t, 5, summary.TotalCollected)

		// 结果按输入顺序排列,输出文件带序号
		for i, r := range summary.Results {
			assert.Equal(t, urls[i], r.URL)
			assert.Equal(t, filepath.Join(filepath.Dir(config.Output.Path), []string{"hotels_1.csv", "hotels_2.csv", "hotels_3.csv"}[i]), r.OutputPath)
			assert.FileExists(t, r.OutputPath)
		}
		assert.Equal(t, 2, summary.Results[1].Report.Stats.Collected)
		assert.Contains(t, out.String(), "合计")
	}
}

func TestBatchHarvester_Failures(t *testing.T) {
	urls := []string{
		"https://example.com/search?city=seoul",
		"https://example.com/search?city=unknown", // 导航失败
		"https://example.com/search?city=jeju",
	}

	t.Run("遇到错误继续", func(t *testing.T) {
		config := testConfig(10)
		b, _ := newTestBatch(t, config)

		summary, err := b.Run(context.Background(), urls)
		require.NoError(t, err)

		assert.Equal(t, 2, summary.SuccessCount)
		assert.Equal(t, 1, summary.FailCount)
		assert.ErrorIs(t, summary.Results[1].Error, models.ErrSurface)
		assert.True(t, summary.Results[2].Success)
	})

	t.Run("遇到错误停止", func(t *testing.T) {
		config := testConfig(10)
		config.Batch.ContinueOnError = false
		b, _ := newTestBatch(t, config)

		summary, err := b.Run(context.Background(), urls)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.SuccessCount)
		assert.Equal(t, 1, summary.FailCount)
		assert.Equal(t, 1, summary.SkippedCount)
		assert.True(t, summary.Results[2].Skipped)
		assert.NoFileExists(t, summary.Results[2].OutputPath)
	})
}

func TestBatchHarvester_Report(t *testing.T) {
	config := testConfig(10)
	config.Output.Report = filepath.Join(t.TempDir(), "report.json")
	b, _ := newTestBatch(t, config)

	_, err := b.Run(context.Background(), []string{
		"https://example.com/search?city=seoul",
		"https://example.com/search?city=jeju",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(config.Output.Report)
	require.NoError(t, err)

	var reports []models.HarvestReport
	require.NoError(t, json.Unmarshal(data, &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "https://example.com/search?city=jeju", reports[1].SearchURL)
	assert.Equal(t, models.StopNoMoreContent, reports[1].StopReason)
}

func TestBatchHarvester_Parallelism(t *testing.T) {
	tests := []struct {
		name     string
		parallel int
		total    int
		want     int
	}{
		{"不超过URL数量", 8, 3, 3},
		{"按配置限制", 2, 5, 2},
		{"顺序执行", 1, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(10)
			config.Batch.Parallel = tt.parallel
			b := NewBatchHarvester(config, nil, nil, nil)
			assert.Equal(t, tt.want, b.Parallelism(tt.total))
		})
	}
}

func TestBatchHarvester_EmptyList(t *testing.T) {
	b := NewBatchHarvester(testConfig(10), nil, nil, nil)
	_, err := b.Run(context.Background(), nil)
	assert.Error(t, err)
}
