package models

import (
	"encoding/json"
	"time"
)

// HarvestReport 采集报告
type HarvestReport struct {
	// 任务信息
	TaskID    string `json:"task_id"`
	SearchURL string `json:"search_url"`
	Domain    string `json:"domain"`
	Engine    Engine `json:"engine"`
	Quota     int    `json:"quota"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 结果
	Status     TaskStatus `json:"status"`
	StopReason StopReason `json:"stop_reason"`
	Stats      TaskStats  `json:"stats"`
	Error      string     `json:"error,omitempty"`

	// 输出路径 (未导出时为空)
	ExportPath string `json:"export_path,omitempty"`

	// 配置快照
	Config HarvestConfig `json:"config"`
}

// NewHarvestReport 根据任务生成报告
func NewHarvestReport(task *HarvestTask, exportPath string) HarvestReport {
	report := HarvestReport{
		TaskID:     task.ID,
		SearchURL:  task.SearchURL,
		Domain:     task.Domain,
		Engine:     task.Engine,
		Quota:      task.Config.Quota,
		Duration:   task.Stats.Duration,
		Status:     task.Status,
		StopReason: task.StopReason,
		Stats:      task.Stats,
		Error:      task.ErrorMessage,
		ExportPath: exportPath,
		Config:     task.Config,
	}
	if task.StartedAt != nil {
		report.StartTime = *task.StartedAt
	}
	if task.CompletedAt != nil {
		report.EndTime = *task.CompletedAt
	}
	return report
}

// ExportRow 导出行 (Name, URL)
type ExportRow struct {
	Name string `json:"Name"`
	URL  string `json:"URL"`
}

// ExportColumns 导出表头
var ExportColumns = []string{"Name", "URL"}

// ToExportRows 将记录转换为导出行,缺失字段使用占位值
func ToExportRows(records []Record) []ExportRow {
	rows := make([]ExportRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, ExportRow{
			Name: r.Identity().OrSentinel(),
			URL:  r.Locator().OrSentinel(),
		})
	}
	return rows
}

// ToJSON 序列化为JSON
func (r *HarvestReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *HarvestReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
