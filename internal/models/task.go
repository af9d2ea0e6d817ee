package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待执行
	TaskStatusRunning   TaskStatus = "running"   // 执行中
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
)

// Engine 导航面引擎
type Engine string

const (
	EngineRod    Engine = "rod"    // 浏览器渲染(go-rod)
	EngineStatic Engine = "static" // 静态分页(Colly)
)

// TaskStats 任务统计
type TaskStats struct {
	Collected         int     `json:"collected"`          // 已收集记录数
	Duplicates        int     `json:"duplicates"`         // 跳过的重复记录数
	Snapshots         int     `json:"snapshots"`          // 快照次数
	Reveals           int     `json:"reveals"`            // 翻页尝试次数
	ScrollReveals     int     `json:"scroll_reveals"`     // 滚动成功次数
	ClickReveals      int     `json:"click_reveals"`      // 点击加载成功次数
	RevealFailures    int     `json:"reveal_failures"`    // 翻页暂时失败次数
	Cooldowns         int     `json:"cooldowns"`          // 冷却次数
	ExtractionRetries int     `json:"extraction_retries"` // 解析重试次数
	Duration          float64 `json:"duration"`           // 总耗时(秒)
}

// Locator 页面元素定位
type Locator struct {
	CSS  string `mapstructure:"css" json:"css"`             // CSS选择器
	Text string `mapstructure:"text" json:"text,omitempty"` // 元素文本需匹配的正则 (可选)
}

// IsZero 是否未配置
func (l Locator) IsZero() bool {
	return l.CSS == "" && l.Text == ""
}

// String 实现fmt.Stringer
func (l Locator) String() string {
	if l.Text == "" {
		return l.CSS
	}
	return fmt.Sprintf("%s /%s/", l.CSS, l.Text)
}

// Selectors 列表卡片选择器
type Selectors struct {
	Card string `mapstructure:"card" json:"card"` // 列表卡片
	Name string `mapstructure:"name" json:"name"` // 卡片内名称元素
	Link string `mapstructure:"link" json:"link"` // 卡片内详情链接
}

// DefaultSelectors 默认选择器
func DefaultSelectors() Selectors {
	return Selectors{
		Card: `div[data-testid="property-card"]`,
		Name: `div[data-testid="title"]`,
		Link: `a[data-testid="title-link"]`,
	}
}

// HarvestConfig 采集循环配置
type HarvestConfig struct {
	Quota                int           `mapstructure:"quota" json:"quota"`                                   // 目标数量
	Cooldown             time.Duration `mapstructure:"cooldown" json:"cooldown"`                             // 空页冷却时间 (默认:60s)
	RevealBackoff        time.Duration `mapstructure:"reveal_backoff" json:"reveal_backoff"`                 // 翻页失败重试间隔 (默认:30s)
	MaxRevealRetries     int           `mapstructure:"max_reveal_retries" json:"max_reveal_retries"`         // 翻页最大重试次数 (默认:5)
	PolitenessDelay      time.Duration `mapstructure:"politeness_delay" json:"politeness_delay"`             // 翻页间隔 (默认:1s)
	ExtractionRetries    int           `mapstructure:"extraction_retries" json:"extraction_retries"`         // 解析失败重试次数 (默认:3)
	ExtractionRetryDelay time.Duration `mapstructure:"extraction_retry_delay" json:"extraction_retry_delay"` // 解析失败重试间隔 (默认:30s)
}

// DefaultHarvestConfig 默认采集配置
func DefaultHarvestConfig() HarvestConfig {
	return HarvestConfig{
		Cooldown:             60 * time.Second,
		RevealBackoff:        30 * time.Second,
		MaxRevealRetries:     5,
		PolitenessDelay:      1 * time.Second,
		ExtractionRetries:    3,
		ExtractionRetryDelay: 30 * time.Second,
	}
}

// Validate 验证配置
func (c *HarvestConfig) Validate() error {
	if c.Quota <= 0 {
		return NewInputError("quota", strconv.Itoa(c.Quota), "必须是正整数")
	}
	if c.Cooldown < 0 || c.RevealBackoff < 0 || c.PolitenessDelay < 0 || c.ExtractionRetryDelay < 0 {
		return fmt.Errorf("等待时间不能为负数")
	}
	if c.MaxRevealRetries < 0 {
		return fmt.Errorf("翻页重试次数不能为负数: %d", c.MaxRevealRetries)
	}
	if c.ExtractionRetries < 0 {
		return fmt.Errorf("解析重试次数不能为负数: %d", c.ExtractionRetries)
	}
	return nil
}

// PaginationConfig 翻页配置
type PaginationConfig struct {
	ScrollEnabled     bool          `mapstructure:"scroll_enabled" json:"scroll_enabled"`         // 启用滚动策略
	ScrollSettle      time.Duration `mapstructure:"scroll_settle" json:"scroll_settle"`           // 滚动后等待 (默认:5s)
	ClickSettle       time.Duration `mapstructure:"click_settle" json:"click_settle"`             // 点击后等待 (默认:5s)
	ActionableTimeout time.Duration `mapstructure:"actionable_timeout" json:"actionable_timeout"` // 等待按钮可点击 (默认:10s)
	LoadMore          Locator       `mapstructure:"load_more" json:"load_more"`                   // "加载更多"按钮
}

// DefaultPaginationConfig 默认翻页配置
func DefaultPaginationConfig() PaginationConfig {
	return PaginationConfig{
		ScrollEnabled:     true,
		ScrollSettle:      5 * time.Second,
		ClickSettle:       5 * time.Second,
		ActionableTimeout: 10 * time.Second,
		LoadMore:          Locator{CSS: "button", Text: "Load more results"},
	}
}

// HarvestTask 采集任务
type HarvestTask struct {
	// 基本信息
	ID          string     `json:"id"`                     // 任务唯一ID (UUID)
	SearchURL   string     `json:"search_url"`             // 搜索结果URL
	Domain      string     `json:"domain"`                 // 解析的域名
	CreatedAt   time.Time  `json:"created_at"`             // 创建时间
	StartedAt   *time.Time `json:"started_at,omitempty"`   // 开始时间
	CompletedAt *time.Time `json:"completed_at,omitempty"` // 完成时间

	// 配置参数
	Config HarvestConfig `json:"config"`
	Engine Engine        `json:"engine"`

	// 执行状态
	Status     TaskStatus `json:"status"`
	StopReason StopReason `json:"stop_reason,omitempty"`

	// 统计信息
	Stats TaskStats `json:"stats"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewHarvestTask 创建新任务
func NewHarvestTask(searchURL string, config HarvestConfig, engine Engine) (*HarvestTask, error) {
	if err := ValidateURL(searchURL); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	parsed, _ := url.Parse(searchURL)

	return &HarvestTask{
		ID:        generateID(),
		SearchURL: searchURL,
		Domain:    parsed.Host,
		CreatedAt: time.Now(),
		Config:    config,
		Engine:    engine,
		Status:    TaskStatusPending,
	}, nil
}

// Start 标记任务开始
func (t *HarvestTask) Start() {
	now := time.Now()
	t.StartedAt = &now
	t.Status = TaskStatusRunning
}

// Finish 标记任务结束
func (t *HarvestTask) Finish(reason StopReason, stats TaskStats, err error) {
	now := time.Now()
	t.CompletedAt = &now
	t.StopReason = reason
	t.Stats = stats
	if t.StartedAt != nil {
		t.Stats.Duration = now.Sub(*t.StartedAt).Seconds()
	}
	if err != nil {
		t.Status = TaskStatusFailed
		t.ErrorMessage = err.Error()
		return
	}
	t.Status = TaskStatusCompleted
}

// ToJSON 序列化为JSON
func (t *HarvestTask) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// FromJSON 从JSON反序列化
func (t *HarvestTask) FromJSON(data []byte) error {
	return json.Unmarshal(data, t)
}
