package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/crawlers"
	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/RecoveryAshes/ListHarvest/internal/utils"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Engine     models.Engine           `mapstructure:"engine"`
	Harvest    models.HarvestConfig    `mapstructure:"harvest"`
	Pagination models.PaginationConfig `mapstructure:"pagination"`
	Selectors  models.Selectors        `mapstructure:"selectors"`
	Site       SiteConfig              `mapstructure:"site"`
	Browser    models.BrowserConfig    `mapstructure:"browser"`
	Static     models.StaticConfig     `mapstructure:"static"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Output     OutputConfig            `mapstructure:"output"`
	Batch      BatchConfig             `mapstructure:"batch"`
	Resource   ResourceConfig          `mapstructure:"resource"`
}

// SiteConfig 站点配置
type SiteConfig struct {
	// Origin 用于把相对地址转为绝对地址,为空时取搜索URL的源
	Origin string `mapstructure:"origin"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Path     string `mapstructure:"path"`     // 导出文件,扩展名决定格式
	Report   string `mapstructure:"report"`   // JSON运行报告,为空时不生成
	Progress bool   `mapstructure:"progress"` // 显示进度条
}

// BatchConfig 批量模式配置
type BatchConfig struct {
	Parallel        int           `mapstructure:"parallel"`          // 同时运行的查询数
	Delay           time.Duration `mapstructure:"delay"`             // 顺序模式下查询间隔
	ContinueOnError bool          `mapstructure:"continue_on_error"` // 某个查询失败后继续
}

// ResourceConfig 资源限制配置
type ResourceConfig struct {
	SafetyReserveMemory int     `mapstructure:"safety_reserve_memory"` // MB
	SessionMemoryUsage  int     `mapstructure:"session_memory_usage"`  // MB
	CPULoadThreshold    float64 `mapstructure:"cpu_load_threshold"`    // %
	MaxSessions         int     `mapstructure:"max_sessions"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".listharvest"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("engine", string(models.EngineRod))

	// 采集循环默认值
	harvest := models.DefaultHarvestConfig()
	v.SetDefault("harvest.quota", 0)
	v.SetDefault("harvest.cooldown", harvest.Cooldown)
	v.SetDefault("harvest.reveal_backoff", harvest.RevealBackoff)
	v.SetDefault("harvest.max_reveal_retries", harvest.MaxRevealRetries)
	v.SetDefault("harvest.politeness_delay", harvest.PolitenessDelay)
	v.SetDefault("harvest.extraction_retries", harvest.ExtractionRetries)
	v.SetDefault("harvest.extraction_retry_delay", harvest.ExtractionRetryDelay)

	// 翻页默认值
	pagination := models.DefaultPaginationConfig()
	v.SetDefault("pagination.scroll_enabled", pagination.ScrollEnabled)
	v.SetDefault("pagination.scroll_settle", pagination.ScrollSettle)
	v.SetDefault("pagination.click_settle", pagination.ClickSettle)
	v.SetDefault("pagination.actionable_timeout", pagination.ActionableTimeout)
	v.SetDefault("pagination.load_more.css", pagination.LoadMore.CSS)
	v.SetDefault("pagination.load_more.text", pagination.LoadMore.Text)

	// 选择器默认值
	selectors := models.DefaultSelectors()
	v.SetDefault("selectors.card", selectors.Card)
	v.SetDefault("selectors.name", selectors.Name)
	v.SetDefault("selectors.link", selectors.Link)

	v.SetDefault("site.origin", "")

	// 浏览器默认值
	browser := models.DefaultBrowserConfig()
	v.SetDefault("browser.headless", browser.Headless)
	v.SetDefault("browser.no_sandbox", browser.NoSandbox)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.stealth", browser.Stealth)
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.ignore_cert_errors", browser.IgnoreCertErrors)
	v.SetDefault("browser.navigation_timeout", browser.NavigationTimeout)

	// 静态分页默认值
	static := models.DefaultStaticConfig()
	v.SetDefault("static.user_agent", static.UserAgent)
	v.SetDefault("static.timeout", static.Timeout)
	v.SetDefault("static.delay", static.Delay)
	v.SetDefault("static.insecure_skip_verify", static.InsecureSkipVerify)
	v.SetDefault("static.next_page.css", static.NextPage.CSS)
	v.SetDefault("static.next_page.text", static.NextPage.Text)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.path", "hotels.xlsx")
	v.SetDefault("output.report", "")
	v.SetDefault("output.progress", true)

	// 批量配置默认值
	v.SetDefault("batch.parallel", 1)
	v.SetDefault("batch.delay", 0)
	v.SetDefault("batch.continue_on_error", true)

	// 资源限制默认值
	v.SetDefault("resource.safety_reserve_memory", 1024)
	v.SetDefault("resource.session_memory_usage", 300)
	v.SetDefault("resource.cpu_load_threshold", 80)
	v.SetDefault("resource.max_sessions", 8)
}

// Validate 验证配置
// 目标数量由命令行提供,在创建任务时单独校验
func (c *Config) Validate() error {
	switch c.Engine {
	case models.EngineRod, models.EngineStatic:
	default:
		return models.NewInputError("engine", string(c.Engine), "必须是 rod 或 static")
	}

	if _, err := utils.FormatFromPath(c.Output.Path); err != nil {
		return models.NewInputError("output", c.Output.Path, err.Error())
	}

	if c.Selectors.Card == "" {
		return fmt.Errorf("selectors.card 不能为空")
	}

	if c.Site.Origin != "" && models.OriginOf(c.Site.Origin) == "" {
		return models.NewInputError("site.origin", c.Site.Origin, "必须是完整的URL")
	}

	if c.Batch.Parallel < 1 {
		return fmt.Errorf("batch.parallel 必须大于0: %d", c.Batch.Parallel)
	}

	if c.Pagination.ScrollSettle < 0 || c.Pagination.ClickSettle < 0 || c.Pagination.ActionableTimeout < 0 {
		return fmt.Errorf("翻页等待时间不能为负数")
	}

	return nil
}

// LogConfig 转换为日志配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

// ResourceMonitorConfig 转换为资源监控配置
func (c *Config) ResourceMonitorConfig() crawlers.ResourceMonitorConfig {
	return crawlers.ResourceMonitorConfig{
		SafetyReserveMemory: int64(c.Resource.SafetyReserveMemory) * 1024 * 1024, // MB转字节
		SessionMemoryUsage:  int64(c.Resource.SessionMemoryUsage) * 1024 * 1024,
		CPULoadThreshold:    c.Resource.CPULoadThreshold,
		MaxSessions:         c.Resource.MaxSessions,
	}
}

// PaginationFor 返回引擎实际使用的翻页配置
// 静态页面不能滚动,"加载更多"改为下一页链接
func (c *Config) PaginationFor(engine models.Engine) models.PaginationConfig {
	pagination := c.Pagination
	if engine == models.EngineStatic {
		pagination.ScrollEnabled = false
		pagination.LoadMore = c.Static.NextPage
	}
	return pagination
}

// Overrides 命令行参数
// 零值或nil表示未指定,保留配置文件中的值
type Overrides struct {
	Quota           int
	Engine          string
	Output          string
	Report          string
	LogLevel        string
	Origin          string
	Parallel        int
	Headless        *bool
	Stealth         *bool
	NoProgress      bool
	Cooldown        *time.Duration
	RevealBackoff   *time.Duration
	MaxRetries      *int
	BatchDelay      *time.Duration
	ContinueOnError *bool
}

// MergeCLIFlags 合并命令行参数到配置
func (c *Config) MergeCLIFlags(o Overrides) {
	// 命令行参数优先于配置文件
	if o.Quota != 0 {
		c.Harvest.Quota = o.Quota
	}
	if o.Engine != "" {
		c.Engine = models.Engine(o.Engine)
	}
	if o.Output != "" {
		c.Output.Path = o.Output
	}
	if o.Report != "" {
		c.Output.Report = o.Report
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.Origin != "" {
		c.Site.Origin = o.Origin
	}
	if o.Parallel > 0 {
		c.Batch.Parallel = o.Parallel
	}
	if o.Headless != nil {
		c.Browser.Headless = *o.Headless
	}
	if o.Stealth != nil {
		c.Browser.Stealth = *o.Stealth
	}
	if o.NoProgress {
		c.Output.Progress = false
	}
	if o.Cooldown != nil {
		c.Harvest.Cooldown = *o.Cooldown
	}
	if o.RevealBackoff != nil {
		c.Harvest.RevealBackoff = *o.RevealBackoff
	}
	if o.MaxRetries != nil {
		c.Harvest.MaxRevealRetries = *o.MaxRetries
	}
	if o.BatchDelay != nil {
		c.Batch.Delay = *o.BatchDelay
	}
	if o.ContinueOnError != nil {
		c.Batch.ContinueOnError = *o.ContinueOnError
	}
}
