package models

import "time"

// BrowserConfig 浏览器导航面配置
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" json:"headless"`                     // 无头模式
	NoSandbox         bool          `mapstructure:"no_sandbox" json:"no_sandbox"`                 // 禁用沙箱 (容器内运行时需要)
	Bin               string        `mapstructure:"bin" json:"bin,omitempty"`                     // 浏览器可执行文件,为空时自动查找
	Stealth           bool          `mapstructure:"stealth" json:"stealth"`                       // 注入stealth脚本
	UserAgent         string        `mapstructure:"user_agent" json:"user_agent,omitempty"`       // 自定义User-Agent
	IgnoreCertErrors  bool          `mapstructure:"ignore_cert_errors" json:"ignore_cert_errors"` // 跳过证书验证
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" json:"navigation_timeout"` // 页面加载超时 (默认:60s)
}

// DefaultBrowserConfig 默认浏览器配置
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:          true,
		NavigationTimeout: 60 * time.Second,
	}
}

// StaticConfig 静态分页导航面配置
// 适用于服务端分页的列表,"加载更多"对应下一页链接
type StaticConfig struct {
	UserAgent          string        `mapstructure:"user_agent" json:"user_agent,omitempty"`
	Timeout            time.Duration `mapstructure:"timeout" json:"timeout"`                           // 单次请求超时 (默认:30s)
	Delay              time.Duration `mapstructure:"delay" json:"delay"`                               // 请求间隔
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" json:"insecure_skip_verify"` // 跳过证书验证
	NextPage           Locator       `mapstructure:"next_page" json:"next_page"`                       // 下一页链接
}

// DefaultStaticConfig 默认静态配置
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		Timeout:   30 * time.Second,
		NextPage:  Locator{CSS: `a[rel="next"]`},
	}
}
