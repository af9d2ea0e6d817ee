package crawlers

import (
	"fmt"

	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/RecoveryAshes/ListHarvest/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// LaunchBrowser 启动并连接浏览器
func LaunchBrowser(config models.BrowserConfig) (*rod.Browser, error) {
	l := launcher.New().
		Headless(config.Headless).
		NoSandbox(config.NoSandbox)

	if config.Bin != "" {
		l = l.Bin(config.Bin)
	}

	if config.IgnoreCertErrors {
		l = l.Set("ignore-certificate-errors")
		utils.Warnf("浏览器已配置为跳过HTTPS证书验证")
	}

	// 减少自动化特征和后台节流
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s", controlURL)
	return browser, nil
}

// CloseBrowser 关闭浏览器
func CloseBrowser(browser *rod.Browser) {
	if browser == nil {
		return
	}
	if err := browser.Close(); err != nil {
		utils.Warnf("关闭浏览器失败: %v", err)
		return
	}
	utils.Debugf("浏览器已关闭")
}
