// Package crawlers 提供采集循环使用的导航面实现
//
// # 概述
//
// 采集循环只依赖harvest.Surface接口,本包提供两种实现:
// 基于go-rod的浏览器标签页(支持JavaScript渲染和无限滚动),
// 以及基于Colly的静态分页(服务端渲染的列表)。
//
// # 核心组件
//
// ## RodSurface
//
// 一个RodSurface独占浏览器中的一个标签页。滚动通过执行脚本完成,
// 内容高度取document.body.scrollHeight,"加载更多"按钮按CSS选择器和文本正则查找。
//
//	browser, err := LaunchBrowser(models.DefaultBrowserConfig())
//	if err != nil { /* 处理错误 */ }
//	defer CloseBrowser(browser)
//
//	surface, err := NewRodSurface(browser, config)
//	defer surface.Close()
//	err = surface.Navigate(ctx, "https://www.booking.com/searchresults.html?ss=Seoul")
//
// ## StaticSurface
//
// 页面不执行脚本,ScrollToEnd不产生新内容,内容高度为已加载的页数。
// FindActionable在当前页面中查找下一页链接,Click跟随该链接并替换当前页面。
// 响应体按Content-Encoding解压 (gzip, deflate, br)。
//
//	surface := NewStaticSurface(models.DefaultStaticConfig())
//	err := surface.Navigate(ctx, "https://example.com/list?page=1")
//
// ## ResourceMonitor (资源监控器)
//
// 批量模式下每个搜索URL使用独立的标签页。ResourceMonitor根据可用内存、
// CPU核数和CPU负载计算可同时运行的会话数:
//   - 可用内存扣除安全保留后,按单会话内存消耗折算
//   - 不超过CPU核数和配置的最大会话数
//   - CPU负载超过阈值时只允许1个会话
//
//	rm := NewResourceMonitor(DefaultResourceMonitorConfig())
//	parallel := min(batchParallel, rm.MaxSessions())
//
// # 并发安全
//
// 导航面代表一个有状态的"当前页面",同一时刻只能由一个goroutine使用。
// 浏览器实例(*rod.Browser)可以在多个RodSurface之间共享。
package crawlers
