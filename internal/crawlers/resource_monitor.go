package crawlers

import (
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitor 系统资源监控器
// 根据可用内存和CPU负载计算批量模式下可同时运行的浏览器会话数
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// 采样函数,测试时可替换
	virtualMemory func() (*mem.VirtualMemoryStat, error)
	cpuPercent    func(interval time.Duration, percpu bool) ([]float64, error)
	numCPU        func() int
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	SafetyReserveMemory int64   // 安全保留内存(字节)
	SessionMemoryUsage  int64   // 单个浏览器会话平均内存消耗(字节)
	CPULoadThreshold    float64 // CPU负载阈值(%),超过后只允许1个会话
	MaxSessions         int     // 绝对最大会话数
}

// DefaultResourceMonitorConfig 默认配置
func DefaultResourceMonitorConfig() ResourceMonitorConfig {
	return ResourceMonitorConfig{
		SafetyReserveMemory: 1024 * 1024 * 1024, // 1GB
		SessionMemoryUsage:  300 * 1024 * 1024,  // 300MB
		CPULoadThreshold:    80,
		MaxSessions:         8,
	}
}

// ResourceStatus 资源状态
type ResourceStatus struct {
	TotalMemory     uint64
	AvailableMemory uint64
	CPUUsage        float64
	MemoryPressure  string
}

// NewResourceMonitor 创建资源监控器
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	if config.SessionMemoryUsage <= 0 {
		config.SessionMemoryUsage = DefaultResourceMonitorConfig().SessionMemoryUsage
	}
	if config.MaxSessions <= 0 {
		config.MaxSessions = 1
	}

	return &ResourceMonitor{
		config:        config,
		virtualMemory: mem.VirtualMemory,
		cpuPercent:    cpu.Percent,
		numCPU:        runtime.NumCPU,
	}
}

// Status 采样当前资源状态
func (rm *ResourceMonitor) Status() (ResourceStatus, error) {
	vm, err := rm.virtualMemory()
	if err != nil {
		return ResourceStatus{}, fmt.Errorf("获取系统内存失败: %w", err)
	}

	status := ResourceStatus{
		TotalMemory:     vm.Total,
		AvailableMemory: vm.Available,
	}

	// 100毫秒采样,perCPU=false 返回所有核心的平均值
	percentages, err := rm.cpuPercent(100*time.Millisecond, false)
	if err != nil {
		log.Warn().Err(err).Msg("获取CPU使用率失败")
	} else if len(percentages) > 0 {
		status.CPUUsage = percentages[0]
	}

	availableMB := int64(vm.Available) / (1024 * 1024)
	switch {
	case availableMB < 500:
		status.MemoryPressure = "critical"
	case availableMB < 1024:
		status.MemoryPressure = "warning"
	default:
		status.MemoryPressure = "normal"
	}

	return status, nil
}

// MaxSessions 当前允许同时运行的会话数,至少为1
func (rm *ResourceMonitor) MaxSessions() int {
	status, err := rm.Status()
	if err != nil {
		log.Warn().Err(err).Msg("资源采样失败,只允许1个会话")
		return 1
	}

	// 基于内存计算上限
	bySurplus := 1
	surplus := int64(status.AvailableMemory) - rm.config.SafetyReserveMemory
	if surplus > 0 {
		bySurplus = int(surplus / rm.config.SessionMemoryUsage)
	}

	result := bySurplus
	if n := rm.numCPU(); n < result {
		result = n
	}
	if rm.config.MaxSessions < result {
		result = rm.config.MaxSessions
	}

	if rm.config.CPULoadThreshold > 0 && status.CPUUsage > rm.config.CPULoadThreshold {
		log.Warn().Msgf("CPU负载过高(当前%.1f%%),只允许1个会话", status.CPUUsage)
		result = 1
	}

	if result < 1 {
		result = 1
	}

	log.Debug().
		Uint64("available_mb", status.AvailableMemory/(1024*1024)).
		Float64("cpu", status.CPUUsage).
		Str("pressure", status.MemoryPressure).
		Int("max_sessions", result).
		Msg("资源评估完成")

	return result
}
