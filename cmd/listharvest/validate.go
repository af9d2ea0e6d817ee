package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/RecoveryAshes/ListHarvest/internal/models"
)

// ParseQuota 解析目标数量,必须是正整数
func ParseQuota(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, models.NewInputError("quota", s, "必须是整数")
	}
	if n <= 0 {
		return 0, models.NewInputError("quota", s, "必须是正整数")
	}
	return n, nil
}

// ValidateFlags 验证命令行标志
// 在启动浏览器之前调用,确保无效输入尽早失败
func ValidateFlags(targetURL string, quota int, parallel int) error {
	// 验证URL
	if targetURL != "" {
		if err := models.ValidateURL(targetURL); err != nil {
			return fmt.Errorf("无效的搜索URL: %w", err)
		}
	}

	// 验证目标数量
	if quota <= 0 {
		return models.NewInputError("quota", strconv.Itoa(quota), "必须是正整数")
	}

	// 验证并发数
	if parallel < 1 || parallel > 32 {
		return fmt.Errorf("并发数必须在1-32之间,当前值: %d", parallel)
	}

	return nil
}

// ValidateURLFile 验证URL文件路径
func ValidateURLFile(path string) error {
	if path == "" {
		return fmt.Errorf("URL文件路径不能为空")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("无法访问URL文件: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("URL文件路径是目录: %s", path)
	}
	return nil
}
