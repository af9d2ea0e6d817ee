package models

import (
	"net/url"

	"github.com/google/uuid"
)

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return NewInputError("url", urlStr, "无法解析: "+err.Error())
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return NewInputError("url", urlStr, "必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return NewInputError("url", urlStr, "必须包含主机名")
	}
	return nil
}

// OriginOf 返回URL的源 (scheme://host),无法确定时返回空字符串
func OriginOf(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// generateID 生成唯一ID
func generateID() string {
	return uuid.New().String()
}
