package models

import (
	"errors"
	"fmt"
)

// 错误类型定义
var (
	ErrExtraction      = errors.New("页面快照解析失败")
	ErrSurface         = errors.New("导航面操作失败")
	ErrInputValidation = errors.New("输入参数无效")
)

// InputError 输入校验错误
type InputError struct {
	// Field 出错的参数名
	Field string

	// Value 原始输入
	Value string

	// Reason 错误原因
	Reason string
}

// Error 实现error接口
func (e *InputError) Error() string {
	return fmt.Sprintf("参数 %s 无效 (%q): %s", e.Field, e.Value, e.Reason)
}

// Unwrap 支持errors.Is(err, ErrInputValidation)
func (e *InputError) Unwrap() error {
	return ErrInputValidation
}

// NewInputError 创建输入校验错误
func NewInputError(field, value, reason string) *InputError {
	return &InputError{Field: field, Value: value, Reason: reason}
}
