package models

import "strings"

// Unavailable 导出时缺失字段的占位值
const Unavailable = "N/A"

// Field 可选字符串字段
// 提取失败的字段用Missing()表示,只有在导出时才转换为占位值
type Field struct {
	value string
	ok    bool
}

// Present 创建有值字段,空白字符串视为缺失
func Present(v string) Field {
	v = strings.TrimSpace(v)
	if v == "" {
		return Field{}
	}
	return Field{value: v, ok: true}
}

// Missing 创建缺失字段
func Missing() Field {
	return Field{}
}

// Get 返回字段值和是否存在
func (f Field) Get() (string, bool) {
	return f.value, f.ok
}

// Valid 字段是否存在
func (f Field) Valid() bool {
	return f.ok
}

// OrSentinel 返回字段值,缺失时返回"N/A"
func (f Field) OrSentinel() string {
	if !f.ok {
		return Unavailable
	}
	return f.value
}

// String 实现fmt.Stringer
func (f Field) String() string {
	return f.OrSentinel()
}

// Record 列表记录
// 创建后不可修改
type Record struct {
	identity Field // 显示名称,同时作为去重键
	locator  Field // 详情页绝对地址
}

// NewRecord 创建记录
func NewRecord(identity, locator Field) Record {
	return Record{identity: identity, locator: locator}
}

// Identity 返回名称字段
func (r Record) Identity() Field {
	return r.identity
}

// Locator 返回地址字段
func (r Record) Locator() Field {
	return r.locator
}

// Key 返回去重键
// 缺失名称统一使用空字符串作为键,有值的名称不可能为空
func (r Record) Key() string {
	return r.identity.value
}
