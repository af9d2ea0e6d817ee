package models

import "fmt"

// RevealKind 翻页结果类型
type RevealKind int

const (
	RevealProgressed       RevealKind = iota // 出现了新内容
	RevealExhausted                          // 没有更多内容
	RevealTransientFailure                   // 暂时失败,可重试
)

// String 实现fmt.Stringer
func (k RevealKind) String() string {
	switch k {
	case RevealProgressed:
		return "progressed"
	case RevealExhausted:
		return "exhausted"
	case RevealTransientFailure:
		return "transient_failure"
	default:
		return fmt.Sprintf("RevealKind(%d)", int(k))
	}
}

// 翻页策略名称
const (
	StrategyScroll = "scroll"
	StrategyClick  = "click"
)

// RevealOutcome 一次翻页的结果
type RevealOutcome struct {
	Kind     RevealKind `json:"kind"`
	Reason   string     `json:"reason,omitempty"`   // TransientFailure的原因
	Strategy string     `json:"strategy,omitempty"` // 产生结果的策略
}

// Progressed 创建成功结果
func Progressed(strategy string) RevealOutcome {
	return RevealOutcome{Kind: RevealProgressed, Strategy: strategy}
}

// Exhausted 创建内容耗尽结果
func Exhausted(strategy string) RevealOutcome {
	return RevealOutcome{Kind: RevealExhausted, Strategy: strategy}
}

// TransientFailure 创建暂时失败结果
func TransientFailure(strategy, reason string) RevealOutcome {
	return RevealOutcome{Kind: RevealTransientFailure, Strategy: strategy, Reason: reason}
}

// String 实现fmt.Stringer
func (o RevealOutcome) String() string {
	if o.Reason != "" {
		return fmt.Sprintf("%s(%s): %s", o.Kind, o.Strategy, o.Reason)
	}
	return fmt.Sprintf("%s(%s)", o.Kind, o.Strategy)
}

// StopReason 采集终止原因,均属于正常结束
type StopReason string

const (
	StopQuotaReached  StopReason = "quota reached"   // 达到目标数量
	StopExhausted     StopReason = "exhausted"       // 冷却后仍无新记录
	StopNoMoreContent StopReason = "no more content" // 无法继续翻页
	StopRevealFailed  StopReason = "reveal failed"   // 翻页重试次数耗尽
	StopAborted       StopReason = "aborted"         // 导航面失败,提前结束
)
