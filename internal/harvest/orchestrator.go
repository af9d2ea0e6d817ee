package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/RecoveryAshes/ListHarvest/internal/utils"
	"github.com/rs/zerolog/log"
)

// CollectionState 一次采集的状态,只由Orchestrator修改
type CollectionState struct {
	Collected               []models.Record
	Quota                   int
	StartTime               time.Time
	CooldownAttempts        int
	ConsecutiveLoadFailures int
	Stats                   models.TaskStats
}

// Result 采集结果
// 所有终止原因都是正常结束,Records可能为空
type Result struct {
	Records []models.Record
	Reason  models.StopReason
	State   *CollectionState
}

// Option Orchestrator选项
type Option func(*Orchestrator)

// WithClock 替换时钟
func WithClock(clock Clock) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// WithReporter 设置进度展示
func WithReporter(reporter ProgressReporter) Option {
	return func(o *Orchestrator) {
		o.reporter = reporter
	}
}

// Orchestrator 采集循环
type Orchestrator struct {
	surface   Surface
	extractor *Extractor
	paginator *Paginator
	estimator *Estimator
	seen      *SeenSet
	clock     Clock
	reporter  ProgressReporter
	config    models.HarvestConfig
}

// NewOrchestrator 创建采集循环
// surface应已导航到搜索结果页
func NewOrchestrator(
	surface Surface,
	extractor *Extractor,
	config models.HarvestConfig,
	pagination models.PaginationConfig,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		surface:   surface,
		extractor: extractor,
		seen:      NewSeenSet(),
		clock:     SystemClock{},
		reporter:  NopReporter{},
		config:    config,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.paginator = NewPaginator(surface, o.clock, pagination)
	o.estimator = NewEstimator(o.clock)
	return o
}

// Run 执行采集直到终止
// 导航面失败或ctx取消时返回错误,同时返回已收集的部分结果
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	state := &CollectionState{
		Quota:     o.config.Quota,
		StartTime: o.clock.Now(),
	}

	for {
		records, err := o.extract(ctx, state)
		if err != nil {
			if ctx.Err() != nil || !IsExtractionError(err) {
				return o.finish(state, models.StopAborted), err
			}

			// 多次解析失败视为本次翻页暂时失败
			log.Warn().Err(err).Msg("页面快照多次解析失败,重新翻页")
			reason, err := o.reveal(ctx, state, true)
			if err != nil {
				return o.finish(state, models.StopAborted), err
			}
			if reason != "" {
				return o.finish(state, reason), nil
			}
			if err := o.clock.Sleep(ctx, o.config.PolitenessDelay); err != nil {
				return o.finish(state, models.StopAborted), err
			}
			continue
		}

		if len(records) == 0 {
			if state.CooldownAttempts > 0 {
				utils.Infof("冷却后仍无新记录,结束采集")
				return o.finish(state, models.StopExhausted), nil
			}

			utils.Infof("未发现新记录,冷却 %s 后重试", o.config.Cooldown)
			if err := countdown(ctx, o.clock, o.reporter, CountdownCooldown, o.config.Cooldown); err != nil {
				return o.finish(state, models.StopAborted), err
			}
			state.CooldownAttempts++
			state.Stats.Cooldowns++
			continue
		}

		o.accept(state, records)

		if len(state.Collected) >= state.Quota {
			return o.finish(state, models.StopQuotaReached), nil
		}

		reason, err := o.reveal(ctx, state, false)
		if err != nil {
			return o.finish(state, models.StopAborted), err
		}
		if reason != "" {
			return o.finish(state, reason), nil
		}

		if err := o.clock.Sleep(ctx, o.config.PolitenessDelay); err != nil {
			return o.finish(state, models.StopAborted), err
		}
	}
}

// extract 获取快照并提取新记录
// 解析失败时在同一页面上重新获取快照,最多重试ExtractionRetries次
func (o *Orchestrator) extract(ctx context.Context, state *CollectionState) ([]models.Record, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snapshot, err := o.surface.Snapshot(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: 获取页面快照失败: %w", models.ErrSurface, err)
		}
		state.Stats.Snapshots++

		records, duplicates, err := o.extractor.Extract(snapshot, o.seen)
		if err == nil {
			state.Stats.Duplicates += duplicates
			log.Debug().
				Int("new", len(records)).
				Int("duplicates", duplicates).
				Msg("快照解析完成")
			return records, nil
		}

		if attempt >= o.config.ExtractionRetries {
			return nil, err
		}

		state.Stats.ExtractionRetries++
		utils.Warnf("解析页面快照失败 (第%d次): %v", attempt+1, err)
		if err := countdown(ctx, o.clock, o.reporter, CountdownExtraction, o.config.ExtractionRetryDelay); err != nil {
			return nil, err
		}
	}
}

// accept 追加新记录,不超过目标数量
func (o *Orchestrator) accept(state *CollectionState, records []models.Record) {
	if room := state.Quota - len(state.Collected); len(records) > room {
		records = records[:room]
	}

	state.Collected = append(state.Collected, records...)
	state.CooldownAttempts = 0
	state.ConsecutiveLoadFailures = 0

	eta := o.estimator.Estimate(state.StartTime, len(state.Collected), state.Quota)
	o.reporter.Progress(len(state.Collected), state.Quota, eta)
	utils.Infof("已收集: %d/%d, 预计剩余时间: %s", len(state.Collected), state.Quota, FormatETA(eta))
}

// reveal 翻页直到出现新内容或需要终止
// failed为true表示当前翻页步骤已失败一次
// 返回非空终止原因表示应结束采集
func (o *Orchestrator) reveal(ctx context.Context, state *CollectionState, failed bool) (models.StopReason, error) {
	for {
		if failed {
			state.ConsecutiveLoadFailures++
			if state.ConsecutiveLoadFailures > o.config.MaxRevealRetries {
				utils.Warnf("翻页连续失败 %d 次,结束采集", state.ConsecutiveLoadFailures)
				return models.StopRevealFailed, nil
			}

			utils.Infof("翻页失败,%s 后重试 (%d/%d)",
				o.config.RevealBackoff, state.ConsecutiveLoadFailures, o.config.MaxRevealRetries)
			if err := countdown(ctx, o.clock, o.reporter, CountdownBackoff, o.config.RevealBackoff); err != nil {
				return "", err
			}
		}

		outcome := o.paginator.Reveal(ctx)
		state.Stats.Reveals++
		if err := ctx.Err(); err != nil {
			return "", err
		}

		switch outcome.Kind {
		case models.RevealProgressed:
			if outcome.Strategy == models.StrategyClick {
				state.Stats.ClickReveals++
			} else {
				state.Stats.ScrollReveals++
			}
			log.Debug().Str("outcome", outcome.String()).Msg("翻页成功")
			return "", nil

		case models.RevealExhausted:
			utils.Infof("没有更多内容可加载")
			return models.StopNoMoreContent, nil

		default:
			state.Stats.RevealFailures++
			log.Warn().Str("outcome", outcome.String()).Msg("翻页暂时失败")
			failed = true
		}
	}
}

// finish 汇总结果
func (o *Orchestrator) finish(state *CollectionState, reason models.StopReason) *Result {
	state.Stats.Collected = len(state.Collected)
	state.Stats.Duration = o.clock.Now().Sub(state.StartTime).Seconds()

	o.reporter.Stopped(reason, len(state.Collected))
	log.Info().
		Str("reason", string(reason)).
		Int("collected", len(state.Collected)).
		Int("quota", state.Quota).
		Msg("采集结束")

	return &Result{
		Records: state.Collected,
		Reason:  reason,
		State:   state,
	}
}
