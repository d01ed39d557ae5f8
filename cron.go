/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-21 00:00:00
 * @FilePath: \go-msgworker\cron.go
 * @Description: Cron 调度辅助 - 计算下一次执行时间,解析失败兜底为一天后
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// fallbackInterval cron 表达式解析失败时的兜底间隔
const fallbackInterval = 24 * time.Hour

// nextOccurrence 计算 cron 表达式在 after 之后的下一次执行时间
// 表达式非法时不崩溃,兜底为一天后执行
func nextOccurrence(spec string, after time.Time) time.Time {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return after.Add(fallbackInterval)
	}
	next := schedule.Next(after)
	if next.IsZero() {
		return after.Add(fallbackInterval)
	}
	return next
}

// cronRunner 按 cron 表达式周期执行任务的调度循环
// 每轮睡眠前重新计算下一次执行时间,调度延迟不会累积漂移;
// 睡眠可被取消,取消后立即退出
type cronRunner struct {
	spec   string
	name   string
	logger MWLogger
	now    func() time.Time
}

func newCronRunner(spec, name string, log MWLogger) *cronRunner {
	if log == nil {
		log = DefaultLogger
	}
	return &cronRunner{
		spec:   spec,
		name:   name,
		logger: log,
		now:    time.Now,
	}
}

// Run 阻塞运行调度循环,每次到点调用 task,直到 ctx 取消
func (r *cronRunner) Run(ctx context.Context, task func(ctx context.Context)) {
	for {
		now := r.now()
		next := nextOccurrence(r.spec, now)
		wait := next.Sub(now)

		r.logger.InfoKV("调度任务等待下一次执行",
			"task", r.name,
			"cron", r.spec,
			"next_run", next.Format(time.DateTime),
		)

		if !sleepContext(ctx, wait) {
			r.logger.InfoKV("调度循环退出", "task", r.name)
			return
		}

		if ctx.Err() != nil {
			return
		}
		task(ctx)
	}
}
