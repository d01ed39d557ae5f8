/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-25 00:00:00
 * @FilePath: \go-msgworker\cron_test.go
 * @Description: Cron 调度辅助测试
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextOccurrence(t *testing.T) {
	after := time.Date(2026, 8, 25, 12, 30, 0, 0, time.UTC)

	t.Run("每日凌晨三点", func(t *testing.T) {
		next := nextOccurrence("0 3 * * *", after)
		assert.Equal(t, time.Date(2026, 8, 26, 3, 0, 0, 0, time.UTC), next)
	})

	t.Run("当天还未到点", func(t *testing.T) {
		next := nextOccurrence("0 15 * * *", after)
		assert.Equal(t, time.Date(2026, 8, 25, 15, 0, 0, 0, time.UTC), next)
	})

	t.Run("每小时", func(t *testing.T) {
		next := nextOccurrence("0 * * * *", after)
		assert.Equal(t, time.Date(2026, 8, 25, 13, 0, 0, 0, time.UTC), next)
	})

	t.Run("非法表达式兜底一天后", func(t *testing.T) {
		next := nextOccurrence("not a cron", after)
		assert.Equal(t, after.Add(24*time.Hour), next)
	})

	t.Run("空表达式兜底一天后", func(t *testing.T) {
		next := nextOccurrence("", after)
		assert.Equal(t, after.Add(24*time.Hour), next)
	})
}

func TestCronRunnerCancellation(t *testing.T) {
	runner := newCronRunner("0 3 * * *", "test", NoOpLoggerInstance)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var executions atomic.Int32

	go func() {
		defer close(done)
		runner.Run(ctx, func(ctx context.Context) {
			executions.Add(1)
		})
	}()

	// 等待期取消必须立即退出,不执行任务
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("调度循环未在取消后退出")
	}
	assert.Equal(t, int32(0), executions.Load())
}

func TestCronRunnerExecutesOnSchedule(t *testing.T) {
	// 每秒执行的表达式(标准 5 段 cron 最小粒度是分钟,
	// 这里用假时钟把"下一次"压到很近的将来)
	runner := newCronRunner("* * * * *", "tick", NoOpLoggerInstance)
	base := time.Now()
	runner.now = func() time.Time {
		// 始终报告"差 10ms 到整分",让调度几乎立即触发
		next := base.Truncate(time.Minute).Add(time.Minute)
		return next.Add(-10 * time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{}, 1)
	go runner.Run(ctx, func(ctx context.Context) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("调度任务未按时触发")
	}
}
