/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-21 00:00:00
 * @FilePath: \go-msgworker\retry.go
 * @Description: 重试策略 - 指数退避,区分永久/瞬时错误
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/kamalyes/go-toolbox/pkg/retry"
)

// RetryAttempt 单次尝试记录
type RetryAttempt struct {
	AttemptNumber int           `json:"attempt_number"` // 第几次尝试
	Timestamp     time.Time     `json:"timestamp"`      // 尝试时间
	Duration      time.Duration `json:"duration"`       // 本次尝试耗时
	Error         string        `json:"error"`          // 错误信息
	Success       bool          `json:"success"`        // 是否成功
}

// RetryResult 重试执行结果
type RetryResult struct {
	Attempts []RetryAttempt // 各次尝试记录
	FinalErr error          // 最终错误(成功时为 nil)
}

// Reason 汇总各次尝试的失败原因,用于死信信封
func (r *RetryResult) Reason() string {
	if r.FinalErr == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Attempts))
	for _, attempt := range r.Attempts {
		if attempt.Success {
			continue
		}
		parts = append(parts, fmt.Sprintf("attempt %d: %s", attempt.AttemptNumber, attempt.Error))
	}
	return strings.Join(parts, "; ")
}

// retryPolicy 瞬时错误重试策略
// 永久性错误(结构/校验)不消耗重试预算直接返回;
// 瞬时错误按 基础延迟*因子^(n-1) 指数退避,默认 2s/4s/8s
type retryPolicy struct {
	maxAttempts   int
	baseDelay     time.Duration
	backoffFactor float64
	logger        MWLogger
}

// newRetryPolicy 从配置创建重试策略
func newRetryPolicy(cfg *Config, log MWLogger) *retryPolicy {
	if log == nil {
		log = DefaultLogger
	}
	return &retryPolicy{
		maxAttempts:   cfg.MaxRetryAttempts,
		baseDelay:     cfg.RetryBaseDelay,
		backoffFactor: cfg.RetryBackoffFactor,
		logger:        log,
	}
}

// Execute 带重试地执行 fn,返回各次尝试记录与最终错误
func (p *retryPolicy) Execute(ctx context.Context, name string, fn func(ctx context.Context) error) *RetryResult {
	result := &RetryResult{}

	// 创建 go-toolbox retry 实例用于延迟计算和条件判断
	retryInstance := retry.NewRetryWithCtx(ctx).
		SetAttemptCount(p.maxAttempts).
		SetInterval(p.baseDelay).
		SetBackoffMultiplier(p.backoffFactor).
		SetJitter(false).
		SetConditionFunc(IsRetryableError)

	finalErr := retryInstance.Do(func() error {
		attemptStart := time.Now()
		attemptNumber := len(result.Attempts) + 1

		err := fn(ctx)

		attempt := RetryAttempt{
			AttemptNumber: attemptNumber,
			Timestamp:     attemptStart,
			Duration:      time.Since(attemptStart),
			Success:       err == nil,
		}
		if err != nil {
			attempt.Error = err.Error()
			p.logger.WarnKV("处理尝试失败",
				"operation", name,
				"attempt", attemptNumber,
				"max_attempts", p.maxAttempts,
				"error", err.Error(),
			)
		}
		result.Attempts = append(result.Attempts, attempt)

		return err
	})

	if finalErr != nil && ctx.Err() != nil {
		finalErr = errorx.NewError(ErrTypeOperationCancelled)
	}
	result.FinalErr = finalErr
	return result
}
