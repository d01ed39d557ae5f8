/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-21 00:00:00
 * @FilePath: \go-msgworker\circuit_breaker.go
 * @Description: 熔断器 - 包裹不可靠对象存储调用,避免故障期间空耗重试预算
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"sync"
	"time"

	"github.com/kamalyes/go-toolbox/pkg/mathx"
)

// CircuitState 熔断器状态
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // 关闭:调用放行,失败计数
	CircuitOpen                         // 打开:快速失败,不发起网络操作
	CircuitHalfOpen                     // 半开:放行一次探测调用
)

// String 返回状态名
func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreaker 熔断器
// 由调用方工作器持有的显式状态值,没有全局共享状态
// 连续失败达到阈值后打开,冷却时间后放行一次探测:
// 探测成功立即闭合并清零计数,探测失败重新打开并刷新冷却
type CircuitBreaker struct {
	name             string
	state            CircuitState
	failureCount     int
	failureThreshold int
	timeout          time.Duration
	lastOpenedAt     time.Time
	now              func() time.Time
	mutex            sync.Mutex
}

// NewCircuitBreaker 创建熔断器
// failureThreshold <= 0 时取默认值 5,timeout <= 0 时取默认值 30s
func NewCircuitBreaker(name string, failureThreshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		state:            CircuitClosed,
		failureThreshold: mathx.IF(failureThreshold > 0, failureThreshold, 5),
		timeout:          mathx.IF(timeout > 0, timeout, 30*time.Second),
		now:              time.Now,
	}
}

// Call 通过熔断器执行调用
// 打开状态且冷却未到时直接返回 ErrCircuitBreakerOpen,不执行 fn
func (cb *CircuitBreaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if !cb.allow() {
		return ErrCircuitBreakerOpen
	}

	err := fn(ctx)
	cb.record(err == nil)
	return err
}

// State 返回当前状态(打开状态下冷却已到则报告半开)
func (cb *CircuitBreaker) State() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state == CircuitOpen && cb.now().Sub(cb.lastOpenedAt) >= cb.timeout {
		return CircuitHalfOpen
	}
	return cb.state
}

// FailureCount 返回当前连续失败计数
func (cb *CircuitBreaker) FailureCount() int {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.failureCount
}

// allow 判断本次调用是否放行,打开转半开的迁移也在此处发生
func (cb *CircuitBreaker) allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitHalfOpen:
		return true
	default: // CircuitOpen
		if cb.now().Sub(cb.lastOpenedAt) >= cb.timeout {
			// 冷却结束,放行一次探测
			cb.state = CircuitHalfOpen
			return true
		}
		return false
	}
}

// record 记录调用结果并推进状态机
func (cb *CircuitBreaker) record(success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if success {
		// 探测成功或正常成功:闭合并清零
		cb.state = CircuitClosed
		cb.failureCount = 0
		return
	}

	cb.failureCount++
	switch cb.state {
	case CircuitHalfOpen:
		// 探测失败,重新打开并刷新冷却
		cb.state = CircuitOpen
		cb.lastOpenedAt = cb.now()
	case CircuitClosed:
		if cb.failureCount >= cb.failureThreshold {
			cb.state = CircuitOpen
			cb.lastOpenedAt = cb.now()
		}
	}
}
