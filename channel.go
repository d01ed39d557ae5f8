/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-20 00:00:00
 * @FilePath: \go-msgworker\channel.go
 * @Description: 队列通道抽象 - 至少一次投递的消息代理契约
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
)

// DeadLetterSuffix 死信队列名后缀
const DeadLetterSuffix = ".deadletter"

// DeadLetterQueueName 返回队列对应的死信队列名
func DeadLetterQueueName(queueName string) string {
	return queueName + DeadLetterSuffix
}

// QueueHandler 队列消息处理函数
// 返回 nil 视为确认(ack),返回错误时由通道将消息重新入队
// 重试耗尽后的死信投递由工作器负责,不是通道的职责
type QueueHandler func(ctx context.Context, payload string) error

// Subscription 消费订阅句柄
// 单个订阅内处理函数串行调用,同一订阅不会有两次并发的 handler 调用
type Subscription struct {
	queueName string
	cancel    context.CancelFunc
	done      chan struct{}
}

// QueueName 返回订阅的队列名
func (s *Subscription) QueueName() string {
	return s.queueName
}

// Cancel 取消订阅,消费循环在当前消息处理完后退出
func (s *Subscription) Cancel() {
	s.cancel()
}

// Wait 阻塞直到订阅的消费循环退出
func (s *Subscription) Wait() {
	<-s.done
}

// QueueChannel 持久化消息代理的抽象
// 契约:至少一次投递;Publish 成功即持久;Consume 的处理串行;
// Stop 必须等待在途的 handler 调用完成后才返回(优雅排空)
type QueueChannel interface {
	// Publish 发布载荷到指定队列
	Publish(ctx context.Context, queueName, payload string) error

	// Consume 订阅指定队列,handler 成功返回即确认
	Consume(queueName string, handler QueueHandler) (*Subscription, error)

	// Stop 停止所有订阅并排空在途处理
	Stop()
}
