/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-21 00:00:00
 * @FilePath: \go-msgworker\memory_channel.go
 * @Description: 内存队列通道 - 进程内实现,用于测试和单机嵌入场景
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"sync"
	"time"
)

// memoryQueueBuffer 单个内存队列的缓冲区
type memoryQueueBuffer struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []string
	closed   bool
}

func newMemoryQueueBuffer() *memoryQueueBuffer {
	b := &memoryQueueBuffer{}
	b.notEmpty = sync.NewCond(&b.mu)
	return b
}

func (b *memoryQueueBuffer) push(payload string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, payload)
	b.notEmpty.Signal()
}

// pop 阻塞直到有消息、队列关闭或 ctx 取消,返回 false 表示不再有数据
func (b *memoryQueueBuffer) pop(ctx context.Context) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.items) == 0 && !b.closed && ctx.Err() == nil {
		b.notEmpty.Wait()
	}
	if ctx.Err() != nil || len(b.items) == 0 {
		return "", false
	}
	payload := b.items[0]
	b.items = b.items[1:]
	return payload, true
}

// wake 唤醒所有阻塞中的消费者(取消订阅时使用)
func (b *memoryQueueBuffer) wake() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notEmpty.Broadcast()
}

func (b *memoryQueueBuffer) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.notEmpty.Broadcast()
}

func (b *memoryQueueBuffer) length() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// MemoryQueueChannel 内存队列通道
// 与 RedisQueueChannel 提供相同的契约:至少一次投递语义由
// handler 报错重入队实现,Stop 会排空在途处理
type MemoryQueueChannel struct {
	mu      sync.Mutex
	queues  map[string]*memoryQueueBuffer
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	logger  MWLogger
}

// NewMemoryQueueChannel 创建内存队列通道
func NewMemoryQueueChannel(log MWLogger) *MemoryQueueChannel {
	if log == nil {
		log = NoOpLoggerInstance
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryQueueChannel{
		queues: make(map[string]*memoryQueueBuffer),
		ctx:    ctx,
		cancel: cancel,
		logger: log,
	}
}

func (c *MemoryQueueChannel) buffer(queueName string) *memoryQueueBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.queues[queueName]
	if !ok {
		b = newMemoryQueueBuffer()
		c.queues[queueName] = b
	}
	return b
}

// Publish 发布载荷到指定队列
func (c *MemoryQueueChannel) Publish(ctx context.Context, queueName, payload string) error {
	if payload == "" {
		return ErrPayloadEmpty
	}
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrChannelStopped
	}
	c.mu.Unlock()

	c.buffer(queueName).push(payload)
	return nil
}

// Consume 订阅指定队列
func (c *MemoryQueueChannel) Consume(queueName string, handler QueueHandler) (*Subscription, error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil, ErrChannelStopped
	}
	c.mu.Unlock()

	subCtx, subCancel := context.WithCancel(c.ctx)
	sub := &Subscription{
		queueName: queueName,
		cancel:    subCancel,
		done:      make(chan struct{}),
	}
	buf := c.buffer(queueName)

	// 取消订阅时唤醒阻塞中的 pop
	go func() {
		<-subCtx.Done()
		buf.wake()
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(sub.done)

		for {
			select {
			case <-subCtx.Done():
				return
			default:
			}

			payload, ok := buf.pop(subCtx)
			if !ok {
				return
			}
			// handler 透传订阅上下文:取消时在途处理及时中止,
			// 报错重新入队保证至少一次语义
			if err := handler(subCtx, payload); err != nil {
				c.logger.WarnKV("处理失败,消息重新入队",
					"queue", queueName,
					"error", err.Error(),
				)
				buf.push(payload)
			}
		}
	}()

	return sub, nil
}

// QueueLength 获取队列长度
func (c *MemoryQueueChannel) QueueLength(queueName string) int {
	return c.buffer(queueName).length()
}

// Drain 等待指定队列清空(测试辅助)
func (c *MemoryQueueChannel) Drain(queueName string) {
	buf := c.buffer(queueName)
	for buf.length() > 0 {
		c.mu.Lock()
		stopped := c.stopped
		c.mu.Unlock()
		if stopped {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// Stop 停止所有订阅并排空在途处理
func (c *MemoryQueueChannel) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	queues := make([]*memoryQueueBuffer, 0, len(c.queues))
	for _, b := range c.queues {
		queues = append(queues, b)
	}
	c.mu.Unlock()

	c.cancel()
	for _, b := range queues {
		b.close()
	}
	c.wg.Wait()
}
