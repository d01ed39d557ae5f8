/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-21 00:00:00
 * @FilePath: \go-msgworker\redis_channel.go
 * @Description: Redis队列通道 - BRPOPLPUSH 处理队列模式,Zlib 压缩载荷
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/kamalyes/go-toolbox/pkg/mathx"
	"github.com/kamalyes/go-toolbox/pkg/zipx"
	"github.com/redis/go-redis/v9"
)

// 默认参数
const (
	DefaultQueueKeyPrefix = "mw:queue:"      // 默认队列 key 前缀
	defaultPopTimeout     = 5 * time.Second  // BRPOPLPUSH 阻塞超时
	processingSuffix      = ":processing"    // 处理中队列后缀
)

// RedisQueueChannel Redis 队列通道实现
// 发布端 RPUSH 到源队列;消费端 BRPOPLPUSH 原子性地把消息挪到处理队列,
// 处理完成后 LRem 移除,进程崩溃时消息仍留在处理队列中可被恢复
type RedisQueueChannel struct {
	client     redis.UniversalClient
	prefix     string
	ttl        time.Duration
	popTimeout time.Duration
	logger     MWLogger

	mu      sync.Mutex
	subs    []*Subscription
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
}

// NewRedisQueueChannel 创建 Redis 队列通道
func NewRedisQueueChannel(client redis.UniversalClient, prefix string, ttl time.Duration, log MWLogger) *RedisQueueChannel {
	prefix = mathx.IF(prefix != "", prefix, DefaultQueueKeyPrefix)
	ttl = mathx.IF(ttl > 0, ttl, 7*24*time.Hour)
	if log == nil {
		log = DefaultLogger
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RedisQueueChannel{
		client:     client,
		prefix:     prefix,
		ttl:        ttl,
		popTimeout: defaultPopTimeout,
		logger:     log,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Publish 发布载荷到指定队列
func (c *RedisQueueChannel) Publish(ctx context.Context, queueName, payload string) error {
	if payload == "" {
		return ErrPayloadEmpty
	}

	key := c.prefix + queueName

	// 使用 Zlib 压缩载荷
	compressedData, err := zipx.ZlibCompressObject(payload)
	if err != nil {
		return errorx.NewError(ErrTypeQueuePublishFailed, err.Error())
	}

	// 使用 RPUSH 添加到队列尾部,并刷新过期时间
	pipe := c.client.Pipeline()
	pipe.RPush(ctx, key, compressedData)
	pipe.Expire(ctx, key, c.ttl)

	if _, err = pipe.Exec(ctx); err != nil {
		return errorx.NewError(ErrTypeQueuePublishFailed, err.Error())
	}

	return nil
}

// Consume 订阅指定队列
// 每个订阅一个消费 goroutine,单订阅内 handler 串行调用
func (c *RedisQueueChannel) Consume(queueName string, handler QueueHandler) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return nil, ErrChannelStopped
	}

	subCtx, subCancel := context.WithCancel(c.ctx)
	sub := &Subscription{
		queueName: queueName,
		cancel:    subCancel,
		done:      make(chan struct{}),
	}
	c.subs = append(c.subs, sub)

	c.wg.Add(1)
	go c.consumeLoop(subCtx, sub, handler)

	return sub, nil
}

// consumeLoop 消费循环
func (c *RedisQueueChannel) consumeLoop(ctx context.Context, sub *Subscription, handler QueueHandler) {
	defer c.wg.Done()
	defer close(sub.done)

	sourceKey := c.prefix + sub.queueName
	processingKey := sourceKey + processingSuffix

	// 消费异常时的重连退避策略
	b := &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    10 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// 原子性地从源队列移到处理队列
		result, err := c.client.BRPopLPush(ctx, sourceKey, processingKey, c.popTimeout).Result()
		if err != nil {
			if err == redis.Nil {
				// 超时无数据,正常轮询
				b.Reset()
				continue
			}
			if ctx.Err() != nil {
				return
			}
			c.logger.WarnKV("队列消费异常,退避后重试",
				"queue", sub.queueName,
				"error", err.Error(),
			)
			if !sleepContext(ctx, b.Duration()) {
				return
			}
			continue
		}
		b.Reset()

		// 解压载荷
		payload, err := zipx.ZlibDecompressObject[string]([]byte(result))
		if err != nil {
			// 编解码层面的毒消息,无法交给 handler,移出处理队列并告警
			c.logger.ErrorKV("载荷解压失败,丢弃毒消息",
				"queue", sub.queueName,
				"error", err.Error(),
			)
			c.client.LRem(context.Background(), processingKey, 1, result)
			continue
		}

		// 处理消息:handler 透传订阅上下文,Stop 时在途处理及时中止,
		// 取消导致的报错走下方重新入队路径,消息不丢失
		handlerErr := handler(ctx, payload)

		// 无论成败都从处理队列移除
		c.client.LRem(context.Background(), processingKey, 1, result)

		if handlerErr != nil {
			// handler 报错表示消息未被消化(死信投递是工作器职责),重新入队
			c.logger.WarnKV("处理失败,消息重新入队",
				"queue", sub.queueName,
				"error", handlerErr.Error(),
			)
			if err := c.Publish(context.Background(), sub.queueName, payload); err != nil {
				c.logger.ErrorKV("消息重新入队失败",
					"queue", sub.queueName,
					"error", err.Error(),
				)
			}
		}
	}
}

// QueueLength 获取队列长度
func (c *RedisQueueChannel) QueueLength(ctx context.Context, queueName string) (int64, error) {
	length, err := c.client.LLen(ctx, c.prefix+queueName).Result()
	if err != nil {
		return 0, errorx.NewError(ErrTypeQueueConsumeFailed, err.Error())
	}
	return length, nil
}

// Stop 停止所有订阅并排空在途处理
func (c *RedisQueueChannel) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// sleepContext 可取消的休眠,返回 false 表示因取消而提前退出
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
