/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-21 00:00:00
 * @FilePath: \go-msgworker\broadcaster.go
 * @Description: 实时广播能力 - 外部实时传输的抽象,默认走 Redis Pub/Sub
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kamalyes/go-cachex"
	"github.com/kamalyes/go-toolbox/pkg/mathx"
	"github.com/redis/go-redis/v9"
)

// Broadcaster 实时广播能力
// 消息落库后向会话订阅组的尽力而为推送,无投递确认要求;
// 任意具体实时传输(WebSocket 集线器、SSE 网关等)实现本接口即可接入
type Broadcaster interface {
	// BroadcastToGroup 向指定订阅组广播一个事件
	BroadcastToGroup(ctx context.Context, groupID, eventName string, args ...interface{}) error
}

// broadcastEnvelope 广播事件的线格式
type broadcastEnvelope struct {
	Event  string        `json:"event"`   // 事件名
	Args   []interface{} `json:"args"`    // 事件参数
	SentAt time.Time     `json:"sent_at"` // 发出时间
}

// PubSubBroadcaster 基于 cachex.PubSub 的广播实现
// 每个订阅组一个频道,下游实时网关订阅对应频道后推送给客户端
type PubSubBroadcaster struct {
	pubsub        *cachex.PubSub
	channelPrefix string
}

// PubSubBroadcasterConfig PubSub 广播配置
type PubSubBroadcasterConfig struct {
	Namespace     string        // PubSub 命名空间,默认 "mw"
	ChannelPrefix string        // 频道前缀,默认 "conversation:"
	BufferSize    int           // 订阅缓冲大小
	RetryDelay    time.Duration // 发布重试延迟
	MaxRetries    int           // 发布最大重试次数
	Logger        MWLogger      // 日志器
}

// NewPubSubBroadcaster 创建 Redis Pub/Sub 广播器
func NewPubSubBroadcaster(client redis.UniversalClient, config PubSubBroadcasterConfig) *PubSubBroadcaster {
	namespace := mathx.IF(config.Namespace != "", config.Namespace, "mw")
	channelPrefix := mathx.IF(config.ChannelPrefix != "", config.ChannelPrefix, "conversation:")
	log := config.Logger
	if log == nil {
		log = DefaultLogger
	}

	pubsubCfg := cachex.PubSubConfig{
		Namespace:  namespace,
		MaxRetries: mathx.IF(config.MaxRetries > 0, config.MaxRetries, 3),
		RetryDelay: mathx.IF(config.RetryDelay > 0, config.RetryDelay, 100*time.Millisecond),
		BufferSize: mathx.IF(config.BufferSize > 0, config.BufferSize, 256),
		Logger:     log,
	}

	return &PubSubBroadcaster{
		pubsub:        cachex.NewPubSub(client, pubsubCfg),
		channelPrefix: channelPrefix,
	}
}

// BroadcastToGroup 向指定订阅组广播一个事件
func (b *PubSubBroadcaster) BroadcastToGroup(ctx context.Context, groupID, eventName string, args ...interface{}) error {
	envelope := broadcastEnvelope{
		Event:  eventName,
		Args:   args,
		SentAt: time.Now(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return b.pubsub.Publish(ctx, b.channelPrefix+groupID, string(data))
}

// GetPubSub 获取底层 PubSub(供下游网关订阅使用)
func (b *PubSubBroadcaster) GetPubSub() *cachex.PubSub {
	return b.pubsub
}

// NoOpBroadcaster 空广播器 - 无实时传输时的占位实现
type NoOpBroadcaster struct{}

// BroadcastToGroup 空实现,始终成功
func (NoOpBroadcaster) BroadcastToGroup(ctx context.Context, groupID, eventName string, args ...interface{}) error {
	return nil
}
