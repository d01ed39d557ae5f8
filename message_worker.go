/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-23 00:00:00
 * @FilePath: \go-msgworker\message_worker.go
 * @Description: 消息处理工作器 - 消费消息事件,幂等落库并维护会话最近消息窗口
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kamalyes/go-msgworker/models"
	"github.com/kamalyes/go-msgworker/repository"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
)

// BroadcastEventNewMessage 新消息广播事件名
const BroadcastEventNewMessage = "message:new"

// MessageWorker 消息处理工作器
// 消费流程:反序列化 -> 校验 -> 幂等落库 -> 更新会话窗口 -> 尽力广播
// 结构/校验错误直接进死信;瞬时错误指数退避重试,耗尽后进死信
type MessageWorker struct {
	config        *Config
	channel       QueueChannel
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	broadcaster   Broadcaster
	deadLetters   *deadLetterSink
	retryPolicy   *retryPolicy
	logger        MWLogger

	newID func() string    // 消息ID生成器,可注入便于测试
	now   func() time.Time // 可注入时钟

	mutex        sync.Mutex
	subscription *Subscription
}

// NewMessageWorker 创建消息处理工作器
// deadLetterRecords 可为 nil,此时死信只发队列不落库;
// broadcaster 为 nil 时退化为 NoOpBroadcaster
func NewMessageWorker(
	config *Config,
	channel QueueChannel,
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	deadLetterRecords repository.DeadLetterRepository,
	broadcaster Broadcaster,
	log MWLogger,
) *MessageWorker {
	if log == nil {
		log = DefaultLogger
	}
	if broadcaster == nil {
		broadcaster = NoOpBroadcaster{}
	}
	return &MessageWorker{
		config:        config,
		channel:       channel,
		messages:      messages,
		conversations: conversations,
		broadcaster:   broadcaster,
		deadLetters:   newDeadLetterSink(channel, deadLetterRecords, log),
		retryPolicy:   newRetryPolicy(config, log),
		logger:        log,
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

// Start 订阅消息队列并开始消费
func (w *MessageWorker) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.subscription != nil {
		return nil
	}

	subscription, err := w.channel.Consume(w.config.MessageQueue, w.Handle)
	if err != nil {
		return err
	}
	w.subscription = subscription

	w.logger.InfoKV("消息处理工作器已启动", "queue", w.config.MessageQueue)
	return nil
}

// Stop 取消订阅并等待在途消息处理完成
func (w *MessageWorker) Stop() {
	w.mutex.Lock()
	subscription := w.subscription
	w.subscription = nil
	w.mutex.Unlock()

	if subscription == nil {
		return
	}
	subscription.Cancel()
	subscription.Wait()
	w.logger.InfoKV("消息处理工作器已停止", "queue", w.config.MessageQueue)
}

// Handle 处理单条消息事件载荷
// 返回 nil 表示确认(含已进死信的情况);仅当处理被取消需要重投时返回错误
func (w *MessageWorker) Handle(ctx context.Context, payload string) error {
	event, err := w.decodeEvent(payload)
	if err != nil {
		// 结构非法属于永久错误,重试不可能成功,直接进死信并确认
		w.deadLetters.send(ctx, w.config.MessageQueue, payload, models.FailureReasonDeserialization, err.Error())
		return nil
	}

	if err := w.validateEvent(event); err != nil {
		w.deadLetters.send(ctx, w.config.MessageQueue, payload, models.FailureReasonValidation, err.Error())
		return nil
	}

	// 消息ID在重试循环之外生成一次:同一次消费的所有尝试
	// 复用同一ID,部分失败重试时靠主键冲突兜底幂等
	message := w.buildMessage(event)

	result := w.retryPolicy.Execute(ctx, "persist message", func(ctx context.Context) error {
		return w.persist(ctx, message)
	})

	if result.FinalErr != nil {
		if ctx.Err() != nil {
			// 停机取消不算业务失败,交还队列重投
			return result.FinalErr
		}
		w.deadLetters.send(ctx, w.config.MessageQueue, payload, models.FailureReasonMaxRetry, result.Reason())
		return nil
	}

	w.broadcast(ctx, message)
	return nil
}

// decodeEvent 反序列化消息事件
func (w *MessageWorker) decodeEvent(payload string) (*models.MessageEvent, error) {
	if payload == "" {
		return nil, ErrPayloadEmpty
	}
	var event models.MessageEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, errorx.NewError(ErrTypeDeserializationFailed, err.Error())
	}
	return &event, nil
}

// validateEvent 校验事件必填字段
func (w *MessageWorker) validateEvent(event *models.MessageEvent) error {
	if event.ConversationID == "" {
		return errorx.NewError(ErrTypeValidationFailed, "conversationId is required")
	}
	if event.SenderID == "" {
		return errorx.NewError(ErrTypeValidationFailed, "senderId is required")
	}
	if event.Type == "" {
		return errorx.NewError(ErrTypeValidationFailed, "type is required")
	}
	if event.Type == models.MessageTypeText && event.Content == "" && event.EncryptedContent == "" {
		return errorx.NewError(ErrTypeValidationFailed, "text message requires content")
	}
	// 非文本消息允许纯附件,但不允许三者皆空的空壳事件
	if event.Content == "" && event.EncryptedContent == "" && len(event.Attachments) == 0 {
		return errorx.NewError(ErrTypeValidationFailed, "message requires content or attachments")
	}
	return nil
}

// buildMessage 由事件构建持久化消息,分配ID与创建时间
func (w *MessageWorker) buildMessage(event *models.MessageEvent) *models.Message {
	return &models.Message{
		ID:               w.newID(),
		ConversationID:   event.ConversationID,
		SenderID:         event.SenderID,
		SenderName:       event.SenderName,
		Type:             event.Type,
		Content:          event.Content,
		EncryptedContent: event.EncryptedContent,
		ReplyTo:          event.ReplyTo,
		Attachments:      event.Attachments,
		ReadReceipts:     models.ReadReceiptList{},
		CreateTime:       w.now(),
	}
}

// persist 幂等落库并维护会话最近消息窗口
func (w *MessageWorker) persist(ctx context.Context, message *models.Message) error {
	exists, err := w.messages.ExistsByID(ctx, message.ID)
	if err != nil {
		return err
	}
	if exists {
		// 上一次尝试已经写入成功,本次视为幂等成功
		w.logger.DebugKV("消息已存在,跳过写入", "message_id", message.ID)
	} else if err := w.messages.Create(ctx, message); err != nil {
		if !IsDuplicateKeyError(err) {
			return err
		}
		// 幂等检查与写入之间的并发窗口,主键冲突同样视为成功
		w.logger.DebugKV("消息并发写入冲突,视为成功", "message_id", message.ID)
	}

	err = w.conversations.PushRecentMessage(ctx, message.ConversationID, message.ID, message.CreateTime)
	if err != nil {
		if IsNotFoundError(err) {
			// 会话不存在不算处理失败,消息本身已是权威数据
			w.logger.WarnKV("会话不存在,跳过窗口更新",
				"conversation_id", message.ConversationID,
				"message_id", message.ID,
			)
			return nil
		}
		return err
	}
	return nil
}

// broadcast 尽力而为地向会话订阅组广播新消息
// 广播失败只记日志,绝不影响消息确认
func (w *MessageWorker) broadcast(ctx context.Context, message *models.Message) {
	err := w.broadcaster.BroadcastToGroup(ctx, message.ConversationID, BroadcastEventNewMessage,
		map[string]interface{}{
			"messageId":      message.ID,
			"conversationId": message.ConversationID,
			"senderId":       message.SenderID,
			"senderName":     message.SenderName,
			"type":           string(message.Type),
			"content":        message.Content,
			"createTime":     message.CreateTime,
		})
	if err != nil {
		w.logger.WarnKV("新消息广播失败",
			"conversation_id", message.ConversationID,
			"message_id", message.ID,
			"error", err.Error(),
		)
	}
}
