/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-22 00:00:00
 * @FilePath: \go-msgworker\dead_letter_sink.go
 * @Description: 死信投递 - 封装信封发布与数据库镜像写入
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"time"

	"github.com/kamalyes/go-msgworker/models"
	"github.com/kamalyes/go-msgworker/repository"
)

// deadLetterSink 死信投递器
// 原始载荷包在信封里发布到 <队列名>.deadletter,并镜像一条数据库记录;
// 投递本身失败时只记日志不再递归重试,避免毒消息循环
type deadLetterSink struct {
	channel QueueChannel
	records repository.DeadLetterRepository // 可为 nil,此时只发队列不落库
	logger  MWLogger
	now     func() time.Time
}

func newDeadLetterSink(channel QueueChannel, records repository.DeadLetterRepository, log MWLogger) *deadLetterSink {
	if log == nil {
		log = DefaultLogger
	}
	return &deadLetterSink{
		channel: channel,
		records: records,
		logger:  log,
		now:     time.Now,
	}
}

// send 把失败载荷投递到源队列对应的死信队列
func (s *deadLetterSink) send(ctx context.Context, queueName, payload string, kind models.FailureReason, reason string) {
	failedAt := s.now()
	envelope := &models.DeadLetterEnvelope{
		OriginalMessage: payload,
		Reason:          reason,
		FailedAt:        failedAt,
	}

	encoded, err := envelope.Encode()
	if err != nil {
		s.logger.ErrorKV("死信信封序列化失败", "queue", queueName, "error", err.Error())
		return
	}

	deadLetterQueue := DeadLetterQueueName(queueName)
	if err := s.channel.Publish(ctx, deadLetterQueue, encoded); err != nil {
		s.logger.ErrorKV("死信发布失败,载荷将丢失",
			"queue", deadLetterQueue,
			"reason", reason,
			"error", err.Error(),
		)
	} else {
		s.logger.WarnKV("载荷已进入死信队列",
			"queue", deadLetterQueue,
			"failure_kind", string(kind),
			"reason", reason,
		)
	}

	if s.records == nil {
		return
	}
	record := &models.DeadLetterRecord{
		QueueName:       queueName,
		OriginalMessage: payload,
		Reason:          reason,
		FailureKind:     kind,
		FailedAt:        failedAt,
	}
	if err := s.records.Create(ctx, record); err != nil {
		s.logger.ErrorKV("死信记录落库失败", "queue", queueName, "error", err.Error())
	}
}
