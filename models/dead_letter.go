/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-20 00:00:00
 * @FilePath: \go-msgworker\models\dead_letter.go
 * @Description: 死信信封 - 队列线格式与落库镜像
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

import (
	"encoding/json"
	"time"
)

// DeadLetterEnvelope 死信信封(队列线格式)
// 仅在载荷结构非法或重试耗尽后创建,保留原始载荷供人工排查
type DeadLetterEnvelope struct {
	OriginalMessage string    `json:"originalMessage"` // 原始载荷(不透明字符串)
	Reason          string    `json:"reason"`          // 失败原因
	FailedAt        time.Time `json:"failedAt"`        // 失败时间
}

// Encode 序列化为队列载荷
func (e *DeadLetterEnvelope) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeDeadLetterEnvelope 从队列载荷反序列化死信信封
func DecodeDeadLetterEnvelope(payload string) (*DeadLetterEnvelope, error) {
	var envelope DeadLetterEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// DeadLetterRecord 死信记录(GORM 模型)
// 在死信入队之外落一份 MySQL 镜像,方便运维按队列/原因检索
type DeadLetterRecord struct {
	ID              uint          `gorm:"primaryKey;autoIncrement;comment:主键" json:"id"`                  // 主键
	QueueName       string        `gorm:"size:255;not null;index;comment:源队列名" json:"queue_name"`         // 源队列名
	OriginalMessage string        `gorm:"type:text;comment:原始载荷,类型为文本" json:"original_message"`           // 原始载荷
	Reason          string        `gorm:"type:text;comment:失败原因,类型为文本" json:"reason"`                     // 失败原因
	FailureKind     FailureReason `gorm:"size:50;index;comment:失败分类" json:"failure_kind"`                 // 失败分类
	FailedAt        time.Time     `gorm:"index;not null;comment:失败时间" json:"failed_at"`                   // 失败时间
	CreatedAt       time.Time     `gorm:"comment:记录创建时间" json:"created_at"`                               // 记录创建时间
}

// TableName 指定表名
func (DeadLetterRecord) TableName() string {
	return "mw_dead_letters"
}

// TableComment 表注释
func (DeadLetterRecord) TableComment() string {
	return "死信记录表-死信队列的数据库镜像用于运维检索"
}
