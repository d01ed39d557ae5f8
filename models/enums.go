/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-12 00:00:00
 * @FilePath: \go-msgworker\models\enums.go
 * @Description: 消息类型、运行状态等枚举定义
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

// MessageType 消息类型
type MessageType string

const (
	MessageTypeText   MessageType = "text"   // 文本消息
	MessageTypeImage  MessageType = "image"  // 图片消息
	MessageTypeFile   MessageType = "file"   // 文件消息
	MessageTypeAudio  MessageType = "audio"  // 音频消息
	MessageTypeVideo  MessageType = "video"  // 视频消息
	MessageTypeSystem MessageType = "system" // 系统消息
	MessageTypeNotice MessageType = "notice" // 通知消息
)

// RunStatus 定时任务运行状态
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success" // 全部成功
	RunStatusPartial RunStatus = "partial" // 部分成功(有批次/集合失败)
	RunStatusFailed  RunStatus = "failed"  // 全部失败
)

// FailureReason 死信失败原因
type FailureReason string

const (
	FailureReasonDeserialization FailureReason = "deserialization_error" // 反序列化失败
	FailureReasonValidation      FailureReason = "validation_failed"     // 字段校验失败
	FailureReasonMaxRetry        FailureReason = "max_retry"             // 超过最大重试次数
	FailureReasonUnknown         FailureReason = "unknown"               // 未知错误
)

// RunKind 运行记录类型
type RunKind string

const (
	RunKindArchival RunKind = "archival" // 归档任务
	RunKindBackup   RunKind = "backup"   // 备份任务
)
