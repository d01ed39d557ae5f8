/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-24 00:00:00
 * @FilePath: \go-msgworker\exports_models.go
 * @Description: Models模块类型导出 - 保持向后兼容
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"github.com/kamalyes/go-msgworker/models"
)

// ==================== 基础类型 ====================
type (
	MessageEvent       = models.MessageEvent
	Message            = models.Message
	ReadReceipt        = models.ReadReceipt
	ReadReceiptList    = models.ReadReceiptList
	Conversation       = models.Conversation
	FileEvent          = models.FileEvent
	FileRecord         = models.FileRecord
	DeadLetterEnvelope = models.DeadLetterEnvelope
	DeadLetterRecord   = models.DeadLetterRecord
	ArchivalRun        = models.ArchivalRun
	BackupRun          = models.BackupRun
)

// ==================== 枚举类型 ====================
type (
	MessageType   = models.MessageType
	RunStatus     = models.RunStatus
	FailureReason = models.FailureReason
	RunKind       = models.RunKind
)

// ==================== 枚举常量 - MessageType ====================
const (
	MessageTypeText   = models.MessageTypeText
	MessageTypeImage  = models.MessageTypeImage
	MessageTypeFile   = models.MessageTypeFile
	MessageTypeAudio  = models.MessageTypeAudio
	MessageTypeVideo  = models.MessageTypeVideo
	MessageTypeSystem = models.MessageTypeSystem
	MessageTypeNotice = models.MessageTypeNotice
)

// ==================== 枚举常量 - RunStatus ====================
const (
	RunStatusSuccess = models.RunStatusSuccess
	RunStatusPartial = models.RunStatusPartial
	RunStatusFailed  = models.RunStatusFailed
)

// ==================== 枚举常量 - FailureReason ====================
const (
	FailureReasonDeserialization = models.FailureReasonDeserialization
	FailureReasonValidation      = models.FailureReasonValidation
	FailureReasonMaxRetry        = models.FailureReasonMaxRetry
	FailureReasonUnknown         = models.FailureReasonUnknown
)

// ==================== 其他常量 ====================
const (
	RecentMessageWindowSize = models.RecentMessageWindowSize
)

// DecodeDeadLetter 从队列载荷解析死信信封
func DecodeDeadLetter(payload string) (*DeadLetterEnvelope, error) {
	return models.DecodeDeadLetterEnvelope(payload)
}
