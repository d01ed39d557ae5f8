/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-21 00:00:00
 * @FilePath: \go-msgworker\repository\aliases.go
 * @Description: 类型别名 - 为 models 包中的类型创建别名，便于在 repository 层使用
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

import "github.com/kamalyes/go-msgworker/models"

// 类型别名 - 消息相关
type (
	// Message 持久化消息
	Message = models.Message

	// MessageEvent 消息创建事件
	MessageEvent = models.MessageEvent

	// Conversation 会话局部视图
	Conversation = models.Conversation

	// FileRecord 文件记录
	FileRecord = models.FileRecord

	// FileEvent 文件上传事件
	FileEvent = models.FileEvent

	// DeadLetterRecord 死信记录
	DeadLetterRecord = models.DeadLetterRecord

	// ArchivalRun 归档运行记录
	ArchivalRun = models.ArchivalRun

	// BackupRun 备份运行记录
	BackupRun = models.BackupRun

	// RunStatus 运行状态
	RunStatus = models.RunStatus

	// FailureReason 失败原因
	FailureReason = models.FailureReason
)

// 常量别名 - 运行状态
const (
	RunStatusSuccess = models.RunStatusSuccess
	RunStatusPartial = models.RunStatusPartial
	RunStatusFailed  = models.RunStatusFailed
)
