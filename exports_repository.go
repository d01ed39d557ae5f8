/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-24 00:00:00
 * @FilePath: \go-msgworker\exports_repository.go
 * @Description: Repository 模块类型导出 - 保持向后兼容
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package msgworker

import "github.com/kamalyes/go-msgworker/repository"

// ============================================
// Message Repository - 消息仓储
// ============================================

// MessageRepository 消息仓储接口
type MessageRepository = repository.MessageRepository

// MessageGormRepository Gorm 消息仓储实现
type MessageGormRepository = repository.MessageGormRepository

// MessageCursor 消息分页键集游标
type MessageCursor = repository.MessageCursor

// NewMessageRepository 创建消息仓储
var NewMessageRepository = repository.NewMessageRepository

// ============================================
// Conversation Repository - 会话仓储
// ============================================

// ConversationRepository 会话仓储接口
type ConversationRepository = repository.ConversationRepository

// ConversationGormRepository Gorm 会话仓储实现
type ConversationGormRepository = repository.ConversationGormRepository

// NewConversationRepository 创建会话仓储
var NewConversationRepository = repository.NewConversationRepository

// ============================================
// File Record Repository - 文件记录仓储
// ============================================

// FileRecordRepository 文件记录仓储接口
type FileRecordRepository = repository.FileRecordRepository

// FileRecordGormRepository Gorm 文件记录仓储实现
type FileRecordGormRepository = repository.FileRecordGormRepository

// NewFileRecordRepository 创建文件记录仓储
var NewFileRecordRepository = repository.NewFileRecordRepository

// ============================================
// Dead Letter Repository - 死信记录仓储
// ============================================

// DeadLetterRepository 死信记录仓储接口
type DeadLetterRepository = repository.DeadLetterRepository

// NewDeadLetterRepository 创建死信记录仓储
var NewDeadLetterRepository = repository.NewDeadLetterRepository

// ============================================
// Run Record Repository - 运行记录仓储
// ============================================

// RunRecordRepository 运行记录仓储接口
type RunRecordRepository = repository.RunRecordRepository

// NewRunRecordRepository 创建运行记录仓储
var NewRunRecordRepository = repository.NewRunRecordRepository

// ============================================
// Collection Streamer - 集合流式导出
// ============================================

// CollectionStreamer 集合流式导出接口
type CollectionStreamer = repository.CollectionStreamer

// ============================================
// Object Store - 对象存储
// ============================================

// ObjectStore 对象存储接口
type ObjectStore = repository.ObjectStore

// ObjectInfo 对象元信息
type ObjectInfo = repository.ObjectInfo

// MinioConfig MinIO 对象存储配置
type MinioConfig = repository.MinioConfig

// MinioObjectStore MinIO 对象存储实现
type MinioObjectStore = repository.MinioObjectStore

// NewMinioObjectStore 创建 MinIO 对象存储
var NewMinioObjectStore = repository.NewMinioObjectStore

// MemoryObjectStore 内存对象存储实现
type MemoryObjectStore = repository.MemoryObjectStore

// NewMemoryObjectStore 创建内存对象存储
var NewMemoryObjectStore = repository.NewMemoryObjectStore
