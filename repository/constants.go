/**
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-22 00:00:00
 * @FilePath: \go-msgworker\repository\constants.go
 * @Description: Repository 层常量定义 - 统一管理 Redis key 前缀和对象存储路径
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

const (
	// ============================================================================
	// Redis Key 前缀常量
	// ============================================================================

	// DefaultQueueKeyPrefix 消息队列默认 key 前缀
	DefaultQueueKeyPrefix = "mw:queue:"

	// ProcessingQueueSuffix 处理中队列后缀,消费时消息先转移到该队列
	ProcessingQueueSuffix = ":processing"

	// ============================================================================
	// 对象存储路径前缀常量
	// ============================================================================

	// ArchivePathPrefix 归档对象路径前缀
	ArchivePathPrefix = "archives/"

	// BackupPathPrefix 备份对象路径前缀
	BackupPathPrefix = "backups/"

	// ThumbnailPathPrefix 缩略图对象路径前缀
	ThumbnailPathPrefix = "thumbnails/"

	// ============================================================================
	// 批量操作默认值
	// ============================================================================

	// DefaultStreamBatchSize 流式导出默认批大小
	DefaultStreamBatchSize = 1000
)
