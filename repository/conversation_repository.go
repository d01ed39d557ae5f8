/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-22 00:00:00
 * @FilePath: \go-msgworker\repository\conversation_repository.go
 * @Description: 会话仓库 - 最近消息窗口的读改写维护
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ConversationRepository 会话仓库接口
type ConversationRepository interface {
	// FindByID 根据会话ID查找
	FindByID(ctx context.Context, id string) (*Conversation, error)

	// Create 创建会话
	Create(ctx context.Context, conversation *Conversation) error

	// PushRecentMessage 把消息ID头插进会话的最近消息窗口并截断
	// 会话不存在时返回 ErrTypeRecordNotFound,由调用方决定是否致命
	PushRecentMessage(ctx context.Context, conversationID, messageID string, at time.Time) error

	// ReplaceRecentWindow 整体替换最近消息窗口(归档后重建)
	ReplaceRecentWindow(ctx context.Context, conversationID string, messageIDs []string) error

	CollectionStreamer
}

// ConversationGormRepository GORM 实现
type ConversationGormRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话仓库
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &ConversationGormRepository{db: db}
}

// FindByID 根据会话ID查找
func (r *ConversationGormRepository) FindByID(ctx context.Context, id string) (*Conversation, error) {
	var conversation Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conversation).Error
	if err != nil {
		return nil, translateStoreError(err, id)
	}
	return &conversation, nil
}

// Create 创建会话
func (r *ConversationGormRepository) Create(ctx context.Context, conversation *Conversation) error {
	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return translateStoreError(err, conversation.ID)
	}
	return nil
}

// PushRecentMessage 把消息ID头插进最近消息窗口
// 读改写操作:并发插入同一会话时为 last-write-wins,
// 窗口可能瞬时丢失/重复个别条目,不依赖存储层事务
func (r *ConversationGormRepository) PushRecentMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	conversation, err := r.FindByID(ctx, conversationID)
	if err != nil {
		return err
	}

	conversation.PushRecent(messageID, at)

	err = r.db.WithContext(ctx).Model(&Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"recent_messages": conversation.RecentMessages,
			"last_message_at": conversation.LastMessageAt,
		}).Error
	if err != nil {
		return translateStoreError(err, conversationID)
	}
	return nil
}

// ReplaceRecentWindow 整体替换最近消息窗口
func (r *ConversationGormRepository) ReplaceRecentWindow(ctx context.Context, conversationID string, messageIDs []string) error {
	conversation, err := r.FindByID(ctx, conversationID)
	if err != nil {
		return err
	}

	conversation.ReplaceRecent(messageIDs)

	err = r.db.WithContext(ctx).Model(&Conversation{}).
		Where("id = ?", conversationID).
		Update("recent_messages", conversation.RecentMessages).Error
	if err != nil {
		return translateStoreError(err, conversationID)
	}
	return nil
}

// StreamDocuments 按批次全量导出会话文档(备份用,只读)
func (r *ConversationGormRepository) StreamDocuments(ctx context.Context, batchSize int, fn func(doc []byte) error) error {
	var batch []*Conversation
	result := r.db.WithContext(ctx).Order("id ASC").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			for _, conversation := range batch {
				doc, err := json.Marshal(conversation)
				if err != nil {
					return err
				}
				if err := fn(doc); err != nil {
					return err
				}
			}
			return nil
		})
	if result.Error != nil {
		return translateStoreError(result.Error, "stream conversations")
	}
	return nil
}
