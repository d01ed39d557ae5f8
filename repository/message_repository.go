/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-22 00:00:00
 * @FilePath: \go-msgworker\repository\message_repository.go
 * @Description: 消息仓库 - 使用 GORM 数据库持久化,幂等创建与归档分页查询
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kamalyes/go-msgworker/models"
	sqlbuilder "github.com/kamalyes/go-sqlbuilder/repository"
	"gorm.io/gorm"
)

// MessageRepository 消息仓库接口
type MessageRepository interface {
	// Create 创建消息,主键冲突时返回 ErrTypeDuplicateKey
	Create(ctx context.Context, msg *Message) error

	// FindByID 根据消息ID查找
	FindByID(ctx context.Context, id string) (*Message, error)

	// ExistsByID 幂等检查:消息ID是否已持久化
	ExistsByID(ctx context.Context, id string) (bool, error)

	// FindOlderThan 查找严格早于 cutoff 的消息,按 (创建时间, ID) 升序分页
	// after 为键集游标(上一页最后一条),传 nil 表示从头开始;
	// 游标推进不依赖删除,保留主存储数据时分页依然前进
	FindOlderThan(ctx context.Context, cutoff time.Time, after *MessageCursor, limit int) ([]*Message, error)

	// DeleteByIDs 按ID批量删除,返回删除行数
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	// FindRecentIDs 查找会话最近的消息ID,最新在前
	FindRecentIDs(ctx context.Context, conversationID string, limit int) ([]string, error)

	// MarkRead 记录用户已读回执(按用户去重)
	MarkRead(ctx context.Context, messageID, userID string, at time.Time) error

	// Count 消息总数
	Count(ctx context.Context) (int64, error)

	// GetDB 获取底层 GORM DB(用于复杂查询)
	GetDB() *gorm.DB

	CollectionStreamer
}

// MessageGormRepository GORM 实现
type MessageGormRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息仓库
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &MessageGormRepository{db: db}
}

// Create 创建消息
// 同一ID重复投递时依赖唯一主键拒绝第二次写入,调用方把冲突视为成功
func (r *MessageGormRepository) Create(ctx context.Context, msg *Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return translateStoreError(err, msg.ID)
	}
	return nil
}

// FindByID 根据消息ID查找
func (r *MessageGormRepository) FindByID(ctx context.Context, id string) (*Message, error) {
	var msg Message
	err := r.db.WithContext(ctx).Where(models.QueryMessageIDWhere, id).First(&msg).Error
	if err != nil {
		return nil, translateStoreError(err, id)
	}
	return &msg, nil
}

// ExistsByID 幂等检查
func (r *MessageGormRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Message{}).Where(models.QueryMessageIDWhere, id).Count(&count).Error
	if err != nil {
		return false, translateStoreError(err, id)
	}
	return count > 0, nil
}

// MessageCursor 消息分页键集游标
// 指向上一页最后一条消息,下一页从严格大于该位置处开始
type MessageCursor struct {
	CreateTime time.Time // 上一页末条创建时间
	ID         string    // 上一页末条消息ID(同一创建时间内的决胜键)
}

// After 判断消息是否严格位于游标之后,nil 游标视为起点
func (c *MessageCursor) After(msg *Message) bool {
	if c == nil {
		return true
	}
	if msg.CreateTime.After(c.CreateTime) {
		return true
	}
	return msg.CreateTime.Equal(c.CreateTime) && msg.ID > c.ID
}

// FindOlderThan 查找严格早于 cutoff 的消息
func (r *MessageGormRepository) FindOlderThan(ctx context.Context, cutoff time.Time, after *MessageCursor, limit int) ([]*Message, error) {
	// 使用 go-sqlbuilder 构建过滤与排序条件
	sqlQuery := sqlbuilder.NewQuery().
		AddFilter(sqlbuilder.NewLtFilter("create_time", cutoff)).
		AddOrder("create_time", "ASC").
		AddOrder("id", "ASC")

	query := r.db.WithContext(ctx).Model(&Message{})
	query = sqlbuilder.ApplyFilters(query, sqlQuery.Filters)
	query = sqlbuilder.ApplyOrders(query, sqlQuery.Orders)

	// 键集游标:从上一页末条之后继续
	if after != nil {
		query = query.Where("create_time > ? OR (create_time = ? AND id > ?)",
			after.CreateTime, after.CreateTime, after.ID)
	}

	var messages []*Message
	if err := query.Limit(limit).Find(&messages).Error; err != nil {
		return nil, translateStoreError(err, "find older than")
	}
	return messages, nil
}

// DeleteByIDs 按ID批量删除
func (r *MessageGormRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&Message{})
	if result.Error != nil {
		return 0, translateStoreError(result.Error, "delete by ids")
	}
	return result.RowsAffected, nil
}

// FindRecentIDs 查找会话最近的消息ID,最新在前
func (r *MessageGormRepository) FindRecentIDs(ctx context.Context, conversationID string, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where(models.QueryConversationIDWhere, conversationID).
		Order(models.OrderByCreateTimeDesc).
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translateStoreError(err, conversationID)
	}
	return ids, nil
}

// MarkRead 记录已读回执,同一用户只保留首条
func (r *MessageGormRepository) MarkRead(ctx context.Context, messageID, userID string, at time.Time) error {
	msg, err := r.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if !msg.MarkRead(userID, at) {
		return nil
	}
	err = r.db.WithContext(ctx).Model(&Message{}).
		Where(models.QueryMessageIDWhere, messageID).
		Update("read_receipts", msg.ReadReceipts).Error
	if err != nil {
		return translateStoreError(err, messageID)
	}
	return nil
}

// Count 消息总数
func (r *MessageGormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Message{}).Count(&count).Error; err != nil {
		return 0, translateStoreError(err, "count")
	}
	return count, nil
}

// StreamDocuments 按批次全量导出消息文档(备份用,只读)
func (r *MessageGormRepository) StreamDocuments(ctx context.Context, batchSize int, fn func(doc []byte) error) error {
	var batch []*Message
	result := r.db.WithContext(ctx).Order(models.OrderByCreateTimeAsc).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			for _, msg := range batch {
				doc, err := json.Marshal(msg)
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
		return translateStoreError(result.Error, "stream messages")
	}
	return nil
}

// GetDB 获取底层 GORM DB
func (r *MessageGormRepository) GetDB() *gorm.DB {
	return r.db
}
