/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-22 00:00:00
 * @FilePath: \go-msgworker\repository\dead_letter_repository.go
 * @Description: 死信记录仓库 - 死信队列的持久化镜像,便于排查与备份
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"
)

// DeadLetterRepository 死信记录仓库接口
type DeadLetterRepository interface {
	// Create 写入一条死信记录
	Create(ctx context.Context, record *DeadLetterRecord) error

	// FindByQueue 按来源队列查询死信,最新在前
	FindByQueue(ctx context.Context, queueName string, limit int) ([]*DeadLetterRecord, error)

	// Count 统计死信总数
	Count(ctx context.Context) (int64, error)

	CollectionStreamer
}

// DeadLetterGormRepository GORM 实现
type DeadLetterGormRepository struct {
	db *gorm.DB
}

// NewDeadLetterRepository 创建死信记录仓库
func NewDeadLetterRepository(db *gorm.DB) DeadLetterRepository {
	return &DeadLetterGormRepository{db: db}
}

// Create 写入一条死信记录
func (r *DeadLetterGormRepository) Create(ctx context.Context, record *DeadLetterRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return translateStoreError(err, "dead letter")
	}
	return nil
}

// FindByQueue 按来源队列查询死信
func (r *DeadLetterGormRepository) FindByQueue(ctx context.Context, queueName string, limit int) ([]*DeadLetterRecord, error) {
	var records []*DeadLetterRecord
	err := r.db.WithContext(ctx).
		Where("queue_name = ?", queueName).
		Order("failed_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, translateStoreError(err, "dead letters by queue")
	}
	return records, nil
}

// Count 统计死信总数
func (r *DeadLetterGormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&DeadLetterRecord{}).Count(&count).Error; err != nil {
		return 0, translateStoreError(err, "dead letter count")
	}
	return count, nil
}

// StreamDocuments 按批次流式导出死信记录,供备份任务使用
func (r *DeadLetterGormRepository) StreamDocuments(ctx context.Context, batchSize int, fn func(doc []byte) error) error {
	var batch []*DeadLetterRecord
	result := r.db.WithContext(ctx).Order("id ASC").FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		for _, record := range batch {
			doc, err := json.Marshal(record)
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
		return translateStoreError(result.Error, "dead letter stream")
	}
	return nil
}
