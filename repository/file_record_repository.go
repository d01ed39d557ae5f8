/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-22 00:00:00
 * @FilePath: \go-msgworker\repository\file_record_repository.go
 * @Description: 文件记录仓库 - 派生元数据的单次写入
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"
)

// FileRecordRepository 文件记录仓库接口
type FileRecordRepository interface {
	// FindByID 根据文件ID查找
	FindByID(ctx context.Context, id string) (*FileRecord, error)

	// Create 创建文件记录
	Create(ctx context.Context, record *FileRecord) error

	// UpdateMetadata 写入一次处理产出的派生元数据
	UpdateMetadata(ctx context.Context, record *FileRecord) error

	CollectionStreamer
}

// FileRecordGormRepository GORM 实现
type FileRecordGormRepository struct {
	db *gorm.DB
}

// NewFileRecordRepository 创建文件记录仓库
func NewFileRecordRepository(db *gorm.DB) FileRecordRepository {
	return &FileRecordGormRepository{db: db}
}

// FindByID 根据文件ID查找
func (r *FileRecordGormRepository) FindByID(ctx context.Context, id string) (*FileRecord, error) {
	var record FileRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, translateStoreError(err, id)
	}
	return &record, nil
}

// Create 创建文件记录
func (r *FileRecordGormRepository) Create(ctx context.Context, record *FileRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return translateStoreError(err, record.ID)
	}
	return nil
}

// UpdateMetadata 写入派生元数据
func (r *FileRecordGormRepository) UpdateMetadata(ctx context.Context, record *FileRecord) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return translateStoreError(err, record.ID)
	}
	return nil
}

// StreamDocuments 按批次全量导出文件记录文档(备份用,只读)
func (r *FileRecordGormRepository) StreamDocuments(ctx context.Context, batchSize int, fn func(doc []byte) error) error {
	var batch []*FileRecord
	result := r.db.WithContext(ctx).Order("id ASC").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
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
		return translateStoreError(result.Error, "stream file records")
	}
	return nil
}
