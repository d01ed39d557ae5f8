/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-22 00:00:00
 * @FilePath: \go-msgworker\repository\run_record_repository.go
 * @Description: 运行记录仓库 - 归档/备份任务的不可变执行记录
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

import (
	"context"

	"gorm.io/gorm"
)

// RunRecordRepository 运行记录仓库接口
// 运行记录只增不改:每次调度执行写入一条,之后不再变更
type RunRecordRepository interface {
	// CreateArchivalRun 写入一条归档运行记录
	CreateArchivalRun(ctx context.Context, run *ArchivalRun) error

	// CreateBackupRun 写入一条备份运行记录
	CreateBackupRun(ctx context.Context, run *BackupRun) error

	// LatestArchivalRuns 查询最近的归档运行记录,最新在前
	LatestArchivalRuns(ctx context.Context, limit int) ([]*ArchivalRun, error)

	// LatestBackupRuns 查询最近的备份运行记录,最新在前
	LatestBackupRuns(ctx context.Context, limit int) ([]*BackupRun, error)
}

// RunRecordGormRepository GORM 实现
type RunRecordGormRepository struct {
	db *gorm.DB
}

// NewRunRecordRepository 创建运行记录仓库
func NewRunRecordRepository(db *gorm.DB) RunRecordRepository {
	return &RunRecordGormRepository{db: db}
}

// CreateArchivalRun 写入一条归档运行记录
func (r *RunRecordGormRepository) CreateArchivalRun(ctx context.Context, run *ArchivalRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return translateStoreError(err, "archival run")
	}
	return nil
}

// CreateBackupRun 写入一条备份运行记录
func (r *RunRecordGormRepository) CreateBackupRun(ctx context.Context, run *BackupRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return translateStoreError(err, "backup run")
	}
	return nil
}

// LatestArchivalRuns 查询最近的归档运行记录
func (r *RunRecordGormRepository) LatestArchivalRuns(ctx context.Context, limit int) ([]*ArchivalRun, error) {
	var runs []*ArchivalRun
	err := r.db.WithContext(ctx).Order("run_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, translateStoreError(err, "latest archival runs")
	}
	return runs, nil
}

// LatestBackupRuns 查询最近的备份运行记录
func (r *RunRecordGormRepository) LatestBackupRuns(ctx context.Context, limit int) ([]*BackupRun, error) {
	var runs []*BackupRun
	err := r.db.WithContext(ctx).Order("run_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, translateStoreError(err, "latest backup runs")
	}
	return runs, nil
}
