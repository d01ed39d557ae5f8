/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-20 00:00:00
 * @FilePath: \go-msgworker\models\run_record.go
 * @Description: 归档/备份任务运行记录 - 每次调度执行一条,写入后不可变
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

import (
	"time"

	"github.com/kamalyes/go-sqlbuilder"
	"gorm.io/gorm"
)

// ArchivalRun 归档任务运行记录(GORM 模型)
type ArchivalRun struct {
	ID             uint      `gorm:"primaryKey;autoIncrement;comment:主键" json:"id"`               // 主键
	RunAt          time.Time `gorm:"index;not null;comment:本次运行时间" json:"run_at"`                 // 运行时间
	Status         RunStatus `gorm:"size:20;index;not null;comment:运行状态" json:"status"`           // 运行状态
	MessagesMoved  int64     `gorm:"default:0;comment:归档消息数" json:"messages_moved"`               // 归档消息数
	BatchesOK      int       `gorm:"default:0;comment:成功批次数" json:"batches_ok"`                   // 成功批次数
	BatchesFailed  int       `gorm:"default:0;comment:失败批次数" json:"batches_failed"`               // 失败批次数
	BytesWritten   int64     `gorm:"default:0;comment:写入冷存储字节数" json:"bytes_written"`             // 写入字节数
	DurationMillis int64     `gorm:"default:0;comment:运行耗时毫秒" json:"duration_millis"`             // 运行耗时
	ErrorMessage   string    `gorm:"type:text;comment:错误信息,类型为文本" json:"error_message"`           // 错误信息
	CreatedAt      time.Time `gorm:"comment:记录创建时间" json:"created_at"`                            // 记录创建时间
}

// TableName 指定表名
func (ArchivalRun) TableName() string {
	return "mw_archival_runs"
}

// TableComment 表注释
func (ArchivalRun) TableComment() string {
	return "归档运行记录表-每次调度执行一条不可变记录"
}

// BeforeCreate GORM 钩子：创建前
func (r *ArchivalRun) BeforeCreate(tx *gorm.DB) error {
	if r.RunAt.IsZero() {
		r.RunAt = time.Now()
	}
	return nil
}

// BackupRun 备份任务运行记录(GORM 模型)
type BackupRun struct {
	ID              uint              `gorm:"primaryKey;autoIncrement;comment:主键" json:"id"`                 // 主键
	RunAt           time.Time         `gorm:"index;not null;comment:本次运行时间" json:"run_at"`                   // 运行时间
	Status          RunStatus         `gorm:"size:20;index;not null;comment:运行状态" json:"status"`             // 运行状态
	CollectionsOK   int               `gorm:"default:0;comment:备份成功集合数" json:"collections_ok"`               // 成功集合数
	CollectionsFail int               `gorm:"default:0;comment:备份失败集合数" json:"collections_fail"`             // 失败集合数
	ItemsExported   int64             `gorm:"default:0;comment:导出文档总数" json:"items_exported"`                // 导出文档数
	BytesWritten    int64             `gorm:"default:0;comment:上传压缩字节数" json:"bytes_written"`                // 写入字节数
	BlobsRotated    int               `gorm:"default:0;comment:轮转删除的过期备份数" json:"blobs_rotated"`             // 轮转删除数
	PerCollection   sqlbuilder.MapAny `gorm:"type:json;comment:各集合成功/失败明细,类型为JSON" json:"per_collection"`    // 各集合明细
	DurationMillis  int64             `gorm:"default:0;comment:运行耗时毫秒" json:"duration_millis"`               // 运行耗时
	ErrorMessage    string            `gorm:"type:text;comment:错误信息,类型为文本" json:"error_message"`             // 错误信息
	CreatedAt       time.Time         `gorm:"comment:记录创建时间" json:"created_at"`                              // 记录创建时间
}

// TableName 指定表名
func (BackupRun) TableName() string {
	return "mw_backup_runs"
}

// TableComment 表注释
func (BackupRun) TableComment() string {
	return "备份运行记录表-每次调度执行一条不可变记录"
}

// BeforeCreate GORM 钩子：创建前
func (r *BackupRun) BeforeCreate(tx *gorm.DB) error {
	if r.RunAt.IsZero() {
		r.RunAt = time.Now()
	}
	if r.PerCollection == nil {
		r.PerCollection = make(sqlbuilder.MapAny)
	}
	return nil
}
