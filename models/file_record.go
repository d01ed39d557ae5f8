/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-20 00:00:00
 * @FilePath: \go-msgworker\models\file_record.go
 * @Description: 文件上传事件与文件元数据模型
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

import (
	"time"

	"github.com/kamalyes/go-sqlbuilder"
)

// FileEvent 文件上传事件(队列载荷)
type FileEvent struct {
	FileID   string `json:"fileId"`   // 文件ID
	BlobPath string `json:"blobPath"` // 对象存储路径
	MimeType string `json:"mimeType"` // MIME 类型
	FileName string `json:"fileName"` // 原始文件名
}

// FileRecord 文件记录(GORM 模型)
// 元数据字段在一次成功处理中写入一次,除非重新处理否则不再变更
type FileRecord struct {
	ID            string            `gorm:"primaryKey;size:64;comment:文件ID" json:"id"`                        // 文件ID
	MimeType      string            `gorm:"size:100;index;comment:MIME类型" json:"mime_type"`                   // MIME类型
	FileName      string            `gorm:"size:500;comment:原始文件名" json:"file_name"`                          // 原始文件名
	BlobPath      string            `gorm:"size:500;comment:对象存储路径" json:"blob_path"`                         // 对象存储路径
	Width         int               `gorm:"default:0;comment:宽度(图片/视频)" json:"width"`                         // 宽度
	Height        int               `gorm:"default:0;comment:高度(图片/视频)" json:"height"`                        // 高度
	Duration      float64           `gorm:"default:0;comment:时长秒(视频)" json:"duration"`                        // 时长(秒)
	Tags          sqlbuilder.MapAny `gorm:"type:json;comment:EXIF类描述标签,类型为JSON" json:"tags"`                  // 描述标签
	ThumbnailPath string            `gorm:"size:500;comment:缩略图对象存储路径" json:"thumbnail_path"`                 // 缩略图路径
	ProcessedAt   *time.Time        `gorm:"index;comment:元数据处理完成时间" json:"processed_at"`                      // 处理完成时间
	CreatedAt     time.Time         `gorm:"comment:记录创建时间" json:"created_at"`                                 // 记录创建时间
	UpdatedAt     time.Time         `gorm:"comment:记录最后更新时间" json:"updated_at"`                               // 记录最后更新时间
}

// TableName 指定表名
func (FileRecord) TableName() string {
	return "mw_file_records"
}

// TableComment 表注释
func (FileRecord) TableComment() string {
	return "文件记录表-存储文件派生元数据(尺寸/时长/标签/缩略图)"
}

// IsImage 判断是否为图片类型
func (f *FileRecord) IsImage() bool {
	return hasMimePrefix(f.MimeType, "image/")
}

// IsVideo 判断是否为视频类型
func (f *FileRecord) IsVideo() bool {
	return hasMimePrefix(f.MimeType, "video/")
}

func hasMimePrefix(mimeType, prefix string) bool {
	return len(mimeType) >= len(prefix) && mimeType[:len(prefix)] == prefix
}
