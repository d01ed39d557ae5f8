/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-22 00:00:00
 * @FilePath: \go-msgworker\repository\object_store.go
 * @Description: 对象存储抽象 - 归档/备份/缩略图的 blob 读写,提供 MinIO 与内存两种实现
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectInfo 对象元信息
type ObjectInfo struct {
	Path         string    `json:"path"`         // 对象路径
	Size         int64     `json:"size"`         // 对象大小(字节)
	LastModified time.Time `json:"lastModified"` // 最后修改时间
}

// ObjectStore 对象存储接口
// 归档、备份、缩略图均通过该接口读写 blob,路径使用 "/" 分隔
type ObjectStore interface {
	// Upload 上传对象,已存在则覆盖
	Upload(ctx context.Context, path string, data []byte, contentType string) error

	// Download 下载对象,不存在返回 ErrTypeBlobNotFound
	Download(ctx context.Context, path string) ([]byte, error)

	// Delete 删除对象,不存在视为成功
	Delete(ctx context.Context, path string) error

	// List 列出指定前缀下的对象
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// ============================================================================
// MinIO 实现
// ============================================================================

// MinioConfig MinIO 对象存储配置
type MinioConfig struct {
	Endpoint        string // 服务地址,如 localhost:9000
	AccessKeyID     string // 访问密钥 ID
	SecretAccessKey string // 访问密钥
	Bucket          string // 存储桶名称
	UseSSL          bool   // 是否启用 TLS
}

// MinioObjectStore 基于 MinIO 的对象存储实现
type MinioObjectStore struct {
	client *minio.Client
	bucket string
}

// NewMinioObjectStore 创建 MinIO 对象存储
func NewMinioObjectStore(cfg MinioConfig) (*MinioObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errorx.NewError(ErrTypeObjectStoreFailed, "connect: "+err.Error())
	}
	return &MinioObjectStore{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket 确保存储桶存在,不存在则创建
func (s *MinioObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errorx.NewError(ErrTypeObjectStoreFailed, "bucket check: "+err.Error())
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errorx.NewError(ErrTypeObjectStoreFailed, "make bucket: "+err.Error())
	}
	return nil
}

// Upload 上传对象
func (s *MinioObjectStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errorx.NewError(ErrTypeObjectStoreFailed, "upload "+path+": "+err.Error())
	}
	return nil
}

// Download 下载对象
func (s *MinioObjectStore) Download(ctx context.Context, path string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, errorx.NewError(ErrTypeObjectStoreFailed, "download "+path+": "+err.Error())
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, errorx.NewError(ErrTypeBlobNotFound, path)
		}
		return nil, errorx.NewError(ErrTypeObjectStoreFailed, "download "+path+": "+err.Error())
	}
	return data, nil
}

// Delete 删除对象
func (s *MinioObjectStore) Delete(ctx context.Context, path string) error {
	err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
	if err != nil {
		return errorx.NewError(ErrTypeObjectStoreFailed, "delete "+path+": "+err.Error())
	}
	return nil
}

// List 列出指定前缀下的对象
func (s *MinioObjectStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var infos []ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errorx.NewError(ErrTypeObjectStoreFailed, "list "+prefix+": "+obj.Err.Error())
		}
		infos = append(infos, ObjectInfo{
			Path:         obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return infos, nil
}

// ============================================================================
// 内存实现 - 测试与单机场景
// ============================================================================

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// MemoryObjectStore 内存对象存储实现
type MemoryObjectStore struct {
	mutex   sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time // 可注入时钟,便于测试
}

// NewMemoryObjectStore 创建内存对象存储
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

// SetClock 注入时钟
func (s *MemoryObjectStore) SetClock(now func() time.Time) *MemoryObjectStore {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.now = now
	return s
}

// Upload 上传对象
func (s *MemoryObjectStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[path] = memoryObject{data: stored, contentType: contentType, lastModified: s.now()}
	return nil
}

// Download 下载对象
func (s *MemoryObjectStore) Download(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	obj, ok := s.objects[path]
	if !ok {
		return nil, errorx.NewError(ErrTypeBlobNotFound, path)
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, nil
}

// Delete 删除对象
func (s *MemoryObjectStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.objects, path)
	return nil
}

// List 列出指定前缀下的对象,按路径排序
func (s *MemoryObjectStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var infos []ObjectInfo
	for path, obj := range s.objects {
		if strings.HasPrefix(path, prefix) {
			infos = append(infos, ObjectInfo{
				Path:         path,
				Size:         int64(len(obj.data)),
				LastModified: obj.lastModified,
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

// ObjectCount 当前对象数量,测试辅助
func (s *MemoryObjectStore) ObjectCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.objects)
}
