/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-24 00:00:00
 * @FilePath: \go-msgworker\backup_worker.go
 * @Description: 备份工作器 - 定时全量导出各集合到压缩备份,并轮转过期备份
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kamalyes/go-msgworker/models"
	"github.com/kamalyes/go-msgworker/repository"
	"github.com/kamalyes/go-sqlbuilder"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/klauspost/compress/gzip"
)

// BackupWorker 备份工作器
// 按 cron 调度执行:逐集合流式导出全量文档,打包为长度前缀二进制格式,
// gzip 压缩后上传对象存储;随后按保留期轮转删除过期备份
type BackupWorker struct {
	config    *Config
	streamers map[string]repository.CollectionStreamer
	runs      repository.RunRecordRepository
	store     repository.ObjectStore
	breaker   *CircuitBreaker
	logger    MWLogger

	now func() time.Time

	mutex  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBackupWorker 创建备份工作器
// streamers 以集合名为键,配置中不在 BackupCollections 里的集合不会被导出
func NewBackupWorker(
	config *Config,
	streamers map[string]repository.CollectionStreamer,
	runs repository.RunRecordRepository,
	store repository.ObjectStore,
	log MWLogger,
) *BackupWorker {
	if log == nil {
		log = DefaultLogger
	}
	return &BackupWorker{
		config:    config,
		streamers: streamers,
		runs:      runs,
		store:     store,
		breaker: NewCircuitBreaker("backup-store",
			config.CircuitBreakerFailureThreshold, config.CircuitBreakerTimeout),
		logger: log,
		now:    time.Now,
	}
}

// Start 启动 cron 调度循环
func (w *BackupWorker) Start() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	runner := newCronRunner(w.config.BackupCron, "backup", w.logger)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		runner.Run(ctx, func(ctx context.Context) {
			w.RunOnce(ctx)
		})
	}()
}

// Stop 停止调度循环
func (w *BackupWorker) Stop() {
	w.mutex.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mutex.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	w.wg.Wait()
	w.logger.InfoKV("备份工作器已停止")
}

// RunOnce 执行一轮备份与轮转,返回运行记录
// 集合相互独立:单个集合失败不阻断其余集合,最终状态为 partial
func (w *BackupWorker) RunOnce(ctx context.Context) *models.BackupRun {
	started := w.now()
	run := &models.BackupRun{
		RunAt:         started,
		Status:        models.RunStatusSuccess,
		PerCollection: make(sqlbuilder.MapAny),
	}
	datePrefix := started.UTC().Format(time.DateOnly)

	w.logger.InfoKV("备份开始",
		"date", datePrefix,
		"collections", strings.Join(w.config.BackupCollections, ","),
	)

	var errorMessages []string
	for _, collection := range w.config.BackupCollections {
		if ctx.Err() != nil {
			errorMessages = append(errorMessages, "run cancelled")
			break
		}

		itemCount, bytesWritten, err := w.backupCollection(ctx, collection, datePrefix)
		if err != nil {
			run.CollectionsFail++
			run.PerCollection[collection] = "failed: " + err.Error()
			errorMessages = append(errorMessages, collection+": "+err.Error())
			w.logger.ErrorKV("集合备份失败", "collection", collection, "error", err.Error())
			continue
		}
		run.CollectionsOK++
		run.ItemsExported += itemCount
		run.BytesWritten += int64(bytesWritten)
		run.PerCollection[collection] = fmt.Sprintf("ok: %d items, %d bytes", itemCount, bytesWritten)
	}

	rotated, err := w.rotate(ctx, started)
	if err != nil {
		errorMessages = append(errorMessages, "rotation: "+err.Error())
		w.logger.ErrorKV("备份轮转失败", "error", err.Error())
	}
	run.BlobsRotated = rotated

	if run.CollectionsFail > 0 || len(errorMessages) > 0 {
		if run.CollectionsOK > 0 {
			run.Status = models.RunStatusPartial
		} else {
			run.Status = models.RunStatusFailed
		}
	}
	run.ErrorMessage = strings.Join(errorMessages, "; ")
	run.DurationMillis = time.Since(started).Milliseconds()

	w.logger.InfoKV("备份结束",
		"status", string(run.Status),
		"collections_ok", run.CollectionsOK,
		"collections_fail", run.CollectionsFail,
		"items_exported", run.ItemsExported,
		"bytes_written", run.BytesWritten,
		"blobs_rotated", run.BlobsRotated,
		"duration_ms", run.DurationMillis,
	)

	if w.runs != nil {
		if err := w.runs.CreateBackupRun(ctx, run); err != nil {
			w.logger.ErrorKV("备份运行记录落库失败", "error", err.Error())
		}
	}
	return run
}

// backupCollection 导出单个集合并上传压缩备份,返回文档数与压缩后字节数
func (w *BackupWorker) backupCollection(ctx context.Context, collection, datePrefix string) (int64, int, error) {
	streamer, ok := w.streamers[collection]
	if !ok {
		return 0, 0, errorx.NewError(ErrTypeConfigInvalid, "unknown backup collection "+collection)
	}

	var raw bytes.Buffer
	var itemCount int64
	err := streamer.StreamDocuments(ctx, w.config.BatchSize, func(doc []byte) error {
		if err := writeFrame(&raw, doc); err != nil {
			return err
		}
		itemCount++
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	compressed, err := compressArchive(raw.Bytes())
	if err != nil {
		return 0, 0, err
	}
	ratio := 1.0
	if raw.Len() > 0 {
		ratio = float64(len(compressed)) / float64(raw.Len())
	}
	w.logger.InfoKV("集合导出压缩完成",
		"collection", collection,
		"items", itemCount,
		"raw_bytes", raw.Len(),
		"compressed_bytes", len(compressed),
		"ratio", fmt.Sprintf("%.3f", ratio),
	)

	path := backupObjectPath(datePrefix, w.config.AppName, collection)
	err = w.breaker.Call(ctx, func(ctx context.Context) error {
		return w.store.Upload(ctx, path, compressed, "application/gzip")
	})
	if err != nil {
		return 0, 0, err
	}
	return itemCount, len(compressed), nil
}

// rotate 删除严格早于保留期的备份对象
// 日期段解析失败的对象一律不动,宁可多占存储也不误删
func (w *BackupWorker) rotate(ctx context.Context, runAt time.Time) (int, error) {
	cutoff := runAt.UTC().AddDate(0, 0, -w.config.BackupRetentionDays).Truncate(24 * time.Hour)

	infos, err := w.store.List(ctx, repository.BackupPathPrefix)
	if err != nil {
		return 0, err
	}

	rotated := 0
	for _, info := range infos {
		blobDate, ok := parseBackupDate(info.Path)
		if !ok {
			w.logger.WarnKV("备份对象日期段无法解析,跳过轮转", "path", info.Path)
			continue
		}
		if !blobDate.Before(cutoff) {
			continue
		}
		if err := w.store.Delete(ctx, info.Path); err != nil {
			w.logger.WarnKV("过期备份删除失败", "path", info.Path, "error", err.Error())
			continue
		}
		rotated++
	}
	return rotated, nil
}

// parseBackupDate 从备份对象路径解析日期段 backups/{yyyy-MM-dd}/...
func parseBackupDate(path string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(path, repository.BackupPathPrefix)
	if !ok {
		return time.Time{}, false
	}
	segment, _, ok := strings.Cut(rest, "/")
	if !ok {
		return time.Time{}, false
	}
	date, err := time.Parse(time.DateOnly, segment)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// backupObjectPath 备份对象路径:backups/{日期}/{应用名}_{集合名}.bin.gz
func backupObjectPath(datePrefix, appName, collection string) string {
	return fmt.Sprintf("%s%s/%s_%s.bin.gz",
		repository.BackupPathPrefix, datePrefix, appName, collection)
}

// ============================================================================
// 备份二进制格式:gzip( 重复的 [4字节大端长度][JSON文档] )
// ============================================================================

// writeFrame 写入一个长度前缀文档帧
func writeFrame(buf *bytes.Buffer, doc []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(doc)))
	if _, err := buf.Write(header[:]); err != nil {
		return err
	}
	_, err := buf.Write(doc)
	return err
}

// compressArchive gzip 压缩备份字节流
func compressArchive(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(raw); err != nil {
		writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBackupArchive 解压并拆帧备份对象,返回原始 JSON 文档列表
// 恢复工具与测试使用该函数做往返校验
func DecodeBackupArchive(compressed []byte) ([][]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var docs [][]byte
	for offset := 0; offset < len(raw); {
		if offset+4 > len(raw) {
			return nil, errorx.NewError(ErrTypeDeserializationFailed, "truncated frame header")
		}
		length := int(binary.BigEndian.Uint32(raw[offset : offset+4]))
		offset += 4
		if offset+length > len(raw) {
			return nil, errorx.NewError(ErrTypeDeserializationFailed, "truncated frame body")
		}
		docs = append(docs, raw[offset:offset+length])
		offset += length
	}
	return docs, nil
}
