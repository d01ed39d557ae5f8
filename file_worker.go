/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-23 00:00:00
 * @FilePath: \go-msgworker\file_worker.go
 * @Description: 文件处理工作器 - 提取图片/视频派生元数据并生成缩略图
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	_ "image/gif"  // 注册 GIF 解码器
	_ "image/jpeg" // 注册 JPEG 解码器
	_ "image/png"  // 注册 PNG 解码器
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kamalyes/go-msgworker/models"
	"github.com/kamalyes/go-msgworker/repository"
	"github.com/kamalyes/go-sqlbuilder"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/rwcarlsen/goexif/exif"
)

// exifTagNames 提取到文件标签的 EXIF 字段白名单
// 只取描述性字段,避免把完整 EXIF(含 GPS 等敏感信息)写入数据库
var exifTagNames = []exif.FieldName{
	exif.Make,
	exif.Model,
	exif.Software,
	exif.DateTime,
	exif.Orientation,
}

// FileWorker 文件处理工作器
// 消费文件上传事件,按 MIME 类型分派:
// 图片提取尺寸/EXIF标签并生成缩略图,视频探测尺寸/时长并截取首帧,其余类型仅标记已处理
type FileWorker struct {
	config      *Config
	channel     QueueChannel
	files       repository.FileRecordRepository
	store       repository.ObjectStore
	prober      VideoProber
	deadLetters *deadLetterSink
	retryPolicy *retryPolicy
	logger      MWLogger

	now func() time.Time

	mutex        sync.Mutex
	subscription *Subscription
}

// NewFileWorker 创建文件处理工作器
// prober 为 nil 时使用默认的 ffprobe/ffmpeg 实现
func NewFileWorker(
	config *Config,
	channel QueueChannel,
	files repository.FileRecordRepository,
	store repository.ObjectStore,
	prober VideoProber,
	deadLetterRecords repository.DeadLetterRepository,
	log MWLogger,
) *FileWorker {
	if log == nil {
		log = DefaultLogger
	}
	if prober == nil {
		prober = NewFFmpegProber()
	}
	return &FileWorker{
		config:      config,
		channel:     channel,
		files:       files,
		store:       store,
		prober:      prober,
		deadLetters: newDeadLetterSink(channel, deadLetterRecords, log),
		retryPolicy: newRetryPolicy(config, log),
		logger:      log,
		now:         time.Now,
	}
}

// Start 订阅文件队列并开始消费
func (w *FileWorker) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.subscription != nil {
		return nil
	}

	subscription, err := w.channel.Consume(w.config.FileQueue, w.Handle)
	if err != nil {
		return err
	}
	w.subscription = subscription

	w.logger.InfoKV("文件处理工作器已启动", "queue", w.config.FileQueue)
	return nil
}

// Stop 取消订阅并等待在途处理完成
func (w *FileWorker) Stop() {
	w.mutex.Lock()
	subscription := w.subscription
	w.subscription = nil
	w.mutex.Unlock()

	if subscription == nil {
		return
	}
	subscription.Cancel()
	subscription.Wait()
	w.logger.InfoKV("文件处理工作器已停止", "queue", w.config.FileQueue)
}

// Handle 处理单条文件事件载荷
func (w *FileWorker) Handle(ctx context.Context, payload string) error {
	event, err := w.decodeEvent(payload)
	if err != nil {
		w.deadLetters.send(ctx, w.config.FileQueue, payload, models.FailureReasonDeserialization, err.Error())
		return nil
	}

	if err := w.validateEvent(event); err != nil {
		w.deadLetters.send(ctx, w.config.FileQueue, payload, models.FailureReasonValidation, err.Error())
		return nil
	}

	result := w.retryPolicy.Execute(ctx, "process file", func(ctx context.Context) error {
		return w.process(ctx, event)
	})

	if result.FinalErr != nil {
		if ctx.Err() != nil {
			return result.FinalErr
		}
		w.deadLetters.send(ctx, w.config.FileQueue, payload, models.FailureReasonMaxRetry, result.Reason())
		return nil
	}
	return nil
}

// decodeEvent 反序列化文件事件
func (w *FileWorker) decodeEvent(payload string) (*models.FileEvent, error) {
	if payload == "" {
		return nil, ErrPayloadEmpty
	}
	var event models.FileEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, errorx.NewError(ErrTypeDeserializationFailed, err.Error())
	}
	return &event, nil
}

// validateEvent 校验事件必填字段
func (w *FileWorker) validateEvent(event *models.FileEvent) error {
	if event.FileID == "" {
		return errorx.NewError(ErrTypeValidationFailed, "fileId is required")
	}
	if event.BlobPath == "" {
		return errorx.NewError(ErrTypeValidationFailed, "blobPath is required")
	}
	if event.MimeType == "" {
		return errorx.NewError(ErrTypeValidationFailed, "mimeType is required")
	}
	return nil
}

// process 按 MIME 类型分派处理
func (w *FileWorker) process(ctx context.Context, event *models.FileEvent) error {
	record, err := w.files.FindByID(ctx, event.FileID)
	if err != nil {
		if IsNotFoundError(err) {
			// 记录还没建出来(上游乱序),确认后等待重新投递的事件
			w.logger.WarnKV("文件记录不存在,跳过处理", "file_id", event.FileID)
			return nil
		}
		return err
	}

	switch {
	case record.IsImage():
		err = w.processImage(ctx, record)
	case record.IsVideo():
		err = w.processVideo(ctx, record)
	default:
		w.logger.DebugKV("非媒体文件,仅标记已处理",
			"file_id", record.ID, "mime_type", record.MimeType)
	}
	if err != nil {
		return err
	}

	processedAt := w.now()
	record.ProcessedAt = &processedAt
	return w.files.UpdateMetadata(ctx, record)
}

// processImage 提取图片尺寸与 EXIF 标签,生成缩略图
func (w *FileWorker) processImage(ctx context.Context, record *models.FileRecord) error {
	data, err := w.store.Download(ctx, record.BlobPath)
	if err != nil {
		return err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// 图片内容损坏属于数据问题,重试不可能成功
		return errorx.NewError(ErrTypeDecodeFailed, err.Error())
	}

	bounds := img.Bounds()
	record.Width = bounds.Dx()
	record.Height = bounds.Dy()
	record.Tags = w.extractExifTags(data, format)

	thumbData, err := renderThumbnail(img, w.config.ThumbnailMaxDimension)
	if err != nil {
		return errorx.NewError(ErrTypeDecodeFailed, err.Error())
	}

	thumbPath := repository.ThumbnailPathPrefix + record.ID + "_thumb.jpg"
	if err := w.store.Upload(ctx, thumbPath, thumbData, "image/jpeg"); err != nil {
		return err
	}
	record.ThumbnailPath = thumbPath

	w.logger.InfoKV("图片处理完成",
		"file_id", record.ID,
		"width", record.Width,
		"height", record.Height,
		"thumbnail", thumbPath,
	)
	return nil
}

// extractExifTags 从图片字节流提取白名单内的 EXIF 标签
// 解析失败只是没有标签可写,不影响处理结果
func (w *FileWorker) extractExifTags(data []byte, format string) sqlbuilder.MapAny {
	tags := make(sqlbuilder.MapAny)
	tags["format"] = format

	parsed, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return tags
	}
	for _, name := range exifTagNames {
		field, err := parsed.Get(name)
		if err != nil {
			continue
		}
		tags[string(name)] = strings.Trim(field.String(), `"`)
	}
	return tags
}

// processVideo 探测视频尺寸/时长并截取首帧生成缩略图
// 视频不整体载入内存,先落到临时文件再交给外部探测进程,结束后无条件清理
func (w *FileWorker) processVideo(ctx context.Context, record *models.FileRecord) error {
	scratchPath, err := w.downloadToScratch(ctx, record)
	if err != nil {
		return err
	}
	defer func() {
		if removeErr := os.Remove(scratchPath); removeErr != nil {
			w.logger.WarnKV("临时文件清理失败", "path", scratchPath, "error", removeErr.Error())
		}
	}()

	meta, err := w.prober.Probe(ctx, scratchPath)
	if err != nil {
		return err
	}
	record.Width = meta.Width
	record.Height = meta.Height
	record.Duration = meta.Duration

	frame, err := w.prober.ExtractFrame(ctx, scratchPath)
	if err != nil {
		return err
	}

	thumbData, err := renderThumbnail(frame, w.config.ThumbnailMaxDimension)
	if err != nil {
		return errorx.NewError(ErrTypeDecodeFailed, err.Error())
	}

	thumbPath := repository.ThumbnailPathPrefix + record.ID + "_thumb.jpg"
	if err := w.store.Upload(ctx, thumbPath, thumbData, "image/jpeg"); err != nil {
		return err
	}
	record.ThumbnailPath = thumbPath

	w.logger.InfoKV("视频处理完成",
		"file_id", record.ID,
		"width", record.Width,
		"height", record.Height,
		"duration", record.Duration,
		"thumbnail", thumbPath,
	)
	return nil
}

// downloadToScratch 把视频 blob 下载到本地临时文件,返回文件路径
func (w *FileWorker) downloadToScratch(ctx context.Context, record *models.FileRecord) (string, error) {
	data, err := w.store.Download(ctx, record.BlobPath)
	if err != nil {
		return "", err
	}

	scratch, err := os.CreateTemp("", "mw-video-"+record.ID+"-*")
	if err != nil {
		return "", errorx.NewError(ErrTypeScratchIO, err.Error())
	}

	if _, err := scratch.Write(data); err != nil {
		scratch.Close()
		os.Remove(scratch.Name())
		return "", errorx.NewError(ErrTypeScratchIO, err.Error())
	}
	if err := scratch.Close(); err != nil {
		os.Remove(scratch.Name())
		return "", errorx.NewError(ErrTypeScratchIO, err.Error())
	}
	return scratch.Name(), nil
}
