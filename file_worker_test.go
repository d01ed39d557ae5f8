/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-25 00:00:00
 * @FilePath: \go-msgworker\file_worker_test.go
 * @Description: 文件处理工作器测试
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/kamalyes/go-msgworker/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProber 返回固定元数据与固定首帧的视频探测器
type fakeProber struct {
	meta     *VideoMeta
	probeErr error
}

func (p *fakeProber) Probe(ctx context.Context, path string) (*VideoMeta, error) {
	if p.probeErr != nil {
		return nil, p.probeErr
	}
	return p.meta, nil
}

func (p *fakeProber) ExtractFrame(ctx context.Context, path string) (image.Image, error) {
	if p.probeErr != nil {
		return nil, p.probeErr
	}
	return image.NewRGBA(image.Rect(0, 0, p.meta.Width, p.meta.Height)), nil
}

func newTestFileWorker(t *testing.T, prober VideoProber) (*FileWorker, *fakeFileRecordRepo, *MemoryObjectStore, *fakeDeadLetterRepo) {
	t.Helper()
	config := quickRetryConfig()
	channel := NewMemoryQueueChannel(NoOpLoggerInstance)
	t.Cleanup(channel.Stop)
	files := newFakeFileRecordRepo()
	store := NewMemoryObjectStore()
	deadLetters := newFakeDeadLetterRepo()
	worker := NewFileWorker(config, channel, files, store, prober, deadLetters, NoOpLoggerInstance)
	return worker, files, store, deadLetters
}

// encodePNG 生成指定尺寸的测试图片
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeFileEvent(t *testing.T, event *models.FileEvent) string {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return string(data)
}

func TestFileWorkerHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("图片提取尺寸并生成缩略图", func(t *testing.T) {
		worker, files, store, deadLetters := newTestFileWorker(t, nil)

		require.NoError(t, store.Upload(ctx, "uploads/f1.png", encodePNG(t, 600, 400), "image/png"))
		require.NoError(t, files.Create(ctx, &models.FileRecord{
			ID:       "f1",
			MimeType: "image/png",
			BlobPath: "uploads/f1.png",
			FileName: "photo.png",
		}))

		payload := encodeFileEvent(t, &models.FileEvent{
			FileID: "f1", BlobPath: "uploads/f1.png", MimeType: "image/png", FileName: "photo.png",
		})
		require.NoError(t, worker.Handle(ctx, payload))

		record, err := files.FindByID(ctx, "f1")
		require.NoError(t, err)
		assert.Equal(t, 600, record.Width)
		assert.Equal(t, 400, record.Height)
		assert.Equal(t, "thumbnails/f1_thumb.jpg", record.ThumbnailPath)
		assert.NotNil(t, record.ProcessedAt)
		assert.Equal(t, "png", record.Tags["format"])

		// 缩略图确实上传了
		thumb, err := store.Download(ctx, "thumbnails/f1_thumb.jpg")
		require.NoError(t, err)
		assert.NotEmpty(t, thumb)
		assert.Empty(t, deadLetters.all())
	})

	t.Run("小图缩略图不放大", func(t *testing.T) {
		worker, files, store, _ := newTestFileWorker(t, nil)

		require.NoError(t, store.Upload(ctx, "uploads/small.png", encodePNG(t, 100, 60), "image/png"))
		require.NoError(t, files.Create(ctx, &models.FileRecord{
			ID: "small", MimeType: "image/png", BlobPath: "uploads/small.png",
		}))

		payload := encodeFileEvent(t, &models.FileEvent{
			FileID: "small", BlobPath: "uploads/small.png", MimeType: "image/png",
		})
		require.NoError(t, worker.Handle(ctx, payload))

		thumbData, err := store.Download(ctx, "thumbnails/small_thumb.jpg")
		require.NoError(t, err)
		thumb, _, err := image.Decode(bytes.NewReader(thumbData))
		require.NoError(t, err)
		assert.Equal(t, 100, thumb.Bounds().Dx())
		assert.Equal(t, 60, thumb.Bounds().Dy())
	})

	t.Run("视频探测元数据并截取首帧", func(t *testing.T) {
		prober := &fakeProber{meta: &VideoMeta{Width: 1920, Height: 1080, Duration: 12.5}}
		worker, files, store, deadLetters := newTestFileWorker(t, prober)

		require.NoError(t, store.Upload(ctx, "uploads/v1.mp4", []byte("fake video bytes"), "video/mp4"))
		require.NoError(t, files.Create(ctx, &models.FileRecord{
			ID: "v1", MimeType: "video/mp4", BlobPath: "uploads/v1.mp4",
		}))

		payload := encodeFileEvent(t, &models.FileEvent{
			FileID: "v1", BlobPath: "uploads/v1.mp4", MimeType: "video/mp4",
		})
		require.NoError(t, worker.Handle(ctx, payload))

		record, err := files.FindByID(ctx, "v1")
		require.NoError(t, err)
		assert.Equal(t, 1920, record.Width)
		assert.Equal(t, 1080, record.Height)
		assert.Equal(t, 12.5, record.Duration)
		assert.Equal(t, "thumbnails/v1_thumb.jpg", record.ThumbnailPath)
		assert.NotNil(t, record.ProcessedAt)
		assert.Empty(t, deadLetters.all())
	})

	t.Run("非媒体文件仅标记已处理", func(t *testing.T) {
		worker, files, _, deadLetters := newTestFileWorker(t, nil)

		require.NoError(t, files.Create(ctx, &models.FileRecord{
			ID: "doc1", MimeType: "application/pdf", BlobPath: "uploads/doc1.pdf",
		}))

		payload := encodeFileEvent(t, &models.FileEvent{
			FileID: "doc1", BlobPath: "uploads/doc1.pdf", MimeType: "application/pdf",
		})
		require.NoError(t, worker.Handle(ctx, payload))

		record, err := files.FindByID(ctx, "doc1")
		require.NoError(t, err)
		assert.NotNil(t, record.ProcessedAt)
		assert.Zero(t, record.Width)
		assert.Empty(t, record.ThumbnailPath)
		assert.Empty(t, deadLetters.all())
	})

	t.Run("记录不存在确认并跳过", func(t *testing.T) {
		worker, _, _, deadLetters := newTestFileWorker(t, nil)

		payload := encodeFileEvent(t, &models.FileEvent{
			FileID: "ghost", BlobPath: "uploads/ghost.png", MimeType: "image/png",
		})
		require.NoError(t, worker.Handle(ctx, payload))
		assert.Empty(t, deadLetters.all())
	})

	t.Run("非法载荷进死信", func(t *testing.T) {
		worker, _, _, deadLetters := newTestFileWorker(t, nil)

		require.NoError(t, worker.Handle(ctx, "not json at all"))

		records := deadLetters.all()
		require.Len(t, records, 1)
		assert.Equal(t, models.FailureReasonDeserialization, records[0].FailureKind)
	})

	t.Run("缺少必填字段进死信", func(t *testing.T) {
		worker, _, _, deadLetters := newTestFileWorker(t, nil)

		payload := encodeFileEvent(t, &models.FileEvent{FileID: "f1"})
		require.NoError(t, worker.Handle(ctx, payload))

		records := deadLetters.all()
		require.Len(t, records, 1)
		assert.Equal(t, models.FailureReasonValidation, records[0].FailureKind)
	})

	t.Run("图片损坏重试耗尽进死信", func(t *testing.T) {
		worker, files, store, deadLetters := newTestFileWorker(t, nil)

		require.NoError(t, store.Upload(ctx, "uploads/bad.png", []byte("definitely not a png"), "image/png"))
		require.NoError(t, files.Create(ctx, &models.FileRecord{
			ID: "bad", MimeType: "image/png", BlobPath: "uploads/bad.png",
		}))

		payload := encodeFileEvent(t, &models.FileEvent{
			FileID: "bad", BlobPath: "uploads/bad.png", MimeType: "image/png",
		})
		require.NoError(t, worker.Handle(ctx, payload))

		// 解码失败是永久错误,只尝试一次就进死信
		records := deadLetters.all()
		require.Len(t, records, 1)
		assert.Equal(t, models.FailureReasonMaxRetry, records[0].FailureKind)

		record, err := files.FindByID(ctx, "bad")
		require.NoError(t, err)
		assert.Nil(t, record.ProcessedAt)
	})
}
