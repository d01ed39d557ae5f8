/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-25 00:00:00
 * @FilePath: \go-msgworker\archival_worker_test.go
 * @Description: 归档工作器测试
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/kamalyes/go-msgworker/models"
	"github.com/kamalyes/go-msgworker/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var archivalNow = time.Date(2026, 8, 25, 3, 0, 0, 0, time.UTC)

func newTestArchivalWorker(t *testing.T, store repository.ObjectStore) (*ArchivalWorker, *fakeMessageRepo, *fakeConversationRepo, *fakeRunRecordRepo) {
	t.Helper()
	config := NewDefaultConfig().WithBatchSize(100).Normalize()
	messages := newFakeMessageRepo()
	conversations := newFakeConversationRepo()
	runs := newFakeRunRecordRepo()
	worker := NewArchivalWorker(config, messages, conversations, runs, store, NoOpLoggerInstance)
	worker.now = func() time.Time { return archivalNow }
	return worker, messages, conversations, runs
}

func seedMessage(t *testing.T, repo *fakeMessageRepo, id, conversationID string, createTime time.Time) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &models.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       "u1",
		Type:           models.MessageTypeText,
		Content:        "content of " + id,
		CreateTime:     createTime,
	}))
}

func TestArchivalWorkerRunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("严格早于保留期的消息被归档删除", func(t *testing.T) {
		store := NewMemoryObjectStore()
		worker, messages, conversations, runs := newTestArchivalWorker(t, store)
		require.NoError(t, conversations.Create(ctx, &models.Conversation{ID: "c1"}))

		cutoff := archivalNow.AddDate(0, 0, -365)
		seedMessage(t, messages, "old-1", "c1", cutoff.Add(-48*time.Hour))
		seedMessage(t, messages, "old-2", "c1", cutoff.Add(-47*time.Hour))
		seedMessage(t, messages, "edge", "c1", cutoff)          // 恰好等于阈值,保留
		seedMessage(t, messages, "fresh", "c1", archivalNow.Add(-time.Hour)) // 新消息,保留

		run := worker.RunOnce(ctx)

		assert.Equal(t, models.RunStatusSuccess, run.Status)
		assert.Equal(t, int64(2), run.MessagesMoved)
		assert.Equal(t, 1, run.BatchesOK)
		assert.Zero(t, run.BatchesFailed)
		assert.Positive(t, run.BytesWritten)

		// 主存储只剩边界和新消息
		count, err := messages.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		_, err = messages.FindByID(ctx, "edge")
		assert.NoError(t, err)
		_, err = messages.FindByID(ctx, "old-1")
		assert.Error(t, err)

		// 运行记录已落库
		archRuns, err := runs.LatestArchivalRuns(ctx, 10)
		require.NoError(t, err)
		require.Len(t, archRuns, 1)
		assert.Equal(t, int64(2), archRuns[0].MessagesMoved)
	})

	t.Run("归档对象路径与内容", func(t *testing.T) {
		store := NewMemoryObjectStore()
		worker, messages, conversations, _ := newTestArchivalWorker(t, store)
		require.NoError(t, conversations.Create(ctx, &models.Conversation{ID: "c1"}))

		day := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
		seedMessage(t, messages, "m1", "c1", day)
		seedMessage(t, messages, "m2", "c1", day.Add(time.Hour))

		run := worker.RunOnce(ctx)
		require.Equal(t, models.RunStatusSuccess, run.Status)

		data, err := store.Download(ctx, "archives/2024/03/messages_c1_2024-03-15.json")
		require.NoError(t, err)

		var doc struct {
			ConversationID string            `json:"conversationId"`
			Date           string            `json:"date"`
			MessageCount   int               `json:"messageCount"`
			Messages       []*models.Message `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, "c1", doc.ConversationID)
		assert.Equal(t, "2024-03-15", doc.Date)
		assert.Equal(t, 2, doc.MessageCount)
		require.Len(t, doc.Messages, 2)
		// 组内保持升序
		assert.Equal(t, "m1", doc.Messages[0].ID)
		assert.Equal(t, "m2", doc.Messages[1].ID)
	})

	t.Run("会话与日期分组各成一个对象", func(t *testing.T) {
		store := NewMemoryObjectStore()
		worker, messages, conversations, _ := newTestArchivalWorker(t, store)
		require.NoError(t, conversations.Create(ctx, &models.Conversation{ID: "c1"}))
		require.NoError(t, conversations.Create(ctx, &models.Conversation{ID: "c2"}))

		day1 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
		day2 := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
		seedMessage(t, messages, "a", "c1", day1)
		seedMessage(t, messages, "b", "c1", day2)
		seedMessage(t, messages, "c", "c2", day1)

		run := worker.RunOnce(ctx)
		require.Equal(t, models.RunStatusSuccess, run.Status)
		assert.Equal(t, 3, run.BatchesOK)

		infos, err := store.List(ctx, "archives/")
		require.NoError(t, err)
		assert.Len(t, infos, 3)
	})

	t.Run("归档后重建会话窗口", func(t *testing.T) {
		store := NewMemoryObjectStore()
		worker, messages, conversations, _ := newTestArchivalWorker(t, store)

		conv := &models.Conversation{ID: "c1"}
		conv.PushRecent("old-1", time.Time{})
		conv.PushRecent("keep-1", time.Time{})
		require.NoError(t, conversations.Create(ctx, conv))

		seedMessage(t, messages, "old-1", "c1", archivalNow.AddDate(0, 0, -400))
		seedMessage(t, messages, "keep-1", "c1", archivalNow.Add(-time.Hour))

		run := worker.RunOnce(ctx)
		require.Equal(t, models.RunStatusSuccess, run.Status)

		// 窗口从存量消息重建,归档掉的ID不再出现
		rebuilt := conversations.get("c1")
		require.NotNil(t, rebuilt)
		assert.Equal(t, []string{"keep-1"}, []string(rebuilt.RecentMessages))
	})

	t.Run("对象存储失败时状态为失败且消息保留", func(t *testing.T) {
		store := &failingObjectStore{ObjectStore: NewMemoryObjectStore(), failUploads: 1000}
		worker, messages, conversations, _ := newTestArchivalWorker(t, store)
		require.NoError(t, conversations.Create(ctx, &models.Conversation{ID: "c1"}))

		seedMessage(t, messages, "m1", "c1", archivalNow.AddDate(0, 0, -400))

		run := worker.RunOnce(ctx)
		assert.Equal(t, models.RunStatusFailed, run.Status)
		assert.Positive(t, run.BatchesFailed)
		assert.NotEmpty(t, run.ErrorMessage)

		// 上传失败的消息不删除
		count, err := messages.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("部分批次失败时状态为部分成功", func(t *testing.T) {
		store := &failingObjectStore{ObjectStore: NewMemoryObjectStore(), failUploads: 1}
		worker, messages, conversations, _ := newTestArchivalWorker(t, store)
		require.NoError(t, conversations.Create(ctx, &models.Conversation{ID: "c1"}))
		require.NoError(t, conversations.Create(ctx, &models.Conversation{ID: "c2"}))

		day := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
		seedMessage(t, messages, "a", "c1", day)
		seedMessage(t, messages, "b", "c2", day)

		run := worker.RunOnce(ctx)
		assert.Equal(t, models.RunStatusPartial, run.Status)
		assert.Equal(t, 1, run.BatchesOK)
		assert.Equal(t, 1, run.BatchesFailed)
	})

	t.Run("没有过期消息时空转成功", func(t *testing.T) {
		store := NewMemoryObjectStore()
		worker, messages, _, _ := newTestArchivalWorker(t, store)
		seedMessage(t, messages, "fresh", "c1", archivalNow.Add(-time.Hour))

		run := worker.RunOnce(ctx)
		assert.Equal(t, models.RunStatusSuccess, run.Status)
		assert.Zero(t, run.MessagesMoved)
		assert.Zero(t, store.ObjectCount())
	})
}

func TestArchivalWorkerPagination(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryObjectStore()

	config := NewDefaultConfig().WithBatchSize(10).Normalize()
	messages := newFakeMessageRepo()
	conversations := newFakeConversationRepo()
	worker := NewArchivalWorker(config, messages, conversations, nil, store, NoOpLoggerInstance)
	worker.now = func() time.Time { return archivalNow }

	require.NoError(t, conversations.Create(ctx, &models.Conversation{ID: "c1"}))
	// 25 条过期消息,分三页处理
	base := archivalNow.AddDate(0, 0, -400)
	for i := 0; i < 25; i++ {
		seedMessage(t, messages, fmt.Sprintf("m-%02d", i), "c1", base.Add(time.Duration(i)*time.Minute))
	}

	run := worker.RunOnce(ctx)
	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.Equal(t, int64(25), run.MessagesMoved)

	count, err := messages.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// 跨页的同日分组合并进同一个归档对象,没有丢失
	data, err := store.Download(ctx, archiveObjectPath("c1", base.Truncate(24*time.Hour)))
	require.NoError(t, err)
	var doc struct {
		MessageCount int `json:"messageCount"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 25, doc.MessageCount)
}

func TestArchivalWorkerKeepPrimaryData(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryObjectStore()

	// 关闭归档后删除:分页游标不依赖删除推进,全量归档且主存储保留
	config := NewDefaultConfig().WithBatchSize(10).WithDeleteAfterArchive(false).Normalize()
	messages := newFakeMessageRepo()
	conversations := newFakeConversationRepo()
	worker := NewArchivalWorker(config, messages, conversations, nil, store, NoOpLoggerInstance)
	worker.now = func() time.Time { return archivalNow }

	require.NoError(t, conversations.Create(ctx, &models.Conversation{ID: "c1"}))
	base := archivalNow.AddDate(0, 0, -400)
	for i := 0; i < 25; i++ {
		seedMessage(t, messages, fmt.Sprintf("m-%02d", i), "c1", base.Add(time.Duration(i)*time.Minute))
	}

	run := worker.RunOnce(ctx)
	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.Equal(t, int64(25), run.MessagesMoved)
	assert.Empty(t, run.ErrorMessage)

	// 主存储消息原样保留
	count, err := messages.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(25), count)

	data, err := store.Download(ctx, archiveObjectPath("c1", base.Truncate(24*time.Hour)))
	require.NoError(t, err)
	var doc struct {
		MessageCount int `json:"messageCount"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 25, doc.MessageCount)
}

func TestArchiveObjectPath(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "archives/2024/03/messages_c1_2024-03-05.json", archiveObjectPath("c1", date))
}
