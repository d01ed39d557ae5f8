/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-24 00:00:00
 * @FilePath: \go-msgworker\archival_worker.go
 * @Description: 归档工作器 - 定时把超过保留期的消息搬迁到对象冷存储
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kamalyes/go-msgworker/models"
	"github.com/kamalyes/go-msgworker/repository"
)

// archiveDocument 归档对象的 JSON 结构
// 一个对象对应一个会话一天的消息,重复归档时整体覆盖,结果幂等
type archiveDocument struct {
	ConversationID string            `json:"conversationId"` // 会话ID
	Date           string            `json:"date"`           // 消息日期(UTC,yyyy-MM-dd)
	ArchivedAt     time.Time         `json:"archivedAt"`     // 归档时间
	MessageCount   int               `json:"messageCount"`   // 消息数量
	Messages       []*models.Message `json:"messages"`       // 消息列表,按创建时间升序
}

// archiveGroup 按 会话+日期 分组的待归档消息
type archiveGroup struct {
	conversationID string
	date           time.Time // 当天零点(UTC)
	messages       []*models.Message
}

// ArchivalWorker 归档工作器
// 按 cron 调度执行:查出严格早于保留期阈值的消息,按 会话+日期 分组
// 写入对象冷存储,成功后删除主存储消息并重建会话最近消息窗口
type ArchivalWorker struct {
	config        *Config
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	runs          repository.RunRecordRepository
	store         repository.ObjectStore
	breaker       *CircuitBreaker
	logger        MWLogger

	now func() time.Time

	mutex  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewArchivalWorker 创建归档工作器
// runs 可为 nil,此时不落运行记录
func NewArchivalWorker(
	config *Config,
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	runs repository.RunRecordRepository,
	store repository.ObjectStore,
	log MWLogger,
) *ArchivalWorker {
	if log == nil {
		log = DefaultLogger
	}
	return &ArchivalWorker{
		config:        config,
		messages:      messages,
		conversations: conversations,
		runs:          runs,
		store:         store,
		breaker: NewCircuitBreaker("archival-store",
			config.CircuitBreakerFailureThreshold, config.CircuitBreakerTimeout),
		logger: log,
		now:    time.Now,
	}
}

// Start 启动 cron 调度循环
func (w *ArchivalWorker) Start() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	runner := newCronRunner(w.config.ArchivalCron, "archival", w.logger)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		runner.Run(ctx, func(ctx context.Context) {
			w.RunOnce(ctx)
		})
	}()
}

// Stop 停止调度循环,在途的归档运行完成当前批次后退出
func (w *ArchivalWorker) Stop() {
	w.mutex.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mutex.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	w.wg.Wait()
	w.logger.InfoKV("归档工作器已停止")
}

// RunOnce 执行一轮归档,返回运行记录
// 单轮内批次独立:某批失败不阻断后续批次,最终状态为 partial
func (w *ArchivalWorker) RunOnce(ctx context.Context) *models.ArchivalRun {
	started := w.now()
	cutoff := started.AddDate(0, 0, -w.config.ArchivalRetentionDays)
	run := &models.ArchivalRun{RunAt: started, Status: models.RunStatusSuccess}

	w.logger.InfoKV("归档开始",
		"cutoff", cutoff.Format(time.DateTime),
		"retention_days", w.config.ArchivalRetentionDays,
	)

	var errorMessages []string
	touchedConversations := make(map[string]struct{})
	var cursor *repository.MessageCursor

	for {
		// 批次间检查取消,正在进行的批次不中断
		if ctx.Err() != nil {
			errorMessages = append(errorMessages, "run cancelled")
			run.Status = models.RunStatusPartial
			break
		}

		page, err := w.messages.FindOlderThan(ctx, cutoff, cursor, w.config.BatchSize)
		if err != nil {
			errorMessages = append(errorMessages, err.Error())
			run.Status = w.degradeStatus(run)
			break
		}
		if len(page) == 0 {
			break
		}
		// 键集游标始终前进:不依赖删除也不会在失败批次上死循环,
		// 失败批次留待下一轮运行重试
		last := page[len(page)-1]
		cursor = &repository.MessageCursor{CreateTime: last.CreateTime, ID: last.ID}

		for _, group := range groupForArchive(page) {
			bytesWritten, err := w.archiveGroup(ctx, group)
			if err != nil {
				run.BatchesFailed++
				errorMessages = append(errorMessages, fmt.Sprintf("%s/%s: %s",
					group.conversationID, group.date.Format(time.DateOnly), err.Error()))
				continue
			}
			run.BatchesOK++
			run.BytesWritten += int64(bytesWritten)
			run.MessagesMoved += int64(len(group.messages))
			touchedConversations[group.conversationID] = struct{}{}
		}

		if len(page) < w.config.BatchSize {
			break
		}
	}

	w.rebuildWindows(ctx, touchedConversations)

	if run.BatchesFailed > 0 {
		run.Status = w.degradeStatus(run)
	}
	run.ErrorMessage = strings.Join(errorMessages, "; ")
	run.DurationMillis = time.Since(started).Milliseconds()

	w.logger.InfoKV("归档结束",
		"status", string(run.Status),
		"messages_moved", run.MessagesMoved,
		"batches_ok", run.BatchesOK,
		"batches_failed", run.BatchesFailed,
		"bytes_written", run.BytesWritten,
		"duration_ms", run.DurationMillis,
	)

	if w.runs != nil {
		if err := w.runs.CreateArchivalRun(ctx, run); err != nil {
			w.logger.ErrorKV("归档运行记录落库失败", "error", err.Error())
		}
	}
	return run
}

// degradeStatus 有成功批次时降级为 partial,否则 failed
func (w *ArchivalWorker) degradeStatus(run *models.ArchivalRun) models.RunStatus {
	if run.BatchesOK > 0 {
		return models.RunStatusPartial
	}
	return models.RunStatusFailed
}

// archiveGroup 归档一个 会话+日期 分组:写冷存储,成功后按配置删除主存储
// 同一 会话+日期 已有归档对象时合并去重后整体覆盖,跨页分组与重复运行都不丢数据
func (w *ArchivalWorker) archiveGroup(ctx context.Context, group *archiveGroup) (int, error) {
	merged, err := w.mergeExisting(ctx, group)
	if err != nil {
		return 0, err
	}

	document := &archiveDocument{
		ConversationID: group.conversationID,
		Date:           group.date.Format(time.DateOnly),
		ArchivedAt:     w.now(),
		MessageCount:   len(merged),
		Messages:       merged,
	}
	data, err := json.Marshal(document)
	if err != nil {
		return 0, err
	}

	path := archiveObjectPath(group.conversationID, group.date)
	err = w.breaker.Call(ctx, func(ctx context.Context) error {
		return w.store.Upload(ctx, path, data, "application/json")
	})
	if err != nil {
		return 0, err
	}

	if !w.config.DeleteAfterArchive {
		return len(data), nil
	}

	ids := make([]string, 0, len(group.messages))
	for _, msg := range group.messages {
		ids = append(ids, msg.ID)
	}
	if _, err := w.messages.DeleteByIDs(ctx, ids); err != nil {
		// 冷存储写入已成功,删除失败只会导致下一轮重复归档(覆盖写,幂等)
		return len(data), err
	}
	return len(data), nil
}

// mergeExisting 读出既有归档对象并与本组消息按ID去重合并,保持升序
func (w *ArchivalWorker) mergeExisting(ctx context.Context, group *archiveGroup) ([]*models.Message, error) {
	path := archiveObjectPath(group.conversationID, group.date)
	existing, err := w.store.Download(ctx, path)
	if err != nil {
		if IsNotFoundError(err) {
			return group.messages, nil
		}
		return nil, err
	}

	var previous archiveDocument
	if err := json.Unmarshal(existing, &previous); err != nil {
		// 既有对象损坏,以本组数据覆盖
		w.logger.WarnKV("既有归档对象无法解析,将被覆盖", "path", path, "error", err.Error())
		return group.messages, nil
	}

	seen := make(map[string]struct{}, len(previous.Messages))
	merged := make([]*models.Message, 0, len(previous.Messages)+len(group.messages))
	for _, msg := range previous.Messages {
		seen[msg.ID] = struct{}{}
		merged = append(merged, msg)
	}
	for _, msg := range group.messages {
		if _, ok := seen[msg.ID]; ok {
			continue
		}
		merged = append(merged, msg)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].CreateTime.Before(merged[j].CreateTime) })
	return merged, nil
}

// rebuildWindows 对被归档触及的会话重建最近消息窗口
// 窗口重建失败只记日志,不影响归档结果
func (w *ArchivalWorker) rebuildWindows(ctx context.Context, conversationIDs map[string]struct{}) {
	for conversationID := range conversationIDs {
		ids, err := w.messages.FindRecentIDs(ctx, conversationID, models.RecentMessageWindowSize)
		if err != nil {
			w.logger.WarnKV("窗口重建查询失败", "conversation_id", conversationID, "error", err.Error())
			continue
		}
		if err := w.conversations.ReplaceRecentWindow(ctx, conversationID, ids); err != nil {
			if IsNotFoundError(err) {
				continue
			}
			w.logger.WarnKV("窗口重建写入失败", "conversation_id", conversationID, "error", err.Error())
		}
	}
}

// groupForArchive 把一页消息按 会话+UTC日期 分组,保持页内升序
func groupForArchive(page []*models.Message) []*archiveGroup {
	index := make(map[string]*archiveGroup)
	var groups []*archiveGroup
	for _, msg := range page {
		day := msg.CreateTime.UTC().Truncate(24 * time.Hour)
		key := msg.ConversationID + "|" + day.Format(time.DateOnly)
		group, ok := index[key]
		if !ok {
			group = &archiveGroup{conversationID: msg.ConversationID, date: day}
			index[key] = group
			groups = append(groups, group)
		}
		group.messages = append(group.messages, msg)
	}
	return groups
}

// archiveObjectPath 归档对象路径:archives/{年}/{月}/messages_{会话ID}_{日期}.json
func archiveObjectPath(conversationID string, date time.Time) string {
	return fmt.Sprintf("%s%04d/%02d/messages_%s_%s.json",
		repository.ArchivePathPrefix,
		date.Year(), int(date.Month()),
		conversationID, date.Format(time.DateOnly),
	)
}
