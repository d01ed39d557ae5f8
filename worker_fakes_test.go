/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-25 00:00:00
 * @FilePath: \go-msgworker\worker_fakes_test.go
 * @Description: 工作器测试用内存伪实现
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/kamalyes/go-msgworker/models"
	"github.com/kamalyes/go-msgworker/repository"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"gorm.io/gorm"
)

// ============================================================================
// fakeMessageRepo 内存消息仓储
// ============================================================================

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[string]*models.Message

	// 注入故障:前 failCreates 次 Create 返回瞬时存储错误
	failCreates int
	createCalls int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]*models.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createCalls <= r.failCreates {
		return errorx.NewError(repository.ErrTypeStoreUnavailable, "injected failure")
	}
	if _, ok := r.messages[msg.ID]; ok {
		return errorx.NewError(repository.ErrTypeDuplicateKey, msg.ID)
	}
	clone := *msg
	r.messages[msg.ID] = &clone
	return nil
}

func (r *fakeMessageRepo) FindByID(ctx context.Context, id string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, errorx.NewError(repository.ErrTypeRecordNotFound, id)
	}
	clone := *msg
	return &clone, nil
}

func (r *fakeMessageRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.messages[id]
	return ok, nil
}

func (r *fakeMessageRepo) FindOlderThan(ctx context.Context, cutoff time.Time, after *repository.MessageCursor, limit int) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Message
	for _, msg := range r.messages {
		if msg.CreateTime.Before(cutoff) && after.After(msg) {
			clone := *msg
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreateTime.Equal(result[j].CreateTime) {
			return result[i].CreateTime.Before(result[j].CreateTime)
		}
		return result[i].ID < result[j].ID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeMessageRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if _, ok := r.messages[id]; ok {
			delete(r.messages, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeMessageRepo) FindRecentIDs(ctx context.Context, conversationID string, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var msgs []*models.Message
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID {
			msgs = append(msgs, msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreateTime.After(msgs[j].CreateTime) })
	var ids []string
	for _, msg := range msgs {
		if len(ids) >= limit {
			break
		}
		ids = append(ids, msg.ID)
	}
	return ids, nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, messageID, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[messageID]
	if !ok {
		return errorx.NewError(repository.ErrTypeRecordNotFound, messageID)
	}
	msg.MarkRead(userID, at)
	return nil
}

func (r *fakeMessageRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.messages)), nil
}

func (r *fakeMessageRepo) GetDB() *gorm.DB { return nil }

func (r *fakeMessageRepo) StreamDocuments(ctx context.Context, batchSize int, fn func(doc []byte) error) error {
	r.mu.Lock()
	msgs := make([]*models.Message, 0, len(r.messages))
	for _, msg := range r.messages {
		msgs = append(msgs, msg)
	}
	r.mu.Unlock()
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	for _, msg := range msgs {
		doc, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// fakeConversationRepo 内存会话仓储
// ============================================================================

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: make(map[string]*models.Conversation)}
}

func (r *fakeConversationRepo) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, errorx.NewError(repository.ErrTypeRecordNotFound, id)
	}
	clone := *conv
	return &clone, nil
}

func (r *fakeConversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *conv
	r.conversations[conv.ID] = &clone
	return nil
}

func (r *fakeConversationRepo) PushRecentMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[conversationID]
	if !ok {
		return errorx.NewError(repository.ErrTypeRecordNotFound, conversationID)
	}
	conv.PushRecent(messageID, at)
	return nil
}

func (r *fakeConversationRepo) ReplaceRecentWindow(ctx context.Context, conversationID string, messageIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[conversationID]
	if !ok {
		return errorx.NewError(repository.ErrTypeRecordNotFound, conversationID)
	}
	conv.ReplaceRecent(messageIDs)
	return nil
}

func (r *fakeConversationRepo) StreamDocuments(ctx context.Context, batchSize int, fn func(doc []byte) error) error {
	r.mu.Lock()
	convs := make([]*models.Conversation, 0, len(r.conversations))
	for _, conv := range r.conversations {
		convs = append(convs, conv)
	}
	r.mu.Unlock()
	sort.Slice(convs, func(i, j int) bool { return convs[i].ID < convs[j].ID })
	for _, conv := range convs {
		doc, err := json.Marshal(conv)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeConversationRepo) get(id string) *models.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conversations[id]
}

// ============================================================================
// fakeFileRecordRepo 内存文件记录仓储
// ============================================================================

type fakeFileRecordRepo struct {
	mu      sync.Mutex
	records map[string]*models.FileRecord
}

func newFakeFileRecordRepo() *fakeFileRecordRepo {
	return &fakeFileRecordRepo{records: make(map[string]*models.FileRecord)}
}

func (r *fakeFileRecordRepo) FindByID(ctx context.Context, id string) (*models.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, errorx.NewError(repository.ErrTypeRecordNotFound, id)
	}
	clone := *record
	return &clone, nil
}

func (r *fakeFileRecordRepo) Create(ctx context.Context, record *models.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *fakeFileRecordRepo) UpdateMetadata(ctx context.Context, record *models.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *fakeFileRecordRepo) StreamDocuments(ctx context.Context, batchSize int, fn func(doc []byte) error) error {
	r.mu.Lock()
	records := make([]*models.FileRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	r.mu.Unlock()
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	for _, record := range records {
		doc, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// fakeDeadLetterRepo 内存死信仓储
// ============================================================================

type fakeDeadLetterRepo struct {
	mu      sync.Mutex
	records []*models.DeadLetterRecord
}

func newFakeDeadLetterRepo() *fakeDeadLetterRepo {
	return &fakeDeadLetterRepo{}
}

func (r *fakeDeadLetterRepo) Create(ctx context.Context, record *models.DeadLetterRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *record
	r.records = append(r.records, &clone)
	return nil
}

func (r *fakeDeadLetterRepo) FindByQueue(ctx context.Context, queueName string, limit int) ([]*models.DeadLetterRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.DeadLetterRecord
	for _, record := range r.records {
		if record.QueueName == queueName {
			result = append(result, record)
		}
	}
	return result, nil
}

func (r *fakeDeadLetterRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.records)), nil
}

func (r *fakeDeadLetterRepo) StreamDocuments(ctx context.Context, batchSize int, fn func(doc []byte) error) error {
	r.mu.Lock()
	records := append([]*models.DeadLetterRecord{}, r.records...)
	r.mu.Unlock()
	for _, record := range records {
		doc, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeDeadLetterRepo) all() []*models.DeadLetterRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.DeadLetterRecord{}, r.records...)
}

// ============================================================================
// fakeRunRecordRepo 内存运行记录仓储
// ============================================================================

type fakeRunRecordRepo struct {
	mu           sync.Mutex
	archivalRuns []*models.ArchivalRun
	backupRuns   []*models.BackupRun
}

func newFakeRunRecordRepo() *fakeRunRecordRepo {
	return &fakeRunRecordRepo{}
}

func (r *fakeRunRecordRepo) CreateArchivalRun(ctx context.Context, run *models.ArchivalRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *run
	r.archivalRuns = append(r.archivalRuns, &clone)
	return nil
}

func (r *fakeRunRecordRepo) CreateBackupRun(ctx context.Context, run *models.BackupRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *run
	r.backupRuns = append(r.backupRuns, &clone)
	return nil
}

func (r *fakeRunRecordRepo) LatestArchivalRuns(ctx context.Context, limit int) ([]*models.ArchivalRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.ArchivalRun{}, r.archivalRuns...), nil
}

func (r *fakeRunRecordRepo) LatestBackupRuns(ctx context.Context, limit int) ([]*models.BackupRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.BackupRun{}, r.backupRuns...), nil
}

// ============================================================================
// recordingBroadcaster 记录广播调用
// ============================================================================

type broadcastCall struct {
	groupID   string
	eventName string
	args      []interface{}
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *recordingBroadcaster) BroadcastToGroup(ctx context.Context, groupID, eventName string, args ...interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{groupID: groupID, eventName: eventName, args: args})
	return nil
}

func (b *recordingBroadcaster) all() []broadcastCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcastCall{}, b.calls...)
}

// ============================================================================
// failingObjectStore 指定前 N 次 Upload 失败的对象存储包装
// ============================================================================

type failingObjectStore struct {
	repository.ObjectStore
	mu          sync.Mutex
	failUploads int
	uploadCalls int
}

func (s *failingObjectStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	s.mu.Lock()
	s.uploadCalls++
	shouldFail := s.uploadCalls <= s.failUploads
	s.mu.Unlock()
	if shouldFail {
		return errorx.NewError(repository.ErrTypeObjectStoreFailed, "injected failure")
	}
	return s.ObjectStore.Upload(ctx, path, data, contentType)
}

// quickRetryConfig 毫秒级重试延迟的测试配置
func quickRetryConfig() *Config {
	return NewDefaultConfig().
		WithMaxRetryAttempts(3).
		WithRetryBaseDelay(time.Millisecond).
		Normalize()
}
