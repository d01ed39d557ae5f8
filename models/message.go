/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-20 00:00:00
 * @FilePath: \go-msgworker\models\message.go
 * @Description: 消息事件与消息持久化模型 - 使用 GORM 数据库持久化
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/kamalyes/go-sqlbuilder"
	"gorm.io/gorm"
)

// 数据库查询常量
const (
	QueryMessageIDWhere      = "id = ?"
	QueryConversationIDWhere = "conversation_id = ?"
	OrderByCreateTimeDesc    = "create_time DESC"
	OrderByCreateTimeAsc     = "create_time ASC"
)

// MessageEvent 消息创建事件(队列载荷)
// 由上游服务投递到 messages.process 队列,落库前没有身份标识
type MessageEvent struct {
	ConversationID   string      `json:"conversationId"`             // 会话ID
	SenderID         string      `json:"senderId"`                   // 发送者ID
	SenderName       string      `json:"senderName"`                 // 发送者昵称
	Type             MessageType `json:"type"`                       // 消息类型
	Content          string      `json:"content"`                    // 消息内容(明文)
	EncryptedContent string      `json:"encryptedContent,omitempty"` // 加密内容(可选)
	ReplyTo          string      `json:"replyTo,omitempty"`          // 回复的消息ID(可选)
	Attachments      []string    `json:"attachments,omitempty"`      // 附件引用列表
}

// ReadReceipt 已读回执
type ReadReceipt struct {
	UserID string    `json:"user_id"` // 已读用户ID
	ReadAt time.Time `json:"read_at"` // 已读时间
}

// ReadReceiptList 已读回执列表(用于 GORM JSON 序列化)
type ReadReceiptList []ReadReceipt

// Scan 实现 sql.Scanner 接口
func (r *ReadReceiptList) Scan(value interface{}) error {
	if value == nil {
		*r = []ReadReceipt{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, r)
}

// Value 实现 driver.Valuer 接口
func (r ReadReceiptList) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return json.Marshal(r)
}

// Message 持久化消息(GORM 模型)
// ID 即幂等键:同一事件重复投递时,依赖主键冲突保证不会产生第二条记录
type Message struct {
	ID               string                 `gorm:"primaryKey;size:64;comment:消息ID,幂等键" json:"id"`                          // 消息ID(幂等键)
	ConversationID   string                 `gorm:"column:conversation_id;size:255;not null;index;comment:会话ID" json:"conversation_id"` // 会话ID
	SenderID         string                 `gorm:"column:sender_id;size:255;not null;index;comment:发送者ID" json:"sender_id"`            // 发送者ID
	SenderName       string                 `gorm:"size:255;comment:发送者昵称" json:"sender_name"`                              // 发送者昵称
	Type             MessageType            `gorm:"index;size:50;not null;comment:消息类型" json:"type"`                        // 消息类型
	Content          string                 `gorm:"type:text;comment:消息内容,类型为文本" json:"content"`                            // 消息内容
	EncryptedContent string                 `gorm:"type:text;comment:加密内容,类型为文本" json:"encrypted_content,omitempty"`        // 加密内容
	ReplyTo          string                 `gorm:"size:64;comment:回复的消息ID" json:"reply_to,omitempty"`                      // 回复的消息ID
	Attachments      sqlbuilder.StringSlice `gorm:"type:json;comment:附件引用列表,类型为JSON" json:"attachments"`                    // 附件引用列表
	ReadReceipts     ReadReceiptList        `gorm:"type:json;comment:已读回执,类型为JSON" json:"read_receipts"`                    // 已读回执(按用户去重)
	CreateTime       time.Time              `gorm:"index;not null;comment:创建时间" json:"create_time"`                         // 创建时间
	Deleted          bool                   `gorm:"index;default:false;comment:软删除标记" json:"deleted"`                       // 软删除标记
	CreatedAt        time.Time              `gorm:"comment:记录创建时间" json:"created_at"`                                       // 记录创建时间
	UpdatedAt        time.Time              `gorm:"comment:记录最后更新时间" json:"updated_at"`                                     // 记录最后更新时间
}

// TableName 指定表名
func (Message) TableName() string {
	return "mw_messages"
}

// TableComment 表注释
func (Message) TableComment() string {
	return "消息表-队列工作器持久化的权威消息数据"
}

// BeforeCreate GORM 钩子：创建前
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.CreateTime.IsZero() {
		m.CreateTime = time.Now()
	}
	if m.Attachments == nil {
		m.Attachments = []string{}
	}
	if m.ReadReceipts == nil {
		m.ReadReceipts = []ReadReceipt{}
	}
	return nil
}

// MarkRead 记录用户已读回执,同一用户只保留首条
func (m *Message) MarkRead(userID string, at time.Time) bool {
	for _, r := range m.ReadReceipts {
		if r.UserID == userID {
			return false
		}
	}
	m.ReadReceipts = append(m.ReadReceipts, ReadReceipt{UserID: userID, ReadAt: at})
	return true
}

// SetID 设置消息ID
func (m *Message) SetID(id string) *Message {
	m.ID = id
	return m
}

// SetConversationID 设置会话ID
func (m *Message) SetConversationID(conversationID string) *Message {
	m.ConversationID = conversationID
	return m
}

// SetSender 设置发送者信息
func (m *Message) SetSender(senderID, senderName string) *Message {
	m.SenderID = senderID
	m.SenderName = senderName
	return m
}

// SetContent 设置消息内容
func (m *Message) SetContent(content string) *Message {
	m.Content = content
	return m
}
