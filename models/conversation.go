/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-20 00:00:00
 * @FilePath: \go-msgworker\models\conversation.go
 * @Description: 会话局部视图 - 最近消息窗口维护
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

import (
	"time"

	"github.com/kamalyes/go-sqlbuilder"
)

// RecentMessageWindowSize 最近消息窗口容量上限
const RecentMessageWindowSize = 50

// Conversation 会话(工作器关心的局部视图)
// RecentMessages 为最近消息ID的有序缓存,最新在前,超出容量从尾部淘汰
type Conversation struct {
	ID             string                 `gorm:"primaryKey;size:64;comment:会话ID" json:"id"`                           // 会话ID
	RecentMessages sqlbuilder.StringSlice `gorm:"type:json;comment:最近消息ID窗口,最新在前,类型为JSON" json:"recent_messages"`      // 最近消息窗口
	LastMessageAt  time.Time              `gorm:"index;comment:最后一条消息时间" json:"last_message_at"`                       // 最后消息时间
	CreatedAt      time.Time              `gorm:"comment:记录创建时间" json:"created_at"`                                    // 记录创建时间
	UpdatedAt      time.Time              `gorm:"comment:记录最后更新时间" json:"updated_at"`                                  // 记录最后更新时间
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "mw_conversations"
}

// TableComment 表注释
func (Conversation) TableComment() string {
	return "会话表-维护最近消息窗口用于快速读取最近动态"
}

// PushRecent 将消息ID插入窗口头部并截断到容量上限
// 只做头插+截断,绝不重排已有条目
func (c *Conversation) PushRecent(messageID string, at time.Time) {
	recent := make([]string, 0, len(c.RecentMessages)+1)
	recent = append(recent, messageID)
	recent = append(recent, c.RecentMessages...)
	if len(recent) > RecentMessageWindowSize {
		recent = recent[:RecentMessageWindowSize]
	}
	c.RecentMessages = recent
	if at.After(c.LastMessageAt) {
		c.LastMessageAt = at
	}
}

// ReplaceRecent 整体替换最近消息窗口(归档后重建使用)
func (c *Conversation) ReplaceRecent(messageIDs []string) {
	if len(messageIDs) > RecentMessageWindowSize {
		messageIDs = messageIDs[:RecentMessageWindowSize]
	}
	c.RecentMessages = messageIDs
}
