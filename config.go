/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-20 00:00:00
 * @FilePath: \go-msgworker\config.go
 * @Description: Config 结构体 - 队列工作器配置
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"time"

	"github.com/kamalyes/go-logger"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/kamalyes/go-toolbox/pkg/mathx"
)

// 默认队列名
const (
	DefaultMessageQueue = "messages.process" // 消息处理队列
	DefaultFileQueue    = "files.process"    // 文件处理队列
)

// Config 结构体表示队列工作器管线的配置
type Config struct {
	MessageQueue string // 消息事件队列名
	FileQueue    string // 文件事件队列名

	MaxRetryAttempts   int           // 瞬时错误最大重试次数
	RetryBaseDelay     time.Duration // 重试基础延迟(第n次重试延迟 = 基础延迟 * 因子^(n-1))
	RetryBackoffFactor float64       // 重试退避因子

	ArchivalCron          string // 归档任务 cron 表达式
	ArchivalRetentionDays int    // 消息保留天数,早于该阈值的消息进入归档
	BatchSize             int    // 归档批次大小
	DeleteAfterArchive    bool   // 归档成功后是否删除主存储消息

	BackupCron          string   // 备份任务 cron 表达式
	BackupRetentionDays int      // 备份保留天数,轮转阶段删除更早的备份
	BackupCollections   []string // 参与全量备份的集合名列表
	AppName             string   // 备份对象路径中的应用名段

	CircuitBreakerFailureThreshold int           // 熔断阈值(连续失败次数)
	CircuitBreakerTimeout          time.Duration // 熔断打开后到半开探测的冷却时间

	ThumbnailMaxDimension int // 缩略图最大边长(px),不放大

	QueueKeyPrefix string        // Redis 队列 key 前缀
	QueueTTL       time.Duration // Redis 队列 key 过期时间

	LogLevel string // 日志级别(debug/info/warn/error/fatal)
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		MessageQueue:                   DefaultMessageQueue,
		FileQueue:                      DefaultFileQueue,
		MaxRetryAttempts:               3,
		RetryBaseDelay:                 2 * time.Second,
		RetryBackoffFactor:             2.0,
		ArchivalCron:                   "0 3 * * *",
		ArchivalRetentionDays:          365,
		BatchSize:                      1000,
		DeleteAfterArchive:             true,
		BackupCron:                     "0 4 * * *",
		BackupRetentionDays:            30,
		BackupCollections:              []string{"messages", "conversations", "file_records", "dead_letters"},
		AppName:                        "msgworker",
		CircuitBreakerFailureThreshold: 5,
		CircuitBreakerTimeout:          30 * time.Second,
		ThumbnailMaxDimension:          300,
		QueueKeyPrefix:                 "mw:queue:",
		QueueTTL:                       7 * 24 * time.Hour,
		LogLevel:                       "info",
	}
}

// WithMessageQueue 设置消息事件队列名并返回当前配置对象
func (c *Config) WithMessageQueue(name string) *Config {
	c.MessageQueue = name
	return c
}

// WithFileQueue 设置文件事件队列名并返回当前配置对象
func (c *Config) WithFileQueue(name string) *Config {
	c.FileQueue = name
	return c
}

// WithMaxRetryAttempts 设置最大重试次数并返回当前配置对象
func (c *Config) WithMaxRetryAttempts(n int) *Config {
	c.MaxRetryAttempts = n
	return c
}

// WithRetryBaseDelay 设置重试基础延迟并返回当前配置对象
func (c *Config) WithRetryBaseDelay(d time.Duration) *Config {
	c.RetryBaseDelay = d
	return c
}

// WithArchivalCron 设置归档 cron 表达式并返回当前配置对象
func (c *Config) WithArchivalCron(spec string) *Config {
	c.ArchivalCron = spec
	return c
}

// WithArchivalRetentionDays 设置消息保留天数并返回当前配置对象
func (c *Config) WithArchivalRetentionDays(days int) *Config {
	c.ArchivalRetentionDays = days
	return c
}

// WithBatchSize 设置归档批次大小并返回当前配置对象
func (c *Config) WithBatchSize(size int) *Config {
	c.BatchSize = size
	return c
}

// WithDeleteAfterArchive 设置归档后是否删除并返回当前配置对象
func (c *Config) WithDeleteAfterArchive(del bool) *Config {
	c.DeleteAfterArchive = del
	return c
}

// WithBackupCron 设置备份 cron 表达式并返回当前配置对象
func (c *Config) WithBackupCron(spec string) *Config {
	c.BackupCron = spec
	return c
}

// WithBackupRetentionDays 设置备份保留天数并返回当前配置对象
func (c *Config) WithBackupRetentionDays(days int) *Config {
	c.BackupRetentionDays = days
	return c
}

// WithBackupCollections 设置备份集合列表并返回当前配置对象
func (c *Config) WithBackupCollections(collections []string) *Config {
	c.BackupCollections = collections
	return c
}

// WithAppName 设置应用名并返回当前配置对象
func (c *Config) WithAppName(name string) *Config {
	c.AppName = name
	return c
}

// WithCircuitBreaker 设置熔断参数并返回当前配置对象
func (c *Config) WithCircuitBreaker(failureThreshold int, timeout time.Duration) *Config {
	c.CircuitBreakerFailureThreshold = failureThreshold
	c.CircuitBreakerTimeout = timeout
	return c
}

// WithThumbnailMaxDimension 设置缩略图最大边长并返回当前配置对象
func (c *Config) WithThumbnailMaxDimension(px int) *Config {
	c.ThumbnailMaxDimension = px
	return c
}

// WithQueueKeyPrefix 设置队列 key 前缀并返回当前配置对象
func (c *Config) WithQueueKeyPrefix(prefix string) *Config {
	c.QueueKeyPrefix = prefix
	return c
}

// WithLogLevel 设置日志级别并返回当前配置对象
func (c *Config) WithLogLevel(level string) *Config {
	c.LogLevel = level
	return c
}

// Normalize 将非法的零值/负值字段回填为默认值
func (c *Config) Normalize() *Config {
	defaults := NewDefaultConfig()

	c.MessageQueue = mathx.IF(c.MessageQueue != "", c.MessageQueue, defaults.MessageQueue)
	c.FileQueue = mathx.IF(c.FileQueue != "", c.FileQueue, defaults.FileQueue)
	c.MaxRetryAttempts = mathx.IF(c.MaxRetryAttempts > 0, c.MaxRetryAttempts, defaults.MaxRetryAttempts)
	c.RetryBaseDelay = mathx.IF(c.RetryBaseDelay > 0, c.RetryBaseDelay, defaults.RetryBaseDelay)
	c.RetryBackoffFactor = mathx.IF(c.RetryBackoffFactor > 1, c.RetryBackoffFactor, defaults.RetryBackoffFactor)
	c.ArchivalCron = mathx.IF(c.ArchivalCron != "", c.ArchivalCron, defaults.ArchivalCron)
	c.ArchivalRetentionDays = mathx.IF(c.ArchivalRetentionDays > 0, c.ArchivalRetentionDays, defaults.ArchivalRetentionDays)
	c.BatchSize = mathx.IF(c.BatchSize > 0, c.BatchSize, defaults.BatchSize)
	c.BackupCron = mathx.IF(c.BackupCron != "", c.BackupCron, defaults.BackupCron)
	c.BackupRetentionDays = mathx.IF(c.BackupRetentionDays > 0, c.BackupRetentionDays, defaults.BackupRetentionDays)
	c.AppName = mathx.IF(c.AppName != "", c.AppName, defaults.AppName)
	c.CircuitBreakerFailureThreshold = mathx.IF(c.CircuitBreakerFailureThreshold > 0, c.CircuitBreakerFailureThreshold, defaults.CircuitBreakerFailureThreshold)
	c.CircuitBreakerTimeout = mathx.IF(c.CircuitBreakerTimeout > 0, c.CircuitBreakerTimeout, defaults.CircuitBreakerTimeout)
	c.ThumbnailMaxDimension = mathx.IF(c.ThumbnailMaxDimension > 0, c.ThumbnailMaxDimension, defaults.ThumbnailMaxDimension)
	c.QueueKeyPrefix = mathx.IF(c.QueueKeyPrefix != "", c.QueueKeyPrefix, defaults.QueueKeyPrefix)
	c.QueueTTL = mathx.IF(c.QueueTTL > 0, c.QueueTTL, defaults.QueueTTL)
	c.LogLevel = mathx.IF(c.LogLevel != "", c.LogLevel, defaults.LogLevel)
	if len(c.BackupCollections) == 0 {
		c.BackupCollections = defaults.BackupCollections
	}

	return c
}

// Validate 校验配置合法性,非法配置视为致命错误,启动阶段直接失败
func (c *Config) Validate() error {
	if c.MessageQueue == c.FileQueue {
		return errorx.NewError(ErrTypeConfigInvalid, "message queue and file queue must differ")
	}
	if c.MaxRetryAttempts < 0 {
		return errorx.NewError(ErrTypeConfigInvalid, "max retry attempts must not be negative")
	}
	if c.ArchivalRetentionDays <= 0 || c.BackupRetentionDays <= 0 {
		return errorx.NewError(ErrTypeConfigInvalid, "retention days must be positive")
	}
	if c.BatchSize <= 0 {
		return errorx.NewError(ErrTypeConfigInvalid, "batch size must be positive")
	}
	return nil
}

// NewLoggerFromConfig 根据配置创建日志器
func NewLoggerFromConfig(c *Config) MWLogger {
	return logger.NewLogger().
		WithLevel(parseLogLevel(c.LogLevel)).
		WithPrefix("[MW] ").
		WithShowCaller(false).
		WithColorful(true).
		WithTimeFormat("2006-01-02 15:04:05")
}
