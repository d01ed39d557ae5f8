/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-20 00:00:00
 * @FilePath: \go-msgworker\logger.go
 * @Description: go-msgworker 日志接口，直接复用 go-logger
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"os"

	"github.com/kamalyes/go-logger"
)

// MWLogger 直接使用 go-logger.ILogger
type MWLogger = logger.ILogger

// NewMWLogger 创建新的工作器日志器，基于 go-logger
func NewMWLogger(config *logger.Logger) MWLogger {
	return config
}

// NewDefaultMWLogger 创建默认配置的工作器日志器
func NewDefaultMWLogger() MWLogger {
	return logger.NewLogger().
		WithLevel(logger.INFO).
		WithPrefix("[MW] ").
		WithShowCaller(false).
		WithColorful(true).
		WithTimeFormat("2006-01-02 15:04:05").
		WithOutput(logger.NewConsoleWriter(logger.WithConsoleOutput(os.Stdout)))
}

// NewNoOpLogger 创建空日志实例
func NewNoOpLogger() MWLogger {
	return logger.NewEmptyLogger()
}

// 全局日志器
var (
	// DefaultLogger 默认日志器实例
	DefaultLogger MWLogger = NewDefaultMWLogger()

	// NoOpLoggerInstance 空日志器实例
	NoOpLoggerInstance MWLogger = NewNoOpLogger()
)

// SetDefaultLogger 设置默认日志器
func SetDefaultLogger(l MWLogger) {
	DefaultLogger = l
}

// parseLogLevel 解析日志级别字符串
func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug", "DEBUG":
		return logger.DEBUG
	case "info", "INFO":
		return logger.INFO
	case "warn", "WARN", "warning", "WARNING":
		return logger.WARN
	case "error", "ERROR":
		return logger.ERROR
	case "fatal", "FATAL":
		return logger.FATAL
	default:
		return logger.INFO // 默认级别
	}
}
