/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-20 00:00:00
 * @FilePath: \go-msgworker\errors.go
 * @Description: 队列工作器错误定义 - 基于errorx.BaseError模式
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"github.com/kamalyes/go-msgworker/repository"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
)

// 错误类型定义，基于errorx.ErrorType
type ErrorType = errorx.ErrorType

// 队列工作器错误码常量定义
// 使用 82xxx 区间，避免与其他包冲突（MW = Message Worker）
const (
	// 载荷结构错误 (82100-82199) - 永久性,不可重试,直接进死信
	ErrTypeDeserializationFailed ErrorType = 82101 // 载荷反序列化失败
	ErrTypeValidationFailed      ErrorType = 82102 // 字段校验失败
	ErrTypePayloadEmpty          ErrorType = 82103 // 载荷为空

	// 队列相关错误 (82300-82399) - 可重试
	ErrTypeQueuePublishFailed ErrorType = 82301 // 队列发布失败
	ErrTypeQueueConsumeFailed ErrorType = 82302 // 队列消费失败
	ErrTypeChannelStopped     ErrorType = 82303 // 队列通道已停止 - 不可重试

	// 熔断错误 (82450-82459)
	ErrTypeCircuitBreakerOpen ErrorType = 82452 // 熔断器已打开,快速失败 - 可重试

	// 文件处理错误 (82500-82599)
	ErrTypeDecodeFailed ErrorType = 82501 // 图片解码失败 - 不可重试
	ErrTypeProbeFailed  ErrorType = 82502 // 视频探测失败 - 可重试
	ErrTypeScratchIO    ErrorType = 82503 // 临时文件读写失败 - 可重试

	// 操作与调度错误 (82900-82999)
	ErrTypeOperationCancelled ErrorType = 82901 // 上下文取消 - 不可重试
	ErrTypeTemporaryFailure   ErrorType = 82902 // 临时故障 - 可重试
	ErrTypeMaxRetriesExceeded ErrorType = 82903 // 超过最大重试次数 - 不可重试
	ErrTypeConfigInvalid      ErrorType = 82904 // 配置非法,启动即失败 - 不可重试
)

// 存储/对象存储错误码由 repository 层注册,此处仅做别名导出
const (
	ErrTypeStoreUnavailable  = repository.ErrTypeStoreUnavailable  // 文档存储不可用 - 可重试
	ErrTypeDuplicateKey      = repository.ErrTypeDuplicateKey      // 主键冲突 - 不可重试
	ErrTypeRecordNotFound    = repository.ErrTypeRecordNotFound    // 记录不存在 - 不可重试
	ErrTypeObjectStoreFailed = repository.ErrTypeObjectStoreFailed // 对象存储操作失败 - 可重试
	ErrTypeBlobNotFound      = repository.ErrTypeBlobNotFound      // 对象不存在 - 不可重试
)

// init 初始化所有错误类型注册
// 注意：在运行多个测试包时，可能会看到 "ErrorType XXX is already registered" 的警告信息
// 这是正常现象，errorx包内部会忽略重复注册
func init() {
	// 注册载荷结构错误
	errorx.RegisterError(ErrTypeDeserializationFailed, "deserialization error: %s")
	errorx.RegisterError(ErrTypeValidationFailed, "validation failed: %s")
	errorx.RegisterError(ErrTypePayloadEmpty, "payload is empty")

	// 注册队列相关错误
	errorx.RegisterError(ErrTypeQueuePublishFailed, "queue publish failed: %s")
	errorx.RegisterError(ErrTypeQueueConsumeFailed, "queue consume failed: %s")
	errorx.RegisterError(ErrTypeChannelStopped, "queue channel stopped")

	// 注册熔断错误
	errorx.RegisterError(ErrTypeCircuitBreakerOpen, "circuit breaker is open")

	// 注册文件处理错误
	errorx.RegisterError(ErrTypeDecodeFailed, "image decode failed: %s")
	errorx.RegisterError(ErrTypeProbeFailed, "video probe failed: %s")
	errorx.RegisterError(ErrTypeScratchIO, "scratch file io failed: %s")

	// 注册操作与调度错误
	errorx.RegisterError(ErrTypeOperationCancelled, "operation cancelled")
	errorx.RegisterError(ErrTypeTemporaryFailure, "temporary failure: %s")
	errorx.RegisterError(ErrTypeMaxRetriesExceeded, "maximum retries exceeded: %s")
	errorx.RegisterError(ErrTypeConfigInvalid, "invalid configuration: %s")

	// 哨兵错误必须在类型注册之后构造，否则 NewError 返回 "unknown error"（Type=0）
	ErrPayloadEmpty = errorx.NewError(ErrTypePayloadEmpty)
	ErrChannelStopped = errorx.NewError(ErrTypeChannelStopped)
	ErrCircuitBreakerOpen = errorx.NewError(ErrTypeCircuitBreakerOpen)
	ErrOperationCancelled = errorx.NewError(ErrTypeOperationCancelled)
}

// ============================================================================
// 错误变量定义
// ============================================================================

var (
	ErrPayloadEmpty       error
	ErrChannelStopped     error
	ErrCircuitBreakerOpen error
	ErrOperationCancelled error
)

// IsRetryableError 判断错误是否可以重试
// 永久性错误(结构/校验/记录缺失)跳过重试直接进死信,瞬时错误走退避重试
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// 如果是 errorx.Error 类型，检查其错误类型
	if errxErr, ok := err.(interface{ GetType() ErrorType }); ok {
		return IsRetryableErrorType(errxErr.GetType())
	}

	// 对于定义的错误变量，直接检查可重试性
	switch err {
	case ErrCircuitBreakerOpen:
		return true
	default:
		return false
	}
}

// IsRetryableErrorType 判断错误类型是否可以重试
func IsRetryableErrorType(errType ErrorType) bool {
	switch errType {
	// 可重试的错误类型
	case ErrTypeStoreUnavailable, ErrTypeQueuePublishFailed,
		ErrTypeQueueConsumeFailed, ErrTypeObjectStoreFailed,
		ErrTypeCircuitBreakerOpen, ErrTypeProbeFailed,
		ErrTypeScratchIO, ErrTypeTemporaryFailure:
		return true
	// 不可重试的错误类型
	default:
		return false
	}
}

// IsPermanentError 判断是否为永久性错误(应直接进死信,不消耗重试预算)
func IsPermanentError(err error) bool {
	if err == nil {
		return false
	}
	if errxErr, ok := err.(interface{ GetType() ErrorType }); ok {
		switch errxErr.GetType() {
		case ErrTypeDeserializationFailed, ErrTypeValidationFailed, ErrTypePayloadEmpty:
			return true
		}
	}
	return false
}

// IsDuplicateKeyError 判断是否为主键冲突错误
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errxErr, ok := err.(interface{ GetType() ErrorType }); ok {
		return errxErr.GetType() == ErrTypeDuplicateKey
	}
	return false
}

// IsNotFoundError 判断是否为记录不存在错误
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errxErr, ok := err.(interface{ GetType() ErrorType }); ok {
		return errxErr.GetType() == ErrTypeRecordNotFound || errxErr.GetType() == ErrTypeBlobNotFound
	}
	return false
}
