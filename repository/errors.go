/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-21 00:00:00
 * @FilePath: \go-msgworker\repository\errors.go
 * @Description: Repository 层错误定义 - 基于errorx.BaseError模式
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

import (
	"errors"
	"strings"

	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"gorm.io/gorm"
)

// ErrorType 错误类型定义,基于errorx.ErrorType
type ErrorType = errorx.ErrorType

// Repository 层错误码常量定义
// 使用 822xx/824xx 区间(与 go-msgworker 根包共享 82xxx 空间)
const (
	// 文档存储错误 (82200-82299)
	ErrTypeStoreUnavailable ErrorType = 82201 // 文档存储不可用 - 可重试
	ErrTypeDuplicateKey     ErrorType = 82202 // 主键冲突(幂等回退路径) - 不可重试
	ErrTypeRecordNotFound   ErrorType = 82203 // 记录不存在 - 不可重试

	// 对象存储错误 (82400-82449)
	ErrTypeObjectStoreFailed ErrorType = 82401 // 对象存储操作失败 - 可重试
	ErrTypeBlobNotFound      ErrorType = 82403 // 对象不存在 - 不可重试
)

// init 初始化所有错误类型注册
func init() {
	errorx.RegisterError(ErrTypeStoreUnavailable, "document store unavailable: %s")
	errorx.RegisterError(ErrTypeDuplicateKey, "duplicate key: %s")
	errorx.RegisterError(ErrTypeRecordNotFound, "record not found: %s")
	errorx.RegisterError(ErrTypeObjectStoreFailed, "object store operation failed: %s")
	errorx.RegisterError(ErrTypeBlobNotFound, "blob not found: %s")
}

// translateStoreError 把 GORM/驱动错误翻译为带类型的 repository 错误
func translateStoreError(err error, detail string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.NewError(ErrTypeRecordNotFound, detail)
	}
	if isDuplicateKeyError(err) {
		return errorx.NewError(ErrTypeDuplicateKey, detail)
	}
	return errorx.NewError(ErrTypeStoreUnavailable, err.Error())
}

// isDuplicateKeyError 判断是否为唯一键冲突
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// MySQL 1062,驱动未开启错误翻译时的兜底
	return strings.Contains(err.Error(), "Duplicate entry")
}

// IsNotFound 判断是否为记录/对象不存在错误
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errxErr, ok := err.(interface{ GetType() ErrorType }); ok {
		return errxErr.GetType() == ErrTypeRecordNotFound || errxErr.GetType() == ErrTypeBlobNotFound
	}
	return false
}

// IsDuplicateKey 判断是否为主键冲突错误
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errxErr, ok := err.(interface{ GetType() ErrorType }); ok {
		return errxErr.GetType() == ErrTypeDuplicateKey
	}
	return false
}
