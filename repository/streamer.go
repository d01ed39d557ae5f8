/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-22 00:00:00
 * @FilePath: \go-msgworker\repository\streamer.go
 * @Description: 集合全量导出抽象 - 备份工作器按集合流式读取文档
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

import "context"

// CollectionStreamer 集合全量导出接口
// 实现方按批次读取集合并逐文档回调,绝不修改主数据
type CollectionStreamer interface {
	// StreamDocuments 全量流式导出,每个文档以 JSON 字节回调一次
	// fn 返回错误时终止导出并透传该错误
	StreamDocuments(ctx context.Context, batchSize int, fn func(doc []byte) error) error
}
