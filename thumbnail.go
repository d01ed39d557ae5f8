/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-23 00:00:00
 * @FilePath: \go-msgworker\thumbnail.go
 * @Description: 缩略图生成 - 等比缩放到最大边长,不放大小图
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// thumbnailJPEGQuality 缩略图 JPEG 编码质量
const thumbnailJPEGQuality = 85

// thumbnailSize 计算等比缩放后的缩略图尺寸
// 长边缩到 maxDimension,严格保持宽高比;原图两边都不超过上限时原样返回(不放大)
func thumbnailSize(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}
	if width >= height {
		scaled := height * maxDimension / width
		if scaled < 1 {
			scaled = 1
		}
		return maxDimension, scaled
	}
	scaled := width * maxDimension / height
	if scaled < 1 {
		scaled = 1
	}
	return scaled, maxDimension
}

// renderThumbnail 生成缩略图并编码为 JPEG
// 原图已经足够小时跳过重采样,仅做一次 JPEG 编码
func renderThumbnail(src image.Image, maxDimension int) ([]byte, error) {
	bounds := src.Bounds()
	targetW, targetH := thumbnailSize(bounds.Dx(), bounds.Dy(), maxDimension)

	var thumb image.Image
	if targetW == bounds.Dx() && targetH == bounds.Dy() {
		thumb = src
	} else {
		dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		thumb = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
