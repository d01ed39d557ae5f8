/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-08-23 00:00:00
 * @FilePath: \go-msgworker\video_prober.go
 * @Description: 视频探测 - ffprobe/ffmpeg 外部进程提取元数据与首帧
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package msgworker

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"os/exec"
	"strconv"

	"github.com/kamalyes/go-toolbox/pkg/errorx"
)

// VideoMeta 视频探测结果
type VideoMeta struct {
	Width    int     `json:"width"`    // 宽度(px)
	Height   int     `json:"height"`   // 高度(px)
	Duration float64 `json:"duration"` // 时长(秒)
}

// VideoProber 视频探测能力
// 探测失败视为瞬时错误(外部进程可能暂时不可用),进入重试
type VideoProber interface {
	// Probe 提取视频尺寸与时长
	Probe(ctx context.Context, path string) (*VideoMeta, error)

	// ExtractFrame 提取首帧画面用于生成缩略图
	ExtractFrame(ctx context.Context, path string) (image.Image, error)
}

// FFmpegProber 基于 ffprobe/ffmpeg 外部进程的默认实现
type FFmpegProber struct {
	FFprobePath string // ffprobe 可执行文件路径,默认 "ffprobe"
	FFmpegPath  string // ffmpeg 可执行文件路径,默认 "ffmpeg"
}

// NewFFmpegProber 创建默认视频探测器
func NewFFmpegProber() *FFmpegProber {
	return &FFmpegProber{
		FFprobePath: "ffprobe",
		FFmpegPath:  "ffmpeg",
	}
}

// ffprobeOutput ffprobe -of json 的输出结构
type ffprobeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe 提取视频尺寸与时长
func (p *FFmpegProber) Probe(ctx context.Context, path string) (*VideoMeta, error) {
	cmd := exec.CommandContext(ctx, p.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, errorx.NewError(ErrTypeProbeFailed, err.Error())
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, errorx.NewError(ErrTypeProbeFailed, err.Error())
	}

	meta := &VideoMeta{}
	if len(probed.Streams) > 0 {
		meta.Width = probed.Streams[0].Width
		meta.Height = probed.Streams[0].Height
	}
	if probed.Format.Duration != "" {
		if duration, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
			meta.Duration = duration
		}
	}
	return meta, nil
}

// ExtractFrame 提取 t=0 处的首帧
func (p *FFmpegProber) ExtractFrame(ctx context.Context, path string) (image.Image, error) {
	cmd := exec.CommandContext(ctx, p.FFmpegPath,
		"-v", "error",
		"-ss", "0",
		"-i", path,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, errorx.NewError(ErrTypeProbeFailed, err.Error())
	}

	frame, err := jpeg.Decode(bytes.NewReader(output))
	if err != nil {
		return nil, errorx.NewError(ErrTypeProbeFailed, err.Error())
	}
	return frame, nil
}
