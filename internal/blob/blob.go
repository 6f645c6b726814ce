// Package blob 附件存储：给定内容和元信息，落盘并返回可引用路径
package blob

import (
	"context"
	"io"
)

// Store 内容寻址的附件存储
type Store interface {
	// Save 写入内容并返回存储路径（同一内容返回同一路径）
	Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
}
