package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DiskStore 本地磁盘实现，文件名取内容哈希前缀+原扩展名
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(_ context.Context, filename string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}

	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:8]) + strings.ToLower(filepath.Ext(filename))
	dst := filepath.Join(s.dir, name)

	// 同内容文件已存在则直接复用
	if _, err := os.Stat(dst); err == nil {
		return path.Join("media", name), nil
	}

	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return path.Join("media", name), nil
}
