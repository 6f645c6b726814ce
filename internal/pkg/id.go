package pkg

import "github.com/google/uuid"

// NewID 生成 UUIDv7：全局唯一且按创建时间可排序
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// 熵耗尽时退回 v4
		return uuid.NewString()
	}
	return id.String()
}

// ValidID 校验 id 格式
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
