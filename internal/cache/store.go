package cache

import (
	"context"
	"errors"
)

// TokenSuffix 是新鲜度标记文件相对正文文件的后缀。
const TokenSuffix = ".lastmod"

// Store 负责管理磁盘缓存的读写。磁盘布局遵循：
//
//	<FontsDir>/<file>            # 下载正文
//	<FontsDir>/<file>.lastmod    # 新鲜度标记（纯文本，逐字节保存）
//
// 一个条目由两份文件共同组成，缺少任意一份都视为条目不存在。
type Store interface {
	// Load 返回完整缓存条目。任一文件缺失时返回 ErrNotFound。
	Load(ctx context.Context, locator Locator) (*Entry, error)

	// Save 将条目写入磁盘。实现需通过临时文件 + rename 保证两份文件
	// 原子落盘；标记文件落盘失败时回滚正文，避免出现半条目。
	Save(ctx context.Context, locator Locator, entry *Entry) error

	// Remove 同时删除正文与标记文件，文件不存在不视为错误。
	Remove(ctx context.Context, locator Locator) error

	// ContentPath 返回正文文件的绝对路径，供外部构建工具直接读取。
	ContentPath(locator Locator) (string, error)
}

// Locator 唯一定位一个缓存条目，FileName 取自 URL 路径的 basename。
type Locator struct {
	FileName string
}

// Entry 表示一个缓存条目：正文字节与逐字保存的新鲜度标记。
type Entry struct {
	Content []byte
	Token   string
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")
