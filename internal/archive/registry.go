package archive

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Extractor 将压缩包内指定成员解出到目标目录。
type Extractor interface {
	Extract(data []byte, members []string, destDir string) error
}

var globalRegistry = newRegistry()

type registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

func newRegistry() *registry {
	return &registry{extractors: make(map[string]Extractor)}
}

// Register 将解包实现加入全局注册表，重复键会返回错误。
func Register(format string, ex Extractor) error {
	return globalRegistry.register(format, ex)
}

// MustRegister 在注册失败时 panic，适合实现方 init() 中调用。
func MustRegister(format string, ex Extractor) {
	if err := Register(format, ex); err != nil {
		panic(err)
	}
}

// Resolve 返回指定格式的解包实现。
func Resolve(format string) (Extractor, bool) {
	return globalRegistry.resolve(format)
}

// Formats 返回按名称排序的已注册格式键，供配置校验与诊断使用。
func Formats() []string {
	return globalRegistry.formats()
}

func (r *registry) normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

func (r *registry) register(format string, ex Extractor) error {
	key := r.normalizeFormat(format)
	if key == "" {
		return fmt.Errorf("archive format key is required")
	}
	if ex == nil {
		return fmt.Errorf("archive extractor is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.extractors[key]; exists {
		return fmt.Errorf("archive format %s already registered", key)
	}
	r.extractors[key] = ex
	return nil
}

func (r *registry) resolve(format string) (Extractor, bool) {
	key := r.normalizeFormat(format)
	if key == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ex, ok := r.extractors[key]
	return ex, ok
}

func (r *registry) formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.extractors) == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.extractors))
	for key := range r.extractors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
