package convert

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// GlyphBuilder 通过外部命令把下载的字体转换为渲染就绪的字形集。
// 实际执行形如 <builder...> <字体文件> <输出目录>，非零退出视为整次运行失败。
type GlyphBuilder struct {
	argv    []string
	timeout time.Duration
}

// NewGlyphBuilder 构造构建器；argv 至少包含命令名，timeout 为 0 表示不限时。
func NewGlyphBuilder(argv []string, timeout time.Duration) (*GlyphBuilder, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("builder command required")
	}
	return &GlyphBuilder{
		argv:    append([]string(nil), argv...),
		timeout: timeout,
	}, nil
}

// Command 返回完整命令行（拷贝），供日志输出。
func (b *GlyphBuilder) Command() []string {
	return append([]string(nil), b.argv...)
}

// BuildError 聚合失败原因与子进程输出，便于日志一次性给全上下文。
type BuildError struct {
	Message string
	Output  string
	Cause   error
}

func (e *BuildError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// Convert 以 fontPath 与 workDir 为尾参执行构建命令，合并捕获子进程输出。
// 命令缺失、启动失败与非零退出都返回 BuildError。
func (b *GlyphBuilder) Convert(ctx context.Context, fontPath, workDir string) error {
	if _, err := exec.LookPath(b.argv[0]); err != nil {
		return &BuildError{
			Message: fmt.Sprintf("builder command not found: %s", b.argv[0]),
			Cause:   err,
		}
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	args := append(append([]string(nil), b.argv[1:]...), fontPath, workDir)
	cmd := exec.CommandContext(ctx, b.argv[0], args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &BuildError{
			Message: "glyph build failed",
			Output:  stdout.String() + stderr.String(),
			Cause:   err,
		}
	}
	return nil
}
