package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/fontload/fontload/internal/config"
)

func TestResolveLevel(t *testing.T) {
	cases := []struct {
		name    string
		verbose bool
		quiet   bool
		want    logrus.Level
	}{
		{name: "default", want: logrus.InfoLevel},
		{name: "verbose", verbose: true, want: logrus.DebugLevel},
		{name: "quiet", quiet: true, want: logrus.WarnLevel},
		{name: "verbose_wins", verbose: true, quiet: true, want: logrus.DebugLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveLevel(tc.verbose, tc.quiet); got != tc.want {
				t.Fatalf("级别不匹配: 期望 %v 得到 %v", tc.want, got)
			}
		})
	}
}

func TestInitLoggerDefaultsToStderr(t *testing.T) {
	logger := InitLogger(config.Settings{}, logrus.InfoLevel)
	if logger.Out != os.Stderr {
		t.Fatalf("未指定文件时应输出到 stderr")
	}
}

func TestInitLoggerFallbackOnPermissionDenied(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.Mkdir(blocked, 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.Chmod(blocked, 0o000); err != nil {
		t.Fatalf("设置目录权限失败: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(blocked, 0o755) })

	cfg := config.Settings{
		LogFilePath: filepath.Join(blocked, "sub", "fontload.log"),
	}
	logger := InitLogger(cfg, logrus.InfoLevel)
	if logger.Out != os.Stderr {
		t.Fatalf("fallback 时应退回 stderr")
	}
}

func TestInitLoggerCreatesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fontload.log")
	cfg := config.Settings{LogFilePath: path, LogMaxSize: 10, LogMaxBackups: 2}
	logger := InitLogger(cfg, logrus.DebugLevel)
	logger.Info("test")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("预期创建日志文件: %v", err)
	}
}
