package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFailsWhenFileMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml"), ""); err == nil {
		t.Fatalf("不存在的配置文件应返回错误")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
settings:
  fonts_dir: ./fonts
  timeout: boom
sources:
  roboto:
    url: https://example.test/Roboto.ttf
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path, ""); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadAcceptsNumericTimeout(t *testing.T) {
	content := `
settings:
  fonts_dir: ./fonts
  timeout: 45
sources:
  roboto:
    url: https://example.test/Roboto.ttf
`
	path := writeTempConfig(t, content)
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("纯数字秒值应被接受: %v", err)
	}
	if cfg.Settings.Timeout.DurationValue() != 45*time.Second {
		t.Fatalf("数字秒值解析错误: %s", cfg.Settings.Timeout.DurationValue())
	}
}

func TestLoadRejectsLooseFilesList(t *testing.T) {
	content := `
settings:
  fonts_dir: ./fonts
sources:
  noto:
    url: https://example.test/Noto.zip
    files:
      - NotoSans-Regular.ttf
`
	path := writeTempConfig(t, content)
	_, err := Load(path, "")
	if err == nil {
		t.Fatalf("files 写错位置应被拦截")
	}
	if !strings.Contains(err.Error(), "archive.files") {
		t.Fatalf("错误信息应提示 archive.files: %v", err)
	}
}

func TestLoadFillsBuilderDefault(t *testing.T) {
	content := `
settings:
  fonts_dir: ./fonts
sources:
  roboto:
    url: https://example.test/Roboto.ttf
`
	path := writeTempConfig(t, content)
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	want := []string{"npx", "-p", "fontnik", "build-glyphs"}
	if len(cfg.Settings.Builder) != len(want) {
		t.Fatalf("builder 默认值不完整: %v", cfg.Settings.Builder)
	}
	for i := range want {
		if cfg.Settings.Builder[i] != want[i] {
			t.Fatalf("builder 默认值不匹配: %v", cfg.Settings.Builder)
		}
	}
}
