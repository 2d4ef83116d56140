package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if seconds, err := time.ParseDuration(raw); err == nil {
		*d = Duration(seconds)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// Settings 描述全局运行行为（目标目录、超时、构建命令等），所有字体源共享同一份参数。
type Settings struct {
	FontsDir       string   `mapstructure:"fonts_dir"`
	Timeout        Duration `mapstructure:"timeout"`
	UserAgent      string   `mapstructure:"user_agent"`
	Builder        []string `mapstructure:"builder"`
	BuilderTimeout Duration `mapstructure:"builder_timeout"`
	LogFilePath    string   `mapstructure:"log_file"`
	LogMaxSize     int      `mapstructure:"log_max_size"`
	LogMaxBackups  int      `mapstructure:"log_max_backups"`
	LogCompress    bool     `mapstructure:"log_compress"`
}

// ArchiveConfig 指定压缩包格式与需要解出的成员路径。
type ArchiveConfig struct {
	Format string   `mapstructure:"format"`
	Files  []string `mapstructure:"files"`
}

// SourceConfig 决定单个字体源从哪里获取、获取后如何拆包。
type SourceConfig struct {
	URL     string         `mapstructure:"url"`
	Archive *ArchiveConfig `mapstructure:"archive"`
}

// Config 是 YAML 文件映射的整体结构。
type Config struct {
	Settings Settings                `mapstructure:"settings"`
	Sources  map[string]SourceConfig `mapstructure:"sources"`
}

// HasArchive 表示该字体源下载后是否还需要按成员解包。
func (s SourceConfig) HasArchive() bool {
	return s.Archive != nil
}

// SourceNames 返回按名称排序的字体源列表，保证遍历与日志顺序稳定。
func (c *Config) SourceNames() []string {
	if len(c.Sources) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SourceModes 返回所有字体源的获取模式摘要，例如 roboto:direct、noto:zip。
func SourceModes(c *Config) []string {
	names := c.SourceNames()
	if len(names) == 0 {
		return nil
	}
	result := make([]string, len(names))
	for i, name := range names {
		mode := "direct"
		if src := c.Sources[name]; src.HasArchive() {
			mode = strings.ToLower(strings.TrimSpace(src.Archive.Format))
		}
		result[i] = fmt.Sprintf("%s:%s", name, mode)
	}
	return result
}
