package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DefaultConfigFile 是未显式指定配置时使用的文件名。
const DefaultConfigFile = "fonts.yml"

// Load 读取并解析 YAML 配置文件，注入默认值、应用目录覆盖并完成校验。
// fontsDirOverride 非空时优先于 settings.fonts_dir（对应命令行 --data）。
func Load(path, fontsDirOverride string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	if err := rejectLooseFileLists(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applySettingsDefaults(&cfg.Settings)
	if fontsDirOverride != "" {
		cfg.Settings.FontsDir = fontsDirOverride
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(cfg.Settings.FontsDir)
	if err != nil {
		return nil, fmt.Errorf("无法解析字体目录: %w", err)
	}
	cfg.Settings.FontsDir = absDir

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("settings.timeout", "30s")
	v.SetDefault("settings.user_agent", "")
	v.SetDefault("settings.builder", defaultBuilder())
	v.SetDefault("settings.builder_timeout", "0s")
	v.SetDefault("settings.log_file", "")
	v.SetDefault("settings.log_max_size", 100)
	v.SetDefault("settings.log_max_backups", 10)
	v.SetDefault("settings.log_compress", true)
}

func defaultBuilder() []string {
	return []string{"npx", "-p", "fontnik", "build-glyphs"}
}

func applySettingsDefaults(s *Settings) {
	if s.Timeout.DurationValue() == 0 {
		s.Timeout = Duration(30 * time.Second)
	}
	if len(s.Builder) == 0 {
		s.Builder = defaultBuilder()
	}
	if s.LogMaxSize == 0 {
		s.LogMaxSize = 100
	}
	if s.LogMaxBackups == 0 {
		s.LogMaxBackups = 10
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}

// rejectLooseFileLists 拦截把 files 直接写在字体源上的常见笔误，提示移入 archive 配置。
func rejectLooseFileLists(v *viper.Viper) error {
	raw := v.Get("sources")
	sources, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}

	for name, entry := range sources {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if _, exists := m["files"]; exists {
			return newFieldError(sourceField(name, "files"), "字段位置错误，成员列表应写在 archive.files 下")
		}
	}

	return nil
}
