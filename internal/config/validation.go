package config

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/fontload/fontload/internal/archive"
)

// Validate 针对语义级别做进一步校验，防止非法配置进入下载流程。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	s := c.Settings
	if strings.TrimSpace(s.FontsDir) == "" {
		return newFieldError("settings.fonts_dir", "不能为空（也可通过 --data 指定）")
	}
	if s.Timeout.DurationValue() <= 0 {
		return newFieldError("settings.timeout", "必须大于 0")
	}
	if s.BuilderTimeout.DurationValue() < 0 {
		return newFieldError("settings.builder_timeout", "不能为负数")
	}
	if len(s.Builder) == 0 || strings.TrimSpace(s.Builder[0]) == "" {
		return newFieldError("settings.builder", "构建命令不能为空")
	}
	if s.LogMaxSize <= 0 {
		return newFieldError("settings.log_max_size", "必须大于 0")
	}
	if s.LogMaxBackups < 0 {
		return newFieldError("settings.log_max_backups", "不能为负数")
	}

	if len(c.Sources) == 0 {
		return errors.New("至少需要配置一个字体源")
	}

	for _, name := range c.SourceNames() {
		src := c.Sources[name]
		if err := validateSourceName(name); err != nil {
			return fmt.Errorf("%s: %w", sourceField(name, "name"), err)
		}
		if err := validateSourceURL(src.URL); err != nil {
			return fmt.Errorf("%s: %w", sourceField(name, "url"), err)
		}
		if src.Archive == nil {
			continue
		}

		format := strings.ToLower(strings.TrimSpace(src.Archive.Format))
		if format == "" {
			return newFieldError(sourceField(name, "archive.format"), "不能为空")
		}
		if _, ok := archive.Resolve(format); !ok {
			return newFieldError(sourceField(name, "archive.format"), "仅支持 "+strings.Join(archive.Formats(), "|"))
		}
		src.Archive.Format = format

		if len(src.Archive.Files) == 0 {
			return newFieldError(sourceField(name, "archive.files"), "不能为空")
		}
		for _, member := range src.Archive.Files {
			if strings.TrimSpace(member) == "" {
				return newFieldError(sourceField(name, "archive.files"), "成员路径不能为空")
			}
		}
	}

	return nil
}

func validateSourceName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("名称不能为空")
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.New("名称不允许包含路径分隔符")
	}
	if name == "." || name == ".." {
		return errors.New("名称不允许是相对路径")
	}
	return nil
}

func validateSourceURL(raw string) error {
	if raw == "" {
		return errors.New("缺少下载地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch parsed.Scheme {
	case "http", "https":
		if parsed.Host == "" {
			return fmt.Errorf("地址缺少 Host: %s", raw)
		}
	case "file":
		if parsed.Path == "" {
			return fmt.Errorf("地址缺少文件路径: %s", raw)
		}
	default:
		return fmt.Errorf("仅支持 http/https/file，地址: %s", raw)
	}
	if base := path.Base(parsed.Path); base == "." || base == "/" {
		return fmt.Errorf("地址缺少文件名: %s", raw)
	}
	return nil
}
