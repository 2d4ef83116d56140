package loader

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	"github.com/fontload/fontload/internal/cache"
	"github.com/fontload/fontload/internal/config"
)

// SourcePlan 将字体源配置与派生属性（解析后的 URL、缓存文件名、工作目录）
// 聚合在一起，构建 Loader 时一次算好，处理阶段直接复用，避免重复解析配置。
type SourcePlan struct {
	// Name 是配置中的字体源键名，也是工作目录名。
	Name string
	// URL 在构建计划时提前解析完成。
	URL *url.URL
	// FileName 是缓存内容文件名，取 URL 路径的末段。
	FileName string
	// WorkDir 是字形构建输出目录 <fonts_dir>/<name>，每次转换前清空重建。
	WorkDir string
	// Archive 非空时，下载内容还需按成员解包。
	Archive *config.ArchiveConfig
}

// Locator 返回该计划对应的缓存定位符。
func (p SourcePlan) Locator() cache.Locator {
	return cache.Locator{FileName: p.FileName}
}

// buildPlans 把配置展开为按名称排序的执行计划。
// 两个源的 URL 末段相同会互相覆盖缓存文件，视为配置错误。
func buildPlans(cfg *config.Config) ([]SourcePlan, error) {
	names := cfg.SourceNames()
	plans := make([]SourcePlan, 0, len(names))
	claimed := make(map[string]string, len(names))

	for _, name := range names {
		src := cfg.Sources[name]
		parsed, err := url.Parse(src.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid url for source %s: %w", name, err)
		}

		fileName := path.Base(parsed.Path)
		if owner, exists := claimed[fileName]; exists {
			return nil, fmt.Errorf("duplicate cache file %s claimed by sources %s and %s", fileName, owner, name)
		}
		claimed[fileName] = name

		plans = append(plans, SourcePlan{
			Name:     name,
			URL:      parsed,
			FileName: fileName,
			WorkDir:  filepath.Join(cfg.Settings.FontsDir, name),
			Archive:  src.Archive,
		})
	}

	// 工作目录与缓存文件同处 fonts_dir 下，名字撞上会在清空工作目录时误删缓存。
	for _, plan := range plans {
		if owner, exists := claimed[plan.Name]; exists {
			return nil, fmt.Errorf("work dir of source %s collides with cache file claimed by source %s", plan.Name, owner)
		}
	}

	return plans, nil
}
