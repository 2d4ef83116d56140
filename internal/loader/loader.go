package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fontload/fontload/internal/archive"
	"github.com/fontload/fontload/internal/cache"
	"github.com/fontload/fontload/internal/config"
	"github.com/fontload/fontload/internal/fetch"
	"github.com/fontload/fontload/internal/fontinfo"
	"github.com/fontload/fontload/internal/logging"
)

// Converter 把一个内容文件转换为工作目录下的字形产物，通常由外部构建工具完成。
type Converter interface {
	Convert(ctx context.Context, contentPath, workDir string) error
}

// ConverterFunc 将普通函数适配为 Converter。
type ConverterFunc func(ctx context.Context, contentPath, workDir string) error

// Convert 实现 Converter。
func (f ConverterFunc) Convert(ctx context.Context, contentPath, workDir string) error {
	return f(ctx, contentPath, workDir)
}

// Options 汇总一次运行的行为开关，来自命令行。
type Options struct {
	// Force 无条件重新下载所有源，且未变化时也照常转换。
	Force bool
	// NoUpdate 已有缓存条目的源不接触网络，直接用缓存内容转换。
	NoUpdate bool
	// DeleteCache 转换成功后删除缓存条目。
	DeleteCache bool
}

// Loader 负责 orchestrate “读缓存 → 对账 → 落盘 → 构建字形 → 解包” 的全流程，
// 按名称顺序逐个处理字体源。抓取失败只影响当前源，构建失败中止整个运行。
type Loader struct {
	plans   []SourcePlan
	fetcher *fetch.Fetcher
	store   cache.Store
	conv    Converter
	logger  *logrus.Logger
	opts    Options
	runID   string
}

// New 把配置展开为执行计划并组装 Loader，所有依赖由调用方注入。
func New(
	cfg *config.Config,
	fetcher *fetch.Fetcher,
	store cache.Store,
	conv Converter,
	logger *logrus.Logger,
	opts Options,
) (*Loader, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	plans, err := buildPlans(cfg)
	if err != nil {
		return nil, err
	}

	return &Loader{
		plans:   plans,
		fetcher: fetcher,
		store:   store,
		conv:    conv,
		logger:  logger,
		opts:    opts,
		runID:   uuid.NewString(),
	}, nil
}

// Run 按名称顺序处理全部字体源。单源抓取失败记错误日志后继续，
// 落盘或构建失败返回错误中止运行，上下文取消也会中止。
func (l *Loader) Run(ctx context.Context) error {
	started := time.Now()
	l.logger.WithFields(logrus.Fields{
		"run_id":  l.runID,
		"action":  "run",
		"sources": len(l.plans),
	}).Info("run_started")

	failed := 0
	for _, plan := range l.plans {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := l.processSource(ctx, plan)
		if err != nil {
			return err
		}
		if !ok {
			failed++
		}
	}

	l.logger.WithFields(logrus.Fields{
		"run_id":     l.runID,
		"action":     "run",
		"sources":    len(l.plans),
		"failed":     failed,
		"elapsed_ms": time.Since(started).Milliseconds(),
	}).Info("run_complete")
	return nil
}

// processSource 处理单个字体源。返回值 ok 表示该源是否走完流程；
// 抓取失败在此记录日志并吞掉，只有落盘/构建类错误才作为 error 上抛。
func (l *Loader) processSource(ctx context.Context, plan SourcePlan) (bool, error) {
	started := time.Now()

	entry, err := l.store.Load(ctx, plan.Locator())
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrNotFound):
		entry = nil // miss, continue
	default:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		l.logger.WithError(err).WithFields(l.sourceFields(plan)).Warn("cache_read_failed")
		entry = nil
	}

	token := ""
	if entry != nil {
		token = entry.Token
	}

	result, err := l.fetcher.Fetch(ctx, fetch.Request{
		Name:     plan.Name,
		URL:      plan.URL,
		Token:    token,
		HasEntry: entry != nil,
	}, fetch.Mode{Force: l.opts.Force, NoUpdate: l.opts.NoUpdate})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		fields := l.sourceFields(plan)
		fields["action"] = "fetch"
		fields["elapsed_ms"] = time.Since(started).Milliseconds()
		fields["error"] = err.Error()
		l.logger.WithFields(fields).Error("fetch_failed")
		return false, nil
	}

	content := result.Content
	switch result.Outcome {
	case fetch.OutcomeFresh:
		if err := l.store.Save(ctx, plan.Locator(), &cache.Entry{Content: result.Content, Token: result.Token}); err != nil {
			return false, fmt.Errorf("persist source %s: %w", plan.Name, err)
		}
		fields := l.sourceFields(plan)
		fields["action"] = "download"
		fields["size_bytes"] = len(result.Content)
		fields["elapsed_ms"] = time.Since(started).Milliseconds()
		l.logger.WithFields(fields).Info("download_complete")
	case fetch.OutcomeCached:
		content = entry.Content
		fields := l.sourceFields(plan)
		fields["action"] = "cache"
		l.logger.WithFields(fields).Info("cache_reused")
	case fetch.OutcomeUnchanged:
		if !l.opts.Force {
			fields := l.sourceFields(plan)
			fields["action"] = "import"
			fields["outcome"] = result.Outcome.String()
			l.logger.WithFields(fields).Info("did not require updating")
			return true, nil
		}
		if entry != nil {
			content = entry.Content
		}
	}

	if err := l.importSource(ctx, plan, content); err != nil {
		return false, err
	}

	fields := l.sourceFields(plan)
	fields["action"] = "import"
	fields["outcome"] = result.Outcome.String()
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	l.logger.WithFields(fields).Info("import_complete")

	if l.opts.DeleteCache {
		// 删除失败不升级为运行失败，缓存条目本身仍是完整可用的。
		if err := l.store.Remove(ctx, plan.Locator()); err != nil {
			fields := l.sourceFields(plan)
			fields["action"] = "cache_delete"
			fields["error"] = err.Error()
			l.logger.WithFields(fields).Error("cache_delete_failed")
			return false, nil
		}
	}

	return true, nil
}

// importSource 清空工作目录后运行字形构建，压缩包源再解出配置的成员文件。
func (l *Loader) importSource(ctx context.Context, plan SourcePlan, content []byte) error {
	if plan.Archive == nil {
		l.describeFont(plan, content)
	}

	if err := resetWorkDir(plan.WorkDir); err != nil {
		return fmt.Errorf("prepare work dir for source %s: %w", plan.Name, err)
	}

	contentPath, err := l.store.ContentPath(plan.Locator())
	if err != nil {
		return err
	}
	if err := l.conv.Convert(ctx, contentPath, plan.WorkDir); err != nil {
		return fmt.Errorf("build glyphs for source %s: %w", plan.Name, err)
	}

	if plan.Archive != nil {
		extractor, ok := archive.Resolve(plan.Archive.Format)
		if !ok {
			return fmt.Errorf("source %s: unknown archive format %s", plan.Name, plan.Archive.Format)
		}
		if err := extractor.Extract(content, plan.Archive.Files, plan.WorkDir); err != nil {
			return fmt.Errorf("extract archive for source %s: %w", plan.Name, err)
		}
	}

	return nil
}

// describeFont 尝试解析字体元数据写进日志，解析失败只降级为告警。
func (l *Loader) describeFont(plan SourcePlan, content []byte) {
	sum, err := fontinfo.Describe(content)
	if err != nil {
		l.logger.WithError(err).WithFields(l.sourceFields(plan)).Warn("font_inspect_failed")
		return
	}
	fields := l.sourceFields(plan)
	fields["action"] = "inspect"
	fields["family"] = sum.FamilyName
	fields["glyphs"] = sum.Glyphs
	fields["units_per_em"] = sum.UnitsPerEm
	fields["flavor"] = sum.Flavor
	l.logger.WithFields(fields).Info("font_inspected")
}

func (l *Loader) sourceFields(plan SourcePlan) logrus.Fields {
	return logging.SourceFields(l.runID, plan.Name, plan.URL.String())
}

func resetWorkDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
