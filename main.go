package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fontload/fontload/internal/cache"
	"github.com/fontload/fontload/internal/config"
	"github.com/fontload/fontload/internal/convert"
	"github.com/fontload/fontload/internal/fetch"
	"github.com/fontload/fontload/internal/loader"
	"github.com/fontload/fontload/internal/logging"
	"github.com/fontload/fontload/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	dataDir     string
	force       bool
	noUpdate    bool
	deleteCache bool
	verbose     bool
	quiet       bool
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	// 若存在 .env 则加载，便于本地注入 FONTLOAD_CONFIG 等变量。
	_ = godotenv.Load()

	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath, opts.dataDir)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	level := logging.ResolveLevel(opts.verbose, opts.quiet)
	logger := logging.InitLogger(cfg.Settings, level)

	if opts.force && opts.noUpdate {
		logger.WithFields(logrus.Fields{"action": "flags"}).Warn("force_overrides_no_update")
		opts.noUpdate = false
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["sources"] = len(cfg.Sources)
		fields["modes"] = config.SourceModes(cfg)
		fields["fonts_dir"] = cfg.Settings.FontsDir
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// CLI 启动遵循“配置 → 磁盘缓存 → 抓取器 → 构建器 → Loader”顺序，
	// 所有字体源共享同一个 http.Client 与缓存实例。
	store, err := cache.NewStore(cfg.Settings.FontsDir)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化字体目录失败: %v\n", err)
		return 1
	}

	userAgent := cfg.Settings.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	fetcher := fetch.New(fetch.NewClient(cfg), userAgent)

	builder, err := convert.NewGlyphBuilder(cfg.Settings.Builder, cfg.Settings.BuilderTimeout.DurationValue())
	if err != nil {
		fmt.Fprintf(stdErr, "初始化字形构建器失败: %v\n", err)
		return 1
	}

	runner, err := loader.New(cfg, fetcher, store, builder, logger, loader.Options{
		Force:       opts.force,
		NoUpdate:    opts.noUpdate,
		DeleteCache: opts.deleteCache,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "构建执行计划失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["sources"] = len(cfg.Sources)
	fields["modes"] = config.SourceModes(cfg)
	fields["fonts_dir"] = cfg.Settings.FontsDir
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		fields := logging.BaseFields("run", opts.configPath)
		fields["error"] = err.Error()
		logger.WithFields(fields).Error("run_failed")
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("fontload", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts cliOptions
	var configFlag string

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./fonts.yml，可被 FONTLOAD_CONFIG 覆盖）")
	fs.StringVar(&configFlag, "c", "", "--config 的简写")
	fs.StringVar(&opts.dataDir, "data", "", "覆盖 settings.fonts_dir 指定的字体目录")
	fs.StringVar(&opts.dataDir, "D", "", "--data 的简写")
	fs.BoolVar(&opts.force, "force", false, "忽略新鲜度标记，强制重新下载所有源")
	fs.BoolVar(&opts.force, "f", false, "--force 的简写")
	fs.BoolVar(&opts.noUpdate, "no-update", false, "已有缓存条目时不访问网络")
	fs.BoolVar(&opts.deleteCache, "delete-cache", false, "转换成功后删除缓存条目")
	fs.BoolVar(&opts.verbose, "verbose", false, "输出调试级别日志")
	fs.BoolVar(&opts.verbose, "v", false, "--verbose 的简写")
	fs.BoolVar(&opts.quiet, "quiet", false, "只输出告警及以上级别日志")
	fs.BoolVar(&opts.quiet, "q", false, "--quiet 的简写")
	fs.BoolVar(&opts.checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&opts.showVersion, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("FONTLOAD_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = config.DefaultConfigFile
	}
	opts.configPath = path

	return opts, nil
}
