package integration

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fontload/fontload/internal/cache"
	"github.com/fontload/fontload/internal/config"
	"github.com/fontload/fontload/internal/convert"
	"github.com/fontload/fontload/internal/fetch"
	"github.com/fontload/fontload/internal/loader"
)

// recordedRequest 捕获上游收到的关键请求信息，便于断言条件请求行为。
type recordedRequest struct {
	Path            string
	IfModifiedSince string
	UserAgent       string
}

// fontUpstream 模拟支持 If-Modified-Since 协商的字体源：
// 请求标记与当前标记一致时返回 304，否则返回正文并带上 Last-Modified。
type fontUpstream struct {
	server *httptest.Server

	mu         sync.Mutex
	bodies     map[string][]byte
	validators map[string]string
	statuses   map[string]int
	requests   []recordedRequest
}

func newFontUpstream(t *testing.T) *fontUpstream {
	t.Helper()

	stub := &fontUpstream{
		bodies:     make(map[string][]byte),
		validators: make(map[string]string),
		statuses:   make(map[string]int),
	}
	stub.server = httptest.NewServer(http.HandlerFunc(stub.handle))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *fontUpstream) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, recordedRequest{
		Path:            r.URL.Path,
		IfModifiedSince: r.Header.Get("If-Modified-Since"),
		UserAgent:       r.Header.Get("User-Agent"),
	})

	if status, ok := s.statuses[r.URL.Path]; ok {
		w.WriteHeader(status)
		return
	}

	body, ok := s.bodies[r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	validator := s.validators[r.URL.Path]
	if ims := r.Header.Get("If-Modified-Since"); ims != "" && ims == validator {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Last-Modified", validator)
	_, _ = w.Write(body)
}

// Serve 注册或更新一个路径的正文与新鲜度标记，可用于模拟上游内容变更。
func (s *fontUpstream) Serve(path string, body []byte, validator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[path] = append([]byte(nil), body...)
	s.validators[path] = validator
}

// ServeStatus 让指定路径固定返回某个状态码。
func (s *fontUpstream) ServeStatus(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[path] = status
}

// URL 拼出该路径的完整来源地址。
func (s *fontUpstream) URL(path string) string {
	return s.server.URL + path
}

// Requests 返回按到达顺序排列的请求副本。
func (s *fontUpstream) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

// RequestCount 统计某路径被请求的次数。
func (s *fontUpstream) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, req := range s.requests {
		if req.Path == path {
			count++
		}
	}
	return count
}

// runEnv 组装一次端到端运行所需的全部组件，fonts_dir 为独立临时目录。
// 各场景共用同一个 env 以模拟多次 CLI 调用之间的磁盘状态延续。
type runEnv struct {
	t        *testing.T
	fontsDir string
	cfg      *config.Config
	store    cache.Store
	fetcher  *fetch.Fetcher
	logBuf   *bytes.Buffer
	logger   *logrus.Logger
}

func newRunEnv(t *testing.T, sources map[string]config.SourceConfig) *runEnv {
	t.Helper()

	fontsDir := t.TempDir()
	cfg := &config.Config{
		Settings: config.Settings{
			FontsDir: fontsDir,
			Timeout:  config.Duration(5 * time.Second),
		},
		Sources: sources,
	}

	store, err := cache.NewStore(fontsDir)
	if err != nil {
		t.Fatalf("store init error: %v", err)
	}

	logBuf := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(logBuf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &runEnv{
		t:        t,
		fontsDir: fontsDir,
		cfg:      cfg,
		store:    store,
		fetcher:  fetch.New(fetch.NewClient(cfg), "fontload-integration"),
		logBuf:   logBuf,
		logger:   logger,
	}
}

// run 以给定开关执行一次完整运行，对应一次 CLI 调用。
func (e *runEnv) run(opts loader.Options) error {
	e.t.Helper()

	runner, err := loader.New(e.cfg, e.fetcher, e.store, glyphCopyBuilder(e.t), e.logger, opts)
	if err != nil {
		e.t.Fatalf("loader init error: %v", err)
	}
	return runner.Run(context.Background())
}

func (e *runEnv) logContains(substr string) bool {
	return strings.Contains(e.logBuf.String(), substr)
}

// glyphCopyBuilder 用 /bin/sh 充当真实的外部字形构建命令，
// 把字体文件复制为工作目录下的 glyphs.pbf，便于断言构建输入。
func glyphCopyBuilder(t *testing.T) *convert.GlyphBuilder {
	t.Helper()

	builder, err := convert.NewGlyphBuilder([]string{"/bin/sh", "-c", `cp "$0" "$1/glyphs.pbf"`}, 0)
	if err != nil {
		t.Fatalf("builder init error: %v", err)
	}
	return builder
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func fileMissing(t *testing.T, path string) bool {
	t.Helper()

	_, err := os.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}
