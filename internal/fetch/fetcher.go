package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
)

// Outcome 描述一次新鲜度对账的结论。
type Outcome int

const (
	// OutcomeFresh 表示拿到了新内容，需要落盘并重新构建。
	OutcomeFresh Outcome = iota
	// OutcomeCached 表示按 --no-update 策略直接复用本地缓存，未接触传输层。
	OutcomeCached
	// OutcomeUnchanged 表示来源确认内容未变化，缓存仍然有效。
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFresh:
		return "fresh"
	case OutcomeCached:
		return "cached"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Mode 汇总影响新鲜度判定的开关，由命令行传入。
type Mode struct {
	// Force 无条件重新下载，不携带新鲜度标记。
	Force bool
	// NoUpdate 已有完整缓存条目时不接触传输层。
	NoUpdate bool
}

// Request 描述一次对账的输入：来源地址、已存标记与缓存占位情况。
type Request struct {
	Name     string
	URL      *url.URL
	Token    string
	HasEntry bool
}

// Result 携带对账结论；仅 OutcomeFresh 时 Content 非空。
type Result struct {
	Outcome Outcome
	Content []byte
	Token   string
}

// StatusError 表示来源返回了既非成功也非未修改的状态码。
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// Fetcher 只做纯粹的新鲜度对账，不读写任何持久状态，结果由调用方落盘。
// file 与 http(s) 两种来源共用同一份判定逻辑，差异只在传输层。
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New 构造 Fetcher；client 不能为空，userAgent 为空时不设置请求头。
func New(client *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
	}
}

// Fetch 按模式完成一次来源对账：
//  1. NoUpdate 且本地存在完整条目时直接报告 OutcomeCached，不接触传输层；
//  2. 否则按 URL scheme 选择传输方式执行条件获取；
//  3. Force 时省略新鲜度标记，来源必然返回新内容。
func (f *Fetcher) Fetch(ctx context.Context, req Request, mode Mode) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if req.URL == nil {
		return nil, errors.New("source url required")
	}

	if mode.NoUpdate && req.HasEntry {
		return &Result{Outcome: OutcomeCached, Token: req.Token}, nil
	}

	switch req.URL.Scheme {
	case "file":
		return f.fetchLocal(req, mode)
	case "http", "https":
		return f.fetchRemote(ctx, req, mode)
	default:
		return nil, fmt.Errorf("unsupported url scheme: %s", req.URL.Scheme)
	}
}

// fetchLocal 以文件修改时间（纳秒整数）作为新鲜度标记，精确字符串匹配判定未变化。
func (f *Fetcher) fetchLocal(req Request, mode Mode) (*Result, error) {
	localPath := req.URL.Path
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("stat local source: %w", err)
	}

	token := strconv.FormatInt(info.ModTime().UnixNano(), 10)
	if !mode.Force && req.Token != "" && req.Token == token {
		return &Result{Outcome: OutcomeUnchanged, Token: req.Token}, nil
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read local source: %w", err)
	}
	return &Result{Outcome: OutcomeFresh, Content: content, Token: token}, nil
}

// fetchRemote 发送条件 GET；200 视为新内容并逐字记录 Last-Modified，
// 304 视为未变化，其余状态返回 StatusError 交由调用方按单源失败处理。
func (f *Fetcher) fetchRemote(ctx context.Context, req Request, mode Mode) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL.String(), http.NoBody)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}
	if !mode.Force && req.Token != "" {
		httpReq.Header.Set("If-Modified-Since", req.Token)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		content, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		return &Result{
			Outcome: OutcomeFresh,
			Content: content,
			Token:   resp.Header.Get("Last-Modified"),
		}, nil
	case http.StatusNotModified:
		return &Result{Outcome: OutcomeUnchanged, Token: req.Token}, nil
	default:
		return nil, &StatusError{URL: req.URL.String(), Status: resp.StatusCode}
	}
}
