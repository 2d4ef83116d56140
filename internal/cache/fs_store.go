package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// NewStore 以 basePath 为根目录构建磁盘缓存，一次运行复用一份实例。
func NewStore(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("fonts dir required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve fonts dir: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create fonts dir: %w", err)
	}

	return &fileStore{basePath: abs}, nil
}

// fileStore 将条目平铺在 basePath 下。运行模型是单线程顺序处理，
// 不做跨进程锁，两次并发运行之间的竞态由调用约定排除。
type fileStore struct {
	basePath string
}

func (s *fileStore) Load(ctx context.Context, locator Locator) (*Entry, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	contentPath, err := s.contentPath(locator)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(contentPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	content, err := os.ReadFile(contentPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	token, err := os.ReadFile(contentPath + TokenSuffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &Entry{Content: content, Token: string(token)}, nil
}

func (s *fileStore) Save(ctx context.Context, locator Locator, entry *Entry) error {
	if entry == nil {
		return errors.New("cache entry required")
	}

	contentPath, err := s.contentPath(locator)
	if err != nil {
		return err
	}
	tokenPath := contentPath + TokenSuffix
	dir := filepath.Dir(contentPath)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	contentTemp, err := writeTemp(ctx, dir, entry.Content)
	if err != nil {
		return err
	}
	tokenTemp, err := writeTemp(ctx, dir, []byte(entry.Token))
	if err != nil {
		os.Remove(contentTemp)
		return err
	}

	if err := os.Rename(contentTemp, contentPath); err != nil {
		os.Remove(contentTemp)
		os.Remove(tokenTemp)
		return err
	}
	if err := os.Rename(tokenTemp, tokenPath); err != nil {
		// 标记文件未落盘时退回“无条目”状态，后续运行读不到半条目。
		os.Remove(tokenTemp)
		os.Remove(contentPath)
		return err
	}
	return nil
}

func (s *fileStore) Remove(ctx context.Context, locator Locator) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	contentPath, err := s.contentPath(locator)
	if err != nil {
		return err
	}

	if err := os.Remove(contentPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Remove(contentPath + TokenSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *fileStore) ContentPath(locator Locator) (string, error) {
	return s.contentPath(locator)
}

func (s *fileStore) contentPath(locator Locator) (string, error) {
	name := locator.FileName
	if name == "" {
		return "", errors.New("file name required")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", errors.New("invalid cache file name")
	}
	return filepath.Join(s.basePath, name), nil
}

func writeTemp(ctx context.Context, dir string, data []byte) (string, error) {
	tempFile, err := os.CreateTemp(dir, ".fontload-*")
	if err != nil {
		return "", err
	}
	tempName := tempFile.Name()

	_, err = copyWithContext(ctx, tempFile, bytes.NewReader(data))
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return "", err
	}
	return tempName, nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
