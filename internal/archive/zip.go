package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func init() {
	MustRegister("zip", zipExtractor{})
}

// zipExtractor 从内存中的 zip 数据里解出配置声明的成员，保留成员自身的相对路径。
type zipExtractor struct{}

func (zipExtractor) Extract(data []byte, members []string, destDir string) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}

	for _, member := range members {
		file := findMember(reader, member)
		if file == nil {
			return fmt.Errorf("archive member not found: %s", member)
		}
		if err := extractFile(file, member, destDir); err != nil {
			return err
		}
	}
	return nil
}

func findMember(reader *zip.Reader, member string) *zip.File {
	for _, file := range reader.File {
		if file.Name == member {
			return file
		}
	}
	return nil
}

func extractFile(file *zip.File, member, destDir string) error {
	target := filepath.Join(destDir, filepath.FromSlash(member))
	if !strings.HasPrefix(target, destDir+string(os.PathSeparator)) {
		return fmt.Errorf("invalid archive member path: %s", member)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create member directory: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive member %s: %w", member, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create member file: %w", err)
	}

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil {
		return fmt.Errorf("extract archive member %s: %w", member, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("extract archive member %s: %w", member, closeErr)
	}
	return nil
}
