// Package fontinfo 从下载完成的字体字节中提取基础元数据，
// 供导入日志展示字体族名、字形数量等信息。解析失败不影响主流程。
package fontinfo

import (
	"bytes"
	"errors"
	"fmt"

	"seehuhn.de/go/sfnt"
)

// Summary 汇总单个字体文件的元数据。
type Summary struct {
	FamilyName     string
	FullName       string
	PostScriptName string
	Glyphs         int
	UnitsPerEm     uint16
	Flavor         string
}

// Describe 解析 TTF/OTF 字节并返回摘要，数据无效时返回错误。
func Describe(data []byte) (*Summary, error) {
	if len(data) == 0 {
		return nil, errors.New("empty font data")
	}
	font, err := sfnt.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	sum := &Summary{
		FamilyName:     font.FamilyName,
		FullName:       font.FullName(),
		PostScriptName: font.PostScriptName(),
		Glyphs:         font.NumGlyphs(),
		UnitsPerEm:     font.UnitsPerEm,
	}
	switch {
	case font.IsGlyf():
		sum.Flavor = "glyf"
	case font.IsCFF():
		sum.Flavor = "cff"
	default:
		sum.Flavor = "unknown"
	}
	return sum, nil
}
