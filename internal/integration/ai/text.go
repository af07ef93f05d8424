package ai

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// ErrUnsupportedFormat 只支持 pdf / docx / txt
var ErrUnsupportedFormat = errors.New("unsupported cv format")

// ErrNoText 文件里抽不出文字（扫描件等）
var ErrNoText = errors.New("no text in document")

// ExtractText 按扩展名抽取简历文本
func ExtractText(fileName string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(path.Ext(fileName)) {
	case ".pdf":
		text, err = pdfText(data)
	case ".docx":
		text, err = docxText(data)
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: invalid utf-8", fileName)
		}
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path.Ext(fileName))
	}
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func pdfText(data []byte) (string, error) {
	r, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	n, err := r.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("pdf pages: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= n; i++ {
		page, err := r.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		t, err := ex.ExtractText()
		if err != nil || t == "" {
			continue
		}
		b.WriteString(t)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

var (
	xmlParagraph = regexp.MustCompile(`</w:p>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

func docxText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer r.Close()
	return stripXML(r.Editable().GetContent()), nil
}

// stripXML document.xml 转纯文本，段落换行
func stripXML(s string) string {
	s = xmlParagraph.ReplaceAllString(s, "\n")
	s = xmlTag.ReplaceAllString(s, "")
	s = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'").Replace(s)
	return blankLines.ReplaceAllString(s, "\n\n")
}
