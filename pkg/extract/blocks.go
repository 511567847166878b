package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	textUtils "github.com/shouni/go-utils/text"
)

const (
	MinParagraphLength = 20
	MinHeadingLength   = 3

	// textExtractionTags は本文抽出に使用するHTMLタグを定義します。
	textExtractionTags = "p, h1, h2, h3, h4, h5, h6, li, blockquote"
	contentSelectors   = textExtractionTags + ", table, pre"
)

func parseDocument(html []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}
	return doc, nil
}

// collectBlocks は root 以下の本文要素を DOM 順に走査し、整形済みのテキストブロックを返します。
// strict が true の場合、短い段落や見出しを捨てます。
func collectBlocks(root *goquery.Selection, strict bool) []string {
	var parts []string

	root.Find(contentSelectors).Each(func(i int, s *goquery.Selection) {
		var content string

		switch {
		case s.Is("table"):
			content = processTable(s)
		case s.Is("pre"):
			content = textUtils.NormalizeText(s.Text())
		default:
			content = processGeneralElement(s, strict)
		}

		if content != "" {
			parts = append(parts, content)
		}
	})
	return parts
}

func processGeneralElement(s *goquery.Selection, strict bool) string {
	// ネストした p/li の二重計上を避けるため、本文要素の子孫を持つ要素は子に任せる
	if s.Is("li, blockquote") && s.Find(textExtractionTags).Length() > 0 {
		return ""
	}

	tempSelection := s.Clone()
	tempSelection.Find("pre, table").Remove()

	text := textUtils.NormalizeText(tempSelection.Text())
	if text == "" {
		return ""
	}
	if !strict {
		return text
	}

	length := utf8.RuneCountInString(text)
	if s.Is("h1, h2, h3, h4, h5, h6") {
		if length > MinHeadingLength {
			return text
		}
		return ""
	}
	if s.Is("li") || length > MinParagraphLength {
		return text
	}
	return ""
}

// processTable はテーブルの各行をセルごとに空白区切りで連結します。
func processTable(s *goquery.Selection) string {
	var rows []string
	if caption := textUtils.NormalizeText(s.Find("caption").First().Text()); caption != "" {
		rows = append(rows, caption)
	}
	s.Find("tr").Each(func(rowIndex int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(cellIndex int, cell *goquery.Selection) {
			if text := textUtils.NormalizeText(cell.Text()); text != "" {
				cells = append(cells, text)
			}
		})
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " "))
		}
	})
	return strings.Join(rows, "\n")
}
