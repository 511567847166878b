package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	textUtils "github.com/shouni/go-utils/text"
)

const (
	inosmiArticleSelector = "article.article"
	inosmiNoiseSelectors  = ".article-disclaimer, .article__info, .article__tags, .article__aside, footer, aside, script, style, noscript, form"

	mainContentSelectors = "article, main, div[role='main'], #main, #content, .post-content, .article-body, .entry-content"
	noiseSelectors       = ".related-posts, .social-share, .comments, .ad-banner, .advertisement, script, style, noscript"
	pageChromeSelectors  = "header, footer, nav, aside, .sidebar, form"
)

// InosmiAdapter は inosmi.ru の記事ページ用です。
// 記事はちょうど1つの article.article 要素でなければなりません。
type InosmiAdapter struct{}

func (InosmiAdapter) Sanitize(html []byte, pageURL *url.URL) (string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return "", err
	}

	articles := doc.Find(inosmiArticleSelector)
	if n := articles.Length(); n != 1 {
		return "", fmt.Errorf("%w: %s が %d 件見つかりました (%s)", ErrNotAnArticle, inosmiArticleSelector, n, pageURL)
	}

	articles.Find(inosmiNoiseSelectors).Remove()

	parts := collectBlocks(articles, false)
	if len(parts) == 0 {
		// p などの子を持たない記事はテキスト全体を本文とする
		if text := textUtils.NormalizeText(articles.Text()); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: 記事要素が空です (%s)", ErrNotAnArticle, pageURL)
	}
	return strings.Join(parts, "\n\n"), nil
}

// HeuristicAdapter は一般的なメインコンテンツのセレクタから本文を推定します。
type HeuristicAdapter struct{}

func (HeuristicAdapter) Sanitize(html []byte, pageURL *url.URL) (string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return "", err
	}

	// 1. メインコンテンツの特定
	mainContent := doc.Find(mainContentSelectors).First()
	if mainContent.Length() == 0 {
		body := doc.Find("body")
		body.Find(pageChromeSelectors).Remove()
		mainContent = body
	}

	// 2. ノイズ要素の除去
	mainContent.Find(noiseSelectors).Remove()

	// 3. 本文ブロックの収集 (短い断片は本文と見なさない)
	parts := collectBlocks(mainContent, true)
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: 本文と見なせる要素がありません (%s)", ErrNotAnArticle, pageURL)
	}
	return strings.Join(parts, "\n\n"), nil
}

// ReadabilityAdapter は Mozilla Readability のアルゴリズムで本文を抽出します。
type ReadabilityAdapter struct{}

func (ReadabilityAdapter) Sanitize(html []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(html), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: readability による解析に失敗しました: %v", ErrNotAnArticle, err)
	}

	text := textUtils.NormalizeText(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("%w: readability が本文を検出できませんでした (%s)", ErrNotAnArticle, pageURL)
	}
	return text, nil
}
