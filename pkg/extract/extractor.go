package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotAnArticle は、ページ内に記事本文が見つからなかったことを示します。
var ErrNotAnArticle = errors.New("記事本文が見つかりません")

// IsNotAnArticle は err が ErrNotAnArticle をラップしているかを判断します。
func IsNotAnArticle(err error) bool {
	return errors.Is(err, ErrNotAnArticle)
}

// Adapter は1つのサイト (またはサイト群) のHTMLからプレーンテキストの本文を取り出します。
// 本文を特定できない場合は ErrNotAnArticle をラップしたエラーを返します。
type Adapter interface {
	Sanitize(html []byte, pageURL *url.URL) (string, error)
}

// AdapterFunc は関数を Adapter として扱うためのアダプターです。
type AdapterFunc func(html []byte, pageURL *url.URL) (string, error)

func (f AdapterFunc) Sanitize(html []byte, pageURL *url.URL) (string, error) {
	return f(html, pageURL)
}

// Extractor は、ホスト名に応じて Adapter を選び、本文を抽出します。
// 構築後は読み取り専用のため並行利用できます。
type Extractor struct {
	adapters map[string]Adapter
	fallback Adapter
}

// Option は Extractor の設定を変更します。
type Option func(*Extractor)

// WithAdapter は host (およびそのサブドメイン) に対する Adapter を登録します。
func WithAdapter(host string, a Adapter) Option {
	return func(e *Extractor) {
		e.adapters[normalizeHost(host)] = a
	}
}

// WithFallback は登録済みでないホストに用いる Adapter を設定します。nil の場合、未知のホストは記事なしとして扱われます。
func WithFallback(a Adapter) Option {
	return func(e *Extractor) { e.fallback = a }
}

// NewExtractor は、組み込みのサイトアダプターを登録した Extractor を生成します。
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		adapters: map[string]Adapter{
			"inosmi.ru": InosmiAdapter{},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractText は pageURL のHTMLから記事本文のプレーンテキストを抽出します。
func (e *Extractor) ExtractText(pageURL string, html []byte) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("URLの解析に失敗しました (%s): %w", pageURL, err)
	}

	adapter := e.adapterFor(u.Hostname())
	if adapter == nil {
		return "", fmt.Errorf("%w: 対応していないサイトです (%s)", ErrNotAnArticle, u.Hostname())
	}

	text, err := adapter.Sanitize(html, u)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: 本文が空です (%s)", ErrNotAnArticle, pageURL)
	}
	return text, nil
}

// adapterFor は完全一致、親ドメインの順に Adapter を探します。
func (e *Extractor) adapterFor(host string) Adapter {
	host = normalizeHost(host)
	for host != "" {
		if a, ok := e.adapters[host]; ok {
			return a
		}
		_, parent, found := strings.Cut(host, ".")
		if !found || !strings.Contains(parent, ".") {
			break
		}
		host = parent
	}
	return e.fallback
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
}

// Fallback モードの名前です。
const (
	FallbackNone        = "none"
	FallbackHeuristic   = "heuristic"
	FallbackReadability = "readability"
)

// FallbackAdapter は mode に対応する汎用 Adapter を返します。FallbackNone の場合は nil です。
func FallbackAdapter(mode string) (Adapter, error) {
	switch mode {
	case "", FallbackNone:
		return nil, nil
	case FallbackHeuristic:
		return HeuristicAdapter{}, nil
	case FallbackReadability:
		return ReadabilityAdapter{}, nil
	}
	return nil, fmt.Errorf("不明なフォールバックモードです: %q (none|heuristic|readability)", mode)
}
