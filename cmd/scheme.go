package cmd

import (
	"fmt"
	"net/url"
	"strings"
)

// ensureScheme は記事URLを検証し、スキームがなければ https:// を補完します。
// "host:port/path" のようなスキームなしの入力もホスト名として扱います。
func ensureScheme(articleURL string) (string, error) {
	raw := strings.TrimSpace(articleURL)

	// 1. スキームの補完 (パース前に行わないと "host:port" がスキームと解釈される)
	switch {
	case strings.HasPrefix(raw, "//"):
		raw = "https:" + raw
	case !strings.Contains(raw, "://"):
		raw = "https://" + raw
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("URLのパースエラー: %w", err)
	}

	// 2. スキームとホストの検証
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("無効なURLスキームです。httpまたはhttpsを指定してください: %s", articleURL)
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("URLにホスト名がありません: %s", articleURL)
	}
	return raw, nil
}
