package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFetcher は Parser.client が依存する Fetcher インターフェースのモックです。
type MockFetcher struct {
	FetchBytesFunc func(ctx context.Context, url string) ([]byte, error)
}

func (m *MockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return m.FetchBytesFunc(ctx, url)
}

const validRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>ИноСМИ</title>
    <link>https://inosmi.ru/</link>
    <item><title>Первая</title><link>https://inosmi.ru/1.html</link></item>
    <item><title>Вторая</title><link>https://inosmi.ru/2.html</link></item>
    <item><title>Дубль</title><link>https://inosmi.ru/1.html</link></item>
    <item><title>Третья</title><link>https://inosmi.ru/3.html</link></item>
  </channel>
</rss>`

func TestFetchAndParse(t *testing.T) {
	ctx := context.Background()
	testURL := "https://inosmi.ru/export/rss2/index.xml"

	tests := []struct {
		name          string
		mockFetchFunc func(ctx context.Context, url string) ([]byte, error)
		expectedTitle string
		errorContains string
	}{
		{
			name: "成功ケース_有効なRSS",
			mockFetchFunc: func(ctx context.Context, url string) ([]byte, error) {
				assert.Equal(t, testURL, url)
				return []byte(validRSS), nil
			},
			expectedTitle: "ИноСМИ",
		},
		{
			name: "エラーケース_フィード取得失敗",
			mockFetchFunc: func(ctx context.Context, url string) ([]byte, error) {
				return nil, errors.New("HTTPエラー: 500 Internal Server Error")
			},
			errorContains: "フィードの取得失敗",
		},
		{
			name: "エラーケース_パース失敗",
			mockFetchFunc: func(ctx context.Context, url string) ([]byte, error) {
				return []byte(`<invalid><tag>`), nil
			},
			errorContains: "RSSフィードのパース失敗",
		},
		{
			name: "エッジケース_空ボディ",
			mockFetchFunc: func(ctx context.Context, url string) ([]byte, error) {
				return []byte(""), nil
			},
			errorContains: "RSSフィードのパース失敗",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(&MockFetcher{FetchBytesFunc: tt.mockFetchFunc})

			feed, err := p.FetchAndParse(ctx, testURL)

			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, feed)
			assert.Equal(t, tt.expectedTitle, feed.Title)
		})
	}
}

func TestArticleLinks(t *testing.T) {
	p := NewParser(&MockFetcher{FetchBytesFunc: func(ctx context.Context, url string) ([]byte, error) {
		return []byte(validRSS), nil
	}})

	t.Run("duplicates removed", func(t *testing.T) {
		links, err := p.ArticleLinks(context.Background(), "https://inosmi.ru/rss", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://inosmi.ru/1.html", "https://inosmi.ru/2.html", "https://inosmi.ru/3.html"}, links)
	})

	t.Run("capped at limit", func(t *testing.T) {
		links, err := p.ArticleLinks(context.Background(), "https://inosmi.ru/rss", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://inosmi.ru/1.html", "https://inosmi.ru/2.html"}, links)
	})
}
