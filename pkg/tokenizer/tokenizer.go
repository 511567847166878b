// Package tokenizer は記事本文を正規化された有意語のリストへ分割します。
package tokenizer

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Normalizer はトークンを見出し語へ変換します。
// 複数のゴルーチンから同時に呼ばれるため、並行安全であるか morph.Serialized で保護されている必要があります。
type Normalizer interface {
	Normalize(token string) string
}

const (
	// minWordLength 以下の長さ (rune 数) の語は捨てられます。
	minWordLength = 2
	// extraPunctuation は string.punctuation 以外にトークン両端から除去する記号です。
	extraPunctuation = "«»…„“”‘’—–"
	asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// shortWordAllowList は短くても保持する語です (否定の «не»)。
var shortWordAllowList = map[string]struct{}{
	"не": {},
}

// Tokenizer は空白分割、句読点除去、正規化、短語除去を行います。
type Tokenizer struct {
	normalizer Normalizer
}

// New は normalizer を用いる Tokenizer を返します。
func New(normalizer Normalizer) *Tokenizer {
	return &Tokenizer{normalizer: normalizer}
}

// Split は text を有意語のリストに分割します。
// 各トークンの処理前に ctx を確認し、期限切れの場合は部分結果を返さず ctx.Err() をラップしたエラーを返します。
func (t *Tokenizer) Split(ctx context.Context, text string) ([]string, error) {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))

	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("トークン分割が中断されました (%d/%d 語処理済み): %w", len(words), len(fields), err)
		}

		cleaned := cleanToken(field)
		if cleaned == "" {
			continue
		}

		normalized := t.normalizer.Normalize(cleaned)
		if isSignificant(normalized) {
			words = append(words, normalized)
		}
	}

	return words, nil
}

// SplitWithin は budget を上限として Split を実行します。
func (t *Tokenizer) SplitWithin(text string, budget time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()
	return t.Split(ctx, text)
}

func cleanToken(token string) string {
	return strings.Trim(token, asciiPunctuation+extraPunctuation)
}

func isSignificant(word string) bool {
	if utf8.RuneCountInString(word) > minWordLength {
		return true
	}
	_, ok := shortWordAllowList[word]
	return ok
}
