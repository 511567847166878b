// Package morph は、トークンを語彙照合用の正規形へ変換する Normalizer を提供します。
package morph

import (
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Normalizer はトークンを正規形に変換します。
// tokenizer.Normalizer と同じメソッドセットを持ちます。
type Normalizer interface {
	Normalize(token string) string
}

// Lower は NFC 正規化と小文字化のみを行う Normalizer です。状態を持たないため並行利用できます。
type Lower struct{}

// Normalize は token を NFC に揃えてから小文字化します。
func (Lower) Normalize(token string) string {
	return strings.ToLower(norm.NFC.String(token))
}

// Serialized は並行安全でない Normalizer を mutex で直列化するラッパーです。
type Serialized struct {
	mu    sync.Mutex
	inner Normalizer
}

// NewSerialized は inner への呼び出しを1つずつ実行する Normalizer を返します。
func NewSerialized(inner Normalizer) *Serialized {
	return &Serialized{inner: inner}
}

func (s *Serialized) Normalize(token string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Normalize(token)
}
