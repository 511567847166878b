package charge

import (
	"math"
	"strings"
)

// Vocabulary は誇張語 (charged word) の不変集合です。
// 構築後は読み取り専用のため、複数のゴルーチンから同期なしで参照できます。
type Vocabulary struct {
	words map[string]struct{}
}

// NewVocabulary は与えられた語から Vocabulary を構築します。空白のみの語は無視されます。
func NewVocabulary(words ...string) *Vocabulary {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return &Vocabulary{words: set}
}

// Contains は word が語彙に含まれるかを返します。
func (v *Vocabulary) Contains(word string) bool {
	if v == nil {
		return false
	}
	_, ok := v.words[word]
	return ok
}

// Len は語彙の語数を返します。
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.words)
}

// Score は words のうち語彙に含まれる語の割合 (%) を小数点以下2桁に丸めて返します。
// words が空の場合は 0 を返します。
func Score(words []string, v *Vocabulary) float64 {
	if len(words) == 0 {
		return 0.0
	}

	hits := 0
	for _, w := range words {
		if v.Contains(w) {
			hits++
		}
	}

	rate := float64(hits) / float64(len(words)) * 100
	return math.Round(rate*100) / 100
}
