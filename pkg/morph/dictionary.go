package morph

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Dictionary は語形から見出し語 (lemma) への対応表に基づく Normalizer です。
// 表にない語は Lower と同じ処理のみを受けます。構築後は読み取り専用です。
type Dictionary struct {
	lemmas map[string]string
}

// NewDictionary は forms (語形 -> 見出し語) から Dictionary を構築します。
// キーと値はいずれも Lower で正規化されて格納されます。
func NewDictionary(forms map[string]string) *Dictionary {
	lemmas := make(map[string]string, len(forms))
	for form, lemma := range forms {
		form = Lower{}.Normalize(strings.TrimSpace(form))
		lemma = Lower{}.Normalize(strings.TrimSpace(lemma))
		if form == "" || lemma == "" {
			continue
		}
		lemmas[form] = lemma
	}
	return &Dictionary{lemmas: lemmas}
}

// LoadDictionary は「語形<TAB>見出し語」形式のファイルを読み込みます。
// 空行と # で始まる行は無視されます。
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("形態素辞書を開けません: %w", err)
	}
	defer f.Close()

	forms := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		form, lemma, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("形態素辞書の形式が不正です (%s:%d): タブ区切りではありません", path, lineNo)
		}
		forms[form] = lemma
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("形態素辞書の読み込みに失敗しました (%s): %w", path, err)
	}

	return NewDictionary(forms), nil
}

// Normalize は token の見出し語を返します。辞書にない場合は小文字化した token を返します。
func (d *Dictionary) Normalize(token string) string {
	lowered := Lower{}.Normalize(token)
	if lemma, ok := d.lemmas[lowered]; ok {
		return lemma
	}
	return lowered
}

// Len は登録されている語形の数を返します。
func (d *Dictionary) Len() int {
	return len(d.lemmas)
}
