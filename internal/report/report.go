// Package report は記事の処理結果をテキストやJSONに整形します。
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shouni/go-jaundice/pkg/types"
)

const separator = "-------------------------------"

// WriteText は結果を人間向けのテキストとして w に書き出します。
func WriteText(w io.Writer, results []types.ArticleResult) error {
	var b strings.Builder
	okCount := 0

	for _, res := range results {
		fmt.Fprintf(&b, "URL: %s\n", res.URL)
		fmt.Fprintf(&b, "ステータス: %s (%s)\n", res.Status, res.Status.Label())

		if res.Status == types.StatusOK {
			okCount++
			fmt.Fprintf(&b, "評価: %.2f\n", *res.Score)
			fmt.Fprintf(&b, "単語数: %d\n", *res.WordCount)
		} else {
			b.WriteString("評価: -\n")
			b.WriteString("単語数: -\n")
		}
		fmt.Fprintf(&b, "読み込み時間: %.2f 秒\n", res.ElapsedSeconds())
		if res.Error != "" {
			fmt.Fprintf(&b, "エラー: %s\n", res.Error)
		}
		b.WriteString(separator + "\n")
	}
	fmt.Fprintf(&b, "完了: 成功 %d 件, 失敗 %d 件\n", okCount, len(results)-okCount)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON は結果をJSON配列として w に書き出します。
func WriteJSON(w io.Writer, results []types.ArticleResult) error {
	if results == nil {
		results = []types.ArticleResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("結果のJSON変換に失敗しました: %w", err)
	}
	return nil
}
