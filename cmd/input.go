package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
)

// collectURLs は --urls の値、なければ r から1行1件でURLを集め、スキームを補完します。
// 検証に失敗したURLも入力のまま返します。
func collectURLs(flagValue string, r io.Reader) ([]string, error) {
	var raw []string

	if flagValue != "" {
		raw = strings.Split(flagValue, ",")
	} else {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			raw = append(raw, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("標準入力の読み取りエラー: %w", err)
		}
	}

	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		withScheme, err := ensureScheme(u)
		if err != nil {
			// 不正なURLもバッチに残し、取得エラーとして結果に載せる
			log.Printf("警告: %v", err)
			withScheme = u
		}
		urls = append(urls, withScheme)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("処理対象のURLが一つも指定されていません")
	}
	return urls, nil
}
