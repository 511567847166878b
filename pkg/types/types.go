package types

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Status は記事1件の処理結果を表す閉じた列挙型です。
type Status string

const (
	StatusOK            Status = "OK"
	StatusFetchError    Status = "FETCH_ERROR"
	StatusParsingError  Status = "PARSING_ERROR"
	StatusTimeout       Status = "TIMEOUT"
	StatusInternalError Status = "INTERNAL_ERROR"
)

// Valid は s が定義済みのステータスであるかを返します。
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusFetchError, StatusParsingError, StatusTimeout, StatusInternalError:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Label はテキストレポート用の人間向け表記を返します。
func (s Status) Label() string {
	switch s {
	case StatusOK:
		return "成功"
	case StatusFetchError:
		return "取得エラー"
	case StatusParsingError:
		return "記事が見つかりません"
	case StatusTimeout:
		return "タイムアウト"
	case StatusInternalError:
		return "内部エラー"
	}
	return fmt.Sprintf("不明なステータス(%s)", string(s))
}

// ArticleResult は、1つのURLに対する処理結果を保持します。
// Score と WordCount は Status が OK の場合にのみ設定されます。
type ArticleResult struct {
	URL       string        // 入力されたURL (書き換えない)
	Status    Status        // 処理結果
	Score     *float64      // 誇張語の割合 (0〜100)
	WordCount *int          // 有意語の数
	Elapsed   time.Duration // パイプライン内で費やした時間
	Error     string        // 失敗時の詳細
}

// Succeeded は成功結果を生成します。
func Succeeded(url string, score float64, wordCount int, elapsed time.Duration) ArticleResult {
	return ArticleResult{
		URL:       url,
		Status:    StatusOK,
		Score:     &score,
		WordCount: &wordCount,
		Elapsed:   nonNegative(elapsed),
	}
}

// Failed は失敗結果を生成します。StatusOK が渡された場合は内部エラーとして扱います。
func Failed(url string, status Status, err error, elapsed time.Duration) ArticleResult {
	if status == StatusOK || !status.Valid() {
		status = StatusInternalError
	}
	res := ArticleResult{
		URL:     url,
		Status:  status,
		Elapsed: nonNegative(elapsed),
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// ElapsedSeconds は処理時間を秒で返します。
func (r ArticleResult) ElapsedSeconds() float64 {
	return r.Elapsed.Seconds()
}

type articleResultJSON struct {
	URL       string   `json:"url"`
	Status    Status   `json:"status"`
	Score     *float64 `json:"score"`
	WordCount *int     `json:"word_count"`
	LoadTime  float64  `json:"load_time"`
	Error     string   `json:"error,omitempty"`
}

// MarshalJSON は score と word_count を欠損時に null として出力します。
func (r ArticleResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(articleResultJSON{
		URL:       r.URL,
		Status:    r.Status,
		Score:     r.Score,
		WordCount: r.WordCount,
		LoadTime:  math.Round(r.ElapsedSeconds()*100) / 100,
		Error:     r.Error,
	})
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
