// Package batch は、複数の記事URLを並列に処理し、結果を集約します。
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-jaundice/pkg/types"
)

const (
	// DefaultMaxURLs は1バッチで受け付けるURL数の上限です。
	DefaultMaxURLs = 10
)

// Processor は記事1件を処理します。結果は常に返され、エラーはステータスに含まれます。
// article.Processor が満たします。
type Processor interface {
	Process(ctx context.Context, url string) types.ArticleResult
}

// BatchTooLargeError は受付上限を超えるバッチを示します。
type BatchTooLargeError struct {
	Size  int
	Limit int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("too many urls in request, should be %d or less (got %d)", e.Limit, e.Size)
}

// IsBatchTooLarge は err が BatchTooLargeError であるかを判断します。
func IsBatchTooLarge(err error) bool {
	var tooLarge *BatchTooLargeError
	return errors.As(err, &tooLarge)
}

// Config は Runner の設定です。
type Config struct {
	// MaxURLs が0以下の場合は上限を設けません。
	MaxURLs int
	// Concurrency は同時に処理する記事数の上限です。0以下なら全件を同時に処理します。
	Concurrency int
	Logger      *zap.Logger
}

// DefaultConfig は推奨されるデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{MaxURLs: DefaultMaxURLs}
}

// Runner はバッチ内の各URLを独立したゴルーチンで処理します。
// 1件の失敗や期限切れが他の記事の処理を中断することはありません。
type Runner struct {
	processor   Processor
	maxURLs     int
	concurrency int
	logger      *zap.Logger
}

// NewRunner は Runner を生成します。
func NewRunner(processor Processor, cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		processor:   processor,
		maxURLs:     cfg.MaxURLs,
		concurrency: cfg.Concurrency,
		logger:      logger,
	}
}

// MaxURLs は受付上限を返します。0 は無制限を表します。
func (r *Runner) MaxURLs() int {
	return r.maxURLs
}

// Run は urls を並列に処理し、入力1件につきちょうど1件の結果を返します。
// 結果は完了順です。重複したURLもそれぞれ処理されます。
// エラーを返すのは受付上限を超えた場合のみで、そのときは何も処理しません。
func (r *Runner) Run(ctx context.Context, urls []string) ([]types.ArticleResult, error) {
	if r.maxURLs > 0 && len(urls) > r.maxURLs {
		return nil, &BatchTooLargeError{Size: len(urls), Limit: r.maxURLs}
	}
	if len(urls) == 0 {
		return []types.ArticleResult{}, nil
	}

	logger := r.logger.With(zap.String("batch_id", uuid.NewString()), zap.Int("size", len(urls)))
	logger.Info("バッチ処理を開始します", zap.Int("concurrency", r.concurrency))

	// 全件が同時に書き込めるだけのバッファを持たせ、送信でブロックしないようにする
	resultsChan := make(chan types.ArticleResult, len(urls))

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for _, u := range urls {
		g.Go(func() error {
			resultsChan <- r.processOne(ctx, u)
			return nil
		})
	}

	// Process はエラーを返さないため、Wait は全件の完了を待つためだけに使う
	_ = g.Wait()
	close(resultsChan)

	results := make([]types.ArticleResult, 0, len(urls))
	counts := make(map[types.Status]int)
	for res := range resultsChan {
		counts[res.Status]++
		results = append(results, res)
	}

	logger.Info("バッチ処理が完了しました",
		zap.Int("ok", counts[types.StatusOK]),
		zap.Int("failed", len(results)-counts[types.StatusOK]),
	)
	return results, nil
}

// processOne は Processor がパニックした場合も結果を1件返します。
func (r *Runner) processOne(ctx context.Context, url string) (res types.ArticleResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			res = types.Failed(url, types.StatusInternalError, fmt.Errorf("パニックが発生しました: %v", rec), time.Since(start))
		}
	}()
	return r.processor.Process(ctx, url)
}
