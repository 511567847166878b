// Package article は、1件の記事URLに対する取得・抽出・分割・採点の処理を提供します。
package article

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shouni/go-jaundice/pkg/charge"
	"github.com/shouni/go-jaundice/pkg/extract"
	"github.com/shouni/go-jaundice/pkg/types"
)

// DefaultTimeout は取得から分割までを含む、記事1件あたりの持ち時間です。
const DefaultTimeout = 3 * time.Second

// Fetcher はHTMLのバイト列を取得します。httpclient.Client が満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Extractor はHTMLから本文を取り出します。本文がない場合は extract.ErrNotAnArticle をラップして返します。
type Extractor interface {
	ExtractText(pageURL string, html []byte) (string, error)
}

// Splitter は本文を有意語のリストに分割します。tokenizer.Tokenizer が満たします。
type Splitter interface {
	Split(ctx context.Context, text string) ([]string, error)
}

// Config は Processor の依存関係です。Fetcher, Extractor, Splitter, Vocabulary は必須です。
type Config struct {
	Fetcher    Fetcher
	Extractor  Extractor
	Splitter   Splitter
	Vocabulary *charge.Vocabulary
	// Timeout が0以下の場合は DefaultTimeout を使います。
	Timeout time.Duration
	// Limiter は取得前に待機するレートリミッターです。nil なら待機しません。
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// Processor は記事1件の処理を行います。共有される依存はすべて読み取り専用か並行安全であり、
// 同時に複数のゴルーチンから Process を呼び出せます。
type Processor struct {
	fetcher   Fetcher
	extractor Extractor
	splitter  Splitter
	vocab     *charge.Vocabulary
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// New は Processor を生成します。
func New(cfg Config) (*Processor, error) {
	switch {
	case cfg.Fetcher == nil:
		return nil, errors.New("article.New: Fetcher が指定されていません")
	case cfg.Extractor == nil:
		return nil, errors.New("article.New: Extractor が指定されていません")
	case cfg.Splitter == nil:
		return nil, errors.New("article.New: Splitter が指定されていません")
	case cfg.Vocabulary == nil:
		return nil, errors.New("article.New: Vocabulary が指定されていません")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		fetcher:   cfg.Fetcher,
		extractor: cfg.Extractor,
		splitter:  cfg.Splitter,
		vocab:     cfg.Vocabulary,
		timeout:   timeout,
		limiter:   cfg.Limiter,
		logger:    logger,
	}, nil
}

// Timeout は記事1件あたりの持ち時間を返します。
func (p *Processor) Timeout() time.Duration {
	return p.timeout
}

// stage は処理の段階です。失敗の分類に用います。
type stage int

const (
	stageFetching stage = iota
	stageExtracting
	stageTokenizing
	stageScoring
)

func (s stage) String() string {
	switch s {
	case stageFetching:
		return "fetching"
	case stageExtracting:
		return "extracting"
	case stageTokenizing:
		return "tokenizing"
	case stageScoring:
		return "scoring"
	}
	return "unknown"
}

// stageError は失敗した段階と原因を保持します。
type stageError struct {
	stage stage
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() error {
	return e.err
}

// Process は url を処理して結果を返します。失敗はすべて結果のステータスとして表現され、
// パニックも INTERNAL_ERROR として回収されます。入力された url は結果にそのまま残ります。
func (p *Processor) Process(ctx context.Context, url string) (result types.ArticleResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = types.Failed(url, types.StatusInternalError, fmt.Errorf("パニックが発生しました: %v", r), time.Since(start))
		}
		p.logResult(result)
	}()

	taskCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	score, wordCount, elapsed, err := p.timed(start, func() (float64, int, error) {
		return p.run(taskCtx, url)
	})
	if err != nil {
		return types.Failed(url, classify(taskCtx, err), err, elapsed)
	}
	return types.Succeeded(url, score, wordCount, elapsed)
}

// timed は fn を実行し、start からの経過時間を結果と一緒に返します。
func (p *Processor) timed(start time.Time, fn func() (float64, int, error)) (float64, int, time.Duration, error) {
	score, wordCount, err := fn()
	return score, wordCount, time.Since(start), err
}

// run は Fetching → Extracting → Tokenizing → Scoring を順に実行します。
func (p *Processor) run(ctx context.Context, url string) (float64, int, error) {
	// 1. 取得 (レートリミットの待機も持ち時間に含む)
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			// 待機が持ち時間を超える場合も期限切れとして扱う
			return 0, 0, &stageError{stage: stageFetching, err: fmt.Errorf("レートリミットの待機が持ち時間を超えます (%v): %w", err, context.DeadlineExceeded)}
		}
	}
	html, err := p.fetcher.FetchBytes(ctx, url)
	if err != nil {
		return 0, 0, &stageError{stage: stageFetching, err: err}
	}

	// 2. 本文抽出
	if err := ctx.Err(); err != nil {
		return 0, 0, &stageError{stage: stageExtracting, err: err}
	}
	text, err := p.extractor.ExtractText(url, html)
	if err != nil {
		return 0, 0, &stageError{stage: stageExtracting, err: err}
	}

	// 3. 分割
	words, err := p.splitter.Split(ctx, text)
	if err != nil {
		return 0, 0, &stageError{stage: stageTokenizing, err: err}
	}

	// 4. 採点
	return charge.Score(words, p.vocab), len(words), nil
}

// classify はエラーをステータスに変換します。分類はこの関数でのみ行われます。
func classify(taskCtx context.Context, err error) types.Status {
	// 1. 記事の持ち時間切れ (または呼び出し元によるキャンセル)
	if taskCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return types.StatusTimeout
	}

	var se *stageError
	if !errors.As(err, &se) {
		return types.StatusInternalError
	}

	switch se.stage {
	case stageFetching:
		return types.StatusFetchError
	case stageExtracting:
		if extract.IsNotAnArticle(err) {
			return types.StatusParsingError
		}
	}
	return types.StatusInternalError
}

func (p *Processor) logResult(res types.ArticleResult) {
	fields := []zap.Field{
		zap.String("url", res.URL),
		zap.String("status", res.Status.String()),
		zap.Duration("elapsed", res.Elapsed),
	}

	if res.Status == types.StatusOK {
		p.logger.Debug("記事を処理しました", append(fields, zap.Float64("score", *res.Score), zap.Int("word_count", *res.WordCount))...)
		return
	}
	p.logger.Warn("記事の処理に失敗しました", append(fields, zap.String("error", res.Error))...)
}
