// Package pipeline は設定から記事処理の各コンポーネントを組み立てます。
package pipeline

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shouni/go-jaundice/internal/config"
	"github.com/shouni/go-jaundice/pkg/article"
	"github.com/shouni/go-jaundice/pkg/batch"
	"github.com/shouni/go-jaundice/pkg/charge"
	"github.com/shouni/go-jaundice/pkg/extract"
	"github.com/shouni/go-jaundice/pkg/feed"
	"github.com/shouni/go-jaundice/pkg/httpclient"
	"github.com/shouni/go-jaundice/pkg/morph"
	"github.com/shouni/go-jaundice/pkg/tokenizer"
)

// Pipeline は組み立て済みのコンポーネントを保持します。すべてバッチ間で共有できます。
type Pipeline struct {
	Client     *httpclient.Client
	Vocabulary *charge.Vocabulary
	Processor  *article.Processor
	Runner     *batch.Runner
	Feed       *feed.Parser
}

// Build は cfg に従って Pipeline を組み立てます。辞書の読み込み失敗などは起動時エラーとして返します。
func Build(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 1. 誇張語辞書
	vocab, err := charge.LoadVocabulary(cfg.Vocabulary.Path)
	if err != nil {
		return nil, fmt.Errorf("誇張語辞書の読み込みに失敗しました: %w", err)
	}
	logger.Info("誇張語辞書を読み込みました", zap.String("path", cfg.Vocabulary.Path), zap.Int("words", vocab.Len()))

	// 2. 正規化と分割
	normalizer, err := buildNormalizer(cfg.Morph, logger)
	if err != nil {
		return nil, err
	}

	// 3. 取得と抽出
	client := httpclient.New(
		cfg.HTTP.Timeout,
		httpclient.WithUserAgent(cfg.HTTP.UserAgent),
		httpclient.WithMaxBodySize(cfg.HTTP.MaxBodyBytes),
		httpclient.WithLogger(logger.Named("http")),
	).WithMaxRetries(cfg.HTTP.MaxRetries)

	fallback, err := extract.FallbackAdapter(cfg.Extract.Fallback)
	if err != nil {
		return nil, err
	}
	extractor := extract.NewExtractor(extract.WithFallback(fallback))

	// 4. 記事処理とバッチ
	var limiter *rate.Limiter
	if cfg.Batch.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Batch.RatePerSecond), 1)
	}

	processor, err := article.New(article.Config{
		Fetcher:    client,
		Extractor:  extractor,
		Splitter:   tokenizer.New(normalizer),
		Vocabulary: vocab,
		Timeout:    cfg.Batch.ArticleTimeout,
		Limiter:    limiter,
		Logger:     logger.Named("article"),
	})
	if err != nil {
		return nil, err
	}

	runner := batch.NewRunner(processor, batch.Config{
		MaxURLs:     cfg.Batch.MaxURLs,
		Concurrency: cfg.Batch.Concurrency,
		Logger:      logger.Named("batch"),
	})

	return &Pipeline{
		Client:     client,
		Vocabulary: vocab,
		Processor:  processor,
		Runner:     runner,
		Feed:       feed.NewParser(client),
	}, nil
}

func buildNormalizer(cfg config.MorphConfig, logger *zap.Logger) (tokenizer.Normalizer, error) {
	var normalizer tokenizer.Normalizer = morph.Lower{}

	if cfg.Dictionary != "" {
		dict, err := morph.LoadDictionary(cfg.Dictionary)
		if err != nil {
			return nil, err
		}
		logger.Info("形態素辞書を読み込みました", zap.String("path", cfg.Dictionary), zap.Int("forms", dict.Len()))
		normalizer = dict
	}

	if cfg.Serialize {
		normalizer = morph.NewSerialized(normalizer)
	}
	return normalizer, nil
}
