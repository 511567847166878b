package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries は初回試行に加えて行うリトライの回数です。
	DefaultMaxRetries = 3

	InitialBackoffInterval = 500 * time.Millisecond
	MaxBackoffInterval     = 5 * time.Second
)

// Operation はリトライ可能な処理を表す関数です。成功時は nil を返します。
type Operation func() error

// ShouldRetryFunc はエラーを受け取り、そのエラーがリトライ可能かどうかを判定する関数です。
type ShouldRetryFunc func(error) bool

// NotifyFunc はリトライ待機に入る直前に、直前のエラーと待機時間を受け取ります。
type NotifyFunc func(err error, wait time.Duration)

// Config はリトライ動作を設定するための構造体です。
type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Notify は nil でも構いません。
	Notify NotifyFunc
}

// DefaultConfig は推奨されるデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: InitialBackoffInterval,
		MaxInterval:     MaxBackoffInterval,
	}
}

// newBackOffPolicy は cfg と ctx から backoff のポリシーを組み立てます。
// 経過時間による打ち切りは行わず、上限は MaxRetries と ctx の期限のみで決まります。
func newBackOffPolicy(ctx context.Context, cfg Config) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, cfg.MaxRetries), ctx)
}

// Do は指数バックオフとカスタムエラー判定を使用して操作をリトライします。
// shouldRetryFn が false を返したエラーはそのまま返されます。
// ctx の期限切れ/キャンセルで終了した場合、返すエラーは ctx.Err() をラップします。
func Do(ctx context.Context, cfg Config, operationName string, op Operation, shouldRetryFn ShouldRetryFunc) error {
	var (
		lastErr   error
		permanent bool
	)

	retryableOp := func() error {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldRetryFn(err) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}

	var notify backoff.Notify
	if cfg.Notify != nil {
		notify = func(err error, wait time.Duration) { cfg.Notify(err, wait) }
	}

	err := backoff.RetryNotify(retryableOp, newBackOffPolicy(ctx, cfg), notify)
	if err == nil {
		return nil
	}

	// 1. 致命的なエラーは元のエラーをそのまま返す
	if permanent {
		return lastErr
	}

	// 2. 待機中にコンテキストが終了した
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if lastErr != nil && !errors.Is(lastErr, err) {
			return fmt.Errorf("%sに失敗しました: コンテキストタイムアウト/キャンセル (最終エラー: %v): %w", operationName, lastErr, err)
		}
		return fmt.Errorf("%sに失敗しました: コンテキストタイムアウト/キャンセル: %w", operationName, err)
	}

	// 3. リトライ上限に到達した
	return fmt.Errorf("%sに失敗しました: 最大リトライ回数 (%d回) に到達。最終エラー: %w", operationName, cfg.MaxRetries, lastErr)
}
