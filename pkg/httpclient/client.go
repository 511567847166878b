package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/shouni/go-jaundice/pkg/retry"
)

const (
	// DefaultHTTPTimeout は1リクエストあたりの上限です。記事ごとの期限は呼び出し側の ctx が持ちます。
	DefaultHTTPTimeout = 30 * time.Second
	MaxBodySize        = int64(10 * 1024 * 1024) // 10MB

	// サイトからのブロックを避けるためのUser-Agent
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

	maxErrorBodyInMessage = 1024
)

var (
	// ErrInvalidRequest はリクエストを組み立てられなかったこと (不正なURLなど) を示します。リトライ対象外です。
	ErrInvalidRequest = errors.New("GETリクエスト作成に失敗しました")
	// ErrBodyTooLarge はレスポンスボディが最大サイズを超えたことを示します。リトライ対象外です。
	ErrBodyTooLarge = errors.New("レスポンスボディが最大サイズを超えました")
	// ErrDecode はボディの文字コード変換に失敗したことを示します。リトライ対象外です。
	ErrDecode = errors.New("文字コードの変換に失敗しました")
)

// Doer は *http.Client が満たすインターフェースです。テストではモックに差し替えます。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NonRetryableHTTPError は 2xx/5xx 以外のステータスコード (主に 4xx) を示すカスタムエラー型です。
type NonRetryableHTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *NonRetryableHTTPError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("HTTPクライアントエラー (非リトライ対象): ステータスコード %d, ボディ: %s", e.StatusCode, truncateBody(e.Body))
	}
	return fmt.Sprintf("HTTPクライアントエラー (非リトライ対象): ステータスコード %d, ボディなし", e.StatusCode)
}

// StatusError は 5xx 系のステータスコードを示します。リトライ対象です。
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("HTTPステータスコードエラー (5xx リトライ対象): %d, 詳細: %s", e.StatusCode, truncateBody(e.Body))
	}
	return fmt.Sprintf("HTTPステータスコードエラー (5xx リトライ対象): %d", e.StatusCode)
}

// Client はHTTPリクエストと指数バックオフを用いたリトライロジックを管理します。
// 並行利用可能です。
type Client struct {
	httpClient  Doer
	retryConfig retry.Config
	userAgent   string
	maxBodySize int64
	logger      *zap.Logger
}

// Option は Client の設定を変更します。
type Option func(*Client)

// WithHTTPClient は内部で使用する Doer を差し替えます。
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.httpClient = d }
}

// WithUserAgent は User-Agent ヘッダーを上書きします。空文字列は無視されます。
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodySize はレスポンスボディの最大読み込みサイズを設定します。0以下は無視されます。
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithRetryConfig はリトライ設定全体を置き換えます。
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.retryConfig = cfg }
}

// WithLogger はリトライ発生時のログ出力先を設定します。
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New は、新しいClientを生成します。
func New(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		retryConfig: retry.DefaultConfig(),
		userAgent:   UserAgent,
		maxBodySize: MaxBodySize,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithMaxRetries は最大リトライ回数を設定します。
func (c *Client) WithMaxRetries(max uint64) *Client {
	c.retryConfig.MaxRetries = max
	return c
}

// FetchBytes はURLをGETし、UTF-8にデコードしたレスポンスボディを返します。
// 2xx 以外のステータスはエラーです。ctx の期限切れは実行中のリクエストも中断します。
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	op := func() error {
		var fetchErr error
		body, fetchErr = c.doFetch(ctx, url)
		return fetchErr
	}

	cfg := c.retryConfig
	if cfg.Notify == nil {
		cfg.Notify = func(err error, wait time.Duration) {
			c.logger.Warn("リトライします", zap.String("url", url), zap.Duration("wait", wait), zap.Error(err))
		}
	}

	if err := retry.Do(ctx, cfg, fmt.Sprintf("URL(%s)のフェッチ", url), op, isHTTPRetryableError); err != nil {
		return nil, err
	}
	return body, nil
}

// doFetch は実際の一度のHTTP GETリクエストとボディの読み込みを実行します。
func (c *Client) doFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if (req.URL.Scheme != "http" && req.URL.Scheme != "https") || req.URL.Host == "" {
		return nil, fmt.Errorf("%w: http(s) の絶対URLではありません (%s)", ErrInvalidRequest, url)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		return nil, err
	}

	raw, err := c.readLimited(resp)
	if err != nil {
		return nil, err
	}
	// 空のボディは charset.NewReader が EOF を返すため、そのまま抽出側に渡す
	if len(raw) == 0 {
		return raw, nil
	}

	decoded, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w (文字コードの判定): %v", ErrDecode, err)
	}
	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return body, nil
}

func (c *Client) readLimited(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > c.maxBodySize {
		return nil, fmt.Errorf("%w (%dバイト, Content-Length: %d)", ErrBodyTooLarge, c.maxBodySize, resp.ContentLength)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
	}
	if int64(len(raw)) > c.maxBodySize {
		return nil, fmt.Errorf("%w (%dバイト)", ErrBodyTooLarge, c.maxBodySize)
	}
	return raw, nil
}

// checkResponse はステータスコードを評価し、2xx 以外をエラーに変換します。
// ボディを読み込みますが、閉じるのは呼び出し元の責務です。
func (c *Client) checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	bodyBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyInMessage+1))
	if readErr != nil {
		bodyBytes = nil
	}

	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		return &StatusError{StatusCode: resp.StatusCode, Body: bodyBytes}
	}
	return &NonRetryableHTTPError{StatusCode: resp.StatusCode, Body: bodyBytes}
}

// IsNonRetryableError は与えられたエラーが非リトライ対象のHTTPエラーであるかを判断します。
func IsNonRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var nonRetryable *NonRetryableHTTPError
	return errors.As(err, &nonRetryable)
}

// isHTTPRetryableError はエラーがHTTPリトライ対象かどうかを判定します。
// retry.ShouldRetryFunc 型のシグネチャを満たします。
func isHTTPRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// 1. 期限切れ/キャンセルは記事の持ち時間を使い切ったことを意味するため、リトライしない
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// 2. 非リトライ対象エラー (4xx や不正なURL) はリトライしない
	if IsNonRetryableError(err) || errors.Is(err, ErrInvalidRequest) {
		return false
	}

	// 3. サイズ超過と文字コード変換の失敗は再取得しても変わらない
	if errors.Is(err, ErrBodyTooLarge) || errors.Is(err, ErrDecode) {
		return false
	}

	// 4. 5xx とネットワークエラーはリトライ対象
	return true
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyInMessage {
		return strings.ToValidUTF8(s[:maxErrorBodyInMessage], "") + "..."
	}
	return s
}
