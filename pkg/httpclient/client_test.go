package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"

	"github.com/shouni/go-jaundice/pkg/retry"
)

type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	// 型付きの nil (*http.Response) をモック側で返すこと
	return args.Get(0).(*http.Response), args.Error(1)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

var fastRetry = retry.Config{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestNew(t *testing.T) {
	t.Run("default timeout", func(t *testing.T) {
		client := New(0)
		assert.Equal(t, DefaultHTTPTimeout, client.httpClient.(*http.Client).Timeout)
		assert.Equal(t, UserAgent, client.userAgent)
	})
	t.Run("custom timeout", func(t *testing.T) {
		timeout := 3 * time.Second
		client := New(timeout)
		assert.Equal(t, timeout, client.httpClient.(*http.Client).Timeout)
	})
	t.Run("with options", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		client := New(10*time.Second, WithHTTPClient(mockClient), WithUserAgent("jaundice-test"), WithMaxBodySize(42))
		assert.Equal(t, mockClient, client.httpClient)
		assert.Equal(t, "jaundice-test", client.userAgent)
		assert.Equal(t, int64(42), client.maxBodySize)
	})
}

func TestWithMaxRetries(t *testing.T) {
	client := &Client{retryConfig: retry.Config{}}
	client.WithMaxRetries(5)
	assert.Equal(t, uint64(5), client.retryConfig.MaxRetries)
}

func TestNonRetryableHTTPError_Error(t *testing.T) {
	tests := []struct {
		name     string
		body     []byte
		expected string
	}{
		{"non-empty body", []byte("error body"), "HTTPクライアントエラー (非リトライ対象): ステータスコード 400, ボディ: error body"},
		{"empty body", nil, "HTTPクライアントエラー (非リトライ対象): ステータスコード 400, ボディなし"},
		{"truncated body", []byte(strings.Repeat("a", 1025)), "HTTPクライアントエラー (非リトライ対象): ステータスコード 400, ボディ: " + strings.Repeat("a", 1024) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &NonRetryableHTTPError{StatusCode: 400, Body: tt.body}
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestFetchBytes(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(response(http.StatusOK, "<html>ok</html>"), nil).Once()

		client := New(0, WithHTTPClient(mockClient), WithRetryConfig(fastRetry))
		body, err := client.FetchBytes(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "<html>ok</html>", string(body))
		mockClient.AssertExpectations(t)
	})

	t.Run("any 2xx is success", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(response(http.StatusNonAuthoritativeInfo, "<p>203</p>"), nil).Once()

		client := New(0, WithHTTPClient(mockClient))
		body, err := client.FetchBytes(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "<p>203</p>", string(body))
	})

	t.Run("user agent header is sent", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
			return req.Header.Get("User-Agent") == "jaundice-test" && req.Method == http.MethodGet
		})).Return(response(http.StatusOK, ""), nil).Once()

		client := New(0, WithHTTPClient(mockClient), WithUserAgent("jaundice-test"))
		_, err := client.FetchBytes(context.Background(), "https://example.com")
		require.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("4xx is not retried", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(response(http.StatusNotFound, "not found"), nil).Once()

		client := New(0, WithHTTPClient(mockClient), WithRetryConfig(fastRetry))
		body, err := client.FetchBytes(context.Background(), "https://example.com/missing")
		require.Error(t, err)
		assert.Nil(t, body)
		assert.True(t, IsNonRetryableError(err))

		var httpErr *NonRetryableHTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
		mockClient.AssertNumberOfCalls(t, "Do", 1)
	})

	t.Run("5xx is retried until success", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(response(http.StatusServiceUnavailable, "busy"), nil).Once()
		mockClient.On("Do", mock.Anything).Return(response(http.StatusOK, "done"), nil).Once()

		client := New(0, WithHTTPClient(mockClient), WithRetryConfig(fastRetry), WithLogger(zaptest.NewLogger(t)))
		body, err := client.FetchBytes(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "done", string(body))
		mockClient.AssertNumberOfCalls(t, "Do", 2)
	})

	t.Run("5xx without retries", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(response(http.StatusBadGateway, "bad gateway"), nil).Once()

		client := New(0, WithHTTPClient(mockClient), WithRetryConfig(fastRetry)).WithMaxRetries(0)
		_, err := client.FetchBytes(context.Background(), "https://example.com")

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
		mockClient.AssertNumberOfCalls(t, "Do", 1)
	})

	t.Run("network error", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		var resp *http.Response
		mockClient.On("Do", mock.Anything).Return(resp, errors.New("connection refused"))

		client := New(0, WithHTTPClient(mockClient), WithRetryConfig(fastRetry)).WithMaxRetries(1)
		body, err := client.FetchBytes(context.Background(), "https://example.com")
		require.Error(t, err)
		assert.Nil(t, body)
		assert.Contains(t, err.Error(), "connection refused")
		mockClient.AssertNumberOfCalls(t, "Do", 2)
	})

	t.Run("invalid url", func(t *testing.T) {
		client := New(0, WithRetryConfig(fastRetry))
		_, err := client.FetchBytes(context.Background(), "http://[::1]:namedport")
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("non-http url is rejected without a request", func(t *testing.T) {
		mockClient := new(MockHTTPClient)

		client := New(0, WithHTTPClient(mockClient), WithRetryConfig(fastRetry))
		for _, u := range []string{"ftp://example.com/file", "https://", "inosmi.ru/a"} {
			_, err := client.FetchBytes(context.Background(), u)
			assert.ErrorIs(t, err, ErrInvalidRequest, u)
		}
		mockClient.AssertNotCalled(t, "Do", mock.Anything)
	})

	t.Run("body too large is not retried", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(response(http.StatusOK, strings.Repeat("x", 100)), nil)

		client := New(0, WithHTTPClient(mockClient), WithMaxBodySize(10), WithRetryConfig(fastRetry))
		_, err := client.FetchBytes(context.Background(), "https://example.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBodyTooLarge)
		mockClient.AssertNumberOfCalls(t, "Do", 1)
	})

	t.Run("empty 2xx body is returned as is", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(response(http.StatusOK, ""), nil)

		client := New(0, WithHTTPClient(mockClient), WithRetryConfig(fastRetry))
		body, err := client.FetchBytes(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.Empty(t, body)
		mockClient.AssertNumberOfCalls(t, "Do", 1)
	})
}

func TestFetchBytes_CharsetDecoding(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String("<html><body>Привет, мир</body></html>")
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		_, _ = w.Write([]byte(encoded))
	}))
	defer server.Close()

	body, err := New(time.Second).FetchBytes(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Привет, мир")
}

func TestFetchBytes_DeadlineAbortsRequest(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(5*time.Second, WithRetryConfig(fastRetry)).FetchBytes(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestIsNonRetryableError(t *testing.T) {
	assert.False(t, IsNonRetryableError(nil))
	assert.True(t, IsNonRetryableError(&NonRetryableHTTPError{}))
	assert.False(t, IsNonRetryableError(&StatusError{StatusCode: 500}))
	assert.False(t, IsNonRetryableError(errors.New("some error")))
}

func TestIsHTTPRetryableError(t *testing.T) {
	assert.False(t, isHTTPRetryableError(nil))
	assert.False(t, isHTTPRetryableError(context.DeadlineExceeded))
	assert.False(t, isHTTPRetryableError(&NonRetryableHTTPError{StatusCode: 404}))
	assert.False(t, isHTTPRetryableError(fmt.Errorf("%w (10バイト)", ErrBodyTooLarge)))
	assert.False(t, isHTTPRetryableError(fmt.Errorf("%w: bad input", ErrDecode)))
	assert.True(t, isHTTPRetryableError(&StatusError{StatusCode: 503}))
	assert.True(t, isHTTPRetryableError(errors.New("connection reset")))
}
