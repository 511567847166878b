// Package server は記事の採点をHTTP APIとして公開します。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/shouni/go-jaundice/pkg/batch"
	"github.com/shouni/go-jaundice/pkg/types"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second

	errURLsRequired = "Параметр 'urls' обязателен"
)

// Runner はURLのバッチを処理します。batch.Runner が満たします。
type Runner interface {
	Run(ctx context.Context, urls []string) ([]types.ArticleResult, error)
}

// Server はHTTPハンドラーとそのライフサイクルを管理します。
type Server struct {
	runner Runner
	logger *zap.Logger
	router chi.Router
}

// New は Server を生成します。logger が nil の場合はログを出力しません。
func New(runner Runner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{runner: runner, logger: logger}
	s.router = s.routes()
	return s
}

// Handler はルーティング済みの http.Handler を返します。
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}).Handler)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/", s.handleScore)
	r.Get("/health", s.handleHealth)
	return r
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	urls := parseURLs(r.URL.Query().Get("urls"))
	if len(urls) == 0 {
		s.writeError(w, http.StatusBadRequest, errURLsRequired)
		return
	}

	results, err := s.runner.Run(r.Context(), urls)
	if err != nil {
		var tooLarge *batch.BatchTooLargeError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("too many urls in request, should be %d or less", tooLarge.Limit))
			return
		}
		s.logger.Error("バッチ処理に失敗しました", zap.Error(err), zap.String("request_id", requestIDFrom(r.Context())))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListenAndServe は addr で待ち受け、ctx が終了すると処理中のリクエストを待ってから停止します。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTPサーバーを起動します", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTPサーバーの起動に失敗しました: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("HTTPサーバーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗しました: %w", err)
	}
	return nil
}

// parseURLs はカンマ区切りのURLリストを分割します。空の要素は捨て、重複と順序はそのまま残します。
func parseURLs(raw string) []string {
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON はヘッダー送信後に失敗した場合、ステータスを変えられないためログにのみ残します。
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("レスポンスの書き込みに失敗しました", zap.Int("status", status), zap.Error(err))
	}
}
