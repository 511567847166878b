package cmd

import (
	"fmt"
	"log"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-jaundice/internal/config"
	"github.com/shouni/go-jaundice/internal/logger"
	"github.com/shouni/go-jaundice/internal/pipeline"
)

const appName = "jaundice"

// AppFlags はこのアプリケーション固有の永続フラグを保持します。
type AppFlags struct {
	ConfigPath string        // --config 設定ファイル (YAML)
	Timeout    time.Duration // --timeout 記事1件あたりの持ち時間
	MaxRetries int           // --max-retries HTTPリクエストのリトライ最大回数
}

var Flags AppFlags

var (
	appConfig   *config.Config
	appLogger   = zap.NewNop()
	appPipeline *pipeline.Pipeline
)

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&Flags.ConfigPath, "config", "", "設定ファイル (YAML) のパス")
	rootCmd.PersistentFlags().DurationVar(&Flags.Timeout, "timeout", 0, "記事1件あたりの持ち時間 (例: 3s)。0 の場合は設定ファイルの値")
	rootCmd.PersistentFlags().IntVar(&Flags.MaxRetries, "max-retries", -1, "HTTPリクエストのリトライ最大回数。負の場合は設定ファイルの値")
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// clibase.Flags.Verbose はこの関数実行前に設定済みです。
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	// 1. 設定の読み込みとフラグによる上書き
	cfg, err := config.Load(Flags.ConfigPath)
	if err != nil {
		return err
	}
	if Flags.Timeout > 0 {
		cfg.Batch.ArticleTimeout = Flags.Timeout
	}
	if Flags.MaxRetries >= 0 {
		cfg.HTTP.MaxRetries = uint64(Flags.MaxRetries)
	}
	if clibase.Flags.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("設定が不正です: %w", err)
	}

	// 2. ロガー
	l, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}

	if clibase.Flags.Verbose {
		log.Printf("記事1件あたりの持ち時間: %s, リトライ回数: %d, 最大URL数: %d", cfg.Batch.ArticleTimeout, cfg.HTTP.MaxRetries, cfg.Batch.MaxURLs)
	}

	// 3. 共有コンポーネントの組み立て
	p, err := pipeline.Build(cfg, l)
	if err != nil {
		_ = l.Sync()
		return err
	}

	appConfig, appLogger, appPipeline = cfg, l, p
	return nil
}

// GetPipeline は、初期化されたパイプラインを返します。
func GetPipeline() (*pipeline.Pipeline, error) {
	if appPipeline == nil {
		return nil, fmt.Errorf("パイプラインが初期化されていません")
	}
	return appPipeline, nil
}

// withLoggerSync は RunE の終了時に必ずロガーをフラッシュします。
// clibase.Execute は失敗時に os.Exit するため、defer では間に合いません。
func withLoggerSync(cmd *cobra.Command) *cobra.Command {
	runE := cmd.RunE
	if runE == nil {
		return cmd
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		defer func() { _ = appLogger.Sync() }()
		return runE(cmd, args)
	}
	return cmd
}

// Execute は、rootCmd を実行するメイン関数です。
func Execute() {
	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		withLoggerSync(scoreCmd),
		withLoggerSync(feedCmd),
		withLoggerSync(serveCmd),
	)
}
