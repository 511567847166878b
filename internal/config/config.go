package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/shouni/go-jaundice/pkg/article"
	"github.com/shouni/go-jaundice/pkg/batch"
	"github.com/shouni/go-jaundice/pkg/extract"
	"github.com/shouni/go-jaundice/pkg/httpclient"
)

const (
	envPrefix     = "JAUNDICE_"
	configPathEnv = envPrefix + "CONFIG"

	defaultVocabularyPath = "charged_dict.zip"
	defaultServerAddr     = ":8080"
	defaultLogLevel       = "info"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Batch      BatchConfig      `yaml:"batch"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Morph      MorphConfig      `yaml:"morph"`
	Extract    ExtractConfig    `yaml:"extract"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// HTTPConfig は記事取得用のHTTPクライアントの設定です。
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   uint64        `yaml:"max_retries"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// BatchConfig はバッチ処理の設定です。
type BatchConfig struct {
	MaxURLs        int           `yaml:"max_urls"`
	Concurrency    int           `yaml:"concurrency"`
	ArticleTimeout time.Duration `yaml:"article_timeout"`
	// RatePerSecond が0の場合、取得のペースを制限しません。
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// VocabularyConfig は誇張語辞書の場所です (.zip またはテキストファイル)。
type VocabularyConfig struct {
	Path string `yaml:"path"`
}

// MorphConfig は語の正規化の設定です。Dictionary が空なら小文字化のみを行います。
type MorphConfig struct {
	Dictionary string `yaml:"dictionary"`
	Serialize  bool   `yaml:"serialize"`
}

// ExtractConfig は本文抽出の設定です。
type ExtractConfig struct {
	Fallback string `yaml:"fallback"`
}

// ServerConfig はHTTPサーバーの設定です。
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig はログ出力の設定です。
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default は既定値の設定を返します。
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      httpclient.DefaultHTTPTimeout,
			MaxRetries:   0,
			UserAgent:    httpclient.UserAgent,
			MaxBodyBytes: httpclient.MaxBodySize,
		},
		Batch: BatchConfig{
			MaxURLs:        batch.DefaultMaxURLs,
			ArticleTimeout: article.DefaultTimeout,
		},
		Vocabulary: VocabularyConfig{Path: defaultVocabularyPath},
		Extract:    ExtractConfig{Fallback: extract.FallbackNone},
		Server:     ServerConfig{Addr: defaultServerAddr},
		Log:        LogConfig{Level: defaultLogLevel},
	}
}

// Load は既定値、YAMLファイル、.env、環境変数の順に設定を重ねて返します。
// path が空の場合は環境変数 JAUNDICE_CONFIG を参照し、それも空ならファイルは読みません。
func Load(path string) (*Config, error) {
	// .env は任意
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルを読み込めません (%s): %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗しました (%s): %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	collect(envDuration("HTTP_TIMEOUT", &c.HTTP.Timeout))
	collect(envUint("HTTP_MAX_RETRIES", &c.HTTP.MaxRetries))
	envString("USER_AGENT", &c.HTTP.UserAgent)
	collect(envInt64("MAX_BODY_BYTES", &c.HTTP.MaxBodyBytes))

	collect(envInt("MAX_URLS", &c.Batch.MaxURLs))
	collect(envInt("CONCURRENCY", &c.Batch.Concurrency))
	collect(envDuration("ARTICLE_TIMEOUT", &c.Batch.ArticleTimeout))
	collect(envFloat("RATE_PER_SECOND", &c.Batch.RatePerSecond))

	envString("VOCABULARY_PATH", &c.Vocabulary.Path)
	envString("MORPH_DICTIONARY", &c.Morph.Dictionary)
	collect(envBool("MORPH_SERIALIZE", &c.Morph.Serialize))
	envString("EXTRACT_FALLBACK", &c.Extract.Fallback)

	envString("SERVER_ADDR", &c.Server.Addr)
	envString("LOG_LEVEL", &c.Log.Level)
	collect(envBool("LOG_DEVELOPMENT", &c.Log.Development))

	return errors.Join(errs...)
}

// Validate は設定値の整合性を検証します。
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout は正の値である必要があります: %s", c.HTTP.Timeout))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("http.max_body_bytes は正の値である必要があります: %d", c.HTTP.MaxBodyBytes))
	}
	if c.Batch.ArticleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("batch.article_timeout は正の値である必要があります: %s", c.Batch.ArticleTimeout))
	}
	if c.Batch.MaxURLs < 0 {
		errs = append(errs, fmt.Errorf("batch.max_urls は0以上である必要があります: %d", c.Batch.MaxURLs))
	}
	if c.Batch.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("batch.concurrency は0以上である必要があります: %d", c.Batch.Concurrency))
	}
	if c.Batch.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("batch.rate_per_second は0以上である必要があります: %g", c.Batch.RatePerSecond))
	}
	if c.Vocabulary.Path == "" {
		errs = append(errs, errors.New("vocabulary.path が指定されていません"))
	}
	if _, err := extract.FallbackAdapter(c.Extract.Fallback); err != nil {
		errs = append(errs, fmt.Errorf("extract.fallback: %w", err))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr が指定されていません"))
	}

	return errors.Join(errs...)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s の値が不正です (%q): %w", envPrefix, name, v, err)
	}
	*dst = n
	return nil
}

func envInt64(name string, dst *int64) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s%s の値が不正です (%q): %w", envPrefix, name, v, err)
	}
	*dst = n
	return nil
}

func envUint(name string, dst *uint64) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s%s の値が不正です (%q): %w", envPrefix, name, v, err)
	}
	*dst = n
	return nil
}

func envFloat(name string, dst *float64) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s%s の値が不正です (%q): %w", envPrefix, name, v, err)
	}
	*dst = f
	return nil
}

func envBool(name string, dst *bool) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s%s の値が不正です (%q): %w", envPrefix, name, v, err)
	}
	*dst = b
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s の値が不正です (%q): %w", envPrefix, name, v, err)
	}
	*dst = d
	return nil
}
