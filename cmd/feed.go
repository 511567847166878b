package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	feedURL   string // --url フィードのURL
	feedLimit int    // --limit 採点する記事数
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "RSS/Atomフィードの記事を採点します",
	Long:  `指定されたURLからRSSまたはAtomフィードを取得し、記事リンクを最大 --limit 件 (既定はバッチの上限) 採点します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := GetPipeline()
		if err != nil {
			return err
		}

		u, err := ensureScheme(feedURL)
		if err != nil {
			return err
		}

		limit := feedLimit
		if limit <= 0 || (p.Runner.MaxURLs() > 0 && limit > p.Runner.MaxURLs()) {
			limit = p.Runner.MaxURLs()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// 1. フィードの取得には記事1件分の持ち時間を与える
		feedCtx, cancel := context.WithTimeout(ctx, appConfig.Batch.ArticleTimeout)
		links, err := p.Feed.ArticleLinks(feedCtx, u, limit)
		cancel()
		if err != nil {
			return fmt.Errorf("フィードの取得およびパースエラー: %w", err)
		}
		if len(links) == 0 {
			return fmt.Errorf("フィードに記事リンクがありません (URL: %s)", u)
		}
		log.Printf("フィードから %d 件の記事を取得しました (URL: %s)", len(links), u)

		// 2. 採点
		if err := runScorePipeline(ctx, p.Runner, links, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("採点に失敗しました: %w", err)
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().StringVarP(&feedURL, "url", "u", "", "フィード (RSS/Atom) のURL")
	feedCmd.Flags().IntVar(&feedLimit, "limit", 0, "採点する記事の最大数 (0 はバッチの上限)")
	feedCmd.Flags().BoolVar(&jsonOutput, "json", false, "結果をJSONで出力する")
	_ = feedCmd.MarkFlagRequired("url")
}
