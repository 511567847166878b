package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shouni/go-jaundice/internal/report"
	"github.com/shouni/go-jaundice/pkg/batch"
	"github.com/shouni/go-jaundice/pkg/types"
)

var (
	inputURLs  string // --urls カンマ区切りのURLリスト
	jsonOutput bool   // --json JSONで出力する
)

// runScorePipeline は、URLのバッチを採点して結果を w に書き出します。
func runScorePipeline(ctx context.Context, runner *batch.Runner, urls []string, w io.Writer) error {
	log.Printf("採点を開始します (対象URL数: %d)\n", len(urls))

	results, err := runner.Run(ctx, urls)
	if err != nil {
		return err
	}
	return writeResults(w, results)
}

func writeResults(w io.Writer, results []types.ArticleResult) error {
	if jsonOutput {
		return report.WriteJSON(w, results)
	}
	return report.WriteText(w, results)
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "記事URLを取得し、誇張語の割合 (黄色度) を採点します",
	Long:  `--urls フラグでカンマ区切りのURLリストを受け取るか、標準入力からURLを一行ずつ読み込み、各記事を並列に採点します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := GetPipeline()
		if err != nil {
			return err
		}

		if inputURLs == "" {
			log.Println("URLが指定されていないため、標準入力からURLを読み込みます (Ctrl+DまたはEOFで終了)...")
		}
		urls, err := collectURLs(inputURLs, cmd.InOrStdin())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if err := runScorePipeline(ctx, p.Runner, urls, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("採点に失敗しました: %w", err)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVarP(&inputURLs, "urls", "u", "", "採点対象のカンマ区切りURLリスト (例: url1,url2,url3)")
	scoreCmd.Flags().BoolVar(&jsonOutput, "json", false, "結果をJSONで出力する")
}
