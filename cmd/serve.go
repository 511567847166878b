package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shouni/go-jaundice/internal/server"
)

var serveAddr string // --addr 待ち受けアドレス

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "採点APIをHTTPで公開します (GET /?urls=url1,url2)",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := GetPipeline()
		if err != nil {
			return err
		}

		addr := appConfig.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(p.Runner, appLogger.Named("server")).ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "待ち受けアドレス (例: :8080)。空の場合は設定ファイルの値")
}
