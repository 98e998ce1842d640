package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/talesin/civics100-sub000/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve distractor generation over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		e, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		var stats server.StatsFunc
		if e.client != nil {
			stats = e.client.Stats
		}
		srv := server.New(e.runner, e.questions, e.cfg.Target, stats, e.log)
		return srv.Serve(ctx, e.cfg.ListenAddr)
	},
}

func init() {
	addGenerationFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
}
