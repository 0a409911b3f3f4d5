// =============================================================================
// Invoice QC - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   invoiceqc serve [--addr :8000]
//
// =============================================================================

package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/ginjaninja78/invoice-qc/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			appConfig.Server.Addr = serveAddr
		}
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		p, err := newPipeline(appConfig)
		if err != nil {
			return err
		}
		return server.New(p, appConfig.Server, logger).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr)")
}
