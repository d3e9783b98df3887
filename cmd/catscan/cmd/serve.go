package cmd

import (
	"github.com/meowai/catscan/internal/engine"
	"github.com/meowai/catscan/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve breed classification over HTTP",
	Long: `Start an HTTP server exposing the recognition engine:

  POST /api/v1/classify  multipart image upload, returns ranked breeds
  GET  /healthz          engine state
  GET  /metrics          Prometheus metrics`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		serverCfg := globalConfig.Server
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			serverCfg.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			serverCfg.Port = port
		}

		eng := engine.New(engine.Config{
			ModelsDir:  globalConfig.ModelsDir,
			NumThreads: globalConfig.Engine.NumThreads,
			UseGPU:     globalConfig.Engine.UseGPU,
			Warmup:     globalConfig.Engine.Warmup,
		})
		defer func() { _ = eng.Close() }()

		// Initialize eagerly so a broken deployment fails at startup, but
		// keep serving on failure: /healthz reports the state and classify
		// requests return the structured unavailable outcome.
		_ = eng.Initialize()

		return server.New(serverCfg, eng).ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().String("host", "", "bind host (overrides config)")
	serveCmd.Flags().Int("port", 0, "bind port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
