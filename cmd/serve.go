package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursekit/internal/chat"
	"github.com/abhisek/coursekit/internal/progress"
	"github.com/abhisek/coursekit/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local course preview server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, courses, err := setup(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		logger := log.New(io.Discard, "", 0)
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logger = log.New(os.Stderr, "", log.LstdFlags)
		}

		kv := st.KV()
		llmCfg := cfg.ChatLLM()
		srv := web.New(web.Config{
			Addr:     cfg.Server.Addr,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, courses, progress.New(kv, progress.WithLogger(logger)),
			web.WithLogger(logger),
			web.WithChat(kv, chat.ProviderFactory(llmCfg, st.EventRepo()),
				chat.WithLogger(logger),
				chat.WithFallbackKey(llmCfg.APIKey),
				chat.WithMaxTokens(llmCfg.MaxTokens)),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()

		fmt.Fprintf(os.Stderr, "coursekit %s preview on http://%s\n", version, cfg.Server.Addr)
		for _, c := range courses {
			fmt.Fprintf(os.Stderr, "  %s  /courses/%s/weeks/1\n", c.Title, c.ID)
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().BoolP("verbose", "v", false, "Log requests and chat errors to stderr")
}
