package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/awareness-core/internal/tool"
)

// #region command
var (
	serveAddr     string
	serveProvider string
)

var toolServerCmd = &cobra.Command{
	Use:   "tool-server",
	Short: "Serve the stub LLM tool over gRPC",
	Long: `Host the echo LLM tool on the awareness.v1.ToolService gRPC service so a
loop configured with tool.kind=grpc has something to talk to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lis, err := net.Listen("tcp", serveAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", serveAddr, err)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serveTool(ctx, lis, tool.NewLLMTool(serveProvider))
	},
}

func init() {
	toolServerCmd.Flags().StringVar(&serveAddr, "addr", envOr("AWARENESS_TOOL_ADDR", "localhost:50051"), "Listen address")
	toolServerCmd.Flags().StringVar(&serveProvider, "provider", "", "Provider name reported in replies (or set "+tool.ProviderEnv+")")
}

// #endregion command

// #region serve
// serveTool hosts t on lis until ctx is cancelled.
func serveTool(ctx context.Context, lis net.Listener, t *tool.LLMTool) error {
	srv := grpc.NewServer()
	tool.RegisterToolServer(srv, t)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("tool server listening",
			zap.String("addr", lis.Addr().String()),
			zap.String("provider", t.Provider()))
		return srv.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down tool server")
		srv.GracefulStop()
		return nil
	})
	return g.Wait()
}

// #endregion serve
