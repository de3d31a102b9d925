// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"querydesk/cli/internal/app"
	"querydesk/cli/internal/keychain"
	"querydesk/cli/internal/logging"
	"querydesk/cli/internal/rpc"
)

var (
	serveListen    string
	serveNoConnect bool
	serveNewSecret bool
)

// serveCmd exposes the query engine over gRPC until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query engine over gRPC",
	Long: `The serve command starts a gRPC server exposing Connect, Disconnect, ExecuteQuery,
ExecuteQueryHTML and GetServerStatus. Unless --no-connect is given, the saved DSN is
connected at startup.

When QUERYDESK_AUTH_SECRET or a keychain secret is set, every call must carry a
bearer token signed with that secret. Use --new-secret to generate and store one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Server.Listen
		if serveListen != "" {
			addr = serveListen
		}

		if serveNewSecret {
			if err := createAuthSecret(); err != nil {
				return err
			}
		}
		secret := resolveAuthSecret()
		if secret == "" && !isLoopback(addr) {
			slog.Warn("serving without authentication on a non-loopback address", "listen", addr)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine := app.New(poolOptions())
		defer engine.Disconnect()
		if !serveNoConnect {
			connectAtStartup(ctx, engine)
		}

		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		srv := rpc.NewServer(engine, rpc.ServerOptions{AuthSecret: secret})

		pterm.Info.Printfln("querydesk %s serving on %s (auth: %t)", Version, lis.Addr(), secret != "")
		return runServer(ctx, srv, lis)
	},
}

// runServer serves until ctx is done, then stops gracefully.
func runServer(ctx context.Context, srv *grpc.Server, lis net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		srv.GracefulStop()
		return nil
	})
	return g.Wait()
}

// connectAtStartup connects engine to the saved DSN. Failure is logged and
// the server starts disconnected; clients can still call Connect.
func connectAtStartup(ctx context.Context, engine *app.App) {
	dsn, source, err := resolveDSN()
	if err != nil {
		slog.Info("starting without a connection", "reason", err)
		return
	}
	if err := engine.Connect(ctx, dsn); err != nil {
		slog.Warn("startup connect failed", "source", source, "error", logging.Mask(err.Error()))
		return
	}
	slog.Info("connected at startup", "source", source)
}

// createAuthSecret generates a random shared secret and stores it in the keychain.
func createAuthSecret() error {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	secret := hex.EncodeToString(buf)

	km, err := keychain.GetManager()
	if err != nil {
		return fmt.Errorf("store auth secret: %w", err)
	}
	if err := km.SaveAuthSecret(secret); err != nil {
		return fmt.Errorf("store auth secret: %w", err)
	}
	pterm.Success.Println("New RPC secret stored in the OS keychain. Share it with clients as QUERYDESK_AUTH_SECRET:")
	fmt.Println(secret)
	return nil
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address to listen on (default from config, 127.0.0.1:7431)")
	serveCmd.Flags().BoolVar(&serveNoConnect, "no-connect", false, "Start without connecting to the saved DSN")
	serveCmd.Flags().BoolVar(&serveNewSecret, "new-secret", false, "Generate a new RPC auth secret and store it in the keychain")
}
