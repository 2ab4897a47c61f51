package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"transcript-logger/internal/ingest"
	"transcript-logger/internal/loki"
	"transcript-logger/internal/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingest bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("port", envOrDefault("TRANSCRIPT_LOGGER_PORT", "9820"), "HTTP listen port")
	serveCmd.Flags().String("loki-url", envOrDefault("LOKI_URL", "http://localhost:3100"), "Loki base URL")
	serveCmd.Flags().String("job", envOrDefault("LOKI_JOB", "transcript-logger"), "job identity label")
	serveCmd.Flags().Bool("no-push", false, "disable pushes to Loki (events are logged locally)")
	serveCmd.Flags().Bool("tui", false, "show the live dashboard instead of plain log output")
}

func runServe(cmd *cobra.Command) error {
	port, _ := cmd.Flags().GetString("port")
	lokiURL, _ := cmd.Flags().GetString("loki-url")
	job, _ := cmd.Flags().GetString("job")
	noPush, _ := cmd.Flags().GetBool("no-push")
	withTUI, _ := cmd.Flags().GetBool("tui")

	client := loki.New(loki.Config{
		BaseURL:  lokiURL,
		Job:      job,
		Disabled: noPush,
	})

	srv := ingest.New(client)

	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", "127.0.0.1:"+port)
	if err != nil {
		return err
	}
	listenAddr := fmt.Sprintf("http://localhost:%d", ln.Addr().(*net.TCPAddr).Port)

	// Graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	var shutdownOnce sync.Once
	doShutdown := func() {
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		httpSrv.Shutdown(shutdownCtx)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)
		select {
		case <-sig:
			fmt.Println("\nShutting down...")
			shutdownOnce.Do(doShutdown)
		case <-ctx.Done():
		}
	}()

	if withTUI {
		eventCh := make(chan ingest.IngestEvent, 64)
		srv.SetOnIngest(func(evt ingest.IngestEvent) {
			select {
			case eventCh <- evt:
			default: // never block the ingest path on a slow terminal
			}
		})

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- httpSrv.Serve(ln)
		}()

		m := tui.NewModel(tui.Config{
			Version:    version,
			LokiURL:    lokiURL,
			Job:        job,
			ListenAddr: listenAddr,
		}, eventCh, ctx, srv.ErrCount())
		tuiErr := tui.Run(m)

		shutdownOnce.Do(doShutdown)
		if err := <-serveErr; err != nil && err != http.ErrServerClosed {
			return err
		}
		return tuiErr
	}

	printBanner(listenAddr, lokiURL, job)

	if err := httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	shutdownOnce.Do(doShutdown)
	return nil
}

func printBanner(listenAddr, lokiURL, job string) {
	title := fmt.Sprintf("transcript-logger %s", version)
	sep := strings.Repeat("─", 50)
	fmt.Println(sep)
	fmt.Printf("  %s\n", title)
	fmt.Println(sep)
	fmt.Printf("  Loki:      %s (job: %s)\n", lokiURL, job)
	fmt.Printf("  Listening: %s\n", listenAddr)
	fmt.Println("  Endpoints: POST /ingest  GET /health  GET /stats")
	fmt.Println(sep)
	fmt.Println("  Waiting for turns...")
	fmt.Println()
}
