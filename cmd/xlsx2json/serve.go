package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"kastelo.dev/xlsx2json/server"
)

func runServe(ctx context.Context, log *slog.Logger, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           server.New(log, server.DefaultMaxUpload).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", listen)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errC; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}
