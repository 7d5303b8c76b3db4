package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-api-client/pkg/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if httpErr, ok := api.IsHTTPError(err); ok {
			fmt.Fprintf(os.Stderr, "request rejected with status %d\n", httpErr.HTTPStatus)
			_ = writeJSON(os.Stderr, httpErr.Errors)
		} else {
			fmt.Fprintf(os.Stderr, "apicall failed: %v\n", err)
		}
		os.Exit(1)
	}
}
