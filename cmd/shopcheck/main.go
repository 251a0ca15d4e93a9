package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopops/pickticket/internal/common"
	"github.com/shopops/pickticket/internal/shopify"
)

// shopcheck verifies shop credentials and reachability with a single
// one-order page fetch. Exit code 0 means the shop answered.
func main() {
	timeout := flag.Duration("timeout", 15*time.Second, "overall check timeout")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Printf("FAIL: configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := common.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := shopify.NewClient(cfg.Shopify, logger)
	page, err := client.FetchPage(ctx, shopify.DefaultFilter, 1, "")
	if err != nil {
		fmt.Printf("FAIL: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: shop reachable, credentials valid\n")
	fmt.Printf("- Unprinted open orders visible: %d (has more: %v)\n", len(page.Orders), page.HasMore)
}
