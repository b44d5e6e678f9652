// Command batch runs maintenance jobs against the works database.
//
//	batch sync-invoice                 sync invoices of every connected user
//	batch issue-token -user ID [-ttl]  print a bearer token for local testing
//
// Configuration flags of the server (-d, -k, ...) are accepted as well.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/akihokurino/works-server/internal/flagx"
	"github.com/akihokurino/works-server/internal/server"
	"github.com/akihokurino/works-server/internal/server/config"
)

const usageText = "usage: batch sync-invoice | issue-token -user ID [-ttl 24h]"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit status so that deferred cleanup always runs.
func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, usageText)
		return 2
	}
	cmd := args[0]
	if cmd != "sync-invoice" && cmd != "issue-token" {
		fmt.Fprintln(os.Stderr, usageText)
		return 2
	}

	ctx, stop := server.WithSignals(context.Background())
	defer stop()

	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	defer app.Close()

	switch cmd {
	case "sync-invoice":
		if err := app.SyncInvoices(ctx); err != nil {
			log.Printf("sync-invoice: %v", err)
			return 1
		}
	case "issue-token":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		userID := fs.String("user", "", "user id (token subject)")
		ttl := fs.Duration("ttl", 24*time.Hour, "token validity")
		if err := fs.Parse(flagx.FilterArgs(args[1:], []string{"-user", "-ttl"})); err != nil || *userID == "" {
			fmt.Fprintln(os.Stderr, usageText)
			return 2
		}
		token, err := app.IssueToken(*userID, *ttl)
		if err != nil {
			log.Printf("issue-token: %v", err)
			return 1
		}
		fmt.Println(token)
	}
	return 0
}
