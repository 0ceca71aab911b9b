package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattjoyce/bubot/internal/assistant"
	"github.com/mattjoyce/bubot/internal/config"
	"github.com/mattjoyce/bubot/internal/log"
	"github.com/mattjoyce/bubot/internal/n8n"
	"github.com/mattjoyce/bubot/internal/protocol"
	"github.com/mattjoyce/bubot/internal/signing"
	"github.com/mattjoyce/bubot/internal/state"
	"github.com/mattjoyce/bubot/internal/storage"
)

const callTimeout = 30 * time.Second

func runSign(args []string) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	file := fs.String("file", "-", "Body to sign (- for stdin)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	secret, err := config.SecretFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	body, err := readInput(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Println(signing.Sign(body, secret))
	return 0
}

func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	sig := fs.String("sig", "", "Hex signature to check")
	file := fs.String("file", "-", "Signed body (- for stdin)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if *sig == "" {
		fmt.Fprintln(os.Stderr, "Usage: bubot verify --sig HEX [--file F]")
		return 1
	}

	secret, err := config.SecretFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	body, err := readInput(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ok, err := signing.Verify(body, secret, strings.TrimSpace(*sig))
	if errors.Is(err, signing.ErrMalformedSignature) {
		fmt.Println("invalid (malformed signature)")
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !ok {
		fmt.Println("invalid")
		return 1
	}
	fmt.Println("valid")
	return 0
}

func runCall(args []string) int {
	if len(args) < 1 || hasHelpFlag(args[:1]) {
		fmt.Fprintln(os.Stderr, "Usage: bubot call <action> --user ID [--file F] [--config PATH]")
		return 1
	}
	action := protocol.Action(args[0])

	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	userID := fs.String("user", "", "User the action is performed for")
	file := fs.String("file", "-", "Payload JSON (- for stdin)")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if !action.Valid() {
		fmt.Fprintf(os.Stderr, "Unknown action: %s\n", action)
		return 1
	}

	client, err := clientForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	raw, err := readInput(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	payload, err := protocol.DecodePayload(action, raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	result, err := client.Dispatch(ctx, *userID, payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render result: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func runResolve(args []string) int {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	userID := fs.String("user", "", "User the reply is for")
	file := fs.String("file", "-", "Assistant completion text (- for stdin)")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	completion, err := readInput(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	client, err := clientForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	responder := assistant.NewResponder(nil, client, log.WithComponent("assistant"))
	fmt.Println(responder.Resolve(ctx, *userID, string(completion)))
	return 0
}

func clientForTool(configPath string) (*n8n.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log.SetupWriter(os.Stderr, cfg.Service.LogLevel, "text")
	return n8n.NewFromConfig(cfg, n8n.WithLogger(log.WithComponent("n8n")))
}

func runInboxNoun(args []string) int {
	if len(args) == 0 || hasHelpFlag(args[:1]) {
		fmt.Fprintln(os.Stderr, "Usage: bubot inbox list [--limit N] [--json] [--config PATH]")
		return 1
	}

	switch args[0] {
	case "list":
		return runInboxList(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown inbox action: %s\n", args[0])
		return 1
	}
}

func runInboxList(args []string) int {
	fs := flag.NewFlagSet("inbox list", flag.ContinueOnError)
	limit := fs.Int("limit", state.DefaultListLimit, "Maximum number of callbacks to show")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	inbox := state.NewInbox(db)
	entries, err := inbox.List(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *jsonOut {
		if entries == nil {
			entries = []state.InboxEntry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	if len(entries) == 0 {
		fmt.Println("No callbacks recorded.")
		return 0
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACTION\tRECEIVED\tDIGEST")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Action, e.ReceivedAt.Format(time.RFC3339), shortDigest(e.BodyDigest))
	}
	_ = tw.Flush()

	total, err := inbox.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("%d of %d total\n", len(entries), total)
	return 0
}

func shortDigest(d string) string {
	if len(d) <= 16 {
		return d
	}
	return d[:16]
}
