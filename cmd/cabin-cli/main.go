package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cognicore/cabin/pkg/cabin"
	"github.com/cognicore/cabin/pkg/cabin/config"
	"github.com/cognicore/cabin/pkg/cabin/filter"
	"github.com/cognicore/cabin/pkg/cabin/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (required)")
		utterance  = flag.String("utterance", "", "One-shot utterance: INTENT | KIND=value; KIND=value")
		history    = flag.Int("history", 0, "Print the N most recent journal records and exit")
		asJSON     = flag.Bool("json", false, "Print records as JSON")
	)
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config required")
	}

	ctx := context.Background()

	engine, cleanup, err := buildEngine(ctx, *configPath)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	out := recordPrinter{w: os.Stdout, json: *asJSON}

	if *history > 0 {
		if err := printHistory(ctx, engine, out, *history); err != nil {
			log.Fatal(err)
		}
		return
	}

	// One-shot mode
	if *utterance != "" {
		if err := execute(ctx, engine, &filter.State{}, *utterance, out); err != nil {
			log.Fatal(err)
		}
		return
	}

	fmt.Println("===========================================")
	fmt.Println("  Cabin CLI")
	fmt.Println("  Vehicle setting interpretation")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Enter INTENT | KIND=value; KIND=value (Ctrl+D to exit).")
	fmt.Println("Commands: :stage <name>, :reset, :history [n]")
	fmt.Println()

	repl(ctx, engine, os.Stdin, out)

	fmt.Println("\nGoodbye!")
}

// repl keeps one conversation state across lines.
func repl(ctx context.Context, engine *cabin.Engine, in io.Reader, out recordPrinter) {
	state := &filter.State{}
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out.w, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		if strings.HasPrefix(line, ":") {
			err = command(ctx, engine, state, line, out)
		} else {
			err = execute(ctx, engine, state, line, out)
		}
		if err != nil {
			fmt.Fprintln(out.w, "Error:", err)
		}
	}
}

func command(ctx context.Context, engine *cabin.Engine, state *filter.State, line string, out recordPrinter) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":stage":
		if len(fields) != 2 {
			return fmt.Errorf("usage: :stage none|name_selection|value_selection|change_confirmation")
		}
		stage, err := filter.ParseStage(fields[1])
		if err != nil {
			return err
		}
		state.Stage = stage
		fmt.Fprintf(out.w, "stage: %s\n", stage)
	case ":reset":
		*state = filter.State{}
		fmt.Fprintln(out.w, "state cleared")
	case ":history":
		n := 5
		if len(fields) > 1 {
			if _, err := fmt.Sscanf(fields[1], "%d", &n); err != nil {
				return fmt.Errorf("history count: %w", err)
			}
		}
		return printHistory(ctx, engine, out, n)
	default:
		return fmt.Errorf("unknown command %s", fields[0])
	}
	return nil
}

func execute(ctx context.Context, engine *cabin.Engine, state *filter.State, line string, out recordPrinter) error {
	u, err := parseUtterance(line)
	if err != nil {
		return err
	}

	r, err := engine.Process(ctx, state, u)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}
	return out.print(r)
}

// parseUtterance reads "INTENT | KIND=value; KIND=value". The intent may be
// empty, as in follow-up turns.
func parseUtterance(line string) (filter.Utterance, error) {
	intent, rest, found := strings.Cut(line, "|")
	if !found {
		intent, rest = "", line
		if !strings.Contains(line, "=") {
			intent, rest = line, ""
		}
	}

	u := filter.Utterance{Intent: strings.TrimSpace(intent), Entities: filter.Entities{}}
	for _, part := range strings.Split(rest, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return filter.Utterance{}, fmt.Errorf("entity %q: expected KIND=value", part)
		}
		kind, err := filter.ParseKind(strings.ToUpper(strings.TrimSpace(name)))
		if err != nil {
			return filter.Utterance{}, err
		}
		if value = strings.TrimSpace(value); value != "" {
			u.Entities[kind] = append(u.Entities[kind], value)
		}
	}
	return u, nil
}

func printHistory(ctx context.Context, engine *cabin.Engine, out recordPrinter, n int) error {
	records, err := engine.History(ctx, n)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out.w, "No records.")
		return nil
	}
	for _, r := range records {
		if err := out.print(r); err != nil {
			return err
		}
	}
	return nil
}

type recordPrinter struct {
	w    io.Writer
	json bool
}

func (p recordPrinter) print(r store.Record) error {
	if p.json {
		enc := json.NewEncoder(p.w)
		return enc.Encode(r)
	}

	fmt.Fprintf(p.w, "\n--- %s  %s  stage=%s ---\n", r.ID, r.Intent, r.Stage)
	if len(r.Changes) == 0 && len(r.Statuses) == 0 {
		fmt.Fprintln(p.w, "  (nothing matched)")
	}
	for i, c := range r.Changes {
		fmt.Fprintf(p.w, "  %d. %s", i+1, orDash(c.SettingName))
		if c.Value != "" {
			fmt.Fprintf(p.w, " %s", c.Value)
		}
		if c.Amount != nil {
			sign := ""
			if c.IsRelativeAmount && c.Amount.Amount >= 0 {
				sign = "+"
			}
			fmt.Fprintf(p.w, " %s%g%s", sign, c.Amount.Amount, c.Amount.Unit)
			if c.IsRelativeAmount {
				fmt.Fprint(p.w, " (relative)")
			}
		}
		if c.IsConfirmed {
			fmt.Fprint(p.w, " confirmed")
		}
		fmt.Fprintf(p.w, " [%s]\n", c.OperationStatus)
	}
	for i, s := range r.Statuses {
		fmt.Fprintf(p.w, "  %d. check %s\n", i+1, orDash(s.SettingName))
	}
	fmt.Fprintln(p.w)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func buildEngine(ctx context.Context, configPath string) (*cabin.Engine, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := config.NewLogger(cfg.Log, os.Stderr)

	engine, err := cabin.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open engine: %w", err)
	}

	cleanup := func() {
		engine.Close()
	}
	return engine, cleanup, nil
}
