// Command trackline-export dumps a stored session's result table as TSV,
// straight from the state database, without a running server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/trackline/internal/engine"
	"github.com/claude/trackline/internal/results"
	"github.com/claude/trackline/internal/storage"
)

func main() {
	dbPath := flag.String("db", "trackline.db", "path to the sqlite state database")
	sessionID := flag.String("session", "", "session id to export (omit to list sessions)")
	outPath := flag.String("out", "", "output file (default stdout)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open state db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	eng, err := engine.New(ctx, store, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load state: %v\n", err)
		os.Exit(1)
	}

	if *sessionID == "" {
		listSessions(eng)
		return
	}

	sess, err := eng.Session(*sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "session %s: %v\n", *sessionID, err)
		os.Exit(1)
	}

	tsv := results.Project(sess).TSV()
	if *outPath == "" {
		fmt.Print(tsv)
		return
	}
	if err := os.WriteFile(*outPath, []byte(tsv), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *outPath, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", *outPath)
}

func listSessions(eng *engine.Engine) {
	sessions := eng.Sessions()
	if len(sessions) == 0 {
		fmt.Println("no stored sessions")
		return
	}
	activeID := eng.ActiveSessionID()
	for _, s := range sessions {
		marker := " "
		if s.ID == activeID {
			marker = "*"
		}
		state := "open"
		if s.Ended() {
			state = "ended"
		}
		captures := len(s.Results.Log)
		fmt.Printf("%s %s  %-24s %s  %s  %d captures\n",
			marker, s.ID, s.Name, s.StartedAtISO, state, captures)
	}
}
