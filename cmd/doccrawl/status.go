package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/nao1215/doccrawl/internal/config"
	"github.com/nao1215/doccrawl/internal/database"
	"github.com/nao1215/doccrawl/internal/link"
	"github.com/nao1215/doccrawl/internal/state"
	"github.com/spf13/cobra"
)

// recentRunLimit is the number of runs listed by the status command.
const recentRunLimit = 5

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <url>",
		Short: "Show the saved progress of a crawl",
		Long: `Status prints what a previous crawl of <url> left behind: the number of
visited, queued and failed pages in the state file of the output directory,
and the recent runs recorded in the page catalog.

Examples:
  # Progress of a crawl that wrote to ./output
  doccrawl status https://docs.example.com/guide/

  # Progress of a crawl with a custom output directory
  doccrawl status -o ./mirror https://docs.example.com/guide/`,
		Args: cobra.ExactArgs(1),
		RunE: runStatusCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Output directory of the crawl")
	cmd.Flags().String("db-dir", "",
		"Page catalog directory (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not read the page catalog")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	var err error

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	cfg.NoDB, err = cmd.Flags().GetBool("no-db")
	if err != nil {
		return err
	}

	scope, err := link.NewScope(args[0], link.ScopePrefix)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidURL, err)
	}
	baseURL := scope.Base().String()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Base URL: %s\n\n", baseURL)

	if err := printState(out, state.NewStore(cfg.OutputDir), baseURL); err != nil {
		return err
	}
	return printCatalog(cmd, out, cfg.DBPath(), baseURL)
}

// printState prints the counts of the state file in the output directory.
func printState(out io.Writer, store *state.Store, baseURL string) error {
	fmt.Fprintf(out, "State file: %s\n", store.Path())

	st, err := store.Load()
	switch {
	case errors.Is(err, state.ErrNoState):
		fmt.Fprintln(out, "  no saved state")
		fmt.Fprintln(out)
		return nil
	case errors.Is(err, state.ErrStateCorrupt):
		fmt.Fprintf(out, "  unreadable, the next crawl starts fresh: %v\n\n", err)
		return nil
	case err != nil:
		return err
	}

	if st.BaseURL != baseURL {
		fmt.Fprintf(out, "  belongs to another crawl (%s)\n\n", st.BaseURL)
		return nil
	}

	fmt.Fprintf(out, "  Saved at: %s\n", st.Timestamp.Local().Format(time.DateTime))
	fmt.Fprintf(out, "  Visited:  %d\n", len(st.Visited))
	fmt.Fprintf(out, "  Queued:   %d\n", len(st.Queue))
	fmt.Fprintf(out, "  Failed:   %d\n", len(st.Failed))
	if len(st.Queue) == 0 {
		fmt.Fprintln(out, "  The crawl is complete.")
	} else {
		fmt.Fprintln(out, "  Run the crawl again to resume.")
	}
	fmt.Fprintln(out)
	return nil
}

// printCatalog prints page counts and recent runs from the page catalog.
// A catalog that does not exist yet is not created.
func printCatalog(cmd *cobra.Command, out io.Writer, dbPath, baseURL string) error {
	if dbPath == "" {
		return nil
	}
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(out, "Page catalog: %s (not found)\n", dbPath)
		return nil
	}

	catalog, err := database.Open(dbPath, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open page catalog: %w", err)
	}
	defer catalog.Close()

	ctx := cmd.Context()
	counts, err := catalog.CountPages(ctx, baseURL)
	if err != nil {
		return fmt.Errorf("failed to count pages: %w", err)
	}
	runs, err := catalog.RecentRuns(ctx, baseURL, recentRunLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	fmt.Fprintf(out, "Page catalog: %s\n", filepath.Clean(dbPath))
	fmt.Fprintf(out, "  Saved:  %d\n", counts.Saved)
	fmt.Fprintf(out, "  Failed: %d\n", counts.Failed)
	for _, kind := range slices.Sorted(maps.Keys(counts.ByKind)) {
		fmt.Fprintf(out, "    %-14s %d\n", kind+":", counts.ByKind[kind])
	}

	if len(runs) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nRecent runs:")
	for _, r := range runs {
		fmt.Fprintf(out, "  %s  %s\n", r.StartedAt.Local().Format(time.DateTime), runText(r))
	}
	return nil
}

// runText describes the outcome of a run in one line.
func runText(r database.Run) string {
	switch {
	case !r.Finished():
		return "did not finish"
	case r.Interrupted:
		return fmt.Sprintf("interrupted, %d written, %d errors, %d pending", r.PagesWritten, r.Errors, r.Pending)
	default:
		return fmt.Sprintf("complete, %d written, %d errors", r.PagesWritten, r.Errors)
	}
}
