package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	dataDir string
	dbPath  string
	asJSON  bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Inspect recorded exploration runs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data", "./data", "runtime data directory")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite index path (default: <data>/index/runs.sqlite)")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(
		newRunsCmd(),
		newSpawnsCmd(),
		newMergesCmd(),
		newSnapshotsCmd(),
		newSnapshotCmd(),
		newBootstrapCmd(),
		newKnowledgeCmd(),
	)
	return root
}

func indexPath() string {
	if p := strings.TrimSpace(dbPath); p != "" {
		return p
	}
	return filepath.Join(dataDir, "index", "runs.sqlite")
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
