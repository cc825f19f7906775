package historycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	mergecmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/merge"
	pushcmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/push"
	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/sqlitepath"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/logger"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/render"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tape"
)

const historyLongDesc string = `Inspect recorded model calls.

Commands run with --record store every model call in a SQLite Merkle DAG:
identical conversation prefixes share nodes and each distinct reply is a
leaf. These commands read that database (--sqlite, then ADP_RECORD_DB or
[record] db, then ~/.adp/adp.db).

Examples:
  adp history list
  adp history show 3f2a9c
  adp history stats --sqlite ./traces.db
  adp history push http://localhost:8080
  adp history merge ~/alice/adp.db ~/bob/adp.db`

const historyShortDesc string = "Inspect, push and merge recorded conversations"

type historyCommander struct {
	flags      *cmdenv.Flags
	sqlitePath string
	jsonOutput bool
}

func NewHistoryCmd(flags *cmdenv.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
	}

	cmd.AddCommand(newListCmd(flags))
	cmd.AddCommand(newShowCmd(flags))
	cmd.AddCommand(newStatsCmd(flags))
	cmd.AddCommand(pushcmder.NewPushCmd(flags))
	cmd.AddCommand(mergecmder.NewMergeCmd(flags))

	return cmd
}

func (c *historyCommander) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.sqlitePath, "sqlite", "s", "", "Path to SQLite database")
	cmd.Flags().BoolVar(&c.jsonOutput, "json", false, "Print JSON instead of text")
}

func (c *historyCommander) open() (*merkle.SQLiteStorer, error) {
	cfg, err := c.flags.Config()
	if err != nil {
		return nil, err
	}
	dbPath, err := sqlitepath.ResolveSQLitePath(c.sqlitePath, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not resolve database: %w", err)
	}
	storer, err := merkle.NewSQLiteStorer(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open database %s: %w", dbPath, err)
	}
	return storer, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newListCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &historyCommander{flags: flags}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded conversations, one per leaf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.list(cmd.Context(), cmd)
		},
	}
	cmder.bind(cmd)
	return cmd
}

func (c *historyCommander) list(ctx context.Context, cmd *cobra.Command) error {
	storer, err := c.open()
	if err != nil {
		return err
	}
	defer storer.Close()

	histories, skipped, err := tape.All(ctx, storer)
	if err != nil {
		return fmt.Errorf("could not list histories: %w", err)
	}

	out := cmd.OutOrStdout()
	if c.jsonOutput {
		return writeJSON(out, histories)
	}

	if len(histories) == 0 {
		fmt.Fprintln(out, "No recorded conversations.")
		return nil
	}
	for _, h := range histories {
		fmt.Fprintf(out, "%s  %2d messages  %-10s  %s\n",
			shortHash(h.Head), h.Depth, pattern(h), logger.Preview(firstUser(h), 60))
	}
	if len(skipped) > 0 {
		fmt.Fprintf(out, "(%d conversations could not be loaded)\n", len(skipped))
	}
	return nil
}

func newShowCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &historyCommander{flags: flags}
	cmd := &cobra.Command{
		Use:   "show <hash>",
		Short: "Show the conversation ending at a node (hash or unique prefix)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.show(cmd.Context(), cmd, args[0])
		},
	}
	cmder.bind(cmd)
	return cmd
}

func (c *historyCommander) show(ctx context.Context, cmd *cobra.Command, ref string) error {
	storer, err := c.open()
	if err != nil {
		return err
	}
	defer storer.Close()

	hash, err := resolveHash(ctx, storer, ref)
	if err != nil {
		return err
	}
	h, err := tape.Load(ctx, storer, hash)
	if err != nil {
		return fmt.Errorf("could not load history %s: %w", hash, err)
	}

	if c.jsonOutput {
		return writeJSON(cmd.OutOrStdout(), h)
	}

	p := render.New(cmd.OutOrStdout())
	p.Heading(fmt.Sprintf("%s (%d messages)", shortHash(h.Head), h.Depth))
	for _, m := range h.Messages {
		label := m.Role
		if m.ToolName != "" {
			label += " (" + m.ToolName + ")"
		}
		content := m.Content
		if content == "" && len(m.ToolCalls) > 0 {
			content = "calls " + strings.Join(m.ToolCalls, ", ")
		}
		p.Reply(label, content)
	}
	return nil
}

func newStatsCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &historyCommander{flags: flags}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print node, root and leaf counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.stats(cmd.Context(), cmd)
		},
	}
	cmder.bind(cmd)
	return cmd
}

func (c *historyCommander) stats(ctx context.Context, cmd *cobra.Command) error {
	storer, err := c.open()
	if err != nil {
		return err
	}
	defer storer.Close()

	stats, err := tape.ComputeStats(ctx, storer)
	if err != nil {
		return fmt.Errorf("could not compute stats: %w", err)
	}

	out := cmd.OutOrStdout()
	if c.jsonOutput {
		return writeJSON(out, stats)
	}
	fmt.Fprintf(out, "Nodes:  %d\nRoots:  %d\nLeaves: %d\n", stats.TotalNodes, stats.RootCount, stats.LeafCount)
	return nil
}

// shortHash abbreviates a node hash for display. Hashes from imported
// databases are not guaranteed to be full length.
func shortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}

// resolveHash expands a unique hash prefix.
func resolveHash(ctx context.Context, s merkle.Storer, ref string) (string, error) {
	if ok, err := s.Has(ctx, ref); err != nil {
		return "", err
	} else if ok {
		return ref, nil
	}

	nodes, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, n := range nodes {
		if strings.HasPrefix(n.Hash, ref) {
			matches = append(matches, n.Hash)
		}
	}
	switch len(matches) {
	case 0:
		return "", merkle.ErrNotFound{Hash: ref}
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("hash prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func pattern(h *tape.History) string {
	for i := len(h.Messages) - 1; i >= 0; i-- {
		if p := h.Messages[i].Pattern; p != "" {
			return p
		}
	}
	return "-"
}

func firstUser(h *tape.History) string {
	for _, m := range h.Messages {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}
