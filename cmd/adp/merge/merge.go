package mergecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/sqlitepath"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
)

const mergeLongDesc string = `Merge one or more recorded databases into a target.

Nodes are content-addressed, so merging is a simple union: nodes that
already exist in the target are skipped.

Examples:
  adp history merge source1.db source2.db
  adp history merge --sqlite /tmp/merged.db ~/alice/adp.db ~/bob/adp.db`

const mergeShortDesc string = "Merge recorded databases"

type mergeCommander struct {
	flags      *cmdenv.Flags
	sqlitePath string
}

func NewMergeCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &mergeCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "merge [sources...]",
		Short: mergeShortDesc,
		Long:  mergeLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to target SQLite database")

	return cmd
}

func (c *mergeCommander) run(ctx context.Context, cmd *cobra.Command, sources []string) error {
	cfg, err := c.flags.Config()
	if err != nil {
		return err
	}
	targetPath, err := sqlitepath.ResolveSQLitePath(c.sqlitePath, cfg)
	if err != nil {
		return fmt.Errorf("could not resolve target database: %w", err)
	}

	target, err := merkle.NewSQLiteStorer(targetPath)
	if err != nil {
		return fmt.Errorf("could not open target database %s: %w", targetPath, err)
	}
	defer target.Close()

	var totalNew, totalDuped int
	for _, srcPath := range sources {
		srcNew, srcDuped, err := mergeFrom(ctx, target, srcPath)
		if err != nil {
			return err
		}
		totalNew += srcNew
		totalDuped += srcDuped

		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d new, %d already existed\n", srcPath, srcNew, srcDuped)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d new nodes from %d sources (%d already existed) into %s\n",
		totalNew, len(sources), totalDuped, targetPath)

	return nil
}

func mergeFrom(ctx context.Context, target merkle.Storer, srcPath string) (added, duped int, err error) {
	source, err := merkle.NewSQLiteStorer(srcPath)
	if err != nil {
		return 0, 0, fmt.Errorf("could not open source database %s: %w", srcPath, err)
	}
	defer source.Close()

	nodes, err := source.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("could not list nodes from %s: %w", srcPath, err)
	}

	for _, n := range nodes {
		if !n.Verify() {
			return added, duped, fmt.Errorf("node %s in %s does not match its content", n.Hash, srcPath)
		}
		isNew, err := target.Put(ctx, n)
		if err != nil {
			return added, duped, fmt.Errorf("could not put node %s: %w", n.Hash, err)
		}
		if isNew {
			added++
		} else {
			duped++
		}
	}
	return added, duped, nil
}
