package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/strength"
)

func newStrengthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strength [lineup.json]",
		Short: "Rate a starting eleven read from a file or stdin",
		Long: "Reads a JSON array of starters, or an object with a \"starters\" array,\n" +
			"and prints the team strength. Without a file argument stdin is read.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			starters, err := readStarters(in)
			if err != nil {
				return err
			}
			ts, err := strength.Compute(starters)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(ts)
		},
	}
	return cmd
}

func readStarters(r io.Reader) ([]model.RosterEntry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var list []model.RosterEntry
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Starters []model.RosterEntry `json:"starters"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode lineup: %w", err)
	}
	return wrapped.Starters, nil
}
