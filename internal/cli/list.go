package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dshills/gitnewer/internal/runner"
	"github.com/dshills/gitnewer/internal/store"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured tasks, targets, and aliases",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		s, err := store.Load(cfg.TasksFile)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		writeList(cmd.OutOrStdout(), s, newRunner(s, cfg).Registered())
		return nil
	},
}

func writeList(w io.Writer, s *store.Store, registered []string) {
	fmt.Fprintln(w, "Tasks:")
	for _, task := range s.Tasks() {
		var targets []string
		keys, _ := s.Targets(task)
		for _, k := range keys {
			if runner.IsTargetName(k) {
				targets = append(targets, k)
			}
		}
		if len(targets) == 0 {
			fmt.Fprintf(w, "  %s\n", task)
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", task, strings.Join(targets, ", "))
	}

	aliases := s.Aliases()
	if len(aliases) > 0 {
		names := make([]string, 0, len(aliases))
		for name := range aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(w, "Aliases:")
		for _, name := range names {
			fmt.Fprintf(w, "  %s -> %s\n", name, strings.Join(aliases[name], " "))
		}
	}

	fmt.Fprintln(w, "Built-in:")
	for _, name := range registered {
		fmt.Fprintf(w, "  %s\n", name)
	}
}
