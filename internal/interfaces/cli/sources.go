package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/riskibarqy/matchday-sync/internal/config"
	"github.com/spf13/cobra"
)

func (c *command) sourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured leagues, competitions and GAA rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			return printSources(c.out, cfg)
		},
	}
}

func printSources(w io.Writer, cfg config.Config) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tID\tSEASON\tNAME\tSPORT")
	for _, l := range cfg.Sources.Football {
		fmt.Fprintf(tw, "football\t%d\t%d\t-\t%s\n", l.ID, l.Season, l.Sport)
	}
	for _, r := range cfg.Sources.Rugby {
		name := r.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "rugby\t%d\t%d\t%s\t%s\n", r.ID, r.Season, name, r.Sport)
	}
	for _, rule := range cfg.Sources.GAA.Rules {
		fmt.Fprintf(tw, "gaa\t-\t-\t*%s*\t%s\n", rule.Contains, rule.Label)
	}
	fmt.Fprintf(tw, "gaa\t-\t-\t(default, mode=%s)\t%s\n", cfg.GAAMode, cfg.Sources.GAA.DefaultSport)
	return tw.Flush()
}
