package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/irrigo/irrigo/internal/app"
	"github.com/irrigo/irrigo/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load products, projects, team, certifications and banners from YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			content, err := seed.Parse(f)
			if err != nil {
				return err
			}

			e, err := loadEnv(cmd.Context(), true, true)
			if err != nil {
				return err
			}
			defer e.Close()
			services, err := app.BuildServices(app.Deps{Config: e.cfg, Logger: e.logger, Pool: e.pool, Redis: e.redis})
			if err != nil {
				return err
			}

			report, err := seed.Apply(cmd.Context(), seed.Targets{
				Products: services.Catalog,
				Projects: services.Projects,
				Company:  services.Company,
				Banners:  services.Banners,
			}, content, e.logger)
			printReport(cmd, report)
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "content.yaml", "seed file to load")
	return cmd
}

func printReport(cmd *cobra.Command, report seed.Report) {
	sections := make([]string, 0, len(report.Created))
	for section := range report.Created {
		sections = append(sections, section)
	}
	for section := range report.Skipped {
		if _, ok := report.Created[section]; !ok {
			sections = append(sections, section)
		}
	}
	sort.Strings(sections)
	for _, section := range sections {
		fmt.Fprintf(cmd.OutOrStdout(), "%-15s created=%d skipped=%d\n", section, report.Created[section], report.Skipped[section])
	}
}
