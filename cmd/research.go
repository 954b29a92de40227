package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/research-engine/internal/model"
)

var (
	researchName     string
	researchDomain   string
	researchLocation string
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Research a single company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		eng, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		company := model.Company{
			Name:     researchName,
			Domain:   researchDomain,
			Location: researchLocation,
		}

		result, err := eng.runCompany(ctx, company)
		if err != nil {
			return eris.Wrap(err, "research run")
		}

		zap.L().Info("research complete",
			zap.String("company", company.Name),
			zap.Float64("composite", result.Report.Composite),
			zap.String("decision", string(result.Decision)),
			zap.Int("sources", len(result.Sources)),
			zap.Float64("cost_usd", result.TotalCostUSD),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	researchCmd.Flags().StringVar(&researchName, "name", "", "company name (required)")
	researchCmd.Flags().StringVar(&researchDomain, "domain", "", "company website domain")
	researchCmd.Flags().StringVar(&researchLocation, "location", "", "company location")
	_ = researchCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(researchCmd)
}
