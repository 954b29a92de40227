package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/pkg/notion"
)

var batchLimit int

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Research every queued company from the Notion queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Notion.Token == "" || cfg.Notion.QueueDB == "" {
			return eris.New("notion token and queue database ID are required for batch mode")
		}

		eng, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		notionClient := notion.NewClient(cfg.Notion.Token)
		queued, err := notion.QueryQueuedCompanies(ctx, notionClient, cfg.Notion.QueueDB)
		if err != nil {
			return eris.Wrap(err, "load queue")
		}
		if batchLimit > 0 && len(queued) > batchLimit {
			queued = queued[:batchLimit]
		}

		zap.L().Info("batch starting",
			zap.Int("companies", len(queued)),
			zap.Int("concurrency", cfg.Batch.MaxConcurrentCompanies),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentCompanies)

		var succeeded, failed int
		done := make(chan bool, len(queued))

		for _, qc := range queued {
			g.Go(func() error {
				company := model.Company{
					Name:         qc.Name,
					Domain:       qc.Domain,
					Location:     qc.Location,
					NotionPageID: qc.PageID,
				}

				if err := notion.MarkStatus(gctx, notionClient, qc.PageID, "Researching"); err != nil {
					zap.L().Warn("batch: mark researching failed",
						zap.String("company", qc.Name), zap.Error(err))
				}

				result, err := eng.runCompany(gctx, company)
				status := "Complete"
				if err != nil {
					status = "Failed"
					zap.L().Error("batch: company failed",
						zap.String("company", qc.Name), zap.Error(err))
				} else {
					zap.L().Info("batch: company done",
						zap.String("company", qc.Name),
						zap.Float64("composite", result.Report.Composite),
						zap.String("decision", string(result.Decision)),
					)
				}
				done <- err == nil

				if err := notion.MarkStatus(gctx, notionClient, qc.PageID, status); err != nil {
					zap.L().Warn("batch: mark status failed",
						zap.String("company", qc.Name), zap.Error(err))
				}
				// A single company failing must not cancel its siblings.
				return nil
			})
		}
		_ = g.Wait()
		close(done)
		for ok := range done {
			if ok {
				succeeded++
			} else {
				failed++
			}
		}

		zap.L().Info("batch complete",
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max companies to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}
