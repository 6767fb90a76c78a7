package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/unidoc/unipdf/v3/creator"
	"github.com/unidoc/unipdf/v3/model"

	"sdgtrack/internal/engine"
	"sdgtrack/internal/tracker"
)

// Generator renders goal progress snapshots as PDF files. Every report is
// computed fresh through the tracker service; nothing is read back from
// cached columns.
type Generator struct {
	svc       *tracker.Service
	outputDir string
}

func NewGenerator(svc *tracker.Service, outputDir string) *Generator {
	return &Generator{svc: svc, outputDir: outputDir}
}

// GoalReport resolves the goal and writes a PDF with the per-indicator
// progress table plus a yearly trend table per indicator that has
// observations. Returns the written file path.
func (g *Generator) GoalReport(ctx context.Context, goalID uint) (string, error) {
	progress, err := g.svc.GoalProgress(ctx, goalID)
	if err != nil {
		return "", err
	}

	regular, err := model.NewStandard14Font(model.HelveticaName)
	if err != nil {
		return "", fmt.Errorf("load font: %w", err)
	}
	bold, err := model.NewStandard14Font(model.HelveticaBoldName)
	if err != nil {
		return "", fmt.Errorf("load font: %w", err)
	}

	c := creator.New()
	c.SetPageMargins(50, 50, 60, 60)
	c.NewPage()

	title := c.NewParagraph(fmt.Sprintf("Goal %d: %s", progress.Number, progress.Title))
	title.SetFont(bold)
	title.SetFontSize(20)
	title.SetMargins(0, 0, 0, 6)
	if err := c.Draw(title); err != nil {
		return "", fmt.Errorf("draw title: %w", err)
	}

	sub := c.NewParagraph(fmt.Sprintf("Overall progress %.1f%% across %d indicators, generated %s",
		progress.Overall, len(progress.Indicators), time.Now().Format("2006-01-02 15:04")))
	sub.SetFont(regular)
	sub.SetFontSize(10)
	sub.SetMargins(0, 0, 0, 18)
	if err := c.Draw(sub); err != nil {
		return "", fmt.Errorf("draw subtitle: %w", err)
	}

	if err := g.drawIndicatorTable(c, regular, bold, progress.Indicators); err != nil {
		return "", err
	}

	for _, ind := range progress.Indicators {
		trend, terr := g.svc.GoalIndicatorTrend(ctx, goalID, ind.BindingID, engine.GranularityYear, time.Time{}, time.Now())
		if terr != nil {
			if !errors.Is(terr, engine.ErrNoTemporalData) {
				log.Printf("[Report] trend for indicator %d skipped: %v", ind.BindingID, terr)
			}
			continue
		}
		if err := g.drawTrendTable(c, regular, bold, ind.Name, trend); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(g.outputDir, fmt.Sprintf("goal-%d-%s.pdf", goalID, uuid.NewString()))
	if err := c.WriteToFile(path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func (g *Generator) drawIndicatorTable(c *creator.Creator, regular, bold *model.PdfFont, rows []tracker.IndicatorProgress) error {
	table := c.NewTable(4)
	if err := table.SetColumnWidths(0.46, 0.18, 0.18, 0.18); err != nil {
		return fmt.Errorf("indicator table: %w", err)
	}
	for _, h := range []string{"Indicator", "Value", "Target %", "Status"} {
		if err := tableCell(c, table, bold, h); err != nil {
			return err
		}
	}
	for _, row := range rows {
		value := "-"
		if row.Value != nil {
			value = fmt.Sprintf("%.2f", *row.Value)
		}
		pct := "-"
		if !row.Progress.NoTarget && row.Status == tracker.StatusOK {
			pct = fmt.Sprintf("%.1f%%", row.Progress.Percentage)
		}
		for _, text := range []string{row.Name, value, pct, statusLabel(row.Status)} {
			if err := tableCell(c, table, regular, text); err != nil {
				return err
			}
		}
	}
	table.SetMargins(0, 0, 0, 18)
	if err := c.Draw(table); err != nil {
		return fmt.Errorf("draw indicator table: %w", err)
	}
	return nil
}

func (g *Generator) drawTrendTable(c *creator.Creator, regular, bold *model.PdfFont, name string, trend *tracker.Trend) error {
	heading := c.NewParagraph(fmt.Sprintf("%s (%s), net change %+.2f", name, trend.FieldName, trend.Summary.NetChange))
	heading.SetFont(bold)
	heading.SetFontSize(12)
	heading.SetMargins(0, 0, 0, 6)
	if err := c.Draw(heading); err != nil {
		return fmt.Errorf("draw trend heading: %w", err)
	}

	table := c.NewTable(3)
	if err := table.SetColumnWidths(0.34, 0.33, 0.33); err != nil {
		return fmt.Errorf("trend table: %w", err)
	}
	for _, h := range []string{"Period", "Value", "Progress"} {
		if err := tableCell(c, table, bold, h); err != nil {
			return err
		}
	}
	for _, point := range trend.Series {
		pct := "-"
		if !point.Percentage.NoTarget {
			pct = fmt.Sprintf("%.1f%%", point.Percentage.Percentage)
		}
		for _, text := range []string{point.Period, fmt.Sprintf("%.2f", point.Value), pct} {
			if err := tableCell(c, table, regular, text); err != nil {
				return err
			}
		}
	}
	table.SetMargins(0, 0, 0, 14)
	if err := c.Draw(table); err != nil {
		return fmt.Errorf("draw trend table: %w", err)
	}
	return nil
}

func tableCell(c *creator.Creator, table *creator.Table, font *model.PdfFont, text string) error {
	p := c.NewParagraph(text)
	p.SetFont(font)
	p.SetFontSize(9)
	cell := table.NewCell()
	cell.SetBorder(creator.CellBorderSideAll, creator.CellBorderStyleSingle, 0.5)
	cell.SetIndent(3)
	if err := cell.SetContent(p); err != nil {
		return fmt.Errorf("table cell: %w", err)
	}
	return nil
}

func statusLabel(status string) string {
	switch status {
	case tracker.StatusOK:
		return "OK"
	case tracker.StatusNotConfigured:
		return "Not configured"
	case tracker.StatusNoTarget:
		return "No target"
	case tracker.StatusCycleDetected:
		return "Cycle detected"
	case tracker.StatusComputationError:
		return "Computation error"
	default:
		return status
	}
}
