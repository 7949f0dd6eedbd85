package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/najah-ai/learner-service/internal/estimator"
)

type trendOptions struct {
	file     string
	target   int
	timezone string
	today    string
	asJSON   bool
}

// trendOutput is what --json prints.
type trendOutput struct {
	TargetLevel  int                        `json:"target_level"`
	CurrentLevel int                        `json:"current_level"`
	Series       []estimator.DailyAggregate `json:"series"`
	Result       estimator.TrendResult      `json:"result"`
}

func newTrendCommand() *cobra.Command {
	opts := trendOptions{}

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Aggregate exercise results per day and analyze the trend",
		Long: `Reads a JSON array of exercise results ({"completed_at": RFC3339, "correct": bool})
from --file, or from stdin when --file is "-", and prints the daily series and trend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(opts.timezone)
			if err != nil {
				return fmt.Errorf("invalid timezone: %w", err)
			}

			today := time.Now().In(loc)
			if opts.today != "" {
				if today, err = time.ParseInLocation(time.DateOnly, opts.today, loc); err != nil {
					return fmt.Errorf("invalid --today: %w", err)
				}
			}

			points, err := readResults(cmd.InOrStdin(), opts.file)
			if err != nil {
				return err
			}

			series := estimator.AggregateDaily(points, loc)
			out := trendOutput{
				TargetLevel:  estimator.NormalizeTargetLevel(opts.target),
				CurrentLevel: estimator.CurrentLevel(series),
				Series:       series,
				Result:       estimator.AnalyzeTrendAt(series, opts.target, today),
			}

			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			renderTrend(cmd.OutOrStdout(), out, loc)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", `results file, "-" for stdin`)
	cmd.Flags().IntVar(&opts.target, "target", estimator.DefaultTargetLevel, "target level (1-10)")
	cmd.Flags().StringVar(&opts.timezone, "tz", "Europe/Paris", "timezone used to cut days")
	cmd.Flags().StringVar(&opts.today, "today", "", "reference day for the prediction (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readResults(stdin io.Reader, path string) ([]estimator.ResultPoint, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open results: %w", err)
		}
		defer f.Close()
		r = f
	}

	var points []estimator.ResultPoint
	if err := json.NewDecoder(r).Decode(&points); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	return points, nil
}

func renderTrend(w io.Writer, out trendOutput, loc *time.Location) {
	fmt.Fprintln(w, titleStyle.Render("Progress trend"))

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-12s %-6s %-9s %-9s", "Date", "Level", "Success", "Exercises")))
	for _, day := range out.Series {
		fmt.Fprintf(w, "%-12s %-6d %-9s %-9d %s\n",
			day.Date.In(loc).Format(time.DateOnly), day.Level,
			fmt.Sprintf("%.1f%%", day.SuccessRate), day.ExerciseCount, bar(day.Level))
	}
	if len(out.Series) == 0 {
		fmt.Fprintln(w, hintStyle.Render("no results"))
	}
	fmt.Fprintln(w)

	predicted := "-"
	if d := out.Result.PredictedCompletionDate; d != nil {
		predicted = d.Format(time.DateOnly)
	}

	fmt.Fprintf(w, "%s%s\n", labelStyle.Render("Trend"), trendStyle(out.Result.Trend).Render(string(out.Result.Trend)))
	fmt.Fprintf(w, "%s%+.2f\n", labelStyle.Render("Improvement rate"), out.Result.ImprovementRate)
	fmt.Fprintf(w, "%s%d / %d\n", labelStyle.Render("Level"), out.CurrentLevel, out.TargetLevel)
	fmt.Fprintf(w, "%s%s\n\n", labelStyle.Render("Target reached on"), predicted)

	for _, rec := range out.Result.Recommendations {
		fmt.Fprintln(w, hintStyle.Render("• "+rec))
	}
}
