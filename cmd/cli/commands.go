package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"gopower/adapters/excel"
	"gopower/adapters/stats/power"
	domainPower "gopower/domain/power"
	"gopower/internal/errors"
	"gopower/internal/report"
	"gopower/internal/scenario"
	"gopower/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (a *cliApp) newSampleSizeCmd() *cobra.Command {
	var reference, alternative, level float64
	var labels map[string]string

	cmd := &cobra.Command{
		Use:   "sample-size",
		Short: "Compute the number of responses a survey needs",
		Long: `Compute the sample size needed to detect the alternative proportion
against the reference with the given power.

Example: gopower-cli sample-size --reference 0.5 --alternative 0.6 --power 0.8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("power") {
				level = a.config.Power.DefaultPower
			}
			out, err := a.container.PowerService.SampleSize(cmd.Context(), domainPower.SampleSizeRequest{
				Reference:   domainPower.Proportion(reference),
				Alternative: domainPower.Proportion(alternative),
				Power:       domainPower.PowerLevel(level),
			}, models.Labels(labels))
			if err != nil {
				return err
			}

			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				r := out.Result
				fmt.Fprintf(w, "reference %g, alternative %g, power %g (z_alpha %.4f, z_beta %.4f)\n",
					float64(r.Request.Reference), float64(r.Request.Alternative), float64(r.Request.Power), r.ZAlpha, r.ZBeta)
				fmt.Fprintf(w, "n = %.2f, survey %d responses\n", r.SampleSize, r.Required)
				fmt.Fprintf(w, "id %s\n", out.RecordID)
			})
		},
	}

	cmd.Flags().Float64Var(&reference, "reference", 0, "Reference proportion in (0,1)")
	cmd.Flags().Float64Var(&alternative, "alternative", 0, "Alternative proportion in (0,1)")
	cmd.Flags().Float64Var(&level, "power", 0.8, "Power level in (0,1); defaults to POWER_DEFAULT_LEVEL")
	cmd.Flags().StringToStringVar(&labels, "label", nil, "Label stored with the calculation (key=value)")
	_ = cmd.MarkFlagRequired("reference")
	_ = cmd.MarkFlagRequired("alternative")

	return cmd
}

func (a *cliApp) newPowerCmd() *cobra.Command {
	var reference, alternative, n float64

	cmd := &cobra.Command{
		Use:   "power",
		Short: "Compute the power a survey of n responses reaches",
		Long: `Invert the sample size formula: the probability that a survey of n
responses detects the alternative proportion.

Example: gopower-cli power --reference 0.5 --alternative 0.6 --n 150`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.container.PowerService.AchievedPower(cmd.Context(), reference, alternative, n, nil)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "n = %g reaches power %.4f (z_alpha %.4f)\n", n, out.Result.Power, out.Result.ZAlpha)
			})
		},
	}

	cmd.Flags().Float64Var(&reference, "reference", 0, "Reference proportion in (0,1)")
	cmd.Flags().Float64Var(&alternative, "alternative", 0, "Alternative proportion in (0,1)")
	cmd.Flags().Float64Var(&n, "n", 0, "Number of responses")
	_ = cmd.MarkFlagRequired("reference")
	_ = cmd.MarkFlagRequired("alternative")
	_ = cmd.MarkFlagRequired("n")

	return cmd
}

func (a *cliApp) newRetrodesignCmd() *cobra.Command {
	var req power.RetrodesignRequest

	cmd := &cobra.Command{
		Use:   "retrodesign",
		Short: "Type S and Type M errors of a design",
		Long: `Report the power, the probability of a significant estimate having the
wrong sign (Type S) and the expected exaggeration of significant estimates
(Type M) for a hypothesised true effect and standard error.

Example: gopower-cli retrodesign --effect 0.1 --se 3.28`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.container.PowerService.Retrodesign(req)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), result, func(w io.Writer) {
				fmt.Fprintf(w, "power %.4f\n", result.Power)
				fmt.Fprintf(w, "type S %.4f\n", result.TypeS)
				fmt.Fprintf(w, "exaggeration %.2f (%d significant draws)\n", result.Exaggeration, result.Significant)
			})
		},
	}

	cmd.Flags().Float64Var(&req.TrueEffect, "effect", 0, "Hypothesised true effect")
	cmd.Flags().Float64Var(&req.StandardError, "se", 0, "Standard error of the estimate")
	cmd.Flags().Float64Var(&req.Alpha, "alpha", 0.05, "Two-sided significance level")
	cmd.Flags().IntVar(&req.Draws, "draws", power.DefaultRetrodesignDraws, "Simulated estimates for the exaggeration ratio")
	cmd.Flags().Uint64Var(&req.Seed, "seed", 0, "Random seed; defaults to SIM_SEED")
	_ = cmd.MarkFlagRequired("effect")
	_ = cmd.MarkFlagRequired("se")

	return cmd
}

func (a *cliApp) newSimulateCmd() *cobra.Command {
	var req power.SimulationRequest

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Check the power of a survey size by simulation",
		Long: `Draw synthetic surveys at the alternative proportion and count how often
the difference from the reference is detected.

Example: gopower-cli simulate --reference 0.5 --alternative 0.6 --n 197 --trials 10000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.container.PowerService.Simulate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), result, func(w io.Writer) {
				fmt.Fprintf(w, "empirical power %.4f ± %.4f (%d of %d trials)\n",
					result.EmpiricalPower, result.MonteCarloSE, result.Rejections, result.Trials)
				fmt.Fprintf(w, "estimate mean %.4f, sd %.4f, 95%% range %.4f to %.4f\n",
					result.MeanEstimate, result.StdDevEstimate, result.LowerEstimate, result.UpperEstimate)
			})
		},
	}

	cmd.Flags().Float64Var(&req.Reference, "reference", 0, "Reference proportion in (0,1)")
	cmd.Flags().Float64Var(&req.Alternative, "alternative", 0, "Alternative proportion in (0,1)")
	cmd.Flags().IntVar(&req.SampleSize, "n", 0, "Responses per synthetic survey")
	cmd.Flags().IntVar(&req.Trials, "trials", 0, "Synthetic surveys; defaults to SIM_TRIALS")
	cmd.Flags().IntVar(&req.Workers, "workers", 0, "Parallel workers; defaults to SIM_WORKERS")
	cmd.Flags().Uint64Var(&req.Seed, "seed", 0, "Random seed; defaults to SIM_SEED")
	_ = cmd.MarkFlagRequired("reference")
	_ = cmd.MarkFlagRequired("alternative")
	_ = cmd.MarkFlagRequired("n")

	return cmd
}

func (a *cliApp) newCurveCmd() *cobra.Command {
	var reference float64
	var alternatives, powers []float64
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Tabulate sample sizes over alternatives and power levels",
		Long: `Compute a grid of sample sizes, one row per alternative proportion and
one column per power level, optionally writing it to an Excel workbook.

Example: gopower-cli curve --reference 0.5 --alternatives 0.55,0.6,0.65 --xlsx curve.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			curve, err := a.container.PowerService.Curve(reference, alternatives, powers)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := writeFile(xlsxPath, func(w io.Writer) error { return excel.WriteCurve(w, curve) }); err != nil {
					return err
				}
			}

			return a.emit(cmd.OutOrStdout(), curve, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
				fmt.Fprint(tw, "alternative\t")
				for _, p := range curve.Powers {
					fmt.Fprintf(tw, "%g\t", p)
				}
				fmt.Fprintln(tw)
				for i, row := range curve.Rows {
					fmt.Fprintf(tw, "%g\t", curve.Alternatives[i])
					for _, cell := range row {
						if cell.Err != "" {
							fmt.Fprint(tw, "-\t")
						} else {
							fmt.Fprintf(tw, "%d\t", cell.Required)
						}
					}
					fmt.Fprintln(tw)
				}
				tw.Flush()
				if xlsxPath != "" {
					fmt.Fprintf(w, "wrote %s\n", xlsxPath)
				}
			})
		},
	}

	cmd.Flags().Float64Var(&reference, "reference", 0, "Reference proportion in (0,1)")
	cmd.Flags().Float64SliceVar(&alternatives, "alternatives", nil, "Alternative proportions")
	cmd.Flags().Float64SliceVar(&powers, "powers", []float64{0.8, 0.9, 0.95}, "Power levels")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the grid to this .xlsx file")
	_ = cmd.MarkFlagRequired("reference")
	_ = cmd.MarkFlagRequired("alternatives")

	return cmd
}

func (a *cliApp) newBatchCmd() *cobra.Command {
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "batch [scenarios.yaml|requests.xlsx|requests.csv]",
		Short: "Compute sample sizes for every scenario in a file",
		Long: `Compute a sample size for each scenario. YAML files hold a list under
"scenarios" with name, reference, alternative and power; spreadsheets hold one
scenario per row under a header row. Invalid scenarios are reported and do
not stop the batch.

Example: gopower-cli batch scenarios.yaml --xlsx results.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := loadScenarios(args[0])
			if err != nil {
				return err
			}

			outcomes, err := a.container.PowerService.Batch(cmd.Context(), scenarios)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := writeFile(xlsxPath, func(w io.Writer) error { return excel.WriteBatch(w, outcomes) }); err != nil {
					return err
				}
			}

			return a.emit(cmd.OutOrStdout(), outcomes, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "name\treference\talternative\tpower\tsurvey size")
				for _, o := range outcomes {
					req := o.Scenario.Request
					size := o.Error
					if o.Result != nil {
						size = fmt.Sprintf("%d", o.Result.Required)
					}
					fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%s\n", o.Scenario.Name,
						float64(req.Reference), float64(req.Alternative), float64(req.Power), size)
				}
				tw.Flush()
				if xlsxPath != "" {
					fmt.Fprintf(w, "wrote %s\n", xlsxPath)
				}
			})
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the results to this .xlsx file")

	return cmd
}

func (a *cliApp) newReportCmd() *cobra.Command {
	var reference, alternative, level float64
	var id, outPath string
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the worked-example report of a sample size",
		Long: `Render a markdown report explaining a sample size calculation, with a
simulation check. Use --id for a stored calculation or the proportion flags
for a new one.

Example: gopower-cli report --reference 0.5 --alternative 0.6 --power 0.95 --html --out report.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service := a.container.PowerService

			var md string
			var err error
			if id != "" {
				recordID, perr := uuid.Parse(id)
				if perr != nil {
					return errors.InvalidInputf("id", "invalid calculation id %q", id)
				}
				md, err = service.Report(cmd.Context(), recordID)
			} else {
				if !cmd.Flags().Changed("power") {
					level = a.config.Power.DefaultPower
				}
				md, err = service.ReportFor(cmd.Context(), domainPower.SampleSizeRequest{
					Reference:   domainPower.Proportion(reference),
					Alternative: domainPower.Proportion(alternative),
					Power:       domainPower.PowerLevel(level),
				})
			}
			if err != nil {
				return err
			}

			content := []byte(md)
			if asHTML {
				if content, err = report.Page("Sample size report", report.HTML(md)); err != nil {
					return err
				}
			}

			if outPath == "" {
				_, err := cmd.OutOrStdout().Write(content)
				return err
			}
			if err := os.WriteFile(outPath, content, 0o644); err != nil {
				return errors.Wrapf(err, "failed to write %s", outPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "ID of a stored sample size calculation")
	cmd.Flags().Float64Var(&reference, "reference", 0, "Reference proportion in (0,1)")
	cmd.Flags().Float64Var(&alternative, "alternative", 0, "Alternative proportion in (0,1)")
	cmd.Flags().Float64Var(&level, "power", 0.8, "Power level in (0,1); defaults to POWER_DEFAULT_LEVEL")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of markdown")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the report to this file")
	cmd.MarkFlagsMutuallyExclusive("id", "reference")
	cmd.MarkFlagsMutuallyExclusive("id", "alternative")

	return cmd
}

func (a *cliApp) newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored calculations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.container.PowerService.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), records, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "id\tkind\treference\talternative\tpower\tsurvey size\tcreated")
				for _, r := range records {
					fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%.4g\t%d\t%s\n", r.ID, r.Kind,
						r.Reference, r.Alternative, r.Power, r.Required, r.CreatedAt.Format("2006-01-02 15:04"))
				}
				tw.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of calculations; 0 lists all")

	return cmd
}

// loadScenarios picks the reader by file extension
func loadScenarios(path string) ([]domainPower.Scenario, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return scenario.LoadFile(path)
	default:
		return excel.ReadScenarios(path)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
