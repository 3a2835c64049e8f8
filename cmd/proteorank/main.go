// Command proteorank benchmarks compound similarity rankings against
// known drug-indication associations and converts legacy matrix files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/proteorank/proteorank"
	"github.com/proteorank/proteorank/benchmark"
	"github.com/proteorank/proteorank/distance"
	"github.com/proteorank/proteorank/matrix"
	"github.com/proteorank/proteorank/pathway"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "proteorank",
		Short:         "Compound similarity ranking and benchmarking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default proteorank.yaml)")
	cmd.PersistentFlags().String("compound-map", "", "compound mapping file")
	cmd.PersistentFlags().String("indication-map", "", "indication mapping file")
	cmd.PersistentFlags().String("matrix", "", "interaction matrix file")
	cmd.PersistentFlags().String("metric", "rmsd", "distance metric (rmsd, cosine, correlation, euclidean, cityblock)")
	cmd.PersistentFlags().Int("workers", 0, "distance worker count (0 = all cores)")
	cmd.PersistentFlags().Bool("verbose", false, "debug logging")

	cmd.AddCommand(newBenchmarkCmd(), newConvertCmd(), newFetchCmd())
	return cmd
}

func initConfig(cmd *cobra.Command, cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("proteorank")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("PROTEORANK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return viper.BindPFlags(cmd.Flags())
}

func newLogger() *proteorank.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return proteorank.NewTextLogger(level)
}

func buildPlatform(ctx context.Context) (*proteorank.Platform, error) {
	metric, err := distance.ParseMetric(viper.GetString("metric"))
	if err != nil {
		return nil, err
	}

	opts := []proteorank.Option{
		proteorank.WithMatrix(viper.GetString("matrix")),
		proteorank.WithMetric(metric),
		proteorank.WithWorkers(viper.GetInt("workers")),
		proteorank.WithLogger(newLogger()),
	}

	if v := viper.GetString("protein-set"); v != "" {
		opts = append(opts, proteorank.WithProteinSet(v))
	}
	if v := viper.GetString("remap"); v != "" {
		opts = append(opts, proteorank.WithRemap(v))
	}
	if v := viper.GetString("pathways"); v != "" {
		opts = append(opts, proteorank.WithPathways(v))
	}
	if v := viper.GetString("indication-pathways"); v != "" {
		opts = append(opts, proteorank.WithIndicationPathways(v))
	}
	if v := viper.GetString("indication-proteins"); v != "" {
		opts = append(opts, proteorank.WithIndicationProteins(v))
	}
	if v := viper.GetString("adr-map"); v != "" {
		opts = append(opts, proteorank.WithADRs(v))
	}
	if v := viper.GetString("disease-groups"); v != "" {
		opts = append(opts, proteorank.WithDiseaseGroups(v))
	}
	if v := viper.GetString("quantifier"); v != "" {
		q, err := pathway.ParseQuantifier(v)
		if err != nil {
			return nil, err
		}
		opts = append(opts, proteorank.WithPathwayQuantifier(q))
	}
	if v := viper.GetString("read-distances"); v != "" {
		opts = append(opts, proteorank.WithReadDistances(v))
	} else {
		opts = append(opts, proteorank.WithComputeDistances())
	}
	if v := viper.GetString("save-distances"); v != "" {
		opts = append(opts, proteorank.WithSaveDistances(v))
	}
	if viper.GetBool("similarity") {
		opts = append(opts, proteorank.WithSimilarity())
	}
	if viper.GetBool("remove-zeros") {
		opts = append(opts, proteorank.WithRemoveZeros())
	}
	if v := viper.GetString("remove-compounds"); v != "" {
		opts = append(opts, proteorank.WithRemoveCompounds(v))
	}

	return proteorank.New(ctx,
		viper.GetString("compound-map"),
		viper.GetString("indication-map"),
		opts...)
}

func newBenchmarkCmd() *cobra.Command {
	var spec proteorank.BenchmarkSpec
	var associated, bottom bool

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Score rankings against known associations",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPlatform(cmd.Context())
			if err != nil {
				return err
			}

			var res *benchmark.Results
			switch {
			case associated:
				res, err = p.BenchmarkAssociated(cmd.Context(), spec)
			case bottom:
				res, err = p.BenchmarkBottom(cmd.Context(), spec)
			default:
				res, err = p.Benchmark(cmd.Context(), spec)
			}
			if err != nil {
				return err
			}

			for i, v := range res.AIA() {
				fmt.Printf("aia[%d]\t%.3f\n", i, v)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&spec.Name, "name", "run", "report file tag")
	cmd.Flags().StringVar(&spec.OutDir, "out", ".", "report output directory")
	cmd.Flags().StringSliceVar(&spec.IndicationIDs, "indications", nil, "restrict to indication ids")
	cmd.Flags().BoolVar(&spec.ADRs, "adrs", false, "score ADRs instead of indications")
	cmd.Flags().StringVar(&spec.Category, "category", "", "indication category (pathogen, human)")
	cmd.Flags().BoolVar(&spec.Continuous, "continuous", false, "distance-percentile cutoffs")
	cmd.Flags().StringVar(&spec.Ranking, "ranking", "standard", "tie-break policy (standard, modified, ordinal)")
	cmd.Flags().BoolVar(&associated, "associated", false, "restrict to effect-associated compounds")
	cmd.Flags().BoolVar(&bottom, "bottom", false, "reverse-ranking negative control")

	return cmd
}

func newConvertCmd() *cobra.Command {
	var out string
	var scale bool

	cmd := &cobra.Command{
		Use:   "convert <matrix>",
		Short: "Convert a legacy fixed-width matrix to TSV, or flip a distance/similarity matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if scale {
				if out == "" {
					return fmt.Errorf("--out is required with --scale")
				}
				return matrix.ConvertScale(args[0], out)
			}
			dest, err := matrix.ConvertFixedWidth(args[0], out)
			if err != nil {
				return err
			}
			fmt.Println(dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output path (default derived from input)")
	cmd.Flags().BoolVar(&scale, "scale", false, "convert distance<->similarity instead of fixed-width")
	return cmd
}
