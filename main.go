package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bqexplore/adapters"
	"bqexplore/chart"
	"bqexplore/core"
	"bqexplore/core/format"
	"bqexplore/explorer"
	"bqexplore/output"
	"bqexplore/secrets"
	"bqexplore/tui"
)

var (
	flagConnection string
	flagType       string
	flagSecrets    string
	flagLogFile    string
	flagVerbose    bool

	flagParams    []string
	flagFormat    string
	flagOut       string
	flagChart     string
	flagChartCols []string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bqexplore",
	Short: "Interactive BigQuery data explorer",
	Long: `bqexplore runs SQL against BigQuery and renders results as tables
and terminal charts.

Run without arguments to start the interactive explorer. Credentials are
read from a yaml secrets file holding a gcp_service_account section
(default: ` + secrets.DefaultPath() + `).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if flagVerbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		// The interactive screen owns the terminal, so logs always go to a
		// file there.
		if flagLogFile != "" {
			config.OutputPaths = []string{flagLogFile}
			config.ErrorOutputPaths = []string{flagLogFile}
		} else if cmd.CalledAs() == cmd.Root().Use {
			config.OutputPaths = []string{os.DevNull}
			config.ErrorOutputPaths = []string{os.DevNull}
		}

		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := newExplorer()
		if err != nil {
			return err
		}
		defer exp.Close()

		program := tea.NewProgram(tui.New(exp, logger), tea.WithAltScreen())
		_, err = program.Run()
		return err
	},
}

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Run a single query and print the result",
	Long: `Runs a query and prints the result in the requested format.

Named @placeholders in the query are bound with repeated --param flags in
name:TYPE:value form, where TYPE is STRING or INT64:

  bqexplore query 'SELECT name FROM ds.people WHERE state = @state' \
      --param state:STRING:TX`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Print the dataset and table tree of the connection",
	Args:  cobra.NoArgs,
	RunE:  runStructure,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConnection, "connection", "", "connection url (default bigquery:// with detected project)")
	rootCmd.PersistentFlags().StringVar(&flagType, "type", "bigquery", "adapter type")
	rootCmd.PersistentFlags().StringVar(&flagSecrets, "secrets", "", "path to the yaml secrets file")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	queryCmd.Flags().StringArrayVar(&flagParams, "param", nil, "query parameter as name:TYPE:value (repeatable)")
	queryCmd.Flags().StringVar(&flagFormat, "format", "table", "output format: table, csv or json")
	queryCmd.Flags().StringVar(&flagOut, "out", "", "write the result to this file instead of stdout")
	queryCmd.Flags().StringVar(&flagChart, "chart", "", "also draw a chart: bar, line or area")
	queryCmd.Flags().StringSliceVar(&flagChartCols, "chart-columns", nil, "category and value column for the chart")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(structureCmd)
}

// connectionURL assembles the adapter url from the flags. An explicit
// --connection wins; --secrets is merged in either way.
func connectionURL() (string, error) {
	raw := flagConnection
	if raw == "" {
		raw = flagType + "://"
	}

	if flagSecrets == "" {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid connection url: %w", err)
	}
	q := u.Query()
	q.Set("secrets", flagSecrets)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func newExplorer() (*explorer.Explorer, error) {
	adapter, err := new(adapters.Mux).GetAdapter(flagType)
	if err != nil {
		return nil, err
	}

	u, err := connectionURL()
	if err != nil {
		return nil, err
	}

	params := &core.ConnectionParams{
		Name: "default",
		Type: flagType,
		URL:  u,
	}

	return explorer.New(params, adapter, explorer.WithLogger(logger)), nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	exp, err := newExplorer()
	if err != nil {
		return err
	}
	defer exp.Close()

	var formatter core.Formatter
	switch flagFormat {
	case "table":
		formatter = format.NewTable()
	case "csv":
		formatter = format.NewCSV()
	case "json":
		formatter = format.NewJSON()
	default:
		return fmt.Errorf("unknown format: %q", flagFormat)
	}

	var result *core.Result
	if len(flagParams) > 0 {
		params := make([]core.Parameter, 0, len(flagParams))
		for _, raw := range flagParams {
			p, err := core.ParseParameter(raw)
			if err != nil {
				return err
			}
			params = append(params, p)
		}
		result, err = exp.RunParameterized(cmd.Context(), args[0], params)
	} else {
		result, err = exp.RunLiteral(cmd.Context(), args[0])
	}
	if err != nil {
		return err
	}

	if flagOut != "" {
		if err := output.NewFile(flagOut, formatter, logger).Write(result); err != nil {
			return err
		}
	} else {
		out, err := result.Format(formatter, 0, -1)
		if err != nil {
			return err
		}
		cmd.OutOrStdout().Write(out)
	}

	if flagChart != "" {
		if err := printChart(cmd, result); err != nil {
			return err
		}
	}

	return nil
}

func printChart(cmd *cobra.Command, result *core.Result) error {
	kind, err := chart.ParseKind(flagChart)
	if err != nil {
		return err
	}

	header := result.Header()
	if len(header) < 2 {
		return fmt.Errorf("charting needs at least a category and a value column")
	}

	categoryCol, valueCol := header[0], header[len(header)-1]
	if len(flagChartCols) == 2 {
		categoryCol, valueCol = flagChartCols[0], flagChartCols[1]
	} else if len(flagChartCols) != 0 {
		return fmt.Errorf("--chart-columns takes exactly two columns: category,value")
	}

	rows, err := result.Rows(0, -1)
	if err != nil {
		return err
	}

	plot, err := chart.Render(header, rows, kind, categoryCol, valueCol, chart.Options{})
	if err != nil {
		return err
	}
	if plot != "" {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), plot)
	}

	return nil
}

func runStructure(cmd *cobra.Command, args []string) error {
	exp, err := newExplorer()
	if err != nil {
		return err
	}
	defer exp.Close()

	structure, err := exp.Structure()
	if err != nil {
		return err
	}

	for _, node := range structure {
		printStructure(cmd, node, 0)
	}
	return nil
}

func printStructure(cmd *cobra.Command, node *core.Structure, depth int) {
	label := node.Name
	if typ := node.Type.String(); typ != "" {
		label = fmt.Sprintf("%s (%s)", node.Name, typ)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", strings.Repeat("  ", depth), label)

	for _, child := range node.Children {
		printStructure(cmd, child, depth+1)
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
