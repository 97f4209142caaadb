// Command sheetconv converts between xlsx sheets and JSON, YAML or HCL rows.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/genelet/sheetcast/convert"
	"github.com/genelet/sheetcast/excel"
	"github.com/genelet/sheetcast/sheet"
)

type encoder func([]string, []map[string]string) ([]byte, error)

type decoder func([]byte) ([]string, []map[string]string, error)

var encoders = map[string]encoder{
	"json": convert.RowsToJSON,
	"yaml": convert.RowsToYAML,
	"hcl":  convert.RowsToHCL,
}

var decoders = map[string]decoder{
	"json": convert.JSONToRows,
	"yaml": convert.YAMLToRows,
	"hcl":  convert.HCLToRows,
}

type settings struct {
	configPath string
	verbose    bool
	sheetName  string
	format     string
	outputPath string
	maxRows    int
	limit      int
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	s := &settings{}
	rootCmd := &cobra.Command{
		Use:   "sheetconv",
		Short: "Convert between xlsx sheets and JSON, YAML or HCL rows",
		Long: `sheetconv exports the rows of one worksheet as a header plus a list of
row objects, and imports such documents back into a workbook.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&s.configPath, "config", "", "YAML or HCL (.hcl) config file with reader and writer options")
	rootCmd.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "Log debug messages")
	rootCmd.PersistentFlags().StringVarP(&s.outputPath, "output", "o", "", "Output file path")
	rootCmd.PersistentFlags().StringVar(&s.format, "format", "", "Document format: json, yaml, hcl (default: from file extension, else json)")
	rootCmd.PersistentFlags().IntVar(&s.limit, "limit", 0, "Maximum number of data rows")

	exportCmd := &cobra.Command{
		Use:   "export [input.xlsx]",
		Short: "Write the rows of a worksheet as a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(s, args[0], stdout)
		},
	}
	exportCmd.Flags().StringVar(&s.sheetName, "sheet", "", "Worksheet name (default: the active sheet)")

	importCmd := &cobra.Command{
		Use:   "import [input]",
		Short: "Write a document of rows to an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(s, args[0])
		},
	}
	importCmd.Flags().IntVar(&s.maxRows, "max-rows", 0, "Start a new sheet after this many data rows")

	rootCmd.AddCommand(exportCmd, importCmd)
	return rootCmd
}

// options merges the config file, if any, with the command line.
func (s *settings) options() ([]excel.Option, *excel.Config, error) {
	logger := logrus.New()
	if s.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	cfg := &excel.Config{}
	if s.configPath != "" {
		var err error
		if cfg, err = excel.LoadConfig(s.configPath); err != nil {
			return nil, nil, err
		}
	}
	if s.sheetName != "" {
		cfg.Sheet = s.sheetName
	}
	if s.maxRows != 0 {
		cfg.MaxRowsPerSheet = s.maxRows
	}
	if s.limit != 0 {
		cfg.Limit = s.limit
	}
	return append(cfg.Options(), excel.WithLogger(logger)), cfg, nil
}

func formatOf(explicit, path string) (string, error) {
	format := explicit
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = "yaml"
		case ".hcl":
			format = "hcl"
		default:
			format = "json"
		}
	}
	if _, ok := encoders[format]; !ok {
		return "", fmt.Errorf("invalid format: %s (must be json, yaml, or hcl)", format)
	}
	return format, nil
}

func runExport(s *settings, inputPath string, stdout io.Writer) error {
	opts, cfg, err := s.options()
	if err != nil {
		return err
	}
	format, err := formatOf(s.format, s.outputPath)
	if err != nil {
		return err
	}

	src, err := sheet.OpenXLSX(inputPath, cfg.Sheet)
	if err != nil {
		return err
	}
	defer src.Close()

	header, rows, err := excel.ReadTable(src, opts...)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}
	data, err := encoders[format](header, rows)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	if s.outputPath == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(s.outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runImport(s *settings, inputPath string) error {
	if s.outputPath == "" {
		return fmt.Errorf("an output workbook is required (-o)")
	}
	opts, cfg, err := s.options()
	if err != nil {
		return err
	}
	format, err := formatOf(s.format, inputPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	header, rows, err := decoders[format](raw)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", inputPath, err)
	}

	sink, err := sheet.CreateXLSX(s.outputPath, cfg.MaxRowsPerSheet)
	if err != nil {
		return err
	}
	if err := excel.WriteRows(sink, header, rows, opts...); err != nil {
		sink.Discard()
		return err
	}
	return sink.Close()
}
