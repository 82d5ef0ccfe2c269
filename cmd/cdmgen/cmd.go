package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/syssam/cdmgen/compiler"
	"github.com/syssam/cdmgen/compiler/gen"
)

// errFailed is returned when a run completed with unresolved references or
// emit failures.
var errFailed = errors.New("generation completed with errors")

type app struct {
	stdout, stderr io.Writer

	configPath string
	envFiles   []string
	verbose    bool

	target   string
	pkg      string
	workers  int
	features []string
	validate bool
	debounce time.Duration
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:          "cdmgen",
		Short:        "Generate Go types from a Common Data Model JSON Schema corpus",
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files loaded before reading CDMGEN_ variables")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "show verbose output")
	root.AddCommand(a.generateCmd(), a.watchCmd(), a.inspectCmd())
	return root
}

// addGenFlags registers the flags overriding the configuration file.
func (a *app) addGenFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&a.target, "target", "t", "", "output directory of the generated package")
	cmd.Flags().StringVarP(&a.pkg, "package", "p", "", "generated package name")
	cmd.Flags().IntVarP(&a.workers, "workers", "w", 0, "number of parallel workers")
	cmd.Flags().StringSliceVarP(&a.features, "features", "f", nil, "codegen features to enable (validator, snapshot)")
	cmd.Flags().BoolVar(&a.validate, "validate", false, "validate documents against the JSON Schema metaschema")
}

func (a *app) generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [schema-dir]",
		Short: "Generate the Go package once",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, gc, err := a.config(cmd, args)
			if err != nil {
				return err
			}
			report, err := compiler.Generate(cmd.Context(), fc.SchemaDir, gc, fc.Options()...)
			if report != nil {
				a.summary(report)
			}
			if err != nil {
				return err
			}
			if report.Failed() {
				return errFailed
			}
			return nil
		},
	}
	a.addGenFlags(cmd)
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [schema-dir]",
		Short: "Regenerate the Go package whenever a schema document changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, gc, err := a.config(cmd, args)
			if err != nil {
				return err
			}
			err = compiler.Watch(cmd.Context(), fc.SchemaDir, gc, func(report *compiler.Report, err error) {
				if report != nil {
					a.summary(report)
				}
				if err != nil {
					fmt.Fprintf(a.stderr, "Error: %v\n", err)
				}
			}, fc.Options()...)
			return err
		},
	}
	a.addGenFlags(cmd)
	cmd.Flags().DurationVar(&a.debounce, "debounce", 0, "quiet period before regenerating")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Print a type graph snapshot written by the snapshot feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			s, err := gen.ReadSnapshot(f)
			if err != nil {
				return err
			}
			if asJSON {
				b, err := json.MarshalIndent(s, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, string(b))
				return nil
			}
			printSnapshot(a.stdout, s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

// config loads the file configuration and applies the command line on top.
func (a *app) config(cmd *cobra.Command, args []string) (*compiler.FileConfig, *gen.Config, error) {
	fc, err := compiler.LoadConfig(a.configPath, a.envFiles...)
	if err != nil {
		return nil, nil, err
	}
	if len(args) > 0 {
		fc.SchemaDir = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("target") {
		fc.Target = a.target
	}
	if flags.Changed("package") {
		fc.Package = a.pkg
	}
	if flags.Changed("workers") {
		fc.Workers = a.workers
	}
	if flags.Changed("features") {
		fc.Features = a.features
	}
	if flags.Changed("validate") {
		fc.Validate = a.validate
	}
	if flags.Changed("debounce") {
		fc.Debounce = a.debounce
	}
	if a.verbose {
		fc.Verbose = true
	}
	gc, err := fc.GenConfig(a.logger(fc.Verbose))
	if err != nil {
		return nil, nil, err
	}
	return fc, gc, nil
}

func (a *app) logger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

func (a *app) summary(r *compiler.Report) {
	fmt.Fprintf(a.stdout, "run %s: %d documents, %d types, %d files in %s\n",
		r.RunID, r.Documents, r.Types, r.Files, r.Duration.Round(time.Millisecond))
	if err := r.Err(); err != nil {
		fmt.Fprintln(a.stderr, err)
	}
}

func printSnapshot(w io.Writer, s *gen.Snapshot) {
	fmt.Fprintf(w, "package %s: %d types\n\n", s.Package, len(s.Types))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tKEY")
	for _, t := range s.Types {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.Kind, t.Key)
	}
	tw.Flush()
	if len(s.Collisions) > 0 {
		fmt.Fprintln(w, "\ncollisions:")
		for _, c := range s.Collisions {
			fmt.Fprintf(w, "  %s: %v\n", c.Candidate, c.Names)
		}
	}
	fmt.Fprintln(w, "\norder:")
	for i, group := range s.Order {
		fmt.Fprintf(w, "  %d: %v\n", i, group)
	}
}
