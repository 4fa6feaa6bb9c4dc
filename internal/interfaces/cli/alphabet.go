package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	appalphabet "github.com/turtacn/MolSig-Alphabet/internal/application/alphabet"
	domain "github.com/turtacn/MolSig-Alphabet/internal/domain/alphabet"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// NewAlphabetCmd creates the `alphabet` command group.
func NewAlphabetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alphabet",
		Short: "Build, merge, and inspect signature alphabets",
	}
	cmd.AddCommand(
		newAlphabetBuildCmd(),
		newAlphabetMergeCmd(),
		newAlphabetInfoCmd(),
	)
	return cmd
}

// AlphabetBuildOptions holds the flags of `molsig alphabet build`.
type AlphabetBuildOptions struct {
	Input            string
	Output           string
	Workers          int
	Radius           int
	BitWidth         uint32
	Stereo           bool
	RegisterAll      bool
}

func newAlphabetBuildCmd() *cobra.Command {
	opts := &AlphabetBuildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fill an alphabet from a molecule corpus and save it",
		Long: "Reads one molecular notation per line from the input file, extracts every\n" +
			"molecule's signatures in parallel, and saves the resulting alphabet archive.\n" +
			"Empty lines and lines starting with '#' are ignored.  Unparseable molecules\n" +
			"are counted but do not abort the build.",
		Example: "  molsig alphabet build --input mols.smi --output corpus.alpha --workers 8",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlphabetBuild(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Input, "input", "i", "", "input file, one notation per line (required)")
	f.StringVarP(&opts.Output, "output", "f", "", "output alphabet archive (required)")
	f.IntVarP(&opts.Workers, "workers", "w", 4, "parallel fill workers")
	f.IntVar(&opts.Radius, "radius", 2, "signature radius")
	f.Uint32Var(&opts.BitWidth, "bits", 2048, "fingerprint bit width")
	f.BoolVar(&opts.Stereo, "stereo", false, "include stereochemistry")
	f.BoolVar(&opts.RegisterAll, "register-all-levels", false,
		"register signatures under every radius level's bit")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runAlphabetBuild(cmd *cobra.Command, opts *AlphabetBuildOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	notations, err := readNotations(opts.Input)
	if err != nil {
		return err
	}
	if len(notations) == 0 {
		return errors.Newf(errors.ErrCodeValidation, "no notations found in %s", opts.Input)
	}

	svc := appalphabet.NewService(domain.Config{
		Radius:            opts.Radius,
		BitWidth:          opts.BitWidth,
		UseStereo:         opts.Stereo,
		RegisterAllLevels: opts.RegisterAll,
	}, appalphabet.Options{
		Logger:      cliCtx.Logger,
		Concurrency: opts.Workers,
	})

	report, err := svc.Fill(cmd.Context(), notations)
	if err != nil {
		return err
	}

	a := svc.Snapshot()
	if err := a.SaveFile(opts.Output); err != nil {
		return err
	}

	cliCtx.Logger.Info("alphabet saved",
		logging.String("path", opts.Output),
		logging.Int("entries", a.Size()),
	)
	fmt.Fprintf(cmd.OutOrStdout(),
		"processed %d, skipped %d, failed %d; %d entries over %d bits -> %s\n",
		report.Processed, report.Skipped, report.Failed,
		a.Size(), len(a.Bits()), opts.Output)
	return nil
}

func newAlphabetMergeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge --output merged.alpha a.alpha b.alpha...",
		Short: "Merge compatible alphabet archives",
		Long: "Loads every input archive and unions their entries into one alphabet.\n" +
			"All inputs must share the same configuration; a mismatch aborts the merge.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlphabetMerge(cmd, output, args)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "f", "", "output alphabet archive (required)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runAlphabetMerge(cmd *cobra.Command, output string, paths []string) error {
	merged, err := domain.LoadFile(paths[0])
	if err != nil {
		return err
	}
	for _, path := range paths[1:] {
		next, err := domain.LoadFile(path)
		if err != nil {
			return err
		}
		if err := merged.Merge(next); err != nil {
			return errors.Wrap(err, errors.ErrCodeIncompatibleAlphabet,
				fmt.Sprintf("cannot merge %s", path))
		}
	}

	if err := merged.SaveFile(output); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "merged %d archives: %d entries over %d bits -> %s\n",
		len(paths), merged.Size(), len(merged.Bits()), output)
	return nil
}

func newAlphabetInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info a.alpha",
		Short: "Describe a saved alphabet archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := domain.LoadFile(args[0])
			if err != nil {
				return err
			}

			cliCtx, ctxErr := GetCLIContext(cmd)
			if ctxErr == nil && strings.EqualFold(cliCtx.OutputFormat, "json") {
				return PrintResult(cmd, appalphabet.Info{
					Config:       a.Config(),
					Entries:      a.Size(),
					OccupiedBits: len(a.Bits()),
					Description:  a.Describe(),
				})
			}
			return PrintResult(cmd, a.Describe())
		},
	}
}

// readNotations reads one notation per line, skipping blanks and comments.
func readNotations(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "cannot open input file")
	}
	defer f.Close()

	var notations []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// SMILES files often carry an identifier column after the notation.
		if i := strings.IndexAny(line, " \t"); i > 0 {
			line = line[:i]
		}
		notations = append(notations, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read input file")
	}
	return notations, nil
}
