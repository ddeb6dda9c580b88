package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/spf13/cobra"

	"ap-task/export"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify FILE...",
	Short: "Check results files against their digest",
	Long: `Recomputes the digest of each results file and compares it with the one
in its header. Exits non-zero if any file fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			ok, err := verifyFile(cmd.OutOrStdout(), path)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
			}
			if !ok {
				failed++
			}
		}
		if failed > 0 {
			return fault.New(fmt.Sprintf("%d of %d files failed verification", failed, len(args)))
		}
		return nil
	},
}

func verifyFile(w io.Writer, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fault.Wrap(err, fmsg.With("open results"))
	}
	defer f.Close()

	report, err := export.Verify(f)
	if err != nil {
		return false, err
	}
	status := "OK"
	if !report.Valid {
		status = "MISMATCH"
	}
	fmt.Fprintf(w, "%s: %s (%s %s, %d rows", path, status, report.Digest, report.Expected, report.Rows)
	if session := report.Metadata[export.KeySession]; session != "" {
		fmt.Fprintf(w, ", session %s", session)
	}
	fmt.Fprintln(w, ")")
	return report.Valid, nil
}
