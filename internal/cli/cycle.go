package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lazypower/ecan/internal/config"
	"github.com/lazypower/ecan/internal/logging"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one rent and forgetting pass and print a summary",
	RunE:  runCycle,
}

func runCycle(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	h, err := newHost(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	runErr := h.sched.RunOnce(cmd.Context())
	printCycle(cmd.OutOrStdout(), h)
	return runErr
}

func printCycle(w io.Writer, h *host) {
	rent := h.rent.LastReport()
	forget := h.forgetter.LastReport()
	funds := h.bank.Snapshot()

	fmt.Fprintf(w, "store:      %s\n", h.storeDesc)
	fmt.Fprintf(w, "rent:       sti %d, lti %d per element (%d charged, %d skipped)\n",
		rent.STIRent, rent.LTIRent, rent.Charged, rent.Skipped)
	fmt.Fprintf(w, "forgetting: %d -> %d elements (%d removed of %d candidates)\n",
		forget.SizeBefore, forget.SizeAfter, len(forget.Removed), forget.Candidates)
	fmt.Fprintf(w, "funds:      sti %d, lti %d\n", funds.STIFunds, funds.LTIFunds)
}
