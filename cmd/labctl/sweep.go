package main

import (
	"fmt"

	"github.com/erp/labtrack/internal/application/fulfillment"
	"github.com/erp/labtrack/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newSweepCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a fulfillment sweep once",
	}

	var req fulfillment.CompletionSweepRequest
	completion := &cobra.Command{
		Use:   "completion",
		Short: "Create draft delivery notes for orders whose samples are complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withContainer(cmd.Context(), func(c *bootstrap.Container) error {
				report := c.OrderCompletion.Sweep(cmd.Context(), req)
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				return sweepError(report.Status, report.Message)
			})
		},
	}
	completion.Flags().StringVar(&req.ProductType, "product-type", "", "only consider orders of this product type (default from config)")
	completion.Flags().IntVar(&req.Limit, "limit", 0, "orders read per page (default from config)")

	submission := &cobra.Command{
		Use:   "submission",
		Short: "Submit draft delivery notes that passed the cooldown and checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withContainer(cmd.Context(), func(c *bootstrap.Container) error {
				report := c.SubmissionGate.Sweep(cmd.Context())
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				return sweepError(report.Status, report.Message)
			})
		},
	}

	cmd.AddCommand(completion, submission)
	return cmd
}

func sweepError(status fulfillment.SweepStatus, message string) error {
	switch status {
	case fulfillment.SweepCompleted:
		return nil
	case fulfillment.SweepSkippedLocked:
		return fmt.Errorf("sweep is already running on another instance")
	default:
		return fmt.Errorf("sweep failed: %s", message)
	}
}
