package main

import (
	"fmt"

	applabeling "github.com/erp/labtrack/internal/application/labeling"
	"github.com/erp/labtrack/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newDuplicatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "duplicates",
		Aliases: []string{"dup"},
		Short:   "Inspect and resolve barcodes carried by more than one label",
	}

	var limit int
	inspect := &cobra.Command{
		Use:   "inspect [barcode...]",
		Short: "Classify duplicated barcodes; without arguments scans the label store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), func(c *bootstrap.Container) error {
				found, err := c.Duplicates.Inspect(cmd.Context(), args, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), found)
			})
		},
	}
	inspect.Flags().IntVar(&limit, "limit", 100, "maximum barcodes to report when scanning")

	keepOne := &cobra.Command{
		Use:   "keep-one <barcode>...",
		Short: "Lock the unused record of each barcode whose sibling is already locked",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), func(c *bootstrap.Container) error {
				return printReport(cmd, c.Duplicates.KeepOneLockOther(cmd.Context(), args))
			})
		},
	}

	lockBoth := &cobra.Command{
		Use:   "lock-both <barcode>...",
		Short: "Lock every record of each barcode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), func(c *bootstrap.Container) error {
				return printReport(cmd, c.Duplicates.LockBoth(cmd.Context(), args))
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <label>",
		Short: "Delete one record of a duplicated barcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), func(c *bootstrap.Container) error {
				if err := c.Duplicates.DeleteDuplicate(cmd.Context(), args[0]); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
			})
		},
	}

	cmd.AddCommand(inspect, keepOne, lockBoth, del)
	return cmd
}

func printReport(cmd *cobra.Command, report applabeling.DuplicateReport) error {
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d barcodes failed", report.Failed, len(report.Results))
	}
	return nil
}
