package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewAuditCmd создаёт команду просмотра журнала аудита.
func NewAuditCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var page, pageSize int
	var eventType string

	cmd := &cobra.Command{
		Use:   "audit PROJECT_ID",
		Short: "Show the project audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.AuditLogs(args[0], AuditOpts{
				Page:      page,
				PageSize:  pageSize,
				EventType: eventType,
			})
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(result)
				return nil
			}

			rows := make([][]string, len(result.Items))
			for i, e := range result.Items {
				rows[i] = []string{e.EventType, e.AgentType, e.Action, e.CorrelationID, e.CreatedAt}
			}
			out.Table([]string{"EVENT", "AGENT", "ACTION", "CORRELATION", "AT"}, rows)

			fmt.Fprintf(out.w, "\nPage %d of %d (%d entries total)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "Entries per page")
	cmd.Flags().StringVar(&eventType, "event-type", "", "Filter by event type (e.g. AGENT_FAILED)")

	return cmd
}
