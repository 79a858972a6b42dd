package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewGatewayCmd создаёт группу команд для gateway-решений.
func NewGatewayCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Apply gateway decisions and inspect their history",
	}

	cmd.AddCommand(
		newGatewayActionCmd(clientFn, outputFn, "finalize", "Finalize requirements and move the project forward"),
		newGatewayActionCmd(clientFn, outputFn, "plan", "Confirm requirements are ready for planning"),
		newGatewayActionCmd(clientFn, outputFn, "request-code-validation", "Request validation of existing code"),
		newGatewayHistoryCmd(clientFn, outputFn),
	)

	return cmd
}

var gatewayHeaders = []string{"REQUEST_ID", "ACTION", "FROM", "TO", "REPLAYED", "APPLIED"}

func newGatewayActionCmd(clientFn func() *Client, outputFn func() *Output, action, short string) *cobra.Command {
	var requestID string
	var correlationID string
	var userID string

	cmd := &cobra.Command{
		Use:   action + " PROJECT_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			// Без явного --request-id каждый вызов — новый запрос.
			// Повтор с тем же --request-id вернёт результат первого применения.
			if requestID == "" {
				requestID = uuid.NewString()
			} else if _, err := uuid.Parse(requestID); err != nil {
				return fmt.Errorf("invalid --request-id: %s", requestID)
			}

			if correlationID != "" {
				if _, err := uuid.Parse(correlationID); err != nil {
					return fmt.Errorf("invalid --correlation-id: %s", correlationID)
				}
			}

			req := GatewayRequest{RequestID: requestID, Action: action, CorrelationID: correlationID}
			if userID != "" {
				req.UserID = &userID
			}

			result, err := client.GatewayTransition(args[0], req)
			if err != nil {
				return err
			}

			if result.Replayed {
				out.Success("Request already applied, returning original result")
			} else {
				out.Success(fmt.Sprintf("Transition applied: %s -> %s", result.FromState, result.ToState))
			}

			out.Print(gatewayHeaders, [][]string{{
				result.RequestID, result.Action, result.FromState, result.ToState,
				fmt.Sprintf("%t", result.Replayed), result.AppliedAt,
			}}, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&requestID, "request-id", "", "Client request ID for idempotent replay (default: random)")
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "Correlation ID recorded with the decision (default: server-assigned)")
	cmd.Flags().StringVar(&userID, "user", "", "User ID recorded with the decision")

	return cmd
}

func newGatewayHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "history PROJECT_ID",
		Short: "Show gateway decision history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			records, err := client.GatewayHistory(args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, len(records))
			for i, r := range records {
				rows[i] = []string{r.RequestID, r.Action, r.FromState, r.ToState, r.UserID, r.CreatedAt}
			}

			out.Print([]string{"REQUEST_ID", "ACTION", "FROM", "TO", "USER", "AT"}, rows, records)
			return nil
		},
	}
}
