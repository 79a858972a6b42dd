package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRetryCmd создаёт команду повторного запуска агента.
func NewRetryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		metadataJSON string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "retry PROJECT_ID AGENT",
		Short: "Re-dispatch an agent for a project",
		Long: `Re-dispatch an agent for a project.

AGENT is one of: REQUIREMENTS, REFINE, PLAN, PROMPTS, VALIDATION.
Identical inputs within the dedup window are not dispatched twice:
the command reports "duplicate" or returns the cached result instead.
--force bypasses both the state check and deduplication.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var metadata map[string]any
			if metadataJSON != "" {
				if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
					return fmt.Errorf("invalid --metadata JSON: %w", err)
				}
			}

			result, err := client.Retry(args[0], args[1], force, metadata)
			if err != nil {
				return err
			}

			switch result.Status {
			case "queued":
				out.Success(fmt.Sprintf("Agent %s queued, task %s", args[1], result.TaskRef))
			case "duplicate":
				out.Success("Identical run already in flight, not dispatched")
			case "cached":
				out.Success("Identical run already completed, returning cached result")
			}

			out.Print(
				[]string{"STATUS", "TASK_REF"},
				[][]string{{result.Status, result.TaskRef}},
				result,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&metadataJSON, "metadata", "", "Agent input metadata as JSON object")
	cmd.Flags().BoolVar(&force, "force", false, "Dispatch even if the state forbids it, skipping dedup")

	return cmd
}
