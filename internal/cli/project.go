package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewProjectCmd создаёт группу команд для управления проектами.
func NewProjectCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectListCmd(clientFn, outputFn),
		newProjectCreateCmd(clientFn, outputFn),
		newProjectShowCmd(clientFn, outputFn),
		newProjectStatusCmd(clientFn, outputFn),
		newReqAddCmd(clientFn, outputFn),
		newReqListCmd(clientFn, outputFn),
	)

	return cmd
}

var projectHeaders = []string{"ID", "NAME", "STATUS", "UPDATED"}

func projectRow(p ProjectResponse) []string {
	return []string{p.ID, p.Name, p.Status, p.UpdatedAt}
}

func newProjectListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			projects, err := client.ListProjects()
			if err != nil {
				return err
			}

			rows := make([][]string, len(projects))
			for i, p := range projects {
				rows[i] = projectRow(p)
			}

			out.Print(projectHeaders, rows, projects)
			return nil
		},
	}
}

func newProjectCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			project, err := client.CreateProject(name)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Project created: %s", project.ID))
			out.Print(projectHeaders, [][]string{projectRow(*project)}, project)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name (required)")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newProjectShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show project details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			project, err := client.GetProject(args[0])
			if err != nil {
				return err
			}

			out.Print(projectHeaders, [][]string{projectRow(*project)}, project)
			return nil
		},
	}
}

func newProjectStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID",
		Short: "Show project status with recent events and allowed transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			status, err := client.GetStatus(args[0])
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(status)
				return nil
			}

			out.Table(projectHeaders, [][]string{projectRow(status.Project)})

			fmt.Fprintln(out.w)
			fmt.Fprintf(out.w, "Next states: %s\n", strings.Join(status.NextStates, ", "))

			if len(status.RecentHistory) > 0 {
				fmt.Fprintln(out.w)
				rows := make([][]string, len(status.RecentHistory))
				for i, h := range status.RecentHistory {
					rows[i] = []string{h.FromState, h.ToState, h.TriggeredBy, h.CreatedAt}
				}
				out.Table([]string{"FROM", "TO", "TRIGGERED_BY", "AT"}, rows)
			}

			if len(status.RecentEvents) > 0 {
				fmt.Fprintln(out.w)
				rows := make([][]string, len(status.RecentEvents))
				for i, e := range status.RecentEvents {
					rows[i] = []string{e.EventType, e.AgentType, e.Action, e.CreatedAt}
				}
				out.Table([]string{"EVENT", "AGENT", "ACTION", "AT"}, rows)
			}

			return nil
		},
	}
}

func newReqAddCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var title, description string
	var incoherent bool

	cmd := &cobra.Command{
		Use:   "req-add PROJECT_ID",
		Short: "Add a requirement to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := AddRequirementRequest{
				Title:       title,
				Description: description,
			}
			if incoherent {
				coherent := false
				req.IsCoherent = &coherent
			}

			created, err := client.AddRequirement(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Requirement added: %s", created.ID))
			out.Print(
				[]string{"ID", "TITLE", "COHERENT", "CREATED"},
				[][]string{{created.ID, created.Title, strconv.FormatBool(created.IsCoherent), created.CreatedAt}},
				created,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Requirement title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Requirement description")
	cmd.Flags().BoolVar(&incoherent, "incoherent", false, "Mark the requirement as not yet coherent")
	cmd.MarkFlagRequired("title")

	return cmd
}

func newReqListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "req-list PROJECT_ID",
		Short: "List project requirements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			reqs, err := client.ListRequirements(args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, len(reqs))
			for i, r := range reqs {
				rows[i] = []string{r.ID, r.Title, strconv.FormatBool(r.IsCoherent), r.CreatedAt}
			}

			out.Print([]string{"ID", "TITLE", "COHERENT", "CREATED"}, rows, reqs)
			return nil
		},
	}
}
