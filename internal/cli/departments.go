package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hospital-journey-server/internal/journey"
)

// busyThreshold is the utilization from which a department is shown as busy.
const busyThreshold = 0.75

// DepartmentsCmd returns the departments command
func DepartmentsCmd() *cobra.Command {
	var hospitalID string

	cmd := &cobra.Command{
		Use:   "departments",
		Short: "Show the live queue board",
		Long: `List departments with their current queue against capacity.
Departments at capacity are shown in red, busy ones in yellow.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg, false)
			if err != nil {
				return err
			}

			loads, err := journey.NewRegistry(db).ListDepartments(cmd.Context(), hospitalID)
			if err != nil {
				return err
			}
			if len(loads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No departments found.")
				return nil
			}
			return writeBoard(cmd.OutOrStdout(), loads)
		},
	}

	cmd.Flags().StringVar(&hospitalID, "hospital", "", "Only show this hospital's departments")

	return cmd
}

func writeBoard(out io.Writer, loads []journey.DepartmentLoad) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOSPITAL\tDEPARTMENT\tTYPE\tFLOOR\tQUEUE\tAVG MIN\tLOAD")
	for _, l := range loads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d/%d\t%d\t%s\n",
			l.HospitalCode, l.Name, l.Type, l.Floor, l.CurrentQueue, l.MaxCapacity, l.AvgServiceTime, loadLabel(l))
	}
	return w.Flush()
}

func loadLabel(l journey.DepartmentLoad) string {
	pct := fmt.Sprintf("%.0f%%", l.Utilization*100)
	switch {
	case l.AtCapacity:
		return color.RedString("%s FULL", pct)
	case l.Utilization >= busyThreshold:
		return color.YellowString("%s", pct)
	default:
		return color.GreenString("%s", pct)
	}
}
