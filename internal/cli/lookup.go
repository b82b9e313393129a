package cli

import (
	"strings"

	"github.com/UnknownOlympus/pharmacy-locator/internal/hours"
	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"github.com/UnknownOlympus/pharmacy-locator/internal/service"
	"github.com/spf13/cobra"
)

var (
	lookupRegion    string
	lookupSubRegion string
	lookupDay       string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "List pharmacies with their opening hours",
	Long: `Runs one lookup cycle and prints every pharmacy with its opening hours.

Without --region the current position is resolved to a district first.
With --region and --sub-region the registry is queried for that district
directly. --day selects the hours shown (1-7 for Monday-Sunday, 8 or
"holiday" for the holiday schedule); it defaults to today.`,
	Args: cobra.NoArgs,
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupRegion, "region", "r", "", "province level region, e.g. 서울특별시")
	lookupCmd.Flags().StringVarP(&lookupSubRegion, "sub-region", "s", "", "district level region, e.g. 관악구")
	lookupCmd.Flags().StringVarP(&lookupDay, "day", "d", "", "day code or name for the hours shown")
	lookupCmd.MarkFlagsRequiredTogether("region", "sub-region")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, _ []string) error {
	var day models.DayCode
	if lookupDay != "" {
		parsed, err := models.ParseDayCode(strings.ToLower(lookupDay))
		if err != nil {
			return err
		}
		day = parsed
	}

	ctx := cmd.Context()
	lookup, closeFn, err := newLookup(ctx, newLogger())
	if err != nil {
		return err
	}
	defer closeFn()

	if lookupRegion != "" {
		err = lookup.Fetch(ctx, lookupRegion, lookupSubRegion)
	} else {
		err = lookup.Initialize(ctx)
	}
	if err != nil {
		return err
	}

	snap := lookup.Snapshot()
	if day == "" {
		day = snap.Day
	}
	printSnapshot(cmd, snap, day)

	return nil
}

func printSnapshot(cmd *cobra.Command, snap service.Snapshot, day models.DayCode) {
	if snap.Address != nil {
		cmd.Printf("%s %s, %s\n", snap.Address.Region, snap.Address.SubRegion, day.Name())
	}

	if len(snap.Pharmacies) == 0 {
		cmd.Println("No pharmacies found.")
		return
	}

	cmd.Printf("Results: %d\n\n", len(snap.Pharmacies))
	for i, p := range snap.Pharmacies {
		cmd.Printf("%d. %s\n", i+1, p.Name)
		cmd.Printf("   %s\n", hours.FormatHours(hours.Resolve(p, day)))
		details := make([]string, 0, 2)
		if p.Address != "" {
			details = append(details, p.Address)
		}
		if p.Phone != "" {
			details = append(details, p.Phone)
		}
		if len(details) > 0 {
			cmd.Printf("   %s\n", strings.Join(details, " | "))
		}
	}
	if snap.Total > len(snap.Pharmacies) {
		cmd.Printf("\nShowing %d of %d registered pharmacies.\n", len(snap.Pharmacies), snap.Total)
	}
}
