package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/i-m-alive/Visitor-Log-Book/internal/config"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry/postgres"
)

const exportPageSize = 500

var visitorsCmd = &cobra.Command{
	Use:   "visitors",
	Short: "Show registry statistics",
	RunE:  runVisitors,
}

var visitorsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full visit history to CSV",
	RunE:  runVisitorsExport,
}

func init() {
	rootCmd.AddCommand(visitorsCmd)
	visitorsCmd.AddCommand(visitorsExportCmd)

	visitorsExportCmd.Flags().String("out", "visitors.csv", "Output CSV file")
}

func runVisitors(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	repo := postgres.NewVisitorRepository(pool)
	ctx := context.Background()

	total, err := repo.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("counting visitors: %w", err)
	}
	present, err := repo.CountPresent(ctx)
	if err != nil {
		return fmt.Errorf("counting present visitors: %w", err)
	}

	fmt.Printf("Visit records: %d\n", total)
	fmt.Printf("Currently present: %d\n", present)
	return nil
}

func runVisitorsExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	out := mustGetString(cmd, "out")

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	repo := postgres.NewVisitorRepository(pool)
	ctx := context.Background()

	total, err := repo.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("counting visitors: %w", err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	header := []string{
		"id", "face_id", "name", "age", "gender", "email", "phone",
		"address", "purpose", "person_to_meet", "location",
		"check_in_time", "check_out_time",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bar := progressbar.Default(int64(total), "exporting")

	offset := 0
	for {
		page, err := repo.ListAll(ctx, exportPageSize, offset)
		if err != nil {
			return fmt.Errorf("listing visitors: %w", err)
		}
		for i := range page {
			if err := writer.Write(visitorRow(&page[i])); err != nil {
				return fmt.Errorf("writing record %d: %w", page[i].ID, err)
			}
			_ = bar.Add(1)
		}
		if len(page) < exportPageSize {
			break
		}
		offset += exportPageSize
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	fmt.Printf("\nExported %d records to %s\n", total, out)
	return nil
}

func visitorRow(v *registry.Visitor) []string {
	age := ""
	if v.Age != nil {
		age = strconv.Itoa(*v.Age)
	}
	checkOut := ""
	if v.CheckOutTime != nil {
		checkOut = v.CheckOutTime.Format(time.RFC3339)
	}
	return []string{
		strconv.FormatInt(v.ID, 10),
		v.FaceID,
		v.Name,
		age,
		v.Gender,
		v.Email,
		v.Phone,
		v.Address,
		v.Purpose,
		v.PersonToMeet,
		v.Location,
		v.CheckInTime.Format(time.RFC3339),
		checkOut,
	}
}
