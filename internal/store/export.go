package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/parquet"
)

// ExecuteExport writes all stored measures and report activities to Parquet files
// named after outputFile.
func ExecuteExport(ctx context.Context, store contract.Store, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}

	if status.TotalReports == 0 {
		return errors.New("no report data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total reports: %d\n", status.TotalReports)
	fmt.Printf("Total measure records: %d\n", status.TableSizes[measuresTable])

	activities, err := store.ListActivities(ctx, "", status.TotalReports)
	if err != nil {
		return fmt.Errorf("failed to retrieve activities: %w", err)
	}

	measures, err := store.ListAllMeasures(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve measures: %w", err)
	}

	parquetMeasures, err := parquet.ConvertMeasureRecords(measures)
	if err != nil {
		return err
	}

	activitiesFile := outputFile + ".activities.parquet"
	if err := parquet.WriteActivitiesParquet(parquet.ConvertActivityRecords(activities), activitiesFile); err != nil {
		return fmt.Errorf("failed to write activities: %w", err)
	}
	fmt.Printf("Exported %d report activities to: %s\n", len(activities), activitiesFile)

	measuresFile := outputFile + ".measures.parquet"
	if err := parquet.WriteMeasuresParquet(parquetMeasures, measuresFile); err != nil {
		return fmt.Errorf("failed to write measures: %w", err)
	}
	fmt.Printf("Exported %d measures to: %s\n", len(parquetMeasures), measuresFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")

	return nil
}
