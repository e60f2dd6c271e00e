package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
	"github.com/supakorn-kn/propadmin/models"
	"github.com/supakorn-kn/propadmin/objects"
	"go.uber.org/zap"
)

var (
	seedLeasingTypes = []objects.LeasingType{
		{Name: "Daily", Description: "Short stay billed per night"},
		{Name: "Monthly", Description: "Rolling monthly contract"},
		{Name: "Yearly", Description: "Fixed twelve month lease"},
	}
	seedCategories = []string{"Studio", "One bedroom", "Two bedroom", "Penthouse", "Retail"}
	seedFacilities = []objects.Facility{
		{Name: "Swimming pool", Icon: "pool"},
		{Name: "Fitness center", Icon: "gym"},
		{Name: "Parking", Icon: "car"},
		{Name: "Laundry", Icon: "washer"},
	}
	unitStatuses = []string{string(objects.UnitAvailable), string(objects.UnitReserved), string(objects.UnitOccupied)}
)

// SeedReport counts the records inserted per collection.
type SeedReport map[string]int

// Seed fills the collections with fake records: the fixed lookup tables, one
// property per ten units and count units spread over them.
func Seed(ctx context.Context, set models.Set, count int, faker *gofakeit.Faker) (SeedReport, error) {

	report := SeedReport{}

	var leasingTypeIDs []string
	for _, leasingType := range seedLeasingTypes {
		itemID, err := set.LeasingTypes.Insert(ctx, leasingType)
		if err != nil {
			return report, fmt.Errorf("seed leasing type %s: %w", leasingType.Name, err)
		}
		leasingTypeIDs = append(leasingTypeIDs, itemID)
		report[objects.LeasingTypesCollection]++
	}

	var categoryIDs []string
	for _, name := range seedCategories {
		itemID, err := set.UnitCategories.Insert(ctx, objects.UnitCategory{Name: name})
		if err != nil {
			return report, fmt.Errorf("seed unit category %s: %w", name, err)
		}
		categoryIDs = append(categoryIDs, itemID)
		report[objects.UnitCategoriesCollection]++
	}

	for _, facility := range seedFacilities {
		if _, err := set.Facilities.Insert(ctx, facility); err != nil {
			return report, fmt.Errorf("seed facility %s: %w", facility.Name, err)
		}
		report[objects.FacilitiesCollection]++
	}

	propertyCount := max(1, (count+9)/10)
	propertyIDs := make([]string, 0, propertyCount)
	for i := 0; i < propertyCount; i++ {

		property := objects.Property{
			Name:     faker.Company() + " Residence",
			Address:  faker.Street(),
			City:     faker.City(),
			ImageURL: faker.URL(),
		}

		itemID, err := set.Properties.Insert(ctx, property)
		if err != nil {
			return report, fmt.Errorf("seed property: %w", err)
		}
		propertyIDs = append(propertyIDs, itemID)
		report[objects.PropertiesCollection]++
	}

	for i := 0; i < count; i++ {

		floor := faker.Number(1, 30)
		unit := objects.Unit{
			Name:          fmt.Sprintf("%s-%d%02d", faker.Letter(), floor, i%100),
			Floor:         floor,
			Size:          float64(faker.Number(25, 250)),
			Price:         float64(faker.Number(50, 900)) * 100,
			Status:        objects.UnitStatus(faker.RandomString(unitStatuses)),
			PropertyID:    propertyIDs[i%len(propertyIDs)],
			CategoryID:    faker.RandomString(categoryIDs),
			LeasingTypeID: faker.RandomString(leasingTypeIDs),
		}

		if _, err := set.Units.Insert(ctx, unit); err != nil {
			return report, fmt.Errorf("seed unit %s: %w", unit.Name, err)
		}
		report[objects.UnitsCollection]++
	}

	return report, nil
}

func newSeedCommand() *cobra.Command {

	var count int
	var seed int64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert fake properties, units and lookup records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {

			app := appFrom(cmd.Context())

			rt, err := openRuntime(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer rt.close()

			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			report, err := Seed(cmd.Context(), rt.models, count, gofakeit.New(seed))
			if err != nil {
				return err
			}

			for _, name := range objects.Names() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d\n", name, report[name])
			}

			app.logger.Info("seeded collections", zap.Int("units", report[objects.UnitsCollection]), zap.String("backend", app.cfg.Backend.Driver))
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 50, "number of units to insert")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: time based)")

	return cmd
}
