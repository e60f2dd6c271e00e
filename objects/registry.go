package objects

import (
	"slices"

	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
)

const (
	PropertiesCollection     = "properties"
	UnitsCollection          = "units"
	FacilitiesCollection     = "facilities"
	LeasingTypesCollection   = "leasing_types"
	UnitCategoriesCollection = "unit_categories"
)

// Definition is how list screens read one collection by default.
type Definition struct {
	Name        string
	Title       string
	Projection  string
	SearchField string
	// Columns orders the fields of a rendered row.
	Columns []string
}

// Reference builds the query reference of the definition.
func (d Definition) Reference(opts ...collection.ReferenceOption) (collection.Reference, error) {
	return collection.NewReference(d.Name, d.Projection, d.SearchField, opts...)
}

var Collections = map[string]Definition{
	PropertiesCollection: {
		Name:        PropertiesCollection,
		Title:       "Properties",
		Projection:  "id, name, address, city, image_url, created_at",
		SearchField: "name",
		Columns:     []string{"id", "name", "address", "city", "created_at"},
	},
	UnitsCollection: {
		Name:  UnitsCollection,
		Title: "Units",
		Projection: "id, name, floor, size, price, status, created_at, " +
			"property:properties(name), category:unit_categories(name), leasing_type:leasing_types(name)",
		SearchField: "name",
		Columns:     []string{"id", "name", "floor", "size", "price", "status", "property", "category", "leasing_type", "created_at"},
	},
	FacilitiesCollection: {
		Name:        FacilitiesCollection,
		Title:       "Facilities",
		Projection:  "id, name, icon, created_at",
		SearchField: "name",
		Columns:     []string{"id", "name", "icon", "created_at"},
	},
	LeasingTypesCollection: {
		Name:        LeasingTypesCollection,
		Title:       "Leasing types",
		Projection:  "id, name, description, created_at",
		SearchField: "name",
		Columns:     []string{"id", "name", "description", "created_at"},
	},
	UnitCategoriesCollection: {
		Name:        UnitCategoriesCollection,
		Title:       "Unit categories",
		Projection:  "id, name, created_at",
		SearchField: "name",
		Columns:     []string{"id", "name", "created_at"},
	},
}

func Lookup(name string) (Definition, error) {

	def, ok := Collections[name]
	if !ok {
		return Definition{}, errors.CollectionInvalidError.New(name)
	}

	return def, nil
}

// Names lists the registered collections alphabetically.
func Names() []string {

	names := make([]string, 0, len(Collections))
	for name := range Collections {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}
