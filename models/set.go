package models

import (
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/memstore"
	"github.com/supakorn-kn/propadmin/mongodb"
	"github.com/supakorn-kn/propadmin/objects"
)

// Set holds one model per registered collection.
type Set struct {
	Properties     Model[objects.Property]
	Units          Model[objects.Unit]
	Facilities     Model[objects.Facility]
	LeasingTypes   Model[objects.LeasingType]
	UnitCategories Model[objects.UnitCategory]
}

func NewMongoSet(conn *mongodb.MongoDBConn) Set {

	return Set{
		Properties:     NewBaseModel[objects.Property](conn, objects.PropertiesCollection),
		Units:          NewBaseModel[objects.Unit](conn, objects.UnitsCollection),
		Facilities:     NewBaseModel[objects.Facility](conn, objects.FacilitiesCollection),
		LeasingTypes:   NewBaseModel[objects.LeasingType](conn, objects.LeasingTypesCollection),
		UnitCategories: NewBaseModel[objects.UnitCategory](conn, objects.UnitCategoriesCollection),
	}
}

func NewMemorySet(store *memstore.Store) Set {

	return Set{
		Properties:     NewMemoryModel[objects.Property](store, objects.PropertiesCollection),
		Units:          NewMemoryModel[objects.Unit](store, objects.UnitsCollection),
		Facilities:     NewMemoryModel[objects.Facility](store, objects.FacilitiesCollection),
		LeasingTypes:   NewMemoryModel[objects.LeasingType](store, objects.LeasingTypesCollection),
		UnitCategories: NewMemoryModel[objects.UnitCategory](store, objects.UnitCategoriesCollection),
	}
}

// NewBackendSet serves reads and deletes from a backend without write support.
func NewBackendSet(backend collection.Backend, backendName string) Set {

	return Set{
		Properties:     NewBackendModel[objects.Property](backend, backendName, objects.PropertiesCollection),
		Units:          NewBackendModel[objects.Unit](backend, backendName, objects.UnitsCollection),
		Facilities:     NewBackendModel[objects.Facility](backend, backendName, objects.FacilitiesCollection),
		LeasingTypes:   NewBackendModel[objects.LeasingType](backend, backendName, objects.LeasingTypesCollection),
		UnitCategories: NewBackendModel[objects.UnitCategory](backend, backendName, objects.UnitCategoriesCollection),
	}
}
