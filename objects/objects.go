package objects

import (
	"reflect"
	"time"
)

// Item is a record the admin API can create, read and update.
type Item interface {
	GetID() string
	Validate() error
}

// NamedRef is the embedded name of a related record, as returned by list
// projections such as property:properties(name).
type NamedRef struct {
	Name string `json:"name" bson:"name"`
}

type Property struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Address   string    `json:"address" bson:"address"`
	City      string    `json:"city" bson:"city"`
	ImageURL  string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (p Property) GetID() string {
	return p.ID
}

func (p Property) Validate() error {
	return requireFields(map[string]string{"name": p.Name, "address": p.Address, "city": p.City})
}

func (p Property) IsNil() bool {
	return reflect.ValueOf(p).IsZero()
}

type UnitStatus string

const (
	UnitAvailable UnitStatus = "available"
	UnitReserved  UnitStatus = "reserved"
	UnitOccupied  UnitStatus = "occupied"
)

func (s UnitStatus) Valid() bool {
	return s == UnitAvailable || s == UnitReserved || s == UnitOccupied
}

type Unit struct {
	ID            string     `json:"id" bson:"id"`
	Name          string     `json:"name" bson:"name"`
	Floor         int        `json:"floor" bson:"floor"`
	Size          float64    `json:"size" bson:"size"`
	Price         float64    `json:"price" bson:"price"`
	Status        UnitStatus `json:"status" bson:"status"`
	PropertyID    string     `json:"property_id" bson:"property_id"`
	CategoryID    string     `json:"category_id,omitempty" bson:"category_id,omitempty"`
	LeasingTypeID string     `json:"leasing_type_id,omitempty" bson:"leasing_type_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`

	Property    *NamedRef `json:"property,omitempty" bson:"-"`
	Category    *NamedRef `json:"category,omitempty" bson:"-"`
	LeasingType *NamedRef `json:"leasing_type,omitempty" bson:"-"`
}

func (u Unit) GetID() string {
	return u.ID
}

func (u Unit) Validate() error {

	if err := requireFields(map[string]string{"name": u.Name, "property_id": u.PropertyID}); err != nil {
		return err
	}

	if u.Status != "" && !u.Status.Valid() {
		return invalid("status %q is unknown", u.Status)
	}

	if u.Size < 0 || u.Price < 0 {
		return invalid("size and price must not be negative")
	}

	return nil
}

func (u Unit) IsNil() bool {
	return reflect.ValueOf(u).IsZero()
}

type Facility struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Icon      string    `json:"icon,omitempty" bson:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (f Facility) GetID() string {
	return f.ID
}

func (f Facility) Validate() error {
	return requireFields(map[string]string{"name": f.Name})
}

type LeasingType struct {
	ID          string    `json:"id" bson:"id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

func (l LeasingType) GetID() string {
	return l.ID
}

func (l LeasingType) Validate() error {
	return requireFields(map[string]string{"name": l.Name})
}

type UnitCategory struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (c UnitCategory) GetID() string {
	return c.ID
}

func (c UnitCategory) Validate() error {
	return requireFields(map[string]string{"name": c.Name})
}
