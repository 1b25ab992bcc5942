package geo

// Kind classifies a place record within the hierarchy.
type Kind string

const (
	KindCountry Kind = "country"
	KindState   Kind = "state"
	KindCounty  Kind = "county"
	KindCity    Kind = "city"
	KindSuburb  Kind = "suburb"
	KindStreet  Kind = "street"
	KindHouse   Kind = "house"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PlaceRecord is one row of the place hierarchy. The store owns the
// canonical data; the engine only ever holds read-only copies.
type PlaceRecord struct {
	ID          int64
	Kind        Kind
	Name        string
	HouseNumber string
	Location    Point
	ParentID    *int64
	LicenseID   string
	CountryCode string
}

// HasParent reports whether the record links to an enclosing record.
func (r PlaceRecord) HasParent() bool {
	return r.ParentID != nil
}
