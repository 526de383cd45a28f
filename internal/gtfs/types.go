package gtfs

// Record is a single GTFS row keyed by column name.
type Record map[string]any

// ServiceWindow describes a calendar period. Its fields are interpreted by the
// mapping rules only.
type ServiceWindow map[string]any

// Identity columns used to collapse duplicate records.
const (
	AgencyID  = "agency_id"
	ServiceID = "service_id"
	RouteID   = "route_id"
	TripID    = "trip_id"
	StopID    = "stop_id"
)

// Bundle is a complete schedule dataset produced from one feature collection.
type Bundle struct {
	Agency      []Record `json:"agency"`
	Calendar    []Record `json:"calendar"`
	Routes      []Record `json:"routes"`
	Trips       []Record `json:"trips"`
	Frequencies []Record `json:"frequencies"`
	Stops       []Record `json:"stops"`
	StopTimes   []Record `json:"stop_times"`
	Shapes      []Record `json:"shapes"`

	Stats Stats `json:"-"`
}

// Stats counts what happened while building a Bundle.
type Stats struct {
	Features      int `json:"features"`
	RetainedStops int `json:"retainedStops"`
	SkippedPoints int `json:"skippedPoints"`
	Trips         int `json:"trips"`
}

// File is one GTFS text file of a Bundle.
type File struct {
	Name     string // e.g. "stops.txt"
	Kind     string // bundle key, e.g. "stops"
	Identity string // identity column, empty when rows are not unique entities
	Records  []Record
}

// Files returns the bundle's files in the order they are written.
func (b *Bundle) Files() []File {
	return []File{
		{Name: "agency.txt", Kind: "agency", Identity: AgencyID, Records: b.Agency},
		{Name: "calendar.txt", Kind: "calendar", Identity: ServiceID, Records: b.Calendar},
		{Name: "routes.txt", Kind: "routes", Identity: RouteID, Records: b.Routes},
		{Name: "trips.txt", Kind: "trips", Identity: TripID, Records: b.Trips},
		{Name: "frequencies.txt", Kind: "frequencies", Records: b.Frequencies},
		{Name: "stops.txt", Kind: "stops", Identity: StopID, Records: b.Stops},
		{Name: "stop_times.txt", Kind: "stop_times", Records: b.StopTimes},
		{Name: "shapes.txt", Kind: "shapes", Records: b.Shapes},
	}
}

// Set replaces the records of the list named by kind. Unknown kinds are ignored
// and reported with false.
func (b *Bundle) Set(kind string, records []Record) bool {
	switch kind {
	case "agency":
		b.Agency = records
	case "calendar":
		b.Calendar = records
	case "routes":
		b.Routes = records
	case "trips":
		b.Trips = records
	case "frequencies":
		b.Frequencies = records
	case "stops":
		b.Stops = records
	case "stop_times":
		b.StopTimes = records
	case "shapes":
		b.Shapes = records
	default:
		return false
	}
	return true
}
