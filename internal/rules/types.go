package rules

import "geojson-gtfs/internal/gtfs"

// Fields maps a GTFS column to the expression producing its value.
type Fields map[string]string

// Rules is the root structure of a rules file.
type Rules struct {
	SkipStopsWithinDistance *float64             `yaml:"skipStopsWithinDistance" validate:"omitempty,gte=0"`
	StopDuration            *int                 `yaml:"stopDuration" validate:"omitempty,gte=0"`
	ServiceWindows          []gtfs.ServiceWindow `yaml:"serviceWindows" validate:"min=1"`

	// VehicleSpeed evaluates to km/h for a feature.
	VehicleSpeed string `yaml:"vehicleSpeed" validate:"required"`

	// Prepare assigns feature properties before any record is built.
	Prepare Fields `yaml:"prepare"`

	Agency     Fields `yaml:"agency"`
	Route      Fields `yaml:"route"`
	Stop       Fields `yaml:"stop"`
	ShapePoint Fields `yaml:"shapePoint"`
	Trip       Fields `yaml:"trip"`
	Frequency  Fields `yaml:"frequency"`
	StopTime   Fields `yaml:"stopTime"`
	Service    Fields `yaml:"service"`
}
