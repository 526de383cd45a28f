package rules

import "geojson-gtfs/internal/gtfs"

const (
	routeIDExpr = `string(properties.route_id ?? featureIndex)`
	shapeIDExpr = `sprintf("shape-%v", properties.route_id ?? featureIndex)`
)

// Default returns rules producing a minimal valid GTFS feed from LineString
// features: one daily service window and one stop per coordinate.
func Default() Rules {
	skip := 0.0
	dwell := 0
	return Rules{
		SkipStopsWithinDistance: &skip,
		StopDuration:            &dwell,
		ServiceWindows: []gtfs.ServiceWindow{{
			"serviceId":   "daily",
			"monday":      1,
			"tuesday":     1,
			"wednesday":   1,
			"thursday":    1,
			"friday":      1,
			"saturday":    1,
			"sunday":      1,
			"startDate":   "20240101",
			"endDate":     "20341231",
			"startTime":   "06:00:00",
			"endTime":     "22:00:00",
			"headwaySecs": 600,
		}},
		VehicleSpeed: `properties.speed ?? 50`,
		Agency: Fields{
			"agency_id":       `properties.agency_id ?? "default"`,
			"agency_name":     `properties.agency_name ?? "Default Agency"`,
			"agency_url":      `properties.agency_url ?? "https://example.com"`,
			"agency_timezone": `properties.agency_timezone ?? "UTC"`,
		},
		Route: Fields{
			"route_id":         routeIDExpr,
			"agency_id":        `properties.agency_id ?? "default"`,
			"route_short_name": `string(properties.name ?? featureIndex)`,
			"route_long_name":  `properties.description ?? ""`,
			"route_type":       `properties.route_type ?? 3`,
		},
		Stop: Fields{
			"stop_id":   `sprintf("%d-%d", featureIndex, coordsIndex)`,
			"stop_name": `sprintf("%v %d", properties.name ?? "Stop", coordsIndex + 1)`,
			"stop_lat":  `lat`,
			"stop_lon":  `lon`,
		},
		ShapePoint: Fields{
			"shape_id":            shapeIDExpr,
			"shape_pt_lat":        `lat`,
			"shape_pt_lon":        `lon`,
			"shape_pt_sequence":   `coordsIndex`,
			"shape_dist_traveled": `distance`,
		},
		Trip: Fields{
			"route_id":   routeIDExpr,
			"service_id": `serviceWindow.serviceId`,
			"trip_id":    `sprintf("%v-%v", properties.route_id ?? featureIndex, serviceWindow.serviceId)`,
			"shape_id":   shapeIDExpr,
		},
		Frequency: Fields{
			"trip_id":      `trip.trip_id`,
			"start_time":   `serviceWindow.startTime ?? "06:00:00"`,
			"end_time":     `serviceWindow.endTime ?? "22:00:00"`,
			"headway_secs": `serviceWindow.headwaySecs ?? 600`,
		},
		StopTime: Fields{
			"trip_id":        `trip.trip_id`,
			"stop_id":        `stop.stop_id`,
			"arrival_time":   `arrivalTime`,
			"departure_time": `departureTime`,
			"stop_sequence":  `stopSequence`,
		},
		Service: Fields{
			"service_id": `serviceWindow.serviceId`,
			"monday":     `serviceWindow.monday ?? 0`,
			"tuesday":    `serviceWindow.tuesday ?? 0`,
			"wednesday":  `serviceWindow.wednesday ?? 0`,
			"thursday":   `serviceWindow.thursday ?? 0`,
			"friday":     `serviceWindow.friday ?? 0`,
			"saturday":   `serviceWindow.saturday ?? 0`,
			"sunday":     `serviceWindow.sunday ?? 0`,
			"start_date": `serviceWindow.startDate`,
			"end_date":   `serviceWindow.endDate`,
		},
	}
}

// Merge lays override on top of base. Numbers, windows and the speed expression
// are replaced when set; field maps are merged per column, and an empty
// expression removes the column.
func Merge(base, override Rules) Rules {
	out := base
	if override.SkipStopsWithinDistance != nil {
		out.SkipStopsWithinDistance = override.SkipStopsWithinDistance
	}
	if override.StopDuration != nil {
		out.StopDuration = override.StopDuration
	}
	if len(override.ServiceWindows) > 0 {
		out.ServiceWindows = override.ServiceWindows
	}
	if override.VehicleSpeed != "" {
		out.VehicleSpeed = override.VehicleSpeed
	}
	out.Prepare = mergeFields(base.Prepare, override.Prepare)
	out.Agency = mergeFields(base.Agency, override.Agency)
	out.Route = mergeFields(base.Route, override.Route)
	out.Stop = mergeFields(base.Stop, override.Stop)
	out.ShapePoint = mergeFields(base.ShapePoint, override.ShapePoint)
	out.Trip = mergeFields(base.Trip, override.Trip)
	out.Frequency = mergeFields(base.Frequency, override.Frequency)
	out.StopTime = mergeFields(base.StopTime, override.StopTime)
	out.Service = mergeFields(base.Service, override.Service)
	return out
}

func mergeFields(base, override Fields) Fields {
	if base == nil && len(override) == 0 {
		return nil
	}
	out := make(Fields, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
