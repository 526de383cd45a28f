// Package rules builds transform mappers from declarative field expressions.
//
// A rules file maps every GTFS column of every record kind to an expression
// (github.com/expr-lang/expr) evaluated against the feature, coordinate, service
// window or trip being mapped. Rules are loaded from YAML, merged over Default and
// compiled once into a Mapper.
package rules
