package transform

import "fmt"

// InputFormatError reports input that is not a feature collection of coordinate paths.
type InputFormatError struct {
	Type         string // the input's type member
	FeatureIndex int    // -1 when the collection itself is malformed
	Reason       string
}

func (e *InputFormatError) Error() string {
	if e.FeatureIndex >= 0 {
		return fmt.Sprintf("feature %d: %s", e.FeatureIndex, e.Reason)
	}
	return fmt.Sprintf("expected %s, found %q, aborting", featureCollection, e.Type)
}

// ConfigurationError reports a configuration value the transform cannot work with.
type ConfigurationError struct {
	Field        string
	Value        any
	FeatureIndex int // -1 when not tied to a feature
	Reason       string
}

func (e *ConfigurationError) Error() string {
	if e.FeatureIndex >= 0 {
		return fmt.Sprintf("invalid %s %v for feature %d: %s", e.Field, e.Value, e.FeatureIndex, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}
