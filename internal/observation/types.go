package observation

import (
	"errors"

	"github.com/danielpatrickdp/track-reward/internal/geometry"
)

// #region errors
var (
	// ErrMissingField is returned when a required params key is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidValue is returned for wrongly typed or non-finite values.
	ErrInvalidValue = errors.New("invalid field value")
	// ErrWaypointIndex is returned when closest_waypoints does not index waypoints.
	ErrWaypointIndex = errors.New("closest waypoint index out of range")
	// ErrTrackGeometry is returned when track_width or track_length is not positive.
	ErrTrackGeometry = errors.New("invalid track geometry")
)

// #endregion errors

// #region keys
// Params keys as emitted by the simulator.
const (
	KeyAllWheelsOnTrack    = "all_wheels_on_track"
	KeyX                   = "x"
	KeyY                   = "y"
	KeyClosestObjects      = "closest_objects"
	KeyClosestWaypoints    = "closest_waypoints"
	KeyDistanceFromCenter  = "distance_from_center"
	KeyIsCrashed           = "is_crashed"
	KeyIsLeftOfCenter      = "is_left_of_center"
	KeyIsOfftrack          = "is_offtrack"
	KeyIsReversed          = "is_reversed"
	KeyHeading             = "heading"
	KeyObjectsDistance     = "objects_distance"
	KeyObjectsHeading      = "objects_heading"
	KeyObjectsLeftOfCenter = "objects_left_of_center"
	KeyObjectsLocation     = "objects_location"
	KeyObjectsSpeed        = "objects_speed"
	KeyProgress            = "progress"
	KeySpeed               = "speed"
	KeySteeringAngle       = "steering_angle"
	KeySteps               = "steps"
	KeyTrackLength         = "track_length"
	KeyTrackWidth          = "track_width"
	KeyWaypoints           = "waypoints"
)

// #endregion keys

// #region observation
// Observation is one simulator snapshot, supplied fresh for every step.
// Treat it as read-only: the slices are shared with the caller.
type Observation struct {
	AllWheelsOnTrack   bool             `json:"all_wheels_on_track"`
	X                  float64          `json:"x"`
	Y                  float64          `json:"y"`
	ClosestObjects     [2]int           `json:"closest_objects"`
	ClosestWaypoints   [2]int           `json:"closest_waypoints"`
	DistanceFromCenter float64          `json:"distance_from_center"`
	IsCrashed          bool             `json:"is_crashed"`
	IsLeftOfCenter     bool             `json:"is_left_of_center"`
	IsOfftrack         bool             `json:"is_offtrack"`
	IsReversed         bool             `json:"is_reversed"`
	Heading            float64          `json:"heading"`
	Progress           float64          `json:"progress"`
	Speed              float64          `json:"speed"`
	SteeringAngle      float64          `json:"steering_angle"`
	Steps              int              `json:"steps"`
	TrackLength        float64          `json:"track_length"`
	TrackWidth         float64          `json:"track_width"`
	Waypoints          []geometry.Point `json:"waypoints"`

	// Nearby objects. Accepted for compatibility, not used by any reward strategy.
	ObjectsDistance     []float64        `json:"objects_distance,omitempty"`
	ObjectsHeading      []float64        `json:"objects_heading,omitempty"`
	ObjectsLeftOfCenter []bool           `json:"objects_left_of_center,omitempty"`
	ObjectsLocation     []geometry.Point `json:"objects_location,omitempty"`
	ObjectsSpeed        []float64        `json:"objects_speed,omitempty"`
}

// Position returns the agent's (x, y).
func (o Observation) Position() geometry.Point {
	return geometry.Point{o.X, o.Y}
}

// #endregion observation
