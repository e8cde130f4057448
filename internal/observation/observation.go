package observation

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/danielpatrickdp/track-reward/internal/geometry"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region from-params
// FromParams decodes a simulator params mapping into an Observation.
// Every key in required must be present and non-null. Unknown keys are ignored.
// The decoded observation is validated before it is returned.
func FromParams(params map[string]any, required []string) (Observation, error) {
	for _, key := range required {
		v, ok := params[key]
		if !ok {
			return Observation{}, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
		if v == nil {
			return Observation{}, fmt.Errorf("%w: %s is null", ErrMissingField, key)
		}
	}

	d := decoder{params: params}
	obs := Observation{
		AllWheelsOnTrack:    d.boolean(KeyAllWheelsOnTrack),
		X:                   d.float(KeyX),
		Y:                   d.float(KeyY),
		ClosestObjects:      d.indexPair(KeyClosestObjects),
		ClosestWaypoints:    d.indexPair(KeyClosestWaypoints),
		DistanceFromCenter:  d.float(KeyDistanceFromCenter),
		IsCrashed:           d.boolean(KeyIsCrashed),
		IsLeftOfCenter:      d.boolean(KeyIsLeftOfCenter),
		IsOfftrack:          d.boolean(KeyIsOfftrack),
		IsReversed:          d.boolean(KeyIsReversed),
		Heading:             d.float(KeyHeading),
		Progress:            d.float(KeyProgress),
		Speed:               d.float(KeySpeed),
		SteeringAngle:       d.float(KeySteeringAngle),
		Steps:               d.integer(KeySteps),
		TrackLength:         d.float(KeyTrackLength),
		TrackWidth:          d.float(KeyTrackWidth),
		Waypoints:           d.points(KeyWaypoints),
		ObjectsDistance:     d.floats(KeyObjectsDistance),
		ObjectsHeading:      d.floats(KeyObjectsHeading),
		ObjectsLeftOfCenter: d.booleans(KeyObjectsLeftOfCenter),
		ObjectsLocation:     d.points(KeyObjectsLocation),
		ObjectsSpeed:        d.floats(KeyObjectsSpeed),
	}
	if d.err != nil {
		return Observation{}, d.err
	}
	if err := obs.Validate(); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

// FromJSON decodes a JSON params object. See FromParams.
func FromJSON(data []byte, required []string) (Observation, error) {
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return Observation{}, fmt.Errorf("%w: params json: %v", ErrInvalidValue, err)
	}
	return FromParams(params, required)
}

// FromStruct decodes a protobuf Struct carrying the params mapping.
func FromStruct(s *structpb.Struct, required []string) (Observation, error) {
	if s == nil {
		return Observation{}, fmt.Errorf("%w: params", ErrMissingField)
	}
	return FromParams(s.AsMap(), required)
}

// #endregion from-params

// #region to-params
// Params returns the observation as a simulator params mapping.
// Lists are []any so the result can be passed to structpb.NewStruct.
func (o Observation) Params() map[string]any {
	p := map[string]any{
		KeyAllWheelsOnTrack:   o.AllWheelsOnTrack,
		KeyX:                  o.X,
		KeyY:                  o.Y,
		KeyClosestObjects:     []any{o.ClosestObjects[0], o.ClosestObjects[1]},
		KeyClosestWaypoints:   []any{o.ClosestWaypoints[0], o.ClosestWaypoints[1]},
		KeyDistanceFromCenter: o.DistanceFromCenter,
		KeyIsCrashed:          o.IsCrashed,
		KeyIsLeftOfCenter:     o.IsLeftOfCenter,
		KeyIsOfftrack:         o.IsOfftrack,
		KeyIsReversed:         o.IsReversed,
		KeyHeading:            o.Heading,
		KeyProgress:           o.Progress,
		KeySpeed:              o.Speed,
		KeySteeringAngle:      o.SteeringAngle,
		KeySteps:              o.Steps,
		KeyTrackLength:        o.TrackLength,
		KeyTrackWidth:         o.TrackWidth,
		KeyWaypoints:          pointList(o.Waypoints),
	}
	if len(o.ObjectsDistance) > 0 {
		p[KeyObjectsDistance] = floatList(o.ObjectsDistance)
	}
	if len(o.ObjectsHeading) > 0 {
		p[KeyObjectsHeading] = floatList(o.ObjectsHeading)
	}
	if len(o.ObjectsLeftOfCenter) > 0 {
		l := make([]any, len(o.ObjectsLeftOfCenter))
		for i, b := range o.ObjectsLeftOfCenter {
			l[i] = b
		}
		p[KeyObjectsLeftOfCenter] = l
	}
	if len(o.ObjectsLocation) > 0 {
		p[KeyObjectsLocation] = pointList(o.ObjectsLocation)
	}
	if len(o.ObjectsSpeed) > 0 {
		p[KeyObjectsSpeed] = floatList(o.ObjectsSpeed)
	}
	return p
}

// Struct returns the observation as a protobuf Struct.
func (o Observation) Struct() (*structpb.Struct, error) {
	s, err := structpb.NewStruct(o.Params())
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return s, nil
}

func floatList(vals []float64) []any {
	l := make([]any, len(vals))
	for i, v := range vals {
		l[i] = v
	}
	return l
}

func pointList(pts []geometry.Point) []any {
	l := make([]any, len(pts))
	for i, p := range pts {
		l[i] = []any{p.X(), p.Y()}
	}
	return l
}

// #endregion to-params

// #region validate
// Validate checks the observation against the simulator contract.
// A failure means the upstream integration is broken; callers should not
// substitute defaults.
func (o Observation) Validate() error {
	scalars := []struct {
		key string
		v   float64
	}{
		{KeyX, o.X},
		{KeyY, o.Y},
		{KeyDistanceFromCenter, o.DistanceFromCenter},
		{KeyHeading, o.Heading},
		{KeyProgress, o.Progress},
		{KeySpeed, o.Speed},
		{KeySteeringAngle, o.SteeringAngle},
		{KeyTrackLength, o.TrackLength},
		{KeyTrackWidth, o.TrackWidth},
	}
	for _, s := range scalars {
		if !isFinite(s.v) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidValue, s.key, s.v)
		}
	}
	if o.Progress < 0 || o.Progress > 100 {
		return fmt.Errorf("%w: progress %v outside [0, 100]", ErrInvalidValue, o.Progress)
	}
	if o.Speed < 0 {
		return fmt.Errorf("%w: speed is %v", ErrInvalidValue, o.Speed)
	}
	if o.DistanceFromCenter < 0 {
		return fmt.Errorf("%w: distance_from_center is %v", ErrInvalidValue, o.DistanceFromCenter)
	}
	if o.Steps < 0 {
		return fmt.Errorf("%w: steps is %d", ErrInvalidValue, o.Steps)
	}
	if o.TrackWidth <= 0 {
		return fmt.Errorf("%w: track_width %v", ErrTrackGeometry, o.TrackWidth)
	}
	if o.TrackLength <= 0 {
		return fmt.Errorf("%w: track_length %v", ErrTrackGeometry, o.TrackLength)
	}
	for _, idx := range o.ClosestWaypoints {
		if idx < 0 || idx >= len(o.Waypoints) {
			return fmt.Errorf("%w: index %d, %d waypoints", ErrWaypointIndex, idx, len(o.Waypoints))
		}
	}
	for i, wp := range o.Waypoints {
		if !isFinite(wp.X()) || !isFinite(wp.Y()) {
			return fmt.Errorf("%w: waypoint %d is %v", ErrInvalidValue, i, wp)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion validate
