package rewardrpc

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/reward"
)

// ErrMalformed is returned when a message is missing a field or has the wrong type.
var ErrMalformed = errors.New("malformed message")

// #region evaluate
// EvaluateRequest asks for the reward of one observation.
type EvaluateRequest struct {
	Params    *structpb.Struct
	Strategy  string // empty: the episode's strategy
	EpisodeID string // empty: the active episode
}

// EvaluateResponse is the computed reward and where it was recorded.
type EvaluateResponse struct {
	EpisodeID string        `json:"episode_id"`
	Step      int           `json:"step"`
	Strategy  string        `json:"strategy"`
	Reward    float64       `json:"reward"`
	Terminal  bool          `json:"terminal"`
	Terms     []reward.Term `json:"terms"`
}

// Struct encodes the request.
func (r EvaluateRequest) Struct() *structpb.Struct {
	fields := map[string]*structpb.Value{}
	if r.Params != nil {
		fields["params"] = structpb.NewStructValue(r.Params)
	}
	if r.Strategy != "" {
		fields["strategy"] = structpb.NewStringValue(r.Strategy)
	}
	if r.EpisodeID != "" {
		fields["episode_id"] = structpb.NewStringValue(r.EpisodeID)
	}
	return &structpb.Struct{Fields: fields}
}

// ParseEvaluateRequest decodes an EvaluateRequest.
func ParseEvaluateRequest(s *structpb.Struct) (EvaluateRequest, error) {
	params := s.GetFields()["params"].GetStructValue()
	if params == nil {
		return EvaluateRequest{}, fmt.Errorf("%w: params must be an object", ErrMalformed)
	}
	req := EvaluateRequest{Params: params}
	var err error
	if req.Strategy, err = optionalString(s, "strategy"); err != nil {
		return EvaluateRequest{}, err
	}
	if req.EpisodeID, err = optionalString(s, "episode_id"); err != nil {
		return EvaluateRequest{}, err
	}
	return req, nil
}

// Struct encodes the response.
func (r EvaluateResponse) Struct() *structpb.Struct {
	terms := lo.Map(r.Terms, func(t reward.Term, _ int) *structpb.Value {
		return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"name":  structpb.NewStringValue(t.Name),
			"kind":  structpb.NewStringValue(string(t.Kind)),
			"value": structpb.NewNumberValue(t.Value),
		}})
	})
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"episode_id": structpb.NewStringValue(r.EpisodeID),
		"step":       structpb.NewNumberValue(float64(r.Step)),
		"strategy":   structpb.NewStringValue(r.Strategy),
		"reward":     structpb.NewNumberValue(r.Reward),
		"terminal":   structpb.NewBoolValue(r.Terminal),
		"terms":      structpb.NewListValue(&structpb.ListValue{Values: terms}),
	}}
}

// ParseEvaluateResponse decodes an EvaluateResponse.
func ParseEvaluateResponse(s *structpb.Struct) (EvaluateResponse, error) {
	var resp EvaluateResponse
	var err error
	if resp.EpisodeID, err = requiredString(s, "episode_id"); err != nil {
		return EvaluateResponse{}, err
	}
	if resp.Strategy, err = requiredString(s, "strategy"); err != nil {
		return EvaluateResponse{}, err
	}
	if resp.Reward, err = requiredNumber(s, "reward"); err != nil {
		return EvaluateResponse{}, err
	}
	step, err := requiredNumber(s, "step")
	if err != nil {
		return EvaluateResponse{}, err
	}
	resp.Step = int(step)
	resp.Terminal = s.GetFields()["terminal"].GetBoolValue()

	for i, v := range s.GetFields()["terms"].GetListValue().GetValues() {
		ts := v.GetStructValue()
		if ts == nil {
			return EvaluateResponse{}, fmt.Errorf("%w: terms[%d] must be an object", ErrMalformed, i)
		}
		name, err := requiredString(ts, "name")
		if err != nil {
			return EvaluateResponse{}, err
		}
		kind, err := requiredString(ts, "kind")
		if err != nil {
			return EvaluateResponse{}, err
		}
		value, err := requiredNumber(ts, "value")
		if err != nil {
			return EvaluateResponse{}, err
		}
		resp.Terms = append(resp.Terms, reward.Term{Name: name, Kind: reward.TermKind(kind), Value: value})
	}
	return resp, nil
}

// #endregion evaluate

// #region start-episode
// StartEpisodeRequest opens a new episode.
type StartEpisodeRequest struct {
	Strategy string // empty: server default
}

// StartEpisodeResponse identifies the opened episode.
type StartEpisodeResponse struct {
	EpisodeID string `json:"episode_id"`
	Strategy  string `json:"strategy"`
}

// Struct encodes the request.
func (r StartEpisodeRequest) Struct() *structpb.Struct {
	fields := map[string]*structpb.Value{}
	if r.Strategy != "" {
		fields["strategy"] = structpb.NewStringValue(r.Strategy)
	}
	return &structpb.Struct{Fields: fields}
}

// ParseStartEpisodeRequest decodes a StartEpisodeRequest.
func ParseStartEpisodeRequest(s *structpb.Struct) (StartEpisodeRequest, error) {
	strategy, err := optionalString(s, "strategy")
	if err != nil {
		return StartEpisodeRequest{}, err
	}
	return StartEpisodeRequest{Strategy: strategy}, nil
}

// Struct encodes the response.
func (r StartEpisodeResponse) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"episode_id": structpb.NewStringValue(r.EpisodeID),
		"strategy":   structpb.NewStringValue(r.Strategy),
	}}
}

// ParseStartEpisodeResponse decodes a StartEpisodeResponse.
func ParseStartEpisodeResponse(s *structpb.Struct) (StartEpisodeResponse, error) {
	id, err := requiredString(s, "episode_id")
	if err != nil {
		return StartEpisodeResponse{}, err
	}
	strategy, err := requiredString(s, "strategy")
	if err != nil {
		return StartEpisodeResponse{}, err
	}
	return StartEpisodeResponse{EpisodeID: id, Strategy: strategy}, nil
}

// #endregion start-episode

// #region summary
// SummaryRequest names the episode to summarize.
func SummaryRequest(episodeID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"episode_id": structpb.NewStringValue(episodeID),
	}}
}

// ParseSummaryRequest returns the episode id of a summary request.
func ParseSummaryRequest(s *structpb.Struct) (string, error) {
	return requiredString(s, "episode_id")
}

// SummaryStruct encodes an episode summary.
func SummaryStruct(sum episode.EpisodeSummary) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"episode_id":   structpb.NewStringValue(sum.EpisodeID),
		"strategy":     structpb.NewStringValue(sum.Strategy),
		"steps":        structpb.NewNumberValue(float64(sum.Steps)),
		"total_reward": structpb.NewNumberValue(sum.TotalReward),
		"mean_reward":  structpb.NewNumberValue(sum.MeanReward),
		"std_reward":   structpb.NewNumberValue(sum.StdReward),
		"min_reward":   structpb.NewNumberValue(sum.MinReward),
		"max_reward":   structpb.NewNumberValue(sum.MaxReward),
		"crashes":      structpb.NewNumberValue(float64(sum.Crashes)),
		"offtracks":    structpb.NewNumberValue(float64(sum.Offtracks)),
	}}
}

// ParseSummary decodes an episode summary.
func ParseSummary(s *structpb.Struct) (episode.EpisodeSummary, error) {
	var sum episode.EpisodeSummary
	var err error
	if sum.EpisodeID, err = requiredString(s, "episode_id"); err != nil {
		return episode.EpisodeSummary{}, err
	}
	if sum.Strategy, err = optionalString(s, "strategy"); err != nil {
		return episode.EpisodeSummary{}, err
	}
	numbers := map[string]*float64{
		"total_reward": &sum.TotalReward,
		"mean_reward":  &sum.MeanReward,
		"std_reward":   &sum.StdReward,
		"min_reward":   &sum.MinReward,
		"max_reward":   &sum.MaxReward,
	}
	for key, dst := range numbers {
		if *dst, err = requiredNumber(s, key); err != nil {
			return episode.EpisodeSummary{}, err
		}
	}
	counts := map[string]*int{
		"steps":     &sum.Steps,
		"crashes":   &sum.Crashes,
		"offtracks": &sum.Offtracks,
	}
	for key, dst := range counts {
		n, err := requiredNumber(s, key)
		if err != nil {
			return episode.EpisodeSummary{}, err
		}
		*dst = int(n)
	}
	return sum, nil
}

// #endregion summary

// #region fields
func optionalString(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", nil
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrMalformed, key)
	}
	return sv.StringValue, nil
}

func requiredString(s *structpb.Struct, key string) (string, error) {
	if _, ok := s.GetFields()[key]; !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformed, key)
	}
	return optionalString(s, key)
}

func requiredNumber(s *structpb.Struct, key string) (float64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformed, key)
	}
	nv, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", ErrMalformed, key)
	}
	return nv.NumberValue, nil
}

// #endregion fields
