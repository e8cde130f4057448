package codec

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/geometry"
	"github.com/danielpatrickdp/track-reward/internal/observation"
	"github.com/danielpatrickdp/track-reward/internal/reward"
	"github.com/danielpatrickdp/track-reward/internal/rewardrpc"
)

// #region mock
type mockRewardService struct {
	rewardrpc.RewardServiceClient

	lastEvaluate *structpb.Struct
	evaluateResp *structpb.Struct
	evaluateErr  error

	lastStart *structpb.Struct
	startResp *structpb.Struct
	startErr  error

	summaryResp *structpb.Struct
	summaryErr  error
}

func (m *mockRewardService) Evaluate(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	m.lastEvaluate = in
	return m.evaluateResp, m.evaluateErr
}

func (m *mockRewardService) StartEpisode(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	m.lastStart = in
	return m.startResp, m.startErr
}

func (m *mockRewardService) EpisodeSummary(_ context.Context, _ *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.summaryResp, m.summaryErr
}

func sampleObservation() observation.Observation {
	return observation.Observation{
		AllWheelsOnTrack: true,
		ClosestWaypoints: [2]int{0, 1},
		Progress:         1,
		Speed:            4,
		Steps:            1,
		TrackLength:      100,
		TrackWidth:       2,
		Waypoints:        []geometry.Point{{0, 0}, {1, 0}},
	}
}

// #endregion mock

// #region constructor-tests
func TestNewRewardClientInvalidAddr(t *testing.T) {
	client, err := NewRewardClient("localhost:0")
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer client.Close()
}

func TestNewRewardClientWithService(t *testing.T) {
	c := NewRewardClientWithService(&mockRewardService{})
	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.client == nil {
		t.Fatal("expected non-nil internal client")
	}
	if err := c.Close(); err != nil {
		t.Errorf("close without connection: %v", err)
	}
}

// #endregion constructor-tests

// #region evaluate-tests
func TestEvaluate_Success(t *testing.T) {
	mock := &mockRewardService{
		evaluateResp: rewardrpc.EvaluateResponse{
			EpisodeID: "ep-1",
			Step:      1,
			Strategy:  "progress_additive",
			Reward:    4.5,
			Terms:     []reward.Term{{Name: "speed", Kind: reward.TermAdd, Value: 4.5}},
		}.Struct(),
	}
	c := &RewardClient{client: mock}

	result, err := c.Evaluate(context.Background(), sampleObservation(), reward.StrategyProgressAdditive, "ep-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reward != 4.5 {
		t.Errorf("expected reward 4.5, got %f", result.Reward)
	}
	if len(result.Terms) != 1 {
		t.Errorf("expected 1 term, got %d", len(result.Terms))
	}

	sent, err := rewardrpc.ParseEvaluateRequest(mock.lastEvaluate)
	if err != nil {
		t.Fatalf("request not decodable: %v", err)
	}
	if sent.Strategy != "progress_additive" || sent.EpisodeID != "ep-1" {
		t.Errorf("unexpected request routing: %+v", sent)
	}
	if got := sent.Params.GetFields()[observation.KeySpeed].GetNumberValue(); got != 4 {
		t.Errorf("expected speed 4 in params, got %f", got)
	}
}

func TestEvaluate_Error(t *testing.T) {
	mock := &mockRewardService{
		evaluateErr: errors.New("rpc failed"),
	}
	c := &RewardClient{client: mock}

	_, err := c.Evaluate(context.Background(), sampleObservation(), "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, mock.evaluateErr) {
		t.Errorf("expected wrapped rpc error, got: %v", err)
	}
}

func TestEvaluate_MalformedResponse(t *testing.T) {
	mock := &mockRewardService{evaluateResp: &structpb.Struct{}}
	c := &RewardClient{client: mock}

	_, err := c.Evaluate(context.Background(), sampleObservation(), "", "")
	if !errors.Is(err, rewardrpc.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got: %v", err)
	}
}

// #endregion evaluate-tests

// #region episode-tests
func TestStartEpisode_Success(t *testing.T) {
	mock := &mockRewardService{
		startResp: rewardrpc.StartEpisodeResponse{EpisodeID: "ep-2", Strategy: "index_multiplicative"}.Struct(),
	}
	c := &RewardClient{client: mock}

	resp, err := c.StartEpisode(context.Background(), reward.StrategyIndexMultiplicative)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.EpisodeID != "ep-2" {
		t.Errorf("expected ep-2, got %q", resp.EpisodeID)
	}
	if got := mock.lastStart.GetFields()["strategy"].GetStringValue(); got != "index_multiplicative" {
		t.Errorf("expected strategy in request, got %q", got)
	}
}

func TestStartEpisode_Error(t *testing.T) {
	mock := &mockRewardService{startErr: errors.New("rpc failed")}
	c := &RewardClient{client: mock}

	if _, err := c.StartEpisode(context.Background(), ""); !errors.Is(err, mock.startErr) {
		t.Errorf("expected wrapped rpc error, got: %v", err)
	}
}

func TestEpisodeSummary_Success(t *testing.T) {
	mock := &mockRewardService{
		summaryResp: rewardrpc.SummaryStruct(episode.EpisodeSummary{EpisodeID: "ep-3", Steps: 7, Crashes: 1}),
	}
	c := &RewardClient{client: mock}

	sum, err := c.EpisodeSummary(context.Background(), "ep-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Steps != 7 || sum.Crashes != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestEpisodeSummary_Error(t *testing.T) {
	mock := &mockRewardService{summaryErr: errors.New("rpc failed")}
	c := &RewardClient{client: mock}

	if _, err := c.EpisodeSummary(context.Background(), "ep-3"); !errors.Is(err, mock.summaryErr) {
		t.Errorf("expected wrapped rpc error, got: %v", err)
	}
}

// #endregion episode-tests
