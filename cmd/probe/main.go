package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/danielpatrickdp/track-reward/internal/codec"
	"github.com/danielpatrickdp/track-reward/internal/observation"
	"github.com/danielpatrickdp/track-reward/internal/replay"
	"github.com/danielpatrickdp/track-reward/internal/reward"
)

// #region main

func main() {
	addr := flag.String("addr", "localhost:50061", "reward server gRPC address")
	fixturePath := flag.String("fixture", "", "path to fixture JSON whose cases are sent to the server")
	strategy := flag.String("strategy", "", "strategy for fixture cases that do not name one (default: server default)")
	timeout := flag.Duration("timeout", 5*time.Second, "per-call timeout")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: probe --fixture path/to/fixture.json [--addr host:port] [--strategy name]")
		os.Exit(2)
	}

	if err := run(*addr, *fixturePath, reward.Strategy(*strategy), *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region probe

// run scores every fixture case on the server and prints what it returned
// next to the fixture's expectation. An episode records one strategy, so each
// strategy in the fixture gets its own fresh episode.
func run(addr, fixturePath string, strategy reward.Strategy, timeout time.Duration) error {
	f, err := replay.LoadFixture(fixturePath)
	if err != nil {
		return err
	}
	tolerance := f.ToReplayConfig().Tolerance

	client, err := codec.NewRewardClient(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	episodes := map[reward.Strategy]string{}
	var order []string
	episodeFor := func(s reward.Strategy) (string, error) {
		if id, ok := episodes[s]; ok {
			return id, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		started, err := client.StartEpisode(ctx, s)
		if err != nil {
			return "", err
		}
		fmt.Printf("Probe episode %s (%s) on %s\n", started.EpisodeID, started.Strategy, addr)
		episodes[s] = started.EpisodeID
		order = append(order, started.EpisodeID)
		return started.EpisodeID, nil
	}

	fmt.Printf("%-24s| %12s| %12s| %s\n", "Case", "Expected", "Server", "Match")
	diverge := 0
	for _, c := range f.ToCases() {
		if c.ExpectError != "" {
			continue
		}
		obs, err := observation.FromParams(c.Params, nil)
		if err != nil {
			return fmt.Errorf("case %s: %w", c.Name, err)
		}
		caseStrategy := reward.Strategy(c.Strategy)
		if caseStrategy == "" {
			caseStrategy = strategy
		}
		episodeID, err := episodeFor(caseStrategy)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		resp, err := client.Evaluate(ctx, obs, "", episodeID)
		cancel()
		if err != nil {
			fmt.Printf("%-24s| %12.4f| %12s| DIFF %v\n", c.Name, c.Expected, "error", err)
			diverge++
			continue
		}
		match := "OK"
		if math.Abs(resp.Reward-c.Expected) > tolerance {
			match = "DIFF"
			diverge++
		}
		fmt.Printf("%-24s| %12.4f| %12.4f| %s\n", c.Name, c.Expected, resp.Reward, match)
	}

	fmt.Println()
	for _, id := range order {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		sum, err := client.EpisodeSummary(ctx, id)
		cancel()
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s): %d steps, total %.4f, %d crashes, %d off-track\n",
			sum.EpisodeID, sum.Strategy, sum.Steps, sum.TotalReward, sum.Crashes, sum.Offtracks)
	}

	if diverge > 0 {
		return fmt.Errorf("%d cases diverge", diverge)
	}
	return nil
}

// #endregion probe
