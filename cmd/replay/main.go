package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/replay"
	"github.com/danielpatrickdp/track-reward/internal/reward"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to track_reward.db (DB mode)")
	episodeID := flag.String("episode", "", "episode to replay in DB mode (default: active episode)")
	strategy := flag.String("strategy", "", "rescore under this strategy instead of the recorded one")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	tolerance := flag.Float64("tolerance", 0, "absolute reward tolerance (default: fixture or 1e-6)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/track_reward.db [--episode id] [--strategy name]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}
	if *strategy != "" {
		if _, err := reward.ParseStrategy(*strategy); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, *tolerance)
	} else {
		exitCode = runDBMode(*dbPath, *episodeID, *strategy, *tolerance)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

func runDBMode(dbPath, episodeID, strategy string, tolerance float64) int {
	store, err := episode.OpenStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	var ep episode.EpisodeRecord
	if episodeID != "" {
		ep, err = store.GetEpisode(episodeID)
	} else {
		ep, err = store.GetCurrent()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "find episode: %v\n", err)
		return 2
	}

	steps, err := store.ListSteps(ep.EpisodeID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list steps: %v\n", err)
		return 2
	}
	cases, err := replay.CasesFromSteps(steps, strategy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build cases: %v\n", err)
		return 2
	}
	if len(cases) == 0 {
		fmt.Fprintf(os.Stderr, "episode %s has no steps with recorded observations (set REWARD_RECORD_OBSERVATIONS=true)\n", ep.EpisodeID)
		return 2
	}

	config := replay.DefaultReplayConfig()
	if tolerance > 0 {
		config.Tolerance = tolerance
	}
	return printComparison(replay.Replay(cases, config))
}

// #endregion db-mode

// #region output

func runFixtureMode(path string, tolerance float64) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	config := f.ToReplayConfig()
	if tolerance > 0 {
		config.Tolerance = tolerance
	}
	return printComparison(replay.Replay(f.ToCases(), config))
}

// printComparison outputs a comparison table and returns exit code.
func printComparison(results []replay.ReplayResult) int {
	fmt.Printf("%-24s| %-20s| %12s| %12s| %s\n", "Case", "Strategy", "Expected", "Replayed", "Match")
	fmt.Printf("%-24s+%-20s+%12s+%12s+%s\n",
		"------------------------", "---------------------", "-------------", "-------------", "------")

	for _, r := range results {
		match := "OK"
		if r.Action != "match" {
			match = "DIFF " + r.Action
		}
		got := fmt.Sprintf("%12.4f", r.Got)
		if r.Result == nil {
			got = fmt.Sprintf("%12s", "error")
		}
		fmt.Printf("%-24s| %-20s| %12.4f| %s| %s\n", r.Name, r.Strategy, r.Expected, got, match)
	}

	for _, r := range replay.Failed(results) {
		fmt.Printf("  %s: %s\n", r.Name, r.Reason)
	}

	sum := replay.Summarize(results)
	diverge := sum.Total - sum.Matches
	fmt.Printf("\nSummary: %d total, %d match, %d diverge (max delta %.3g)\n",
		sum.Total, sum.Matches, diverge, sum.MaxDelta)

	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion output
