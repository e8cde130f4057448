package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to track_reward.db")
	episodeID := flag.String("episode", "", "episode to export (default: active episode)")
	last := flag.Int("last", 20, "number of most recent recorded steps to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --out path/to/fixture.json [--episode id] [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *episodeID, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, episodeID string, last int, outPath string) error {
	store, err := episode.OpenStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	var ep episode.EpisodeRecord
	if episodeID != "" {
		ep, err = store.GetEpisode(episodeID)
	} else {
		ep, err = store.GetCurrent()
	}
	if err != nil {
		return fmt.Errorf("find episode: %w", err)
	}

	steps, err := store.ListSteps(ep.EpisodeID)
	if err != nil {
		return err
	}
	cases, err := replay.CasesFromSteps(steps, "")
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("episode %s has no steps with recorded observations", ep.EpisodeID)
	}
	if last > 0 && len(cases) > last {
		cases = cases[len(cases)-last:]
	}

	// Verify the export replays before writing it
	config := replay.DefaultReplayConfig()
	if failed := replay.Failed(replay.Replay(cases, config)); len(failed) > 0 {
		return fmt.Errorf("%d of %d steps do not replay (first: %s: %s)",
			len(failed), len(cases), failed[0].Name, failed[0].Reason)
	}

	desc := fmt.Sprintf("episode %s (%s), %d steps", ep.EpisodeID, ep.Strategy, len(cases))
	if err := replay.WriteFixture(outPath, replay.FromCases(desc, cases, config)); err != nil {
		return err
	}
	fmt.Printf("Wrote %d cases to %s\n", len(cases), outPath)
	return nil
}

// #endregion export
