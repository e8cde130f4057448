package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/reward"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to track_reward.db")
	last := flag.Int("last", 20, "show N most recent episodes")
	episodeID := flag.String("episode", "", "show single episode detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/track_reward.db [--last N] [--episode id] [--json]")
		os.Exit(2)
	}

	store, err := episode.OpenStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *episodeID != "" {
		err = runDetailMode(store, *episodeID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	episode.EpisodeSummary
	CreatedAt string `json:"created_at"`
	Open      bool   `json:"open"`
}

func runListMode(store *episode.Store, last int, jsonOut bool) error {
	episodes, err := store.ListEpisodes(last)
	if err != nil {
		return err
	}
	if len(episodes) == 0 {
		fmt.Fprintln(os.Stderr, "no episodes found")
		return nil
	}

	// store returns newest first, print chronologically
	rows := make([]listRow, len(episodes))
	for i, ep := range episodes {
		steps, err := store.ListSteps(ep.EpisodeID)
		if err != nil {
			return err
		}
		rows[len(episodes)-1-i] = listRow{
			EpisodeSummary: episode.Summarize(ep, steps),
			CreatedAt:      ep.CreatedAt.Format("2006-01-02T15:04:05Z"),
			Open:           ep.Open(),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-36s  %-20s  %6s  %10s  %9s  %8s  %5s  %5s  %s\n",
		"Episode", "Strategy", "Steps", "Total", "Mean", "Std", "Crash", "Off", "Created")
	fmt.Printf("%-36s+-%-20s+-%6s+-%10s+-%9s+-%8s+-%5s+-%5s+-%s\n",
		"------------------------------------", "--------------------", "------", "----------",
		"---------", "--------", "-----", "-----", "--------------------")
	for _, r := range rows {
		created := r.CreatedAt
		if r.Open {
			created += " *"
		}
		fmt.Printf("%-36s  %-20s  %6d  %10.3f  %9.3f  %8.3f  %5d  %5d  %s\n",
			r.EpisodeID, r.Strategy, r.Steps, r.TotalReward, r.MeanReward, r.StdReward,
			r.Crashes, r.Offtracks, created)
	}
	fmt.Println("\n* open episode")
	return nil
}

// #endregion list-mode

// #region detail-mode

type termStat struct {
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

type detail struct {
	Summary episode.EpisodeSummary `json:"summary"`
	Terms   []termStat             `json:"terms"`
	Steps   []stepRow              `json:"steps"`
}

type stepRow struct {
	Step     int     `json:"step"`
	Strategy string  `json:"strategy"`
	Reward   float64 `json:"reward"`
	Terminal bool    `json:"terminal"`
}

func runDetailMode(store *episode.Store, episodeID string, jsonOut bool) error {
	ep, err := store.GetEpisode(episodeID)
	if err != nil {
		return err
	}
	steps, err := store.ListSteps(episodeID)
	if err != nil {
		return err
	}
	terms, err := termStats(steps)
	if err != nil {
		return err
	}

	d := detail{
		Summary: episode.Summarize(ep, steps),
		Terms:   terms,
		Steps: lo.Map(steps, func(s episode.StepRecord, _ int) stepRow {
			return stepRow{Step: s.Step, Strategy: s.Strategy, Reward: s.Reward, Terminal: s.Terminal}
		}),
	}
	if jsonOut {
		return printJSON(d)
	}

	s := d.Summary
	fmt.Printf("Episode:   %s (%s)\n", s.EpisodeID, s.Strategy)
	fmt.Printf("Steps:     %d  (crashes %d, off-track %d)\n", s.Steps, s.Crashes, s.Offtracks)
	fmt.Printf("Reward:    total %.4f  mean %.4f  std %.4f  min %.4f  max %.4f\n",
		s.TotalReward, s.MeanReward, s.StdReward, s.MinReward, s.MaxReward)

	if len(d.Terms) > 0 {
		fmt.Printf("\n%-18s  %-8s  %6s  %10s  %10s  %10s\n", "Term", "Kind", "Count", "Mean", "Min", "Max")
		for _, t := range d.Terms {
			fmt.Printf("%-18s  %-8s  %6d  %10.4f  %10.4f  %10.4f\n", t.Name, t.Kind, t.Count, t.Mean, t.Min, t.Max)
		}
	}

	fmt.Printf("\n%6s  %-20s  %12s  %s\n", "Step", "Strategy", "Reward", "Terminal")
	for _, r := range d.Steps {
		fmt.Printf("%6d  %-20s  %12.4f  %v\n", r.Step, r.Strategy, r.Reward, r.Terminal)
	}
	return nil
}

// termStats aggregates the logged term breakdowns per term name.
func termStats(steps []episode.StepRecord) ([]termStat, error) {
	values := map[string][]float64{}
	kinds := map[string]reward.TermKind{}
	for _, s := range steps {
		if s.TermsJSON == "" {
			continue
		}
		var terms []reward.Term
		if err := json.Unmarshal([]byte(s.TermsJSON), &terms); err != nil {
			return nil, fmt.Errorf("step %d terms: %w", s.Step, err)
		}
		for _, t := range terms {
			values[t.Name] = append(values[t.Name], t.Value)
			kinds[t.Name] = t.Kind
		}
	}

	names := lo.Keys(values)
	slices.Sort(names)
	return lo.Map(names, func(name string, _ int) termStat {
		v := values[name]
		return termStat{
			Name:  name,
			Kind:  string(kinds[name]),
			Count: len(v),
			Mean:  stat.Mean(v, nil),
			Min:   floats.Min(v),
			Max:   floats.Max(v),
		}
	}), nil
}

// #endregion detail-mode

// #region helpers

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
