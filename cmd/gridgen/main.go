// Command gridgen generates puzzle instances from the command line.
//
// Usage:
//
//	gridgen -game loopy -params 10x10d2 -count 3
//	gridgen -game rect -params 13x13 -show -solved
//
// Each generated puzzle is printed as "<params>:<descriptor>". With
// -show the board is rendered as text, and with -solved the recorded
// solution is applied first. Generation attempts for one puzzle can
// be raced across workers with -jobs; the first success wins.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gitrdm/gridlogic/internal/parallel"
	"github.com/gitrdm/gridlogic/pkg/loopy"
	"github.com/gitrdm/gridlogic/pkg/palisade"
	"github.com/gitrdm/gridlogic/pkg/pearl"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
	"github.com/gitrdm/gridlogic/pkg/rect"
	"github.com/gitrdm/gridlogic/pkg/tracks"
	"github.com/gitrdm/gridlogic/pkg/unruly"
)

type kind struct {
	defaults string
	generate func(ctx context.Context, params string, rng *puzzle.Random) (desc, aux string, err error)
	render   func(params, desc, move string) (string, error)
}

var kinds = map[string]kind{
	"unruly": {
		defaults: unruly.DefaultParams().String(),
		generate: func(ctx context.Context, ps string, rng *puzzle.Random) (string, string, error) {
			p, err := unruly.ParseParams(ps)
			if err != nil {
				return "", "", err
			}
			return unruly.GenerateDesc(ctx, p, rng)
		},
		render: func(ps, desc, move string) (string, error) {
			p, err := unruly.ParseParams(ps)
			if err != nil {
				return "", err
			}
			st, err := unruly.NewGame(p, desc)
			if err != nil {
				return "", err
			}
			if move != "" {
				if st, err = st.ExecuteMove(move); err != nil {
					return "", err
				}
			}
			return st.GameText(), nil
		},
	},
	"tracks": {
		defaults: tracks.DefaultParams().String(),
		generate: func(ctx context.Context, ps string, rng *puzzle.Random) (string, string, error) {
			p, err := tracks.ParseParams(ps)
			if err != nil {
				return "", "", err
			}
			return tracks.GenerateDesc(ctx, p, rng)
		},
		render: func(ps, desc, move string) (string, error) {
			p, err := tracks.ParseParams(ps)
			if err != nil {
				return "", err
			}
			st, err := tracks.NewGame(p, desc)
			if err != nil {
				return "", err
			}
			if move != "" {
				if st, err = st.ExecuteMove(move); err != nil {
					return "", err
				}
			}
			return st.GameText(), nil
		},
	},
	"loopy": {
		defaults: loopy.DefaultParams().String(),
		generate: func(ctx context.Context, ps string, rng *puzzle.Random) (string, string, error) {
			p, err := loopy.ParseParams(ps)
			if err != nil {
				return "", "", err
			}
			return loopy.GenerateDesc(ctx, p, rng)
		},
		render: func(ps, desc, move string) (string, error) {
			p, err := loopy.ParseParams(ps)
			if err != nil {
				return "", err
			}
			st, err := loopy.NewGame(p, desc)
			if err != nil {
				return "", err
			}
			if move != "" {
				if st, err = st.ExecuteMove(move); err != nil {
					return "", err
				}
			}
			return st.GameText(), nil
		},
	},
	"pearl": {
		defaults: pearl.DefaultParams().String(),
		generate: func(ctx context.Context, ps string, rng *puzzle.Random) (string, string, error) {
			p, err := pearl.ParseParams(ps)
			if err != nil {
				return "", "", err
			}
			return pearl.GenerateDesc(ctx, p, rng)
		},
		render: func(ps, desc, move string) (string, error) {
			p, err := pearl.ParseParams(ps)
			if err != nil {
				return "", err
			}
			st, err := pearl.NewGame(p, desc)
			if err != nil {
				return "", err
			}
			if move != "" {
				if st, err = st.ExecuteMove(move); err != nil {
					return "", err
				}
			}
			return st.GameText(), nil
		},
	},
	"palisade": {
		defaults: palisade.DefaultParams().String(),
		generate: func(ctx context.Context, ps string, rng *puzzle.Random) (string, string, error) {
			p, err := palisade.ParseParams(ps)
			if err != nil {
				return "", "", err
			}
			return palisade.GenerateDesc(ctx, p, rng)
		},
		render: func(ps, desc, move string) (string, error) {
			p, err := palisade.ParseParams(ps)
			if err != nil {
				return "", err
			}
			st, err := palisade.NewGame(p, desc)
			if err != nil {
				return "", err
			}
			if move != "" {
				if st, err = st.ExecuteMove(move); err != nil {
					return "", err
				}
			}
			return st.GameText(), nil
		},
	},
	"rect": {
		defaults: rect.DefaultParams().String(),
		generate: func(ctx context.Context, ps string, rng *puzzle.Random) (string, string, error) {
			p, err := rect.ParseParams(ps)
			if err != nil {
				return "", "", err
			}
			return rect.GenerateDesc(ctx, p, rng)
		},
		render: func(ps, desc, move string) (string, error) {
			p, err := rect.ParseParams(ps)
			if err != nil {
				return "", err
			}
			st, err := rect.NewGame(p, desc)
			if err != nil {
				return "", err
			}
			if move != "" {
				if st, err = st.ExecuteMove(move); err != nil {
					return "", err
				}
			}
			return st.GameText(), nil
		},
	},
}

func gameNames() string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("gridgen: ")

	game := flag.String("game", "loopy", "puzzle type: "+gameNames())
	params := flag.String("params", "", "parameter string (default: the game's standard preset)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	count := flag.Int("count", 1, "number of puzzles to generate")
	jobs := flag.Int("jobs", 1, "parallel generation attempts per puzzle")
	show := flag.Bool("show", false, "render each board as text")
	solved := flag.Bool("solved", false, "with -show, apply the recorded solution first")
	timeout := flag.Duration("timeout", 2*time.Minute, "give up on a puzzle after this long")
	flag.Parse()

	k, ok := kinds[*game]
	if !ok {
		log.Fatalf("unknown game %q (have %s)", *game, gameNames())
	}
	if *params == "" {
		*params = k.defaults
	}
	if *count < 1 || *jobs < 1 {
		log.Fatal("-count and -jobs must be positive")
	}

	var pool *parallel.WorkerPool
	if *jobs > 1 {
		pool = parallel.NewWorkerPool(*jobs)
		defer pool.Shutdown()
	}

	for i := 0; i < *count; i++ {
		desc, aux, err := generateOne(k, *params, *seed+int64(i)*int64(*jobs), *jobs, pool, *timeout)
		if err != nil {
			log.Fatalf("generating %s %s: %v", *game, *params, err)
		}
		fmt.Printf("%s:%s\n", *params, desc)

		if *show {
			move := ""
			if *solved {
				move = aux
			}
			text, err := k.render(*params, desc, move)
			if err != nil {
				log.Fatalf("rendering %s: %v", desc, err)
			}
			os.Stdout.WriteString(text)
		}
	}
}

type generated struct {
	desc, aux string
}

func generateOne(k kind, params string, seed int64, jobs int, pool *parallel.WorkerPool, timeout time.Duration) (string, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if pool == nil {
		return k.generate(ctx, params, puzzle.NewRandom(seed))
	}

	// Race several seeds; the first finished puzzle wins and the
	// losers are cancelled.
	errs := make([]error, jobs)
	res, ok := parallel.FirstResult(ctx, pool, jobs, func(ctx context.Context, n int) (generated, bool) {
		desc, aux, err := k.generate(ctx, params, puzzle.NewRandom(seed+int64(n)))
		if err != nil {
			errs[n] = err
			return generated{}, false
		}
		return generated{desc: desc, aux: aux}, true
	})
	if !ok {
		for _, err := range errs {
			if err != nil {
				return "", "", err
			}
		}
		return "", "", ctx.Err()
	}
	return res.desc, res.aux, nil
}
