// Command tchecker runs one or more built-in example systems (§1's parser
// front end is out of scope; -model names one of the systems examples/
// builds programmatically) through covreach or couvscc and reports what
// was found.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/arnabSur/tchecker/cmd/tchecker/config"
	"github.com/arnabSur/tchecker/couvscc"
	"github.com/arnabSur/tchecker/covreach"
	"github.com/arnabSur/tchecker/examples"
	"github.com/arnabSur/tchecker/system"
	"github.com/arnabSur/tchecker/zg"
)

func main() {
	var models, algo, labels, configPath string
	var fischerN, fischerK int

	flag.StringVar(&models, "model", "mutex", "comma-separated built-in model names: mutex, counter, fischer, deadlock, buchi, refzg")
	flag.StringVar(&algo, "algo", "covreach", "exploration algorithm: covreach or couvscc")
	flag.StringVar(&labels, "labels", "", "comma-separated accepting labels to search for")
	flag.StringVar(&configPath, "c", "", "optional exploration config file")
	flag.IntVar(&fischerN, "fischer-n", 2, "number of processes for the fischer model")
	flag.IntVar(&fischerK, "fischer-k", 2, "timing parameter k for the fischer model")
	flag.Parse()

	cfg := config.Defaults()
	if configPath != "" {
		var err error
		cfg, err = config.ReadConfig(configPath)
		if err != nil {
			log.Fatalf("reading config %q: %v", configPath, err)
		}
	}

	labelSet := map[string]bool{}
	for _, l := range strings.Split(labels, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labelSet[l] = true
		}
	}

	names := strings.Split(models, ",")
	var g errgroup.Group
	results := make([]string, len(names))
	anyFound := false
	var foundMu sync.Mutex

	for i, name := range names {
		i, name := i, strings.TrimSpace(name)
		g.Go(func() error {
			summary, found, err := runModel(name, algo, cfg, labelSet, fischerN, fischerK)
			if err != nil {
				return fmt.Errorf("model %q: %w", name, err)
			}
			results[i] = summary
			if found {
				foundMu.Lock()
				anyFound = true
				foundMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	for _, r := range results {
		log.Print(r)
	}
	if anyFound {
		log.Print("at least one model reported a match")
	}
}

// runModel builds the named built-in system, explores it with the
// requested algorithm, and returns a one-line summary plus whether the
// search found what it was looking for.
func runModel(name, algo string, cfg config.Root, labels map[string]bool, fischerN, fischerK int) (string, bool, error) {
	sys, err := buildModel(name, fischerN, fischerK)
	if err != nil {
		return "", false, err
	}

	extra := extrapolationOf(cfg.Extrapolation)

	poolSizes := zg.WithPoolSizes(cfg.BlockSize, cfg.TableSize)

	switch algo {
	case "couvscc":
		graph := zg.New(sys, extra, nil, poolSizes)
		res := couvscc.Run(sys, graph, labels)
		return fmt.Sprintf("%s/couvscc: found=%t %s", name, res.Found, res.Stats.String()), res.Found, nil
	case "covreach":
		graph := zg.New(sys, extra, nil, poolSizes)
		res := covreach.Run(sys, graph, covreach.Options{
			Labels:      labels,
			Search:      searchOrderOf(cfg.SearchOrder),
			Covering:    coveringPolicyOf(cfg.Covering),
			StopOnFirst: len(labels) > 0,
		})
		return fmt.Sprintf("%s/covreach: found=%t %s", name, res.Found, res.Stats.String()), res.Found, nil
	default:
		return "", false, fmt.Errorf("unknown algorithm %q (want covreach or couvscc)", algo)
	}
}

func buildModel(name string, fischerN, fischerK int) (*system.System, error) {
	switch name {
	case "mutex":
		return examples.Mutex()
	case "counter":
		return examples.Counter()
	case "fischer":
		return examples.Fischer(fischerN, fischerK)
	case "deadlock":
		return examples.Deadlock()
	case "buchi":
		return examples.BuchiLoop()
	case "refzg":
		// refzg's reference-clock synchronization is only exercised through
		// the refzg package's own API (examples_test.go); as a CLI model it
		// is just the discrete system explored through the ordinary zg
		// engine like any other -model.
		sys, _, _, err := examples.RefzgIndependentClocks()
		return sys, err
	default:
		return nil, fmt.Errorf("unknown model %q", name)
	}
}

func extrapolationOf(s string) zg.Extrapolation {
	switch s {
	case "lu":
		return zg.ExtraLU
	case "k":
		return zg.ExtraK
	case "none":
		return zg.ExtraNone
	default:
		return zg.ExtraLUPlusLocal
	}
}

func searchOrderOf(s string) covreach.SearchOrder {
	if s == "dfs" {
		return covreach.DFS
	}
	return covreach.BFS
}

func coveringPolicyOf(s string) covreach.CoveringPolicy {
	if s == "leaf" {
		return covreach.CoveringLeafNodes
	}
	return covreach.CoveringFull
}
