//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// This is a command line utility which calibrates an (ε,δ)-differential
// privacy criterion, draws its research subset for a dataset and checks that
// repeated runs on the same dataset reuse that subset.
// Usage example:
// go run ./cmd/sdgs --epsilon=1 --delta=1e-5 --dataset_size=1000 --runs=5
// go run ./cmd/sdgs --config=criterion.yaml --runs=5
package main

import (
	"flag"

	"github.com/deidentifier/sdgs/config"
	"github.com/deidentifier/sdgs/criteria"
	log "github.com/golang/glog"
)

var (
	configFile  = flag.String("config", "", "YAML file describing the criterion. Overrides --epsilon, --delta and --dataset_size.")
	epsilon     = flag.Float64("epsilon", 1, "Privacy parameter ε.")
	delta       = flag.Float64("delta", 1e-5, "Privacy parameter δ.")
	datasetSize = flag.Int("dataset_size", 1000, "Number of records of the synthetic dataset.")
	runs        = flag.Int("runs", 5, "Number of runs after the warm-up run.")
)

// dataset stands in for the data manager of an anonymization engine.
type dataset struct {
	size int
}

func (d *dataset) DatasetSize() int { return d.size }

func main() {
	flag.Parse()

	log.Infof("sdgs was run with arguments: config = %q, epsilon = %v, delta = %v, dataset_size = %d, runs = %d",
		*configFile, *epsilon, *delta, *datasetSize, *runs)

	if *runs < 0 {
		log.Exitf("Number of runs is %d, must be at least 0", *runs)
	}

	cfg := &config.Config{Epsilon: *epsilon, Delta: *delta, DatasetSize: *datasetSize}
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			log.Exitf("Couldn't load configuration, err = %v", err)
		}
	} else if err := cfg.Validate(); err != nil {
		log.Exitf("Invalid arguments, err = %v", err)
	}

	c, err := cfg.Criterion(nil)
	if err != nil {
		log.Exitf("Couldn't create criterion, err = %v", err)
	}
	log.Infof("Privacy model: %s", criteria.Describe(c))
	log.Infof("Calibrated k = %d, β = %v, requirements = %v", c.K(), c.Beta(), c.Requirements())

	h := cfg.Hierarchies()
	for _, a := range c.Scheme().Attributes() {
		log.Infof("Attribute %q is generalized to level %d", a, c.Scheme().Level(a, h))
	}

	d := &dataset{size: cfg.DatasetSize}
	if err := c.Initialize(d); err != nil {
		log.Exitf("Warm-up run failed, err = %v", err)
	}
	s := c.Subset()
	log.Infof("Warm-up run drew %v", s)

	for i := 1; i <= *runs; i++ {
		if err := c.Initialize(d); err != nil {
			log.Exitf("Run %d failed, err = %v", i, err)
		}
		if c.Subset() != s {
			log.Exitf("Run %d drew a new research subset for the same dataset", i)
		}
		log.V(1).Infof("Run %d reused the research subset", i)
	}

	log.Infof("Successfully finished %d runs with %d of %d records in the research subset", *runs, s.Len(), s.DatasetSize())
}
