// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package eval

import (
	"errors"

	"github.com/rafaeeo/turnover-dashboard/cnf"
	"github.com/rafaeeo/turnover-dashboard/eval/mrf"
	"github.com/rafaeeo/turnover-dashboard/eval/rf"
	"github.com/rafaeeo/turnover-dashboard/eval/zero"
)

var ErrNoSuchModel = errors.New("no such model")

const (
	BackendRF  = "rf"
	BackendMRF = "mrf"

	// BackendZero is a baseline ignoring all the features
	BackendZero = "zero"
)

// GetMLModel creates an untrained model of the configured backend
func GetMLModel(conf cnf.ModelConf) (MLModel, error) {

	var mlModel MLModel
	var err error

	switch conf.Backend {
	case BackendRF, "":
		m := rf.NewModel(conf.NumTrees, conf.Seed)
		m.MaxDepth = conf.MaxDepth
		if conf.MinSamplesLeaf > 0 {
			m.MinSamplesLeaf = conf.MinSamplesLeaf
		}
		mlModel = m
	case BackendMRF:
		mlModel = mrf.NewModel(conf.NumTrees, conf.Seed)
	case BackendZero:
		mlModel = zero.NewModel()
	default:
		err = ErrNoSuchModel
	}
	return mlModel, err
}
