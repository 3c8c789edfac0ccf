// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Department of Linguistics,
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

package cnf

import (
	"encoding/json"
	"os"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const (
	dfltListenAddress          = "127.0.0.1"
	dfltListenPort             = 8080
	dfltServerReadTimeoutSecs  = 30
	dfltServerWriteTimeoutSecs = 60
	dfltMaxUploadSizeMB        = 32
	dfltLoadCacheSize          = 16
	dfltMaxSessions            = 100

	dfltSheetName            = "Base"
	dfltTargetColumn         = "Turnover"
	dfltPositiveLabel        = "Sim"
	dfltNegativeLabel        = "Não"
	dfltIDColumn             = "ID"
	dfltMaxPlottedCategories = 15

	dfltBackend     = "rf"
	dfltNumTrees    = 100
	dfltSeed        = 42
	dfltTestSize    = 0.3
	dfltTopFeatures = 15

	dfltRiskHigh   = 0.7
	dfltRiskMedium = 0.4
)

// DatasetConf describes the expected input spreadsheet
type DatasetConf struct {
	SheetName     string `json:"sheetName"`
	TargetColumn  string `json:"targetColumn"`
	PositiveLabel string `json:"positiveLabel"`
	NegativeLabel string `json:"negativeLabel"`

	// IDColumn is an optional identifier column excluded from modeling
	IDColumn             string `json:"idColumn"`
	MaxPlottedCategories int    `json:"maxPlottedCategories" validate:"gte=1"`
}

type ModelConf struct {
	Backend        string  `json:"backend" validate:"oneof=rf mrf zero"`
	NumTrees       int     `json:"numTrees" validate:"gte=1"`
	Seed           uint64  `json:"seed"`
	TestSize       float64 `json:"testSize" validate:"gt=0,lt=1"`
	MaxDepth       int     `json:"maxDepth" validate:"gte=0"`
	MinSamplesLeaf int     `json:"minSamplesLeaf" validate:"gte=0"`
	TopFeatures    int     `json:"topFeatures" validate:"gte=1"`
}

// RiskConf defines probability thresholds of the risk bands.
// A probability above High is "high", above Medium is "medium".
type RiskConf struct {
	High   float64 `json:"high" validate:"gt=0,lte=1,gtfield=Medium"`
	Medium float64 `json:"medium" validate:"gt=0,lt=1"`
}

type Conf struct {
	srcPath                string
	Logging                logging.LoggingConf `json:"logging"`
	ListenAddress          string              `json:"listenAddress"`
	ListenPort             int                 `json:"listenPort" validate:"gte=1,lte=65535"`
	ServerReadTimeoutSecs  int                 `json:"serverReadTimeoutSecs" validate:"gte=0"`
	ServerWriteTimeoutSecs int                 `json:"serverWriteTimeoutSecs" validate:"gte=0"`
	CorsAllowedOrigins     []string            `json:"corsAllowedOrigins"`
	MaxUploadSizeMB        int                 `json:"maxUploadSizeMB" validate:"gte=1"`
	LoadCacheSize          int                 `json:"loadCacheSize" validate:"gte=1"`
	MaxSessions            int                 `json:"maxSessions" validate:"gte=1"`
	Dataset                DatasetConf         `json:"dataset"`
	Model                  ModelConf           `json:"model"`
	Risk                   RiskConf            `json:"risk"`
}

func (conf *Conf) SrcPath() string {
	return conf.srcPath
}

// LoadConfig reads a JSON configuration. With an empty path, an empty
// configuration is returned and ValidateAndDefaults fills in all
// the values.
func LoadConfig(path string) *Conf {
	if path == "" {
		log.Warn().Msg("config path not specified, using defaults")
		return &Conf{}
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	var conf Conf
	conf.srcPath = path
	err = json.Unmarshal(rawData, &conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	return &conf
}

func setDefault[T comparable](v *T, dflt T, key string) {
	var zero T
	if *v == zero {
		*v = dflt
		log.Warn().Msgf("%s not specified, using default: %v", key, dflt)
	}
}

// ApplyDefaults fills in missing values without any validation
func ApplyDefaults(conf *Conf) {
	setDefault(&conf.ListenAddress, dfltListenAddress, "listenAddress")
	setDefault(&conf.ListenPort, dfltListenPort, "listenPort")
	setDefault(&conf.ServerReadTimeoutSecs, dfltServerReadTimeoutSecs, "serverReadTimeoutSecs")
	setDefault(&conf.ServerWriteTimeoutSecs, dfltServerWriteTimeoutSecs, "serverWriteTimeoutSecs")
	setDefault(&conf.MaxUploadSizeMB, dfltMaxUploadSizeMB, "maxUploadSizeMB")
	setDefault(&conf.LoadCacheSize, dfltLoadCacheSize, "loadCacheSize")
	setDefault(&conf.MaxSessions, dfltMaxSessions, "maxSessions")

	setDefault(&conf.Dataset.SheetName, dfltSheetName, "dataset.sheetName")
	setDefault(&conf.Dataset.TargetColumn, dfltTargetColumn, "dataset.targetColumn")
	setDefault(&conf.Dataset.PositiveLabel, dfltPositiveLabel, "dataset.positiveLabel")
	setDefault(&conf.Dataset.NegativeLabel, dfltNegativeLabel, "dataset.negativeLabel")
	setDefault(&conf.Dataset.IDColumn, dfltIDColumn, "dataset.idColumn")
	setDefault(&conf.Dataset.MaxPlottedCategories, dfltMaxPlottedCategories, "dataset.maxPlottedCategories")

	setDefault(&conf.Model.Backend, dfltBackend, "model.backend")
	setDefault(&conf.Model.NumTrees, dfltNumTrees, "model.numTrees")
	setDefault(&conf.Model.Seed, dfltSeed, "model.seed")
	setDefault(&conf.Model.TestSize, dfltTestSize, "model.testSize")
	setDefault(&conf.Model.TopFeatures, dfltTopFeatures, "model.topFeatures")

	setDefault(&conf.Risk.High, dfltRiskHigh, "risk.high")
	setDefault(&conf.Risk.Medium, dfltRiskMedium, "risk.medium")
}

// Validate checks the configuration values
func Validate(conf *Conf) error {
	return validator.New().Struct(conf)
}

func ValidateAndDefaults(conf *Conf) {
	ApplyDefaults(conf)
	if err := Validate(conf); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
}
