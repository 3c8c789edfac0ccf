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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/rafaeeo/turnover-dashboard/apiserver"
	"github.com/rafaeeo/turnover-dashboard/cnf"
)

const (
	actionVersion   = "version"
	actionHelp      = "help"
	actionServer    = "server"
	actionTrain     = "train"
	actionReport    = "report"
	actionFeaturize = "featurize"
	actionSimulate  = "simulate"
)

var (
	version   string
	buildDate string
	gitCommit string
)

func topLevelUsage() {
	fmt.Fprintf(os.Stderr, "TURNOVER - employee attrition analysis and prediction\n")
	fmt.Fprintf(os.Stderr, "-----------------------------\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "\t%s\t\tshow version info\n", actionVersion)
	fmt.Fprintf(os.Stderr, "\t%s\t\trun the HTTP API server\n", actionServer)
	fmt.Fprintf(os.Stderr, "\t%s\t\ttrain and evaluate a classifier on a spreadsheet\n", actionTrain)
	fmt.Fprintf(os.Stderr, "\t%s\t\twrite PNG charts for a spreadsheet\n", actionReport)
	fmt.Fprintf(os.Stderr, "\t%s\texport the prepared feature matrix (msgpack)\n", actionFeaturize)
	fmt.Fprintf(os.Stderr, "\t%s\tsimulate departure probability of a hypothetical employee\n", actionSimulate)
	fmt.Fprintf(os.Stderr, "\nUse `turnover help ACTION` for information about a specific action\n\n")
}

func setup(confPath string) *cnf.Conf {
	conf := cnf.LoadConfig(confPath)
	if conf.Logging.Level == "" {
		conf.Logging.Level = "info"
	}
	logging.SetupLogging(conf.Logging)
	cnf.ValidateAndDefaults(conf)
	return conf
}

func cleanVersionInfo(v string) string {
	return strings.TrimLeft(strings.Trim(v, "'"), "v")
}

func runActionVersion(ver cnf.VersionInfo) {
	fmt.Fprintf(os.Stderr, "turnover %s (build date: %s, last commit: %s)\n", ver.Version, ver.BuildDate, ver.GitCommit)
}

func runActionServer(conf *cnf.Conf, ver cnf.VersionInfo) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	apiserver.Run(ctx, conf, ver)
}

func usageFn(fs *flag.FlagSet, args, desc string) func() {
	return func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] %s\n\t",
			filepath.Base(os.Args[0]), fs.Name(), args)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n%s\n", desc)
	}
}

func main() {
	version := cnf.VersionInfo{
		Version:   cleanVersionInfo(version),
		BuildDate: cleanVersionInfo(buildDate),
		GitCommit: cleanVersionInfo(gitCommit),
	}

	cmdVersion := flag.NewFlagSet(actionVersion, flag.ExitOnError)
	cmdVersion.Usage = usageFn(cmdVersion, "", "Show version information")

	cmdHelp := flag.NewFlagSet(actionHelp, flag.ExitOnError)
	cmdHelp.Usage = usageFn(cmdHelp, "[action]", "Show help for an action")

	cmdServer := flag.NewFlagSet(actionServer, flag.ExitOnError)
	cmdServer.Usage = usageFn(cmdServer, "[config.json]", "Run the HTTP API server")

	cmdTrain := flag.NewFlagSet(actionTrain, flag.ExitOnError)
	trainConfig := cmdTrain.String("config", "", "path to a JSON configuration (defaults are used if empty)")
	trainTarget := cmdTrain.String("target", "", "target column (if empty, it is detected)")
	trainQuiet := cmdTrain.Bool("quiet", false, "do not show training progress")
	cmdTrain.Usage = usageFn(
		cmdTrain, "data.xlsx", "Train a classifier and print its evaluation on held-out data")

	cmdReport := flag.NewFlagSet(actionReport, flag.ExitOnError)
	reportConfig := cmdReport.String("config", "", "path to a JSON configuration (defaults are used if empty)")
	reportTarget := cmdReport.String("target", "", "target column (if empty, it is detected)")
	reportOut := cmdReport.String("out", ".", "directory to write charts to")
	cmdReport.Usage = usageFn(cmdReport, "data.xlsx", "Write PNG charts describing the data and the trained classifier")

	cmdFeaturize := flag.NewFlagSet(actionFeaturize, flag.ExitOnError)
	featConfig := cmdFeaturize.String("config", "", "path to a JSON configuration (defaults are used if empty)")
	featTarget := cmdFeaturize.String("target", "", "target column (if empty, it is detected)")
	featDebug := cmdFeaturize.Bool("debug", false, "print the feature vectors instead of writing them")
	cmdFeaturize.Usage = usageFn(cmdFeaturize, "data.xlsx out.msgpack", "Export the prepared feature matrix, labels and schema")

	cmdSimulate := flag.NewFlagSet(actionSimulate, flag.ExitOnError)
	simConfig := cmdSimulate.String("config", "", "path to a JSON configuration (defaults are used if empty)")
	simTarget := cmdSimulate.String("target", "", "target column (if empty, it is detected)")
	cmdSimulate.Usage = usageFn(cmdSimulate, "data.xlsx", "Interactively simulate departure probability of an employee")

	action := actionHelp
	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	switch action {
	case actionHelp:
		var subj string
		if len(os.Args) > 2 {
			cmdHelp.Parse(os.Args[2:])
			subj = cmdHelp.Arg(0)
		}
		if subj == "" {
			topLevelUsage()
			return
		}
		switch subj {
		case actionVersion:
			cmdVersion.Usage()
		case actionServer:
			cmdServer.Usage()
		case actionTrain:
			cmdTrain.Usage()
		case actionReport:
			cmdReport.Usage()
		case actionFeaturize:
			cmdFeaturize.Usage()
		case actionSimulate:
			cmdSimulate.Usage()
		default:
			topLevelUsage()
		}
	case actionVersion:
		cmdVersion.Parse(os.Args[2:])
		runActionVersion(version)
	case actionServer:
		cmdServer.Parse(os.Args[2:])
		conf := setup(cmdServer.Arg(0))
		runActionServer(conf, version)
	case actionTrain:
		cmdTrain.Parse(os.Args[2:])
		conf := setup(*trainConfig)
		runActionTrain(conf, cmdTrain.Arg(0), *trainTarget, !*trainQuiet)
	case actionReport:
		cmdReport.Parse(os.Args[2:])
		conf := setup(*reportConfig)
		runActionReport(conf, cmdReport.Arg(0), *reportTarget, *reportOut)
	case actionFeaturize:
		cmdFeaturize.Parse(os.Args[2:])
		conf := setup(*featConfig)
		runActionFeaturize(conf, cmdFeaturize.Arg(0), cmdFeaturize.Arg(1), *featTarget, *featDebug)
	case actionSimulate:
		cmdSimulate.Parse(os.Args[2:])
		conf := setup(*simConfig)
		runActionSimulate(conf, cmdSimulate.Arg(0), *simTarget)
	default:
		fmt.Fprintf(os.Stderr, "Unknown action, please use 'help' to get more information\n")
		os.Exit(1)
	}
}
