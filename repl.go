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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/rafaeeo/turnover-dashboard/cnf"
	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rafaeeo/turnover-dashboard/simulate"
	"github.com/rs/zerolog/log"
)

func ensureConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(homeDir, ".config", "turnover")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}

// profileEditor holds a simulated employee profile edited in the REPL
type profileEditor struct {
	sim     *simulate.Simulator
	profile dataset.Record
}

func newProfileEditor(sim *simulate.Simulator) *profileEditor {
	return &profileEditor{sim: sim, profile: sim.DefaultInput()}
}

func (pe *profileEditor) reset() {
	pe.profile = pe.sim.DefaultInput()
}

// set parses "<column> <value>" where the column name may contain
// spaces. The longest matching field name is used.
func (pe *profileEditor) set(args string) error {
	fields := pe.sim.Fields()
	slices.SortFunc(fields, func(a, b simulate.Field) int {
		return len(b.Name) - len(a.Name)
	})
	for _, f := range fields {
		if !strings.HasPrefix(args, f.Name+" ") {
			continue
		}
		raw := strings.TrimSpace(args[len(f.Name):])
		if f.Kind == dataset.Numeric {
			v := dataset.ParseCell(raw)
			if !v.IsNumber() {
				return fmt.Errorf("%s requires a number", f.Name)
			}
			pe.profile[f.Name] = v

		} else {
			pe.profile[f.Name] = dataset.Str(raw)
		}
		return nil
	}
	return fmt.Errorf("unknown field in '%s'", args)
}

func (pe *profileEditor) show(w io.Writer) {
	titleColor := color.New(color.FgHiMagenta).SprintFunc()
	for _, f := range pe.sim.Fields() {
		var hint string
		if f.Kind == dataset.Categorical {
			hint = strings.Join(f.Options, " | ")

		} else {
			hint = fmt.Sprintf("%v .. %v", f.Min, f.Max)
		}
		fmt.Fprintf(w, "%s: %s\t(%s)\n", titleColor(f.Name), pe.profile[f.Name], hint)
	}
}

func riskColor(risk simulate.Risk) *color.Color {
	switch risk {
	case simulate.RiskHigh:
		return color.New(color.FgHiRed)
	case simulate.RiskMedium:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgGreen)
}

func (pe *profileEditor) predict(w io.Writer) error {
	if err := pe.sim.Validate(pe.profile); err != nil {
		color.New(color.FgYellow).Fprintf(w, "warning: %s\n", err)
	}
	ans, err := pe.sim.Assess(pe.profile)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "probability of leaving: %s, risk: %s\n", ans.Percent, riskColor(ans.Risk).Sprint(ans.Risk))
	return nil
}

func runActionSimulate(conf *cnf.Conf, srcPath, target string) {
	out := runPipeline(conf, srcPath, target, true)
	if !out.Simulator.Available() {
		exitOnError(fmt.Errorf("%w: %w", simulate.ErrModelUnavailable, out.Err()))
	}
	editor := newProfileEditor(out.Simulator)

	fmt.Println("Employee departure simulator")
	fmt.Println("Commands:")
	fmt.Println("  show                   - show the current profile")
	fmt.Println("  set <field> <value>    - change a field (e.g. 'set Horas Extras Sim')")
	fmt.Println("  predict                - estimate probability of leaving")
	fmt.Println("  reset                  - reset all fields to defaults")
	fmt.Println("  exit                   - exit REPL")
	fmt.Println()
	editor.show(os.Stdout)

	var historyFile string
	historyDir, err := ensureConfigDir()
	if err != nil {
		log.Error().Err(err).Msg("failed to determine user config directory - falling back to session-local history")

	} else {
		historyFile = filepath.Join(historyDir, "simulate-history.txt")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      color.New(color.FgHiGreen).Sprintf("/turnover> "),
		HistoryFile: historyFile,
	})
	exitOnError(err)
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nbye!")
				break
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}
		input := strings.TrimSpace(line)

		switch {
		case input == "":
		case input == "exit":
			fmt.Println("Goodbye!")
			return
		case input == "show":
			editor.show(os.Stdout)
		case input == "reset":
			editor.reset()
			editor.show(os.Stdout)
		case input == "predict":
			if err := editor.predict(os.Stdout); err != nil {
				color.New(errColor).Fprintln(os.Stderr, err)
			}
		case strings.HasPrefix(input, "set "):
			if err := editor.set(strings.TrimSpace(input[4:])); err != nil {
				color.New(errColor).Fprintln(os.Stderr, err)
			}
		default:
			fmt.Println("Unknown command")
		}
	}
}
