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

package columns

import (
	"fmt"
	"slices"

	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rs/zerolog/log"
)

// Role is a semantic meaning of a dataset column
type Role string

const (
	RoleTarget     Role = "target"
	RoleGender     Role = "gender"
	RoleEducation  Role = "education"
	RoleIdentifier Role = "identifier"
)

// Rule assigns a role to a column matching its predicate.
// A tentative rule only suggests the column and the choice
// still has to be confirmed by a user.
type Rule struct {
	Role      Role
	Name      string
	Match     Predicate
	Tentative bool
}

// DefaultRules returns the ranked rules used for typical HR
// spreadsheets (with Portuguese column names).
func DefaultRules(targetName, idName string) []Rule {
	return []Rule{
		{Role: RoleTarget, Name: "left-company", Match: ContainsAll("deixou", "empresa")},
		{Role: RoleTarget, Name: "target-name", Match: Equals(targetName)},
		{Role: RoleGender, Name: "gender", Match: ContainsAny("genero", "gender")},
		{Role: RoleEducation, Name: "education", Match: ContainsAny("escolaridade", "education")},
		{Role: RoleIdentifier, Name: "identifier", Match: Equals(idName)},
		{Role: RoleTarget, Name: "target-name-fuzzy", Match: Fuzzy(targetName, 2), Tentative: true},
	}
}

// Assignment maps roles to detected columns
type Assignment struct {
	Target     string `json:"target,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Education  string `json:"education,omitempty"`
	Identifier string `json:"identifier,omitempty"`

	// MatchedBy contains names of rules which assigned the roles
	MatchedBy map[Role]string `json:"matchedBy"`

	// NeedsConfirmation is set if no rule found a target column
	// or if the match is only tentative.
	NeedsConfirmation bool `json:"needsConfirmation"`
}

func (a Assignment) Column(role Role) string {
	switch role {
	case RoleTarget:
		return a.Target
	case RoleGender:
		return a.Gender
	case RoleEducation:
		return a.Education
	case RoleIdentifier:
		return a.Identifier
	}
	return ""
}

func (a *Assignment) set(role Role, col string) {
	switch role {
	case RoleTarget:
		a.Target = col
	case RoleGender:
		a.Gender = col
	case RoleEducation:
		a.Education = col
	case RoleIdentifier:
		a.Identifier = col
	}
}

// Classifier evaluates ranked rules against column names
type Classifier struct {
	rules []Rule
}

func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify assigns roles to columns. Rules are evaluated in their rank
// order and each rule scans the columns in their dataset order. The first
// match wins: a role is given to the first matching column and a column
// can hold only one role.
func (c *Classifier) Classify(cols []string) Assignment {
	ans := Assignment{MatchedBy: make(map[Role]string)}
	normalized := make([]string, len(cols))
	for i, col := range cols {
		normalized[i] = Normalize(col)
	}
	taken := make(map[string]bool)
	var tentativeTarget bool
	for _, rule := range c.rules {
		if ans.Column(rule.Role) != "" {
			continue
		}
		for i, col := range cols {
			if taken[col] || !rule.Match(normalized[i]) {
				continue
			}
			ans.set(rule.Role, col)
			ans.MatchedBy[rule.Role] = rule.Name
			taken[col] = true
			if rule.Role == RoleTarget && rule.Tentative {
				tentativeTarget = true
			}
			break
		}
	}
	ans.NeedsConfirmation = ans.Target == "" || tentativeTarget
	return ans
}

// Detect returns the first column matched by the highest ranked rule
// of the role. Unlike Classify, roles held by other columns are not
// considered, only the skipped columns are left out.
func (c *Classifier) Detect(cols []string, role Role, skip ...string) string {
	for _, rule := range c.rules {
		if rule.Role != role {
			continue
		}
		for _, col := range cols {
			if slices.Contains(skip, col) {
				continue
			}
			if rule.Match(Normalize(col)) {
				return col
			}
		}
	}
	return ""
}

// ApplyTarget renames the selected column to the canonical target name.
// A different column already using the canonical name is removed.
func ApplyTarget(ds *dataset.Dataset, selected, canonical string) (*dataset.Dataset, error) {
	if selected == "" {
		return nil, fmt.Errorf("%w: target column not selected", dataset.ErrSchema)
	}
	if !ds.HasColumn(selected) {
		return nil, fmt.Errorf("%w: target column %s not found", dataset.ErrSchema, selected)
	}
	if selected == canonical {
		return ds, nil
	}
	if ds.HasColumn(canonical) {
		log.Warn().
			Str("column", canonical).
			Str("selected", selected).
			Msg("column with the target name already exists and differs from the selected one, removing it")
		ds = ds.Drop(canonical)
	}
	ans, err := ds.Rename(selected, canonical)
	if err != nil {
		return nil, err
	}
	log.Info().Str("column", selected).Str("as", canonical).Msg("target column set")
	return ans, nil
}
