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
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases a column name, strips diacritics and surrounding
// whitespace so rules can match e.g. "Gênero" and "genero" alike.
func Normalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ans, _, err := transform.String(t, name)
	if err != nil {
		ans = name
	}
	return strings.ToLower(strings.TrimSpace(ans))
}

// Predicate tests a normalized column name
type Predicate func(normalized string) bool

// ContainsAll matches names containing all the words
// (the words are normalized too).
func ContainsAll(words ...string) Predicate {
	nwords := make([]string, len(words))
	for i, w := range words {
		nwords[i] = Normalize(w)
	}
	return func(normalized string) bool {
		for _, w := range nwords {
			if !strings.Contains(normalized, w) {
				return false
			}
		}
		return len(nwords) > 0
	}
}

// ContainsAny matches names containing at least one of the words.
func ContainsAny(words ...string) Predicate {
	preds := make([]Predicate, len(words))
	for i, w := range words {
		preds[i] = ContainsAll(w)
	}
	return func(normalized string) bool {
		for _, p := range preds {
			if p(normalized) {
				return true
			}
		}
		return false
	}
}

func Equals(name string) Predicate {
	nname := Normalize(name)
	return func(normalized string) bool {
		return normalized == nname
	}
}

// Fuzzy matches names within the specified Levenshtein distance
// from the word. Very short words would match almost anything
// so the distance is never allowed to reach the word length.
func Fuzzy(word string, maxDist int) Predicate {
	nword := Normalize(word)
	if maxDist >= len([]rune(nword)) {
		maxDist = len([]rune(nword)) - 1
	}
	return func(normalized string) bool {
		return levenshtein.ComputeDistance(normalized, nword) <= maxDist
	}
}
