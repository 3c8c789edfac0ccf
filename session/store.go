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

package session

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rafaeeo/turnover-dashboard/dataimport"
	"github.com/rs/zerolog/log"
)

var ErrNoSuchSession = errors.New("no such session")

// Store keeps a limited number of sessions. When the limit is reached,
// the least recently used session is removed.
type Store struct {
	mu          sync.Mutex
	maxSessions int
	items       map[string]*list.Element
	lru         *list.List
	pipeline    *Pipeline
	cache       *dataimport.LoadCache
}

func NewStore(pipeline *Pipeline, cache *dataimport.LoadCache, maxSessions int) *Store {
	return &Store{
		maxSessions: max(maxSessions, 1),
		items:       make(map[string]*list.Element),
		lru:         list.New(),
		pipeline:    pipeline,
		cache:       cache,
	}
}

func (st *Store) Create() *Session {
	sess := &Session{
		id:       uuid.New().String(),
		created:  time.Now(),
		pipeline: st.pipeline,
		cache:    st.cache,
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.items[sess.id] = st.lru.PushFront(sess)
	for st.lru.Len() > st.maxSessions {
		oldest := st.lru.Back()
		evicted := oldest.Value.(*Session)
		st.lru.Remove(oldest)
		delete(st.items, evicted.id)
		log.Info().Str("session", evicted.id).Msg("evicted least recently used session")
	}
	return sess
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	elm, ok := st.items[id]
	if !ok {
		return nil, ErrNoSuchSession
	}
	st.lru.MoveToFront(elm)
	return elm.Value.(*Session), nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	elm, ok := st.items[id]
	if !ok {
		return ErrNoSuchSession
	}
	st.lru.Remove(elm)
	delete(st.items, id)
	return nil
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lru.Len()
}
