package service

import (
	"sync"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

// MatchMeta es el espejo en memoria de una sala abierta. La fuente de verdad es el store.
type MatchMeta struct {
	GuildID    int64
	Users      [2]int64
	RoomNumber int64
	SkipVotes  map[int64]struct{}
}

type MetaStore struct {
	mu sync.Mutex
	m  map[int64]*MatchMeta
}

func NewMetaStore() *MetaStore {
	return &MetaStore{m: map[int64]*MatchMeta{}}
}

func (s *MetaStore) Put(m domain.Match, votes ...int64) {
	mm := &MatchMeta{
		GuildID:    m.GuildID,
		Users:      [2]int64{m.User1ID, m.User2ID},
		RoomNumber: m.RoomNumber,
		SkipVotes:  map[int64]struct{}{},
	}
	for _, v := range votes {
		mm.SkipVotes[v] = struct{}{}
	}
	s.mu.Lock()
	s.m[m.ThreadID] = mm
	s.mu.Unlock()
}

// Get devuelve una copia.
func (s *MetaStore) Get(threadID int64) (MatchMeta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mm, ok := s.m[threadID]
	if !ok {
		return MatchMeta{}, false
	}
	out := *mm
	out.SkipVotes = make(map[int64]struct{}, len(mm.SkipVotes))
	for k := range mm.SkipVotes {
		out.SkipVotes[k] = struct{}{}
	}
	return out, true
}

func (s *MetaStore) Has(threadID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[threadID]
	return ok
}

func (s *MetaStore) AddVote(threadID, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mm, ok := s.m[threadID]; ok {
		mm.SkipVotes[userID] = struct{}{}
	}
}

func (s *MetaStore) Delete(threadID int64) {
	s.mu.Lock()
	delete(s.m, threadID)
	s.mu.Unlock()
}

func (s *MetaStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
