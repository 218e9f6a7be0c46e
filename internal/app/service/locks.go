package service

import "sync"

// keyedLocks: un mutex por clave (guild o hilo), creado al vuelo y nunca borrado.
type keyedLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{m: map[int64]*sync.Mutex{}}
}

func (l *keyedLocks) get(key int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	mu, found := l.m[key]
	if !found {
		mu = &sync.Mutex{}
		l.m[key] = mu
	}
	return mu
}

// TryLock no bloquea: si otro sweep tiene el guild, ok=false.
func (l *keyedLocks) TryLock(key int64) (unlock func(), ok bool) {
	mu := l.get(key)
	if !mu.TryLock() {
		return nil, false
	}
	return mu.Unlock, true
}

// Lock espera su turno. Lo usa Skip para que dos votos del mismo hilo no se crucen.
func (l *keyedLocks) Lock(key int64) (unlock func()) {
	mu := l.get(key)
	mu.Lock()
	return mu.Unlock
}
