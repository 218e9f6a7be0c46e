package service

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

const (
	RoleCacheSize = 5000
	RoleCacheTTL  = 5 * time.Minute
)

type roleKey struct{ guild, user int64 }

// RoleCache: user -> roles por guild, LRU acotado con TTL.
type RoleCache struct {
	dir MemberDirectory
	lru *expirable.LRU[roleKey, []int64]
	log zerolog.Logger
}

func NewRoleCache(dir MemberDirectory, size int, ttl time.Duration, opts ...Option) *RoleCache {
	o := buildOptions("rolecache", opts)
	return &RoleCache{
		dir: dir,
		lru: expirable.NewLRU[roleKey, []int64](size, nil, ttl),
		log: o.log,
	}
}

// Roles devuelve ok=false si el miembro no se pudo resolver: no es elegible para emparejar.
func (c *RoleCache) Roles(ctx context.Context, guildID, userID int64) ([]int64, bool) {
	k := roleKey{guildID, userID}
	if roles, ok := c.lru.Get(k); ok {
		return roles, true
	}

	roles, err := c.dir.MemberRoles(ctx, guildID, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrGone) {
			c.log.Warn().Err(err).Int64("guild", guildID).Int64("user", userID).Msg("[roles] lookup")
		}
		return nil, false
	}
	if roles == nil {
		roles = []int64{}
	}
	c.lru.Add(k, roles)
	return roles, true
}

// Invalidate se llama cuando Discord avisa de cambios en el miembro.
func (c *RoleCache) Invalidate(guildID, userID int64) {
	c.lru.Remove(roleKey{guildID, userID})
}

func (c *RoleCache) Len() int { return c.lru.Len() }
