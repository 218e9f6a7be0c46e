package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/pairup-bot/internal/app/service"
)

// Members resuelve roles: primero el State del gateway, luego REST.
type Members struct {
	s *discordgo.Session
}

var _ service.MemberDirectory = (*Members)(nil)

func NewMembers(s *discordgo.Session) *Members { return &Members{s: s} }

func (m *Members) MemberRoles(ctx context.Context, guildID, userID int64) ([]int64, error) {
	g, u := str(guildID), str(userID)
	if mem, err := m.s.State.Member(g, u); err == nil && mem != nil {
		return sfs(mem.Roles), nil
	}
	mem, err := m.s.GuildMember(g, u, discordgo.WithContext(ctx))
	if err != nil {
		return nil, gone(err, "guild member")
	}
	mem.GuildID = g
	_ = m.s.State.MemberAdd(mem)
	return sfs(mem.Roles), nil
}
