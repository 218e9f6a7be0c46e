package discord

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// requireAdminOrRoles: owner, permiso Administrator o alguno de ADMIN_ROLE_IDS.
func (r *Router) requireAdminOrRoles(ic *discordgo.InteractionCreate) bool {
	if ic.Member == nil || ic.Member.User == nil {
		r.reply(ic, "🔒 Solo disponible dentro de un servidor.")
		return false
	}

	if g, _ := r.s.State.Guild(ic.GuildID); g != nil && ic.Member.User.ID == g.OwnerID {
		return true
	}

	// Discord ya manda los permisos efectivos del miembro en la interacción
	if ic.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}

	for _, rid := range ic.Member.Roles {
		if slices.Contains(r.adminRoleIDs, rid) {
			return true
		}
	}

	r.reply(ic, "🔒 No tienes permisos para esta acción.")
	return false
}
