package structs

import (
	"bytes"
	"strconv"
)

// Permissions is a permission bit set. The bit layout follows the gateway
// wire format; unused gaps are left unassigned.
type Permissions uint64

const (
	PermissionCreateInstantInvite Permissions = 1 << 0
	PermissionKickMembers         Permissions = 1 << 1
	PermissionBanMembers          Permissions = 1 << 2
	PermissionManageRoles         Permissions = 1 << 3
	PermissionManageChannels      Permissions = 1 << 4
	PermissionManageServer        Permissions = 1 << 5

	PermissionReadMessages       Permissions = 1 << 10
	PermissionSendMessages       Permissions = 1 << 11
	PermissionSendTTSMessages    Permissions = 1 << 12
	PermissionManageMessages     Permissions = 1 << 13
	PermissionEmbedLinks         Permissions = 1 << 14
	PermissionAttachFiles        Permissions = 1 << 15
	PermissionReadMessageHistory Permissions = 1 << 16
	PermissionMentionEveryone    Permissions = 1 << 17

	PermissionConnect            Permissions = 1 << 20
	PermissionSpeak              Permissions = 1 << 21
	PermissionMuteMembers        Permissions = 1 << 22
	PermissionDeafenMembers      Permissions = 1 << 23
	PermissionMoveMembers        Permissions = 1 << 24
	PermissionUseVoiceActivation Permissions = 1 << 25
)

// PermissionsGeneral covers the server-management permission group.
func PermissionsGeneral() Permissions {
	return PermissionCreateInstantInvite | PermissionKickMembers |
		PermissionBanMembers | PermissionManageRoles |
		PermissionManageChannels | PermissionManageServer
}

// PermissionsText covers every text-channel permission.
func PermissionsText() Permissions {
	return PermissionReadMessages | PermissionSendMessages |
		PermissionSendTTSMessages | PermissionManageMessages |
		PermissionEmbedLinks | PermissionAttachFiles |
		PermissionReadMessageHistory | PermissionMentionEveryone
}

// PermissionsVoice covers every voice-channel permission.
func PermissionsVoice() Permissions {
	return PermissionConnect | PermissionSpeak | PermissionMuteMembers |
		PermissionDeafenMembers | PermissionMoveMembers |
		PermissionUseVoiceActivation
}

// PermissionsAll grants everything.
func PermissionsAll() Permissions {
	return PermissionsGeneral() | PermissionsText() | PermissionsVoice()
}

// PermissionsAllChannel grants everything meaningful inside a single
// channel. Kick, ban and server management only make sense guild-wide.
func PermissionsAllChannel() Permissions {
	return PermissionsAll() &^ (PermissionKickMembers | PermissionBanMembers | PermissionManageServer)
}

// PermissionsPrivateChannel is the fixed template for direct messages:
// every text permission except TTS, deleting others' messages and
// mentioning everyone.
func PermissionsPrivateChannel() Permissions {
	return PermissionsText() &^ (PermissionSendTTSMessages | PermissionManageMessages | PermissionMentionEveryone)
}

func (p Permissions) Has(perm Permissions) bool {
	return p&perm == perm
}

// HandleOverwrite applies a channel overwrite pair. Denied bits are cleared
// before allowed bits are set, so allow wins when both carry the same bit.
func (p Permissions) HandleOverwrite(allow, deny Permissions) Permissions {
	return (p &^ deny) | allow
}

func (p Permissions) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(p), 10) + `"`), nil
}

// UnmarshalJSON accepts both the numeric and the quoted-string encoding,
// the gateway has shipped both over time.
func (p *Permissions) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	data = bytes.Trim(data, `"`)
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return err
	}
	*p = Permissions(v)
	return nil
}
