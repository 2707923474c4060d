package domain

// InviteLink is a named invite link as created on the chat platform.
type InviteLink struct {
	URL                string
	Name               string
	CreatesJoinRequest bool
}
