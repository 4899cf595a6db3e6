package models

// Identity is the caller as seen at the time of an action.
// It is owned by the login collaborator; the forum only reads it.
type Identity struct {
	DisplayName string `json:"username"`
	AvatarRef   string `json:"avatar"`
	IsLoggedIn  bool   `json:"is_logged_in"`
	IsAdmin     bool   `json:"is_admin"`
}

// Anonymous is the identity of a visitor who has not logged in
var Anonymous = Identity{}

// BotIdentity is the reserved author used for provider-generated content
type BotIdentity struct {
	Name      string
	AvatarRef string
}

// DefaultBot mirrors the community's resident assistant
var DefaultBot = BotIdentity{
	Name:      "Nova (AI)",
	AvatarRef: "https://i.pravatar.cc/150?u=nova",
}
