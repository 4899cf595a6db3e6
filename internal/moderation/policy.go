package moderation

import "github.com/xaenox/nova-forum/internal/models"

type Action string

const (
	ActionCreate Action = "create"
	ActionReply  Action = "reply"
	ActionLike   Action = "like"
	ActionDelete Action = "delete"
	ActionPin    Action = "pin"
)

// Authorize reports whether the identity may perform the action.
// Authorship never grants anything: only the admin flag unlocks moderation.
func Authorize(id models.Identity, action Action) bool {
	switch action {
	case ActionDelete, ActionPin:
		return id.IsAdmin
	case ActionCreate, ActionReply, ActionLike:
		return id.IsLoggedIn
	default:
		return false
	}
}

// AuthorizeTarget is Authorize with the target kind taken into account.
// Replies can never be pinned.
func AuthorizeTarget(id models.Identity, action Action, isReply bool) bool {
	if action == ActionPin && isReply {
		return false
	}
	return Authorize(id, action)
}

// RequiresLogin reports whether a denial of action should be surfaced
// as a request to authenticate rather than resolved silently.
func RequiresLogin(action Action) bool {
	switch action {
	case ActionCreate, ActionReply, ActionLike:
		return true
	default:
		return false
	}
}
