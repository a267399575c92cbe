// Package policy decides what a user may do with a document.
//
// Decisions are pure: they depend only on the caller, the document and the
// caller's grant on it (nil when there is none).
package policy

import "mininotion/store"

type Action string

const (
	ActionView         Action = "view"
	ActionEdit         Action = "edit"
	ActionDelete       Action = "delete"
	ActionManageShares Action = "manage-shares"
)

type Access int

const (
	Deny Access = iota
	View
	Edit
)

func (a Access) String() string {
	switch a {
	case View:
		return "view"
	case Edit:
		return "edit"
	default:
		return "deny"
	}
}

// Level is the caller's effective access to doc, independent of any action.
// The owner and edit-grantees get Edit, view-grantees get View.
func Level(userID string, doc store.Document, grant *store.Share) Access {
	if userID != "" && doc.OwnerID == userID {
		return Edit
	}
	if grant == nil || grant.DocumentID != doc.ID || grant.UserID != userID {
		return Deny
	}
	if grant.CanEdit {
		return Edit
	}
	return View
}

// CanAccess returns the caller's access level when action is permitted and
// Deny otherwise.
func CanAccess(userID string, doc store.Document, grant *store.Share, action Action) Access {
	level := Level(userID, doc, grant)
	if level == Deny {
		return Deny
	}
	owner := doc.OwnerID == userID
	switch action {
	case ActionView:
		return level
	case ActionEdit:
		if level == Edit {
			return level
		}
	case ActionDelete, ActionManageShares:
		if owner {
			return level
		}
	}
	return Deny
}
