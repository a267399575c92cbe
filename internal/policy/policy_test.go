package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mininotion/store"
)

var (
	doc     = store.Document{ID: "doc-1", OwnerID: "owner"}
	actions = []Action{ActionView, ActionEdit, ActionDelete, ActionManageShares}
)

func grant(userID string, canEdit bool) *store.Share {
	return &store.Share{DocumentID: doc.ID, UserID: userID, CanEdit: canEdit}
}

func TestCanAccess(t *testing.T) {
	cases := []struct {
		name   string
		userID string
		grant  *store.Share
		want   map[Action]Access
	}{
		{
			name:   "owner",
			userID: "owner",
			want:   map[Action]Access{ActionView: Edit, ActionEdit: Edit, ActionDelete: Edit, ActionManageShares: Edit},
		},
		{
			name:   "edit grantee",
			userID: "bob",
			grant:  grant("bob", true),
			want:   map[Action]Access{ActionView: Edit, ActionEdit: Edit, ActionDelete: Deny, ActionManageShares: Deny},
		},
		{
			name:   "view grantee",
			userID: "bob",
			grant:  grant("bob", false),
			want:   map[Action]Access{ActionView: View, ActionEdit: Deny, ActionDelete: Deny, ActionManageShares: Deny},
		},
		{
			name:   "stranger",
			userID: "eve",
			want:   map[Action]Access{ActionView: Deny, ActionEdit: Deny, ActionDelete: Deny, ActionManageShares: Deny},
		},
		{
			name:   "grant for someone else",
			userID: "eve",
			grant:  grant("bob", true),
			want:   map[Action]Access{ActionView: Deny, ActionEdit: Deny, ActionDelete: Deny, ActionManageShares: Deny},
		},
		{
			name:   "owner with stray grant still owner",
			userID: "owner",
			grant:  grant("owner", false),
			want:   map[Action]Access{ActionView: Edit, ActionEdit: Edit, ActionDelete: Edit, ActionManageShares: Edit},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, action := range actions {
				assert.Equal(t, tc.want[action], CanAccess(tc.userID, doc, tc.grant, action), string(action))
			}
		})
	}
}

// view is allowed iff owner or any grant; edit iff owner or canEdit grant.
func TestViewAndEditProperties(t *testing.T) {
	users := []string{"owner", "bob", "eve", ""}
	for _, userID := range users {
		for _, g := range []*store.Share{nil, grant(userID, false), grant(userID, true)} {
			isOwner := userID != "" && userID == doc.OwnerID
			hasGrant := g != nil
			canEditGrant := g != nil && g.CanEdit

			assert.Equal(t, isOwner || hasGrant, CanAccess(userID, doc, g, ActionView) != Deny, "view %q %+v", userID, g)
			assert.Equal(t, isOwner || canEditGrant, CanAccess(userID, doc, g, ActionEdit) != Deny, "edit %q %+v", userID, g)
		}
	}
}

func TestEmptyUserNeverOwns(t *testing.T) {
	orphan := store.Document{ID: "doc-2"}
	assert.Equal(t, Deny, Level("", orphan, nil))
}
