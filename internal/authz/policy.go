// Package authz holds the single authorization table for the API. Every
// protected operation is listed once with the roles that may attempt it and
// the ownership predicate applied to the record it targets.
package authz

import (
	"fmt"

	"github.com/geocoder89/fieldops/internal/apperr"
	"github.com/geocoder89/fieldops/internal/domain/user"
)

type Action string

const (
	CreateClient             Action = "client.create"
	CreateServiceLog         Action = "servicelog.create"
	CreateInteraction        Action = "interaction.create"
	ViewEngineerInteractions Action = "interaction.list_by_engineer"
	ViewOwnInteractions      Action = "interaction.list_mine"
	ViewTeamInteractions     Action = "interaction.list_team"
	UpdateInteractionStatus  Action = "interaction.update_status"
	ReassignInteraction      Action = "interaction.reassign"
	ListEngineerStats        Action = "engineer.list_stats"
	ListTeamEngineers        Action = "engineer.list_team"
	DeleteUser               Action = "user.delete"
)

// Subject is the caller as identified by a verified access token.
type Subject struct {
	UserID int64
	Role   user.Role
}

func (s Subject) IsAdmin() bool {
	return s.Role == user.RoleAdmin
}

// Target describes the record an action is applied to. OwnerID is the
// engineer that owns it or, for user actions, the user id itself.
type Target struct {
	OwnerID int64
}

type Ownership uint8

const (
	// OwnershipNone applies no record check beyond the role requirement.
	OwnershipNone Ownership = iota
	// OwnershipAdminOrOwner lets admins through and otherwise requires the
	// caller to own the target.
	OwnershipAdminOrOwner
	// OwnershipNotSelf rejects callers targeting their own account.
	OwnershipNotSelf
)

type Rule struct {
	// empty means any authenticated role
	Roles     []user.Role
	Ownership Ownership
	Denied    string
}

var Policy = map[Action]Rule{
	CreateClient:             {},
	CreateServiceLog:         {Roles: []user.Role{user.RoleEngineer}, Denied: "Unauthorized"},
	CreateInteraction:        {Roles: []user.Role{user.RoleEngineer}, Denied: "Unauthorized"},
	ViewEngineerInteractions: {Ownership: OwnershipAdminOrOwner, Denied: "Unauthorized"},
	ViewOwnInteractions:      {Roles: []user.Role{user.RoleEngineer}, Denied: "Unauthorized"},
	ViewTeamInteractions:     {Roles: []user.Role{user.RoleEngineer}, Denied: "Unauthorized"},
	UpdateInteractionStatus:  {Ownership: OwnershipAdminOrOwner, Denied: "Unauthorized - You can only update your own interactions"},
	ReassignInteraction:      {Ownership: OwnershipAdminOrOwner, Denied: "Unauthorized - You can only reassign your own interactions"},
	ListEngineerStats:        {Roles: []user.Role{user.RoleAdmin}, Denied: "Unauthorized"},
	ListTeamEngineers:        {Roles: []user.Role{user.RoleEngineer}, Denied: "Unauthorized"},
	DeleteUser:               {Roles: []user.Role{user.RoleAdmin}, Ownership: OwnershipNotSelf, Denied: "Unauthorized - Admin access required"},
}

func lookup(action Action) (Rule, error) {
	rule, ok := Policy[action]
	if !ok {
		return Rule{}, apperr.Internal("authorization failed", fmt.Errorf("no policy for action %q", action))
	}
	return rule, nil
}

// CheckRole evaluates only the role requirement of action. It runs before
// the target record is loaded, so a caller with the wrong role is denied
// without learning whether the record exists.
func CheckRole(action Action, subject Subject) error {
	rule, err := lookup(action)
	if err != nil {
		return err
	}

	if len(rule.Roles) == 0 {
		return nil
	}

	for _, role := range rule.Roles {
		if subject.Role == role {
			return nil
		}
	}

	return apperr.Forbidden("forbidden", rule.Denied)
}

// Authorize evaluates the full rule for action against a loaded target.
func Authorize(action Action, subject Subject, target Target) error {
	if err := CheckRole(action, subject); err != nil {
		return err
	}

	rule, err := lookup(action)
	if err != nil {
		return err
	}

	switch rule.Ownership {
	case OwnershipAdminOrOwner:
		if !subject.IsAdmin() && subject.UserID != target.OwnerID {
			return apperr.Forbidden("forbidden", rule.Denied)
		}
	case OwnershipNotSelf:
		if subject.UserID == target.OwnerID {
			return apperr.Validation("self_target", "Cannot delete your own admin account")
		}
	}

	return nil
}
