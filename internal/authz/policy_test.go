package authz

import (
	"testing"

	"github.com/geocoder89/fieldops/internal/apperr"
	"github.com/geocoder89/fieldops/internal/domain/user"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	admin     = Subject{UserID: 1, Role: user.RoleAdmin}
	engineerA = Subject{UserID: 2, Role: user.RoleEngineer}
	engineerB = Subject{UserID: 3, Role: user.RoleEngineer}
)

func TestEveryActionHasARule(t *testing.T) {
	actions := []Action{
		CreateClient, CreateServiceLog, CreateInteraction, ViewEngineerInteractions,
		ViewOwnInteractions, ViewTeamInteractions, UpdateInteractionStatus,
		ReassignInteraction, ListEngineerStats, ListTeamEngineers, DeleteUser,
	}

	for _, a := range actions {
		if _, ok := Policy[a]; !ok {
			t.Fatalf("action %q has no policy entry", a)
		}
	}
}

func TestCheckRole(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		subject Subject
		want    apperr.Kind
		allowed bool
	}{
		{name: "engineer creates log", action: CreateServiceLog, subject: engineerA, allowed: true},
		{name: "admin cannot create log", action: CreateServiceLog, subject: admin, want: apperr.KindForbidden},
		{name: "admin cannot create interaction", action: CreateInteraction, subject: admin, want: apperr.KindForbidden},
		{name: "admin lists engineer stats", action: ListEngineerStats, subject: admin, allowed: true},
		{name: "engineer cannot list engineer stats", action: ListEngineerStats, subject: engineerA, want: apperr.KindForbidden},
		{name: "admin cannot list team engineers", action: ListTeamEngineers, subject: admin, want: apperr.KindForbidden},
		{name: "engineer lists team engineers", action: ListTeamEngineers, subject: engineerB, allowed: true},
		{name: "admin cannot view my-interactions", action: ViewOwnInteractions, subject: admin, want: apperr.KindForbidden},
		{name: "any role creates client", action: CreateClient, subject: admin, allowed: true},
		{name: "engineer cannot delete users", action: DeleteUser, subject: engineerA, want: apperr.KindForbidden},
		{name: "unknown action is internal", action: Action("nope"), subject: admin, want: apperr.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRole(tt.action, tt.subject)
			if tt.allowed {
				if err != nil {
					t.Fatalf("expected allow, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected deny")
			}
			if got := apperr.KindOf(err); got != tt.want {
				t.Fatalf("got kind %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorizeOwnership(t *testing.T) {
	ownedByA := Target{OwnerID: engineerA.UserID}

	tests := []struct {
		name    string
		action  Action
		subject Subject
		target  Target
		want    apperr.Kind
		allowed bool
	}{
		{name: "owner updates status", action: UpdateInteractionStatus, subject: engineerA, target: ownedByA, allowed: true},
		{name: "other engineer cannot update status", action: UpdateInteractionStatus, subject: engineerB, target: ownedByA, want: apperr.KindForbidden},
		{name: "admin updates status", action: UpdateInteractionStatus, subject: admin, target: ownedByA, allowed: true},
		{name: "owner reassigns", action: ReassignInteraction, subject: engineerA, target: ownedByA, allowed: true},
		{name: "other engineer cannot reassign", action: ReassignInteraction, subject: engineerB, target: ownedByA, want: apperr.KindForbidden},
		{name: "admin reassigns", action: ReassignInteraction, subject: admin, target: ownedByA, allowed: true},
		{name: "engineer views own list", action: ViewEngineerInteractions, subject: engineerA, target: ownedByA, allowed: true},
		{name: "engineer cannot view another list", action: ViewEngineerInteractions, subject: engineerB, target: ownedByA, want: apperr.KindForbidden},
		{name: "admin views any list", action: ViewEngineerInteractions, subject: admin, target: ownedByA, allowed: true},
		{name: "admin deletes another user", action: DeleteUser, subject: admin, target: ownedByA, allowed: true},
		{name: "admin cannot delete self", action: DeleteUser, subject: admin, target: Target{OwnerID: admin.UserID}, want: apperr.KindValidation},
		{name: "engineer delete is forbidden before self check", action: DeleteUser, subject: engineerA, target: ownedByA, want: apperr.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.action, tt.subject, tt.target)
			if tt.allowed {
				if err != nil {
					t.Fatalf("expected allow, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected deny")
			}
			if got := apperr.KindOf(err); got != tt.want {
				t.Fatalf("got kind %v, want %v", got, tt.want)
			}
		})
	}
}
