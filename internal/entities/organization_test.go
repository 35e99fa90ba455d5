package entities

import "testing"

func TestTagModerationFlagsAllowsAdding(t *testing.T) {
	if TagModerationNone.AllowsAdding() {
		t.Error("none should not allow adding")
	}
	if !TagModerationAllowAdd.AllowsAdding() {
		t.Error("allow-add should allow adding")
	}
	if TagModerationAllowRemove.AllowsAdding() {
		t.Error("allow-remove should not allow adding")
	}
	if !TagModerationAll.AllowsAdding() {
		t.Error("all should allow adding")
	}
}

func TestTagModerationFlagsAllowsRemoval(t *testing.T) {
	if TagModerationNone.AllowsRemoval() {
		t.Error("none should not allow removal")
	}
	if TagModerationAllowAdd.AllowsRemoval() {
		t.Error("allow-add should not allow removal")
	}
	if !TagModerationAllowRemove.AllowsRemoval() {
		t.Error("allow-remove should allow removal")
	}
	if !TagModerationAll.AllowsRemoval() {
		t.Error("all should allow removal")
	}
}

func TestTagModerationFlagsRequiresClearance(t *testing.T) {
	if TagModerationNone.RequiresClearance() {
		t.Error("none should not require clearance")
	}
	if TagModerationAllowAdd.RequiresClearance() {
		t.Error("allow-add should not require clearance")
	}
	if !TagModerationRequireClearance.RequiresClearance() {
		t.Error("require-clearance should require clearance")
	}
	if !TagModerationAll.RequiresClearance() {
		t.Error("all should require clearance")
	}
}

func TestRoleOrdering(t *testing.T) {
	if !RoleAdmin.AtLeast(RoleScout) {
		t.Error("admin should satisfy at-least-scout")
	}
	if RoleGuest.AtLeast(RoleUser) {
		t.Error("guest should not satisfy at-least-user")
	}
}
