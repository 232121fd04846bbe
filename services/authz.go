package services

import "familyquest/models"

// RequireFamilyMember returns the actor's family id, or ErrNoFamily.
func RequireFamilyMember(actor *models.User) (string, error) {
	if actor == nil {
		return "", forbiddenf("not authenticated")
	}
	if actor.FamilyID == nil || *actor.FamilyID == "" {
		return "", ErrNoFamily
	}
	return *actor.FamilyID, nil
}

// RequireAdmin returns the actor's family id when the actor is an admin of it.
func RequireAdmin(actor *models.User) (string, error) {
	familyID, err := RequireFamilyMember(actor)
	if err != nil {
		return "", err
	}
	if !actor.IsAdmin() {
		return "", forbiddenf("admin role required")
	}
	return familyID, nil
}

// RequireSelfOrAdmin allows the owner of a resource or an admin of the family.
func RequireSelfOrAdmin(actor *models.User, ownerID string) (string, error) {
	familyID, err := RequireFamilyMember(actor)
	if err != nil {
		return "", err
	}
	if actor.ID != ownerID && !actor.IsAdmin() {
		return "", forbiddenf("only the assignee or an admin may do this")
	}
	return familyID, nil
}
