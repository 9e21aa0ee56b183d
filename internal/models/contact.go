package models

type ContactStatus string

const (
	ContactOnline  ContactStatus = "online"
	ContactAway    ContactStatus = "away"
	ContactOffline ContactStatus = "offline"
)

type Contact struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	DisplayName  string        `json:"displayName"`
	AvatarURL    string        `json:"avatarUrl,omitempty"`
	Status       ContactStatus `json:"status,omitempty"` // UI only, no presence signal backs it
	Type         string        `json:"type,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	Organization string        `json:"organization,omitempty"`
	Permissions  []Permission  `json:"permissions,omitempty"`
	Access       *Access       `json:"accessInfo,omitempty"`
}

type PermissionCategory string

const (
	CategoryDataRead       PermissionCategory = "data"
	CategoryDataWrite      PermissionCategory = "data-write"
	CategoryAdministration PermissionCategory = "administration"
	CategoryOther          PermissionCategory = "other"
)

// permissionCategories maps HDS permission levels to UI categories.
var permissionCategories = map[string]PermissionCategory{
	"read":        CategoryDataRead,
	"contribute":  CategoryDataWrite,
	"create-only": CategoryDataWrite,
	"manage":      CategoryAdministration,
}

func CategoryForLevel(level string) PermissionCategory {
	if c, ok := permissionCategories[level]; ok {
		return c
	}
	return CategoryOther
}

type Permission struct {
	Name     string             `json:"name"`
	Actions  []string           `json:"actions"`
	Category PermissionCategory `json:"category"`
}

const allStreamsName = "All streams"

func PermissionFromAccess(p AccessPermission) Permission {
	name := p.StreamID
	switch {
	case p.StreamID == "*":
		name = allStreamsName
	case p.StreamID == "" && p.Feature != "":
		name = p.Feature
	}
	actions := []string{}
	if p.Level != "" {
		actions = append(actions, p.Level)
	} else if p.Setting != "" {
		actions = append(actions, p.Setting)
	}
	return Permission{
		Name:     name,
		Actions:  actions,
		Category: CategoryForLevel(p.Level),
	}
}

// ContactFromAccess maps a cached access into the Contact shape.
func ContactFromAccess(a Access) Contact {
	perms := make([]Permission, 0, len(a.Permissions))
	for _, p := range a.Permissions {
		perms = append(perms, PermissionFromAccess(p))
	}
	access := a
	return Contact{
		ID:          a.ID,
		Username:    a.Name,
		DisplayName: a.Name,
		Type:        a.Type,
		Status:      ContactOnline,
		Permissions: perms,
		Access:      &access,
	}
}
