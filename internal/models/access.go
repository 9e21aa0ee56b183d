package models

// Access is an HDS access (a grant to the account). The chat UI treats every access
// as a contact.
type Access struct {
	ID          string             `json:"id" validate:"required"`
	Name        string             `json:"name"`
	Type        string             `json:"type"` // personal, app, shared
	Token       string             `json:"token,omitempty"`
	APIEndpoint string             `json:"apiEndpoint,omitempty"`
	Permissions []AccessPermission `json:"permissions"`
	Created     float64            `json:"created,omitempty"`
	CreatedBy   string             `json:"createdBy,omitempty"`
	Modified    float64            `json:"modified,omitempty"`
	ModifiedBy  string             `json:"modifiedBy,omitempty"`
}

type AccessPermission struct {
	StreamID string `json:"streamId,omitempty"`
	Level    string `json:"level,omitempty"`
	Feature  string `json:"feature,omitempty"`
	Setting  string `json:"setting,omitempty"`
}

// AccessInfo is the answer of the access-info call used to validate a connection.
type AccessInfo struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Type        string             `json:"type"`
	Username    string             `json:"username"`
	Permissions []AccessPermission `json:"permissions"`
}

// ServiceInfo describes a platform: where to register, where to log in and the
// api endpoint template.
type ServiceInfo struct {
	Register string `json:"register"`
	Access   string `json:"access"`
	API      string `json:"api"`
	Name     string `json:"name"`
	Home     string `json:"home,omitempty"`
	Support  string `json:"support,omitempty"`
	Terms    string `json:"terms,omitempty"`
}
