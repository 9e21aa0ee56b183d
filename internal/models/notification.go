package models

import "time"

type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyInfo    NotificationLevel = "info"
	NotifyError   NotificationLevel = "error"
)

// Route names of the UI.
const (
	RouteLanding     = "/"
	RouteLogin       = "/login"
	RouteRegister    = "/register"
	RouteConnections = "/connections"
	RouteChat        = "/chat"
	RouteDiary       = "/diary"
	RouteTasks       = "/tasks"
	RouteSettings    = "/settings"
)

// Notification is a transient toast, optionally carrying a navigation.
type Notification struct {
	ID      string            `json:"id"`
	Level   NotificationLevel `json:"level,omitempty"`
	Key     string            `json:"key,omitempty"`
	Message string            `json:"message,omitempty"`
	Route   string            `json:"route,omitempty"`
	At      time.Time         `json:"at"`
}
