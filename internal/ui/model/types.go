// Package model holds view types shared by the UI server and its templates.
package model

// NavAction is a header navigation link.
type NavAction struct {
	Label  string
	Href   string
	Active bool
}

// TabView renders one wizard tab in the progress header.
type TabView struct {
	ID       string
	Label    string
	Progress int
	Active   bool
	Complete bool
}

// AdminTab is one tab of the admin panel.
type AdminTab struct {
	ID     string
	Label  string
	Href   string
	Active bool
}

// RoleOption is a selectable role in the admin users tab.
type RoleOption struct {
	Value string
	Label string
}

// PreviewRequest is the JSON body accepted by the link preview endpoint.
type PreviewRequest struct {
	URL string `json:"url"`
}

// PreviewResponse is returned by the link preview endpoint.
type PreviewResponse struct {
	URL         string `json:"url"`
	Network     string `json:"network,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Error       string `json:"error,omitempty"`
}

// FunctionRun is the admin panel view of a serverless function call.
type FunctionRun struct {
	Name   string
	Status string
	Result string
	Error  string
}
