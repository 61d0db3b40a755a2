//go:build prod

package hcc

// HotReload is a stub for production builds
type HotReload struct{}

// Notification is sent to hot reload clients after each regeneration
type Notification struct {
	Type  string `json:"type"`
	Path  string `json:"path,omitempty"`
	Files int    `json:"files"`
	Apis  int    `json:"apis"`
	Error string `json:"error,omitempty"`
}

// Broadcast is a no-op in production
func (hr *HotReload) Broadcast(n Notification) {}
