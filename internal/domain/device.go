package domain

// DeviceInfo describes the client that performed a sign-in or password set.
type DeviceInfo struct {
	DeviceName  string    `json:"deviceName,omitempty"`
	BrowserName string    `json:"browserName,omitempty"`
	IP          string    `json:"ip,omitempty"`
	Location    *Location `json:"location,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
}
