package model

// Location is a physical hotspot. Username/Password are the site's own router login,
// not a sellable credential.
type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	WifiName string `json:"wifi_name"`
	Username string `json:"username"`
	Password string `json:"password"`
	IsActive bool   `json:"is_active"`
}

func (l *Location) IsZero() bool { return l == nil || l.ID == "" }
