package models

// DisplayName mirrors the upstream "displayName" object.
type DisplayName struct {
	Text string `json:"text"`
}

// Resource is one discoverable entity (consultant, team, firm) returned by the discovery API.
type Resource struct {
	DisplayName      DisplayName `json:"displayName"`
	FormattedAddress string      `json:"formattedAddress"`
	Rating           *float64    `json:"rating,omitempty"`
}

// ID identifies a resource within a result list.
func (r Resource) ID() string {
	return r.DisplayName.Text
}

// ResourcesResponse is the upstream envelope. A missing "places" key decodes to nil.
type ResourcesResponse struct {
	Places []Resource `json:"places"`
}
