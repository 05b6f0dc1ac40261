// internal/workers/notification/cancel-scheduled-notification/models.go
package cancelschedulednotification

// Input names the scheduled push by the id the gateway returned for it.
type Input struct {
	ExternalID string `json:"externalId"`
}

type Output struct {
	ExternalID string `json:"externalId"`
	Cancelled  bool   `json:"cancelled"`
}
