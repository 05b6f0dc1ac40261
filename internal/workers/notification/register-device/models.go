// internal/workers/notification/register-device/models.go
package registerdevice

type Input struct {
	UserID   int64  `json:"userId"`
	PlayerID string `json:"playerId"`
}

type Output struct {
	UserID     int64  `json:"userId"`
	PlayerID   string `json:"playerId"`
	TagsSynced bool   `json:"tagsSynced"`
}
