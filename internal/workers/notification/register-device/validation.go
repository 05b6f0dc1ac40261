// internal/workers/notification/register-device/validation.go
package registerdevice

import "school-pickup/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["userId", "playerId"],
  "properties": {
    "userId": {"type": "integer", "minimum": 1},
    "playerId": {"type": "string", "minLength": 1, "maxLength": 255}
  }
}`)
