// internal/workers/notification/mark-notifications-read/validation.go
package marknotificationsread

import "school-pickup/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["userId"],
  "properties": {
    "userId": {"type": "integer", "minimum": 1},
    "notificationId": {"type": "integer", "minimum": 1},
    "limit": {"type": "integer", "minimum": 1, "maximum": 1000}
  }
}`)
