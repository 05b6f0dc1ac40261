// internal/workers/notification/delete-notification/validation.go
package deletenotification

import "school-pickup/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["notificationId"],
  "properties": {
    "notificationId": {"type": "integer", "minimum": 1}
  }
}`)
