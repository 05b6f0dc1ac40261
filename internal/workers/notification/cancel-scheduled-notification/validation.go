// internal/workers/notification/cancel-scheduled-notification/validation.go
package cancelschedulednotification

import "school-pickup/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["externalId"],
  "properties": {
    "externalId": {"type": "string", "minLength": 1, "maxLength": 255}
  }
}`)
