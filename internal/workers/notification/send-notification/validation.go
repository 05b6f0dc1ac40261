// internal/workers/notification/send-notification/validation.go
package sendnotification

import "school-pickup/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["title", "message", "target"],
  "properties": {
    "title": {"type": "string", "minLength": 1, "maxLength": 255},
    "message": {"type": "string", "minLength": 1},
    "type": {"type": "string", "enum": ["Direct", "CustomNotification", "Scheduled"]},
    "createdById": {"type": "integer"},
    "scheduledAt": {"type": "string", "format": "date-time"},
    "navigationData": {
      "type": "object",
      "required": ["screen"],
      "properties": {
        "screen": {"type": "string"},
        "params": {"type": "object"}
      }
    },
    "target": {
      "type": "object",
      "properties": {
        "userIds": {"type": "array", "items": {"type": "integer"}},
        "vendorIds": {"type": "array", "items": {"type": "integer"}},
        "admins": {"type": "boolean"},
        "allUsers": {"type": "boolean"}
      }
    },
    "url": {"type": "string"},
    "imageUrl": {"type": "string"},
    "groupKey": {"type": "string"}
  }
}`)
