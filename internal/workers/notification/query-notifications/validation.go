// internal/workers/notification/query-notifications/validation.go
package querynotifications

import "school-pickup/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["queryType"],
  "properties": {
    "queryType": {"type": "string", "enum": ["user-notifications", "notification", "notification-recipients", "admin-notifications"]},
    "userId": {"type": "integer", "minimum": 1},
    "notificationId": {"type": "integer", "minimum": 1},
    "pagination": {
      "type": "object",
      "properties": {
        "page": {"type": "integer", "minimum": 1},
        "limit": {"type": "integer", "minimum": 1},
        "sortBy": {"type": "string", "maxLength": 64},
        "sortOrder": {"type": "string", "enum": ["ASC", "DESC", "asc", "desc"]}
      }
    }
  }
}`)
