// internal/workers/receipt/query-receipt-requests/validation.go
package queryreceiptrequests

import "school-pickup/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["queryType", "actor"],
  "properties": {
    "queryType": {"type": "string", "enum": ["find-all", "find-one", "get-fast-request"]},
    "actor": {
      "type": "object",
      "required": ["userId", "role"],
      "properties": {
        "userId": {"type": "integer"},
        "role": {"type": "string", "enum": ["PARENT", "SCHOOL", "DELIVERY_PERSON", "STUDENT", "ADMIN"]}
      }
    },
    "requestId": {"type": "integer", "minimum": 1},
    "filter": {
      "type": "object",
      "properties": {
        "keyword": {"type": "string", "maxLength": 100},
        "studentId": {"type": "integer", "minimum": 1},
        "deliveryId": {"type": "integer", "minimum": 1},
        "howToReceive": {"type": "string", "enum": ["CAR", "PERSON"]},
        "status": {"type": "string", "minLength": 1},
        "startDate": {"type": "string", "format": "date-time"},
        "endDate": {"type": "string", "format": "date-time"}
      }
    },
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
