// internal/workers/receipt/update-receipt-status/validation.go
package updatereceiptstatus

import "school-pickup/internal/common/validation"

// The status enum is left open so unknown targets reach the service and
// fail there as BAD_REQUEST rather than as invalid input.
var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["actor", "requestId", "status"],
  "properties": {
    "actor": {
      "type": "object",
      "required": ["userId", "role"],
      "properties": {
        "userId": {"type": "integer"},
        "role": {"type": "string", "enum": ["PARENT", "SCHOOL", "DELIVERY_PERSON", "STUDENT", "ADMIN"]}
      }
    },
    "requestId": {"type": "integer", "minimum": 1},
    "status": {"type": "string", "minLength": 1},
    "cancellationReason": {"type": "string", "maxLength": 500}
  }
}`)
