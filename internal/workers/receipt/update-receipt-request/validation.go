// internal/workers/receipt/update-receipt-request/validation.go
package updatereceiptrequest

import "school-pickup/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["requestId"],
  "properties": {
    "requestId": {"type": "integer", "minimum": 1},
    "studentId": {"type": "integer", "minimum": 1},
    "date": {"type": "string", "format": "date-time"},
    "requestReason": {"type": "string", "maxLength": 500},
    "howToReceive": {"type": "string", "enum": ["CAR", "PERSON"]},
    "deliveryPersonType": {"type": "string", "enum": ["PARENT", "DELIVERY_PERSON"]},
    "numberOfCar": {"type": "string", "maxLength": 50},
    "location": {"type": "string", "maxLength": 255},
    "deliveryId": {"type": "integer", "minimum": 0}
  }
}`)
