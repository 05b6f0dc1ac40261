// internal/workers/receipt/remove-receipt-request/validation.go
package removereceiptrequest

import "school-pickup/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["requestId"],
  "properties": {
    "requestId": {"type": "integer", "minimum": 1}
  }
}`)
