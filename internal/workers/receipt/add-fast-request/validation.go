// internal/workers/receipt/add-fast-request/validation.go
package addfastrequest

import "school-pickup/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["actor", "studentId"],
  "properties": {
    "actor": {
      "type": "object",
      "required": ["userId", "role", "parentId"],
      "properties": {
        "userId": {"type": "integer"},
        "role": {"type": "string", "enum": ["PARENT"]},
        "parentId": {"type": "integer", "minimum": 1}
      }
    },
    "studentId": {"type": "integer", "minimum": 1}
  }
}`)
