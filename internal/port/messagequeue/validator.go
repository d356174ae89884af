package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch subject {
	case SubjectOrderUpdated:
		var p OrderUpdatedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.TenantID == "" || p.OrderID == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("tenant_id and order_id are required"))
		}
	case SubjectNotifyEmail:
		var p EmailPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.To == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("to is required"))
		}
	}
	return nil
}
