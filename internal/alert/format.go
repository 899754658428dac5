package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event Event) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event Event) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event Event) ([]byte, error) {
	fields := []any{
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Host:* %s", event.Host)},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Operator:* %d %s", event.OperatorID, event.Username)},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Reason:* %s", event.Reason)},
	}
	if event.Resource != "" {
		fields = append(fields, map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Resource:* %s", event.Resource)})
	}

	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("hostwarden: %s", event.Type),
				},
			},
			map[string]any{
				"type":   "section",
				"fields": fields,
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event Event) ([]byte, error) {
	severity := "warning"
	if event.Type == EventOperatorBlocked {
		severity = "error"
	}

	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("hostwarden %s on %s: operator %d", event.Type, event.Host, event.OperatorID),
			"severity": severity,
			"source":   event.Host,
			"custom_details": map[string]any{
				"operator_id": event.OperatorID,
				"username":    event.Username,
				"kind":        event.Kind,
				"resource":    event.Resource,
				"reason":      event.Reason,
				"event_id":    event.EventID,
			},
		},
	}
	return json.Marshal(payload)
}
