package messages

import "encoding/json"

type QueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Payload   json.RawMessage `json:"payload"`
}

// RunQueueMessage asks the worker to grade Source against the named problem.
// When UseSolution is set and Source is empty, the problem's reference
// solution is graded instead, letting authors sanity-check definitions.
type RunQueueMessage struct {
	ProblemID   string `json:"problem_id"`
	Source      string `json:"source"`
	UseSolution bool   `json:"use_solution,omitempty"`
}

type ResponseQueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Ok        bool            `json:"ok"`
	Payload   json.RawMessage `json:"payload"`
}
