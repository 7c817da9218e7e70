// Package jobs provides background task processing over asynq: mirroring
// provider-hosted media into our storage and sweeping stale conversations.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskMediaMirror = "media.mirror"

const TaskConversationSweep = "conversations.sweep"

// MediaMirrorPayload identifies a report photo still hosted by the provider.
type MediaMirrorPayload struct {
	ReportID  string `json:"reportId"`
	SourceURL string `json:"sourceUrl"`
}

func NewMediaMirrorTask(payload MediaMirrorPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMediaMirror, data), nil
}

func ParseMediaMirrorPayload(task *asynq.Task) (MediaMirrorPayload, error) {
	var payload MediaMirrorPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return MediaMirrorPayload{}, err
	}
	return payload, nil
}

// NewConversationSweepTask builds the periodic stale-conversation sweep task.
// It carries no payload.
func NewConversationSweepTask() *asynq.Task {
	return asynq.NewTask(TaskConversationSweep, nil)
}
