package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskFollowUpDue = "leads.followup_due"

const TaskCRMSyncLead = "crm.sync_lead"

type FollowUpDuePayload struct {
	LeadID string    `json:"leadId"`
	DueAt  time.Time `json:"dueAt"`
}

type CRMSyncLeadPayload struct {
	LeadID string `json:"leadId"`
}

func NewFollowUpDueTask(payload FollowUpDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpDue, data), nil
}

func ParseFollowUpDuePayload(task *asynq.Task) (FollowUpDuePayload, error) {
	var payload FollowUpDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpDuePayload{}, err
	}
	return payload, nil
}

func NewCRMSyncLeadTask(payload CRMSyncLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCRMSyncLead, data), nil
}

func ParseCRMSyncLeadPayload(task *asynq.Task) (CRMSyncLeadPayload, error) {
	var payload CRMSyncLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CRMSyncLeadPayload{}, err
	}
	return payload, nil
}
