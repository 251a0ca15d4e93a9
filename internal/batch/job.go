package batch

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopops/pickticket/internal/common"
)

// Job is one user-committed batch of orders to render, print and tag.
// Jobs live only in memory; a completed job survives as its Report.
type Job struct {
	ID         uuid.UUID
	TemplateID string
	Printer    string
	Copies     int
	TagPrinted bool
	CreatedAt  time.Time
}

// NewJob validates and creates a batch job.
func NewJob(templateID, printer string, copies int, tagPrinted bool) (*Job, error) {
	err := common.NewValidator().
		Field("template", templateID, common.Required).
		Field("copies", copies, common.AtLeast(1)).
		Err()
	if err != nil {
		return nil, err
	}
	return &Job{
		ID:         uuid.New(),
		TemplateID: templateID,
		Printer:    printer,
		Copies:     copies,
		TagPrinted: tagPrinted,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
