package adapters

import (
	"github.com/de-tools/realty-atlas/pkg/models/api"
	"github.com/de-tools/realty-atlas/pkg/models/domain"
)

func MapDomainJobToAPI(j domain.Job) api.Job {
	out := api.Job{
		ID:        j.ID,
		Region:    j.Region,
		From:      j.From,
		To:        j.To,
		Status:    api.JobStatus(j.Status),
		Completed: j.Completed,
		Total:     j.Total,
		Current:   j.Current,
		Rows:      j.Rows,
		StartedAt: j.StartedAt,
		EndedAt:   j.EndedAt,
	}
	if j.Err != nil {
		e := MapErrorToAPI(j.Err)
		out.Error = &e
	}
	return out
}

// MapErrorToAPI exposes the domain error kind, or "internal" for anything else.
func MapErrorToAPI(err error) api.Error {
	kind := domain.KindOf(err)
	if kind == "" {
		kind = "internal"
	}
	return api.Error{Kind: kind, Message: err.Error()}
}
