package applicant

import "strings"

type CreateApplicantRequest struct {
	Message       string `json:"message" validate:"max=1000"`
	ProposedPrice int64  `json:"proposed_price" validate:"gte=0"`
}

func (r *CreateApplicantRequest) normalize() {
	r.Message = strings.TrimSpace(r.Message)
}

type ListApplicantsQuery struct {
	Raw bool `form:"raw"`
}

type ListMineQuery struct {
	Status string `form:"status"`
}
