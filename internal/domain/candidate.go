package domain

// CandidateType says what kind of object a match candidate points at.
type CandidateType string

const (
	CandidateInvoice   CandidateType = "INVOICE"
	CandidateGuarantee CandidateType = "GUARANTEE"
	CandidatePeerLine  CandidateType = "PEER_LINE"
)

// Criterion names reported in MatchCandidate.MatchedOn.
const (
	CriterionIDInLabel      = "id_in_label"
	CriterionBGPMT          = "bgpmt"
	CriterionGuaranteeID    = "guarantee_id"
	CriterionAmount         = "amount"
	CriterionValueDate      = "value_date"
	CriterionEventNum       = "event_num"
	CriterionDwingsOverlap  = "dwings_overlap"
	CriterionAmountOpposite = "amount_opposite"
	CriterionDateWindow     = "date_window"
)

// MatchCandidate is an ephemeral scored proposal produced by the candidate
// matcher. Only the accepted candidate's identifiers are ever persisted.
type MatchCandidate struct {
	Type      CandidateType `json:"type"`
	ID        string        `json:"id"`
	Score     int           `json:"score"`
	MatchedOn []string      `json:"matched_on"`
}
