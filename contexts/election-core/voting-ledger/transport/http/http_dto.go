package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CandidateRequest struct {
	Name     string `json:"name"`
	Party    string `json:"party"`
	ImageURL string `json:"image_url,omitempty"`
}

type CreateElectionRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	StartDate   string             `json:"start_date"`
	EndDate     string             `json:"end_date"`
	Candidates  []CandidateRequest `json:"candidates"`
}

type CandidateResponse struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Party       string `json:"party"`
	ImageURL    string `json:"image_url,omitempty"`
	VoteCount   int    `json:"vote_count"`
}

type ElectionResponse struct {
	ElectionID  string              `json:"election_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	StartDate   string              `json:"start_date"`
	EndDate     string              `json:"end_date"`
	Status      string              `json:"status"`
	CreatedBy   string              `json:"created_by"`
	Candidates  []CandidateResponse `json:"candidates"`
}

type ElectionListResponse struct {
	Items []ElectionResponse `json:"items"`
}

type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

type VoteResponse struct {
	VoteID      string `json:"vote_id"`
	ElectionID  string `json:"election_id"`
	CandidateID string `json:"candidate_id"`
	VoterID     string `json:"voter_id"`
	CastAt      string `json:"cast_at"`
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

type VoteStatusResponse struct {
	ElectionID string        `json:"election_id"`
	VoterID    string        `json:"voter_id"`
	HasVoted   bool          `json:"has_voted"`
	Vote       *VoteResponse `json:"vote,omitempty"`
}

type TransactionResponse struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   string `json:"timestamp"`
	From        string `json:"from"`
	To          string `json:"to"`
	ElectionID  string `json:"election_id,omitempty"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
}

type CandidateTallyResponse struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Count       int    `json:"count"`
}

type CandidateCountResponse struct {
	Count int `json:"count"`
}
