package commands

// Snapshot event types published on commit. Subscribers only ever see
// committed state; nothing is published for in-flight submissions.
const (
	EventElectionCreated     = "election.created"
	EventElectionUpdated     = "election.updated"
	EventVoteRecorded        = "vote.recorded"
	EventTransactionAppended = "transaction.appended"
	EventAccountChanged      = "chain.account_changed"
	EventNetworkChanged      = "chain.network_changed"
)
