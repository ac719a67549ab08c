// Package votingledger implements the election/vote ledger and the
// vote-casting orchestrator inside the election-core context.
//
// The module owns election, vote, and transaction state, derives election
// status from wall-clock time on every read, and enforces the
// one-voter-one-vote invariant across asynchronous submission to an external
// ledger. Business rules live in application/domain layers; the chain,
// storage, and transport concerns sit behind ports and adapters.
package votingledger
