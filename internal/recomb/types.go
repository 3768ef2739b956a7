// Package recomb holds the data model shared by the whole recombination
// lifecycle: Change and Recombination value objects, the per-project
// BranchMap, and the Slice/Segment shapes the engine's scanner produces.
package recomb

// ChangeStatus is the normalized status of a Change or Recombination,
// the single source of truth defined by the review-server adapter
// (RSA) per spec.md §4.3.
type ChangeStatus string

const (
	StatusUnknown   ChangeStatus = "UNKNOWN"
	StatusMissing   ChangeStatus = "MISSING"
	StatusPresent   ChangeStatus = "PRESENT"
	StatusApproved  ChangeStatus = "APPROVED"
	StatusMerged    ChangeStatus = "MERGED"
	StatusAbandoned ChangeStatus = "ABANDONED"
)

// StatusImpact ranks status severity for the monotonicity check (spec.md
// §3 Slice invariant / §4.5.2). Higher impact must never follow lower
// impact when scanning a branch's recombinations in order.
var StatusImpact = map[ChangeStatus]int{
	StatusMerged:  2,
	StatusApproved: 1,
	StatusPresent: 1,
	StatusMissing: 0,
}

// Change is a record corresponding to a single review on a remote review
// server, or a bare VCA commit before any review exists for it.
type Change struct {
	ID               string
	Branch           string
	Revision         string
	Parent           string
	Project          string
	Number           string
	PatchsetNumber   string
	PatchsetRevision string
	Status           ChangeStatus
	Subject          string
	Body             string
	Topic            string
	URL              string
	Approvals        map[string]int
}

// Kind identifies which two sources a Recombination combines.
type Kind string

const (
	// KindOriginalDiversity: merge-recombine, original x patches.
	KindOriginalDiversity Kind = "original-diversity"
	// KindEvolutionDiversity: cherrypick-recombine, original x patches.
	KindEvolutionDiversity Kind = "evolution-diversity"
	// KindReplicaMutation: mutation-recombine, a local patches change against
	// the current replica tip.
	KindReplicaMutation Kind = "replica-mutation"
)

// RecombineStatus is the internal synthesis outcome, carried in commit
// metadata rather than as an RSA-visible field.
type RecombineStatus string

const (
	RecombineUnattempted RecombineStatus = "UNATTEMPTED"
	RecombineSucceeded   RecombineStatus = "SUCCEEDED"
	RecombineBlocked     RecombineStatus = "BLOCKED"
	RecombineDiscarded   RecombineStatus = "DISCARDED"
)

// Strategy is a project's replication strategy (spec.md §6).
type Strategy string

const (
	StrategyChangeByChange   Strategy = "change-by-change"
	StrategyLockAndBackports Strategy = "lock-and-backports"
)

// Recombination is a specialized Change representing a trial merge between
// an upstream (or local) change and the replica's diversity patches.
type Recombination struct {
	Change

	Kind            Kind
	Main            *Change
	Patches         *Change
	RecombineStatus RecombineStatus
	Strategy        Strategy

	// TargetReplacementBranch only applies to change-by-change strategy.
	TargetReplacementBranch string

	// EvictedCommits lists the patches commits removed to reach a clean
	// merge; populated only when conflict-resolution succeeded.
	EvictedCommits []string

	// BackportID is set once an evolution-diversity recombination has
	// proposed a backport change on the patches branch (spec.md §4.5.3 S5).
	BackportID string
}

// BranchMap is a per-project bijection over branch triples derived from a
// declared original branch: replica = mappings[original] | original,
// target = replica + "-tag", patches = replica + "-patches".
type BranchMap struct {
	Original string
	Replica  string
	Target   string
	Patches  string
}

// NewBranchMap builds the branch-role bijection for one watched original
// branch.
func NewBranchMap(original string, branchMappings map[string]string) BranchMap {
	replica, ok := branchMappings[original]
	if !ok {
		replica = original
	}
	return BranchMap{
		Original: original,
		Replica:  replica,
		Target:   replica + "-tag",
		Patches:  replica + "-patches",
	}
}

// Segment is a half-open index range [Start, End) into an ordered
// recombination list, all sharing one status.
type Segment struct {
	Start int
	End   int
}

// Slices groups a branch's ordered recombinations into status-labeled
// segments.
type Slices map[ChangeStatus][]Segment
