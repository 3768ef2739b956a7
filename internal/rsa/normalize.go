package rsa

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v62/github"

	"github.com/gabrielecerami/gitnetics/internal/recomb"
)

// Approval label names, standing in for Gerrit's Code-Review and Verified
// labels (spec.md §4.3).
const (
	LabelCodeReview = "Code-Review"
	LabelVerified   = "Verified"
)

// approved reports whether approvals meet the minimum Code-Review/Verified
// pair spec.md §4.3 calls APPROVED: "CR+2, V+1".
func approved(approvals map[string]int) bool {
	return approvals[LabelCodeReview] >= 2 && approvals[LabelVerified] >= 1
}

// normalize builds a Change from a GitHub pull request, computing
// Approvals from PR reviews and combined check status, and deriving
// Status via the same normalization table as
// original_source/core/repotypes/gerrit.py's normalize_infos: MERGED stays
// MERGED, ABANDONED stays ABANDONED (closed-unmerged), NEW/DRAFT become
// PRESENT unless the approval threshold is met, in which case APPROVED;
// absence (caller's responsibility, since normalize always receives a
// non-nil pr) is MISSING.
func (r *RSA) normalize(ctx context.Context, pr *github.PullRequest) (*recomb.Change, error) {
	approvals, err := r.approvals(ctx, pr)
	if err != nil {
		return nil, err
	}

	status := recomb.StatusPresent
	switch {
	case pr.GetState() == "closed" && pr.GetMerged():
		status = recomb.StatusMerged
	case pr.GetState() == "closed":
		status = recomb.StatusAbandoned
	case approved(approvals):
		status = recomb.StatusApproved
	}

	return &recomb.Change{
		Branch:    pr.GetHead().GetRef(),
		Revision:  pr.GetHead().GetSHA(),
		Number:    strconv.Itoa(pr.GetNumber()),
		Status:    status,
		Subject:   pr.GetTitle(),
		Body:      pr.GetBody(),
		Topic:     topicFromLabels(pr.Labels),
		URL:       pr.GetHTMLURL(),
		Approvals: approvals,
	}, nil
}

func topicFromLabels(labels []*github.Label) string {
	for _, l := range labels {
		if name := l.GetName(); strings.HasPrefix(name, "topic:") {
			return strings.TrimPrefix(name, "topic:")
		}
	}
	return ""
}

// approvals computes the Code-Review value from all of the PR's reviews,
// regardless of reviewer (APPROVED -> +2, CHANGES_REQUESTED -> -2,
// everything else -> 0): +2 if any review approves, otherwise -2 if any
// requests changes, otherwise 0. The Verified value comes from the combined
// commit status on the head SHA (SUCCESS -> +1, FAILURE/ERROR -> -1,
// anything else, or a failed status lookup -> 0); check runs are not read.
func (r *RSA) approvals(ctx context.Context, pr *github.PullRequest) (map[string]int, error) {
	approvals := map[string]int{}

	reviews, _, err := r.client.PullRequests.ListReviews(ctx, r.owner, r.repo, pr.GetNumber(), &github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("list reviews for PR #%d: %w", pr.GetNumber(), err)
	}
	codeReview := 0
	for _, review := range reviews {
		var value int
		switch review.GetState() {
		case "APPROVED":
			value = 2
		case "CHANGES_REQUESTED":
			value = -2
		default:
			value = 0
		}
		if value > codeReview || (value < 0 && codeReview == 0) {
			codeReview = value
		}
	}
	approvals[LabelCodeReview] = codeReview

	headSHA := pr.GetHead().GetSHA()
	approvals[LabelVerified] = 0
	if headSHA != "" {
		verified, err := r.verifiedValue(ctx, headSHA)
		if err != nil {
			return nil, err
		}
		approvals[LabelVerified] = verified
	}

	return approvals, nil
}

func (r *RSA) verifiedValue(ctx context.Context, headSHA string) (int, error) {
	combined, _, err := r.client.Repositories.GetCombinedStatus(ctx, r.owner, r.repo, headSHA, nil)
	if err != nil {
		return 0, nil //nolint:nilerr // absent status is neutral, not a hard failure
	}
	switch strings.ToUpper(combined.GetState()) {
	case "SUCCESS":
		return 1, nil
	case "FAILURE", "ERROR":
		return -1, nil
	default:
		return 0, nil
	}
}
