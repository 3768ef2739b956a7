package rsa

import (
	"context"
	"fmt"

	"github.com/google/go-github/v62/github"

	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
	"github.com/gabrielecerami/gitnetics/internal/recomb"
)

// UploadOptions mirrors spec.md §4.3's upload(branch, topic, reviewers?,
// publish_as_draft?).
type UploadOptions struct {
	Base            string
	Title           string
	Body            string
	Reviewers       []string
	PublishAsDraft  bool
}

// Upload opens a pull request for branch against Base, labels it with
// topic, and requests the given reviewers. On success it re-queries by
// topic to confirm the record is visible (spec.md's "query topic+status:open");
// if it isn't found, the PR is closed again (the rollback spec.md
// describes as "delete the branch if absent" — here, closing the PR
// plays that role since the branch itself belongs to the VCA).
func (r *RSA) Upload(ctx context.Context, branch, topic string, opts UploadOptions) (*recomb.Change, error) {
	pr, _, err := r.client.PullRequests.Create(ctx, r.owner, r.repo, &github.NewPullRequest{
		Title: github.String(opts.Title),
		Head:  github.String(branch),
		Base:  github.String(opts.Base),
		Body:  github.String(opts.Body),
		Draft: github.Bool(opts.PublishAsDraft),
	})
	if err != nil {
		return nil, gniterrors.NewUploadError(branch, err.Error())
	}

	if _, _, err := r.client.Issues.AddLabelsToIssue(ctx, r.owner, r.repo, pr.GetNumber(), []string{topicLabel(topic)}); err != nil {
		return nil, gniterrors.NewUploadError(branch, fmt.Sprintf("adding topic label: %v", err))
	}

	if len(opts.Reviewers) > 0 {
		_, _, _ = r.client.PullRequests.RequestReviewers(ctx, r.owner, r.repo, pr.GetNumber(), github.ReviewersRequest{
			Reviewers: opts.Reviewers,
		})
	}

	change, err := r.getByTopic(ctx, topic)
	if err != nil {
		return nil, err
	}
	if change == nil {
		_, _, _ = r.client.PullRequests.Edit(ctx, r.owner, r.repo, pr.GetNumber(), &github.PullRequest{State: github.String("closed")})
		return nil, gniterrors.NewUploadError(branch, "uploaded change not visible under its topic after creation")
	}
	return change, nil
}

// ListOpen returns every open recombination review on the project,
// normalized, the broader "query(predicate)" spec.md §4.3 describes
// specialized to status:open rather than a single topic — the listing
// internal/orchestrator's prepare-tests and vote-recombinations commands
// need to enumerate untested recombinations instead of looking one up by
// a known identifier.
func (r *RSA) ListOpen(ctx context.Context) ([]*recomb.Change, error) {
	prs, _, err := r.client.PullRequests.List(ctx, r.owner, r.repo, &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, fmt.Errorf("listing open pull requests: %w", err)
	}
	changes := make([]*recomb.Change, 0, len(prs))
	for _, pr := range prs {
		change, err := r.normalize(ctx, pr)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// Approve posts an approving review (Code-Review+2 per spec.md §4.3).
// Verified+1 is the CI system's job, not this call's.
func (r *RSA) Approve(ctx context.Context, number string) error {
	n, err := parsePRNumber(number)
	if err != nil {
		return err
	}
	if _, _, err := r.client.PullRequests.CreateReview(ctx, r.owner, r.repo, n, &github.PullRequestReviewRequest{
		Event: github.String("APPROVE"),
	}); err != nil {
		return gniterrors.NewApproveError(number, err.Error())
	}
	return nil
}

// Reject posts a changes-requested review (Code-Review-2) carrying reason.
func (r *RSA) Reject(ctx context.Context, number, reason string) error {
	n, err := parsePRNumber(number)
	if err != nil {
		return err
	}
	if _, _, err := r.client.PullRequests.CreateReview(ctx, r.owner, r.repo, n, &github.PullRequestReviewRequest{
		Event: github.String("REQUEST_CHANGES"),
		Body:  github.String(reason),
	}); err != nil {
		return gniterrors.NewApproveError(number, err.Error())
	}
	return nil
}

// Submit publishes (undrafts) then merges, the two-step pattern spec.md §9
// says to preserve verbatim from gerrit.py's submit_change.
func (r *RSA) Submit(ctx context.Context, number string) error {
	n, err := parsePRNumber(number)
	if err != nil {
		return err
	}
	if _, _, err := r.client.PullRequests.Edit(ctx, r.owner, r.repo, n, &github.PullRequest{
		Draft: github.Bool(false),
	}); err != nil {
		return gniterrors.NewSubmitError(number, fmt.Sprintf("publish: %v", err))
	}
	if _, _, err := r.client.PullRequests.Merge(ctx, r.owner, r.repo, n, "", &github.PullRequestOptions{
		MergeMethod: "merge",
	}); err != nil {
		return gniterrors.NewSubmitError(number, fmt.Sprintf("merge: %v", err))
	}

	change, err := r.getByNumber(ctx, number)
	if err != nil {
		return err
	}
	if change == nil || change.Status != recomb.StatusMerged {
		return gniterrors.NewSubmitError(number, "merge did not result in status:merged")
	}
	return nil
}

// Comment posts an issue comment, used both for ordinary review comments
// and for the conflict-explanation comment spec.md's MISSING handler posts
// alongside a Verified:-1 vote when cherry-pick synthesis fails (boundary
// B2).
func (r *RSA) Comment(ctx context.Context, number, body string) error {
	n, err := parsePRNumber(number)
	if err != nil {
		return err
	}
	if _, _, err := r.client.Issues.CreateComment(ctx, r.owner, r.repo, n, &github.IssueComment{
		Body: github.String(body),
	}); err != nil {
		return fmt.Errorf("comment on PR #%s: %w", number, err)
	}
	return nil
}

// Abandon publishes first if the PR is still a draft, then closes it
// without merging.
func (r *RSA) Abandon(ctx context.Context, number string) error {
	n, err := parsePRNumber(number)
	if err != nil {
		return err
	}
	pr, _, err := r.client.PullRequests.Get(ctx, r.owner, r.repo, n)
	if err != nil {
		return gniterrors.NewAbandonError(number, err.Error())
	}
	if pr.GetDraft() {
		if _, _, err := r.client.PullRequests.Edit(ctx, r.owner, r.repo, n, &github.PullRequest{
			Draft: github.Bool(false),
		}); err != nil {
			return gniterrors.NewAbandonError(number, fmt.Sprintf("publish: %v", err))
		}
	}
	if _, _, err := r.client.PullRequests.Edit(ctx, r.owner, r.repo, n, &github.PullRequest{
		State: github.String("closed"),
	}); err != nil {
		return gniterrors.NewAbandonError(number, err.Error())
	}
	return nil
}

// ListComments returns every issue-comment body on number, in the order
// GitHub returns them, so the engine can scan for the literal "DISCARD"
// convention (spec.md §9 Open Questions).
func (r *RSA) ListComments(ctx context.Context, number string) ([]string, error) {
	n, err := parsePRNumber(number)
	if err != nil {
		return nil, err
	}
	comments, _, err := r.client.Issues.ListComments(ctx, r.owner, r.repo, n, &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, fmt.Errorf("list comments on PR #%s: %w", number, err)
	}
	bodies := make([]string, 0, len(comments))
	for _, c := range comments {
		bodies = append(bodies, c.GetBody())
	}
	return bodies, nil
}
