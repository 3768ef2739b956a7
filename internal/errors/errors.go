// Package errors provides sentinel errors and custom error types for gitnetics.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNotOnBranch indicates that HEAD is not on a branch.
	ErrNotOnBranch = errors.New("not on a branch")

	// ErrBranchNotFound indicates that a branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrRebaseConflict indicates that a rebase operation encountered a conflict.
	ErrRebaseConflict = errors.New("rebase conflict")

	// ErrRebaseNotInProgress indicates that no rebase is currently in progress.
	ErrRebaseNotInProgress = errors.New("no rebase in progress")

	// ErrConstraintViolation indicates a status-monotonicity violation along a branch.
	ErrConstraintViolation = errors.New("constraint violation: status history is not monotonic")

	// ErrRecombinationType indicates an unknown recombination kind.
	ErrRecombinationType = errors.New("unknown recombination kind")

	// ErrDecode indicates a recombination record lacks metadata or the metadata is malformed.
	ErrDecode = errors.New("recombination metadata decode failed")

	// ErrEmptyProjectSet indicates the filtered project set is empty.
	ErrEmptyProjectSet = errors.New("filtered project set is empty")
)

// BranchNotFoundError represents an error when a branch is not found.
type BranchNotFoundError struct {
	BranchName string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %s does not exist", e.BranchName)
}

// Is returns true if the target error is ErrBranchNotFound.
func (e *BranchNotFoundError) Is(target error) bool {
	return target == ErrBranchNotFound
}

// NewBranchNotFoundError creates a new BranchNotFoundError.
func NewBranchNotFoundError(branchName string) *BranchNotFoundError {
	return &BranchNotFoundError{BranchName: branchName}
}

// RebaseConflictError represents an error when a rebase encounters a conflict.
type RebaseConflictError struct {
	BranchName string
	Message    string
}

func (e *RebaseConflictError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rebase conflict on branch %s: %s", e.BranchName, e.Message)
	}
	return fmt.Sprintf("rebase conflict on branch %s", e.BranchName)
}

// Is returns true if the target error is ErrRebaseConflict.
func (e *RebaseConflictError) Is(target error) bool {
	return target == ErrRebaseConflict
}

// NewRebaseConflictError creates a new RebaseConflictError.
func NewRebaseConflictError(branchName, message string) *RebaseConflictError {
	return &RebaseConflictError{BranchName: branchName, Message: message}
}

// CommandError represents an error from an external command execution (git, gh, the
// shell executor's arbitrary commands).
type CommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, args []string, stdout, stderr string, err error) *CommandError {
	return &CommandError{Command: command, Args: args, Stdout: stdout, Stderr: stderr, Err: err}
}

// RecombinationFailedError signals that the synthesizer could not produce a clean
// tree. It carries the VCA porcelain status and a human-readable hint, per the
// recombination lifecycle's conflict-reporting contract.
type RecombinationFailedError struct {
	Status []string
	Hint   string
}

func (e *RecombinationFailedError) Error() string {
	return fmt.Sprintf("recombination failed: %s", e.Hint)
}

// NewRecombinationFailedError creates a new RecombinationFailedError.
func NewRecombinationFailedError(status []string, hint string) *RecombinationFailedError {
	return &RecombinationFailedError{Status: status, Hint: hint}
}

// ConstraintViolationError witnesses a history inversion: a status later in a
// branch's recombination list has higher impact than one earlier in the list.
type ConstraintViolationError struct {
	Branch        string
	Index         int
	Status        string
	PreviousIndex int
	PreviousState string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf(
		"constraint violation on branch %s: status %s at index %d is more advanced than status %s at index %d",
		e.Branch, e.Status, e.Index, e.PreviousState, e.PreviousIndex,
	)
}

func (e *ConstraintViolationError) Is(target error) bool {
	return target == ErrConstraintViolation
}

// NewConstraintViolationError creates a new ConstraintViolationError.
func NewConstraintViolationError(branch string, index int, status string, previousIndex int, previousState string) *ConstraintViolationError {
	return &ConstraintViolationError{
		Branch: branch, Index: index, Status: status,
		PreviousIndex: previousIndex, PreviousState: previousState,
	}
}

// reviewOpError is the shared shape of every review-server operation failure:
// it names which operation failed and for which record.
type reviewOpError struct {
	op     string
	number string
	reason string
}

func (e *reviewOpError) Error() string {
	if e.number == "" {
		return fmt.Sprintf("%s failed: %s", e.op, e.reason)
	}
	return fmt.Sprintf("%s failed for %s: %s", e.op, e.number, e.reason)
}

// UploadError, SubmitError, ApproveError, AbandonError: review-server operations
// that returned no success record.
type (
	UploadError  struct{ *reviewOpError }
	SubmitError  struct{ *reviewOpError }
	ApproveError struct{ *reviewOpError }
	AbandonError struct{ *reviewOpError }
)

func NewUploadError(number, reason string) *UploadError {
	return &UploadError{&reviewOpError{op: "upload", number: number, reason: reason}}
}

func NewSubmitError(number, reason string) *SubmitError {
	return &SubmitError{&reviewOpError{op: "submit", number: number, reason: reason}}
}

func NewApproveError(number, reason string) *ApproveError {
	return &ApproveError{&reviewOpError{op: "approve", number: number, reason: reason}}
}

func NewAbandonError(number, reason string) *AbandonError {
	return &AbandonError{&reviewOpError{op: "abandon", number: number, reason: reason}}
}

// vcaOpError is the shared shape of VCA operations against remotes.
type vcaOpError struct {
	op     string
	target string
	reason string
}

func (e *vcaOpError) Error() string {
	return fmt.Sprintf("%s failed for %s: %s", e.op, e.target, e.reason)
}

// PushError, MergeError, RemoteFetchError: VCA operations against remotes.
type (
	PushError        struct{ *vcaOpError }
	MergeError       struct{ *vcaOpError }
	RemoteFetchError struct{ *vcaOpError }
)

func NewPushError(target, reason string) *PushError {
	return &PushError{&vcaOpError{op: "push", target: target, reason: reason}}
}

func NewMergeError(target, reason string) *MergeError {
	return &MergeError{&vcaOpError{op: "merge", target: target, reason: reason}}
}

func NewRemoteFetchError(target, reason string) *RemoteFetchError {
	return &RemoteFetchError{&vcaOpError{op: "fetch", target: target, reason: reason}}
}

// AttemptError is a generic synthesis failure that does not fit RecombinationFailedError
// (for example, a scratch branch push failing before any merge attempt occurred).
type AttemptError struct {
	Reason string
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("recombination attempt failed: %s", e.Reason)
}

func NewAttemptError(reason string) *AttemptError {
	return &AttemptError{Reason: reason}
}

// DecodeError wraps a malformed or missing recombination commit-message metadata.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func NewDecodeError(reason string, err error) *DecodeError {
	return &DecodeError{Reason: reason, Err: err}
}

// RecombinationTypeError reports an unrecognized recombination kind.
type RecombinationTypeError struct {
	Kind string
}

func (e *RecombinationTypeError) Error() string {
	return fmt.Sprintf("unknown recombination kind %q", e.Kind)
}

func (e *RecombinationTypeError) Is(target error) bool {
	return target == ErrRecombinationType
}

func NewRecombinationTypeError(kind string) *RecombinationTypeError {
	return &RecombinationTypeError{Kind: kind}
}
