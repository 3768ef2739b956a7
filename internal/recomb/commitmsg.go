package recomb

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
)

// SourceMeta is one side (main or patches) of a recombination's metadata.
type SourceMeta struct {
	Name            string   `yaml:"name"`
	Branch          string   `yaml:"branch"`
	Revision        string   `yaml:"revision"`
	ID              string   `yaml:"id"`
	CommitMessage   string   `yaml:"commit-message,omitempty"`
	RemovedCommits  []string `yaml:"removed_commits,omitempty"`
}

// SourcesMeta holds both sides of a recombination.
type SourcesMeta struct {
	Main    SourceMeta `yaml:"main"`
	Patches SourceMeta `yaml:"patches"`
}

// RecombinationMeta is the full reconstruction data carried in a
// recombination's commit-message YAML body (spec.md §6).
type RecombinationMeta struct {
	Sources                 SourcesMeta `yaml:"sources"`
	ReplicationStrategy     Strategy    `yaml:"replication-strategy"`
	RecombineStatus         RecombineStatus `yaml:"recombine-status"`
	TargetReplacementBranch string      `yaml:"target-replacement-branch,omitempty"`
}

// ShortRev returns the 6-character short revision used in the recombination
// subject line, matching the Python source's `revision[:6]`.
func ShortRev(revision string) string {
	if len(revision) <= 6 {
		return revision
	}
	return revision[:6]
}

// subjectLine builds the exact first line of a recombination's commit
// message: "Recombination: <kind>:<mainRev6>-<patchesRev6>/<mainBranch>".
func subjectLine(kind Kind, mainRev, patchesRev, mainBranch string) string {
	return fmt.Sprintf("Recombination: %s:%s-%s/%s", kind, ShortRev(mainRev), ShortRev(patchesRev), mainBranch)
}

// EncodeCommitMessage renders a recombination's full commit message: the
// subject line, a blank line, then the YAML body.
func EncodeCommitMessage(kind Kind, meta RecombinationMeta) (string, error) {
	body, err := yaml.Marshal(meta)
	if err != nil {
		return "", gniterrors.NewDecodeError("marshaling recombination metadata", err)
	}
	subject := subjectLine(kind, meta.Sources.Main.Revision, meta.Sources.Patches.Revision, meta.Sources.Main.Branch)
	return subject + "\n\n" + string(body), nil
}

// DecodeCommitMessage parses a recombination's commit message back into its
// kind and metadata, validating that the subject line matches the body.
func DecodeCommitMessage(message string) (Kind, RecombinationMeta, error) {
	var meta RecombinationMeta

	lines := strings.SplitN(message, "\n", 2)
	if len(lines) < 2 {
		return "", meta, gniterrors.NewDecodeError("commit message has no body", nil)
	}
	subject := lines[0]
	rest := strings.TrimPrefix(lines[1], "\n")

	const prefix = "Recombination: "
	if !strings.HasPrefix(subject, prefix) {
		return "", meta, gniterrors.NewDecodeError("subject line missing Recombination: prefix", nil)
	}
	kindAndRest := strings.TrimPrefix(subject, prefix)
	colonIdx := strings.Index(kindAndRest, ":")
	if colonIdx < 0 {
		return "", meta, gniterrors.NewDecodeError("subject line missing kind separator", nil)
	}
	kind := Kind(kindAndRest[:colonIdx])

	if err := yaml.Unmarshal([]byte(rest), &meta); err != nil {
		return "", meta, gniterrors.NewDecodeError("unmarshaling recombination metadata", err)
	}

	wantSubject := subjectLine(kind, meta.Sources.Main.Revision, meta.Sources.Patches.Revision, meta.Sources.Main.Branch)
	if wantSubject != subject {
		return "", meta, gniterrors.NewDecodeError(
			fmt.Sprintf("subject line %q does not match metadata (expected %q)", subject, wantSubject), nil)
	}

	return kind, meta, nil
}

// MangleCherryPickMessage applies the evolution-diversity commit-message
// mangling (spec.md §6): insert an Upstream-<branch> trailer before the
// Change-Id trailer, and append the cherry-pick provenance line.
func MangleCherryPickMessage(original, branch, url, sourceRevision string) string {
	lines := strings.Split(original, "\n")
	trailer := fmt.Sprintf("Upstream-%s: %s", branch, url)

	inserted := false
	var out []string
	for _, line := range lines {
		if !inserted && strings.HasPrefix(strings.TrimSpace(line), "Change-Id:") {
			out = append(out, trailer)
			inserted = true
		}
		out = append(out, line)
	}
	if !inserted {
		out = append(out, trailer)
	}

	message := strings.Join(out, "\n")
	message = strings.TrimRight(message, "\n")
	message += fmt.Sprintf("\n\n(cherry picked from commit %s)\n", sourceRevision)
	return message
}
