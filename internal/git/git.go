package git

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ChangedFile lists the new-side line numbers touched in one file.
type ChangedFile struct {
	Path         string `json:"path"`
	ChangedLines []int  `json:"changed_lines,omitempty"`
}

// hunkHeader captures new-side start and length from "@@ -a,b +c,d @@".
var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// Toplevel resolves the repository root enclosing dir. Diff paths are
// relative to this root, not to the directory the diff ran in.
func Toplevel(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository: %s", dir)
	}
	return strings.TrimSpace(string(output)), nil
}

// ChangedFiles runs git diff against baseRef inside repoDir and returns the
// touched files with their changed line numbers. An empty baseRef diffs the
// working tree against the index.
func ChangedFiles(repoDir, baseRef string) ([]ChangedFile, error) {
	args := []string{"diff", "-U0"}
	if baseRef != "" {
		args = append(args, baseRef)
	}
	cmd := exec.Command("git", args...)
	cmd.Dir = repoDir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}
	return ParseDiff(output)
}

// ParseDiff extracts changed files and their new-side lines from -U0 diff
// output. Zero-length hunks (pure deletions) contribute a file entry with
// no lines, since nothing exists at that position on the new side.
func ParseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		changes []ChangedFile
		current *ChangedFile
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "diff --git "):
			if current != nil {
				changes = append(changes, *current)
			}
			current = nil
			// "diff --git a/src/lib.rs b/src/lib.rs": the b/ side is the
			// post-change path.
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				current = &ChangedFile{Path: strings.TrimPrefix(parts[3], "b/")}
			}
		case current != nil && strings.HasPrefix(line, "@@"):
			m := hunkHeader.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			start, _ := strconv.Atoi(m[1])
			count := 1
			if m[2] != "" {
				count, _ = strconv.Atoi(m[2])
			}
			for i := 0; i < count; i++ {
				current.ChangedLines = append(current.ChangedLines, start+i)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan diff output: %w", err)
	}
	if current != nil {
		changes = append(changes, *current)
	}
	return changes, nil
}
