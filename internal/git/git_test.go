package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/src/lib.rs b/src/lib.rs
index 1111111..2222222 100644
--- a/src/lib.rs
+++ b/src/lib.rs
@@ -4,0 +5,2 @@ pub fn greet(name: &str) -> String {
+    let trimmed = name.trim();
+    debug_assert!(!trimmed.is_empty());
@@ -12 +14 @@ pub fn shout(name: &str) -> String {
-    format!("{}!", name)
+    format!("{}!!", name)
diff --git a/src/main.rs b/src/main.rs
index 3333333..4444444 100644
--- a/src/main.rs
+++ b/src/main.rs
@@ -8,2 +0,0 @@ fn main() {
-    let unused = 1;
-    let _ = unused;
`

func TestParseDiff(t *testing.T) {
	changes, err := ParseDiff([]byte(sampleDiff))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	lib := changes[0]
	assert.Equal(t, "src/lib.rs", lib.Path)
	assert.Equal(t, []int{5, 6, 14}, lib.ChangedLines)

	// Pure deletion: the file shows up but has no new-side lines.
	main := changes[1]
	assert.Equal(t, "src/main.rs", main.Path)
	assert.Empty(t, main.ChangedLines)
}

func TestParseDiff_Empty(t *testing.T) {
	changes, err := ParseDiff(nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestParseDiff_SingleLineHunkOmitsCount(t *testing.T) {
	diff := "diff --git a/src/lib.rs b/src/lib.rs\n@@ -3 +3 @@\n-old\n+new\n"
	changes, err := ParseDiff([]byte(diff))
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, []int{3}, changes[0].ChangedLines)
}
