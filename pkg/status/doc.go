/*
Package status manages scratch-tree storage and per-path result tracking for clusterrc.

	            +-------------+
	            |   Status    |
	            |  (Storage)  |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	|   Files   |           | Report  |
	| (Scratch) |           | (UI/UX) |
	+-----------+           +---------+

🎯 Purpose:
- Provisions mirrored directories in a scratch output tree
- Writes rewritten presets atomically
- Records one FileInfo per visited path
- Classifies failures (missing-path, permission-denied, unexpected-io)

📁 Provisioning:
EnsureExists and EnsureClean are deliberately separate. EnsureExists is
idempotent and never touches existing content. EnsureClean deletes whatever is
at the path and recreates it empty. Callers pick one per call site.

📋 Reporting:
Nothing here aborts a batch. Failures are returned to the caller, which records
them with TrackFile and moves on. Report snapshots the results in the order they
were recorded so callers can tell total failure from partial success.

🔍 Example:

	out := status.New(outputRoot)
	if err := out.EnsureClean(ctx, "presets"); err != nil {
		out.TrackFile(ctx, "presets", status.FileInfo{
			Op:     "mkdir",
			Status: status.StatusFailed,
			Kind:   status.Classify(err),
			Error:  err,
			IsDir:  true,
		})
	}
	report := out.Report(ctx)
*/
package status
