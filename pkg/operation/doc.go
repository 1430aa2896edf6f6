/*
Package operation drives a batch rewrite from input tree to output archive.

	+-----------------+     +-----------------+
	| FolderOperation |     | ArchiveOperation|
	|  (standalone)   |     |    (served)     |
	+--------+--------+     +--------+--------+
	         |                       |
	         |   archive.Unpack      |
	         |                       |
	         +-----------+-----------+
	                     |
	             +-------+-------+
	             | TreeOperation |
	             | (walk+mirror) |
	             +-------+-------+
	                     |
	               archive.Pack

🎯 Purpose:
- Walks an input tree in lexical order
- Mirrors directories into a scratch output tree
- Rewrites preset files through text.ClusterRewriter
- Packs the output and removes the scratch root

🔄 Provisioning:
- ProvisionPerDirectory clears the mirror of every directory it visits
- ProvisionPerFile creates the output root once, then each file's parent

Only files ending in the configured extension are written to the output.
Everything else is reported as ignored. Per-file failures are classified
into the status.Report and never stop the walk.

Each run owns a scratch root named clusterrc-<uuid>, so concurrent runs
never share working directories.

🔍 Example:

	op := operation.NewArchiveOperation(operation.Options{Value: "Red"}, "in.zip", os.TempDir(), "out")
	result, err := op.Execute(ctx)
	if err != nil {
		return err
	}
	fmt.Println(result.ArchivePath, result.Report.Counts().Rewritten)
*/
package operation
