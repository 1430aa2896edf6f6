/*
Package config loads clusterrc settings from JSON, YAML or HCL.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	   +---------+-----+-----+-----------+
	   |         |           |           |
	+--+---+ +---+--+   +----+---+ +-----+-----+
	| JSON | | YAML |   |  HCL   | | .clusterrc|
	+------+ +------+   +--------+ | YAML->HCL |
	                               +-----------+

🎯 Purpose:
- Picks a parser by file name
- Rejects unknown fields in every format
- Fills defaults and validates values

🔄 Flow:
1. LoadConfig reads the file
2. GetParser selects the registered parser
3. Validate applies defaults (.xmp, crs:Cluster, __MACOSX/**, edited_presets)

A missing default file is not an error when loaded with LoadConfigOrDefault.

🔍 Example:

	cfg, err := config.LoadConfigOrDefault(ctx, ".clusterrc")
	if err != nil {
		return err
	}
	fmt.Println(cfg.Extension, cfg.Attribute)

HCL files can read the environment:

	scratch_dir     = "${env.TMPDIR}/clusterrc"
	ignore_patterns = ["__MACOSX/**", ".DS_Store"]
*/
package config
