/*
Package archive unpacks and repacks the zip containers presets travel in.

🎯 Purpose:
- Unpack: extract an uploaded zip into a scratch directory
- Pack: zip a scratch output tree into <name>.zip
- NamingStrategy: decide the archive name (FirstChild or Fixed)

🔒 Intake rules:
- Missing archive fails with fs.ErrNotExist (missing-path)
- Non-zip input fails with ErrInvalidArchive
- Entries that resolve outside the destination fail with ErrUnsafePath
- Entries above Options.MaxEntryBytes fail with ErrEntryTooLarge
- Symlinks and special files are skipped

🏷️ Naming:
FirstChild picks the first subdirectory of the output root in lexical order and
packs only its contents, so a tree mirrored under "My Presets/" becomes
"My Presets.zip". Fixed packs the whole output root under a literal name.
*/
package archive
