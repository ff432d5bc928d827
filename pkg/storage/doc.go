// Package storage writes generated metadata documents to the output directory.
//
// Each (entity, copy) pair maps to a file number N = id*copies + copy, and
// file number N is stored under the configured pattern, metadata_{n}.json by
// default. Writes go to a temporary file that is renamed into place, so a
// reader never sees a half-written document. Existing files are replaced.
//
// Usage:
//
//	manager, err := storage.NewManager("metadata_files", storage.DefaultFileNamePattern, false)
//	if err != nil {
//	    return err
//	}
//	path, err := manager.Write(storage.FileNumber(25, 10, 0), data)
package storage
