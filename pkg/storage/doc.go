// Package storage provides the file-writing primitives shared by the pipeline.
//
// WriteFileAtomic streams content into a temporary file next to the target,
// syncs it, and renames it into place. Per-cell JSON aggregates and the
// deduplicated results file are written this way so a crash mid-write leaves
// the previous version intact.
//
// ImageStore places downloaded renditions under the zone's img directory,
// one subdirectory per grid cell:
//
//	store := storage.NewImageStore(j.ImagePath)
//	path, err := store.Save(resp.Body, "Z1", "52812345678")
package storage
