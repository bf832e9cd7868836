package storage

import "path"

// OriginalPath is where the uploaded input of a job lives.
func OriginalPath(id string) string {
	return path.Join("original", id)
}

// ResultPath is where the filtered output of a job lives.
func ResultPath(id string) string {
	return path.Join("result", id+".jpg")
}
