package domain

import "github.com/google/uuid"

// documentNamespace scopes deterministic document IDs.
var documentNamespace = uuid.MustParse("8e2fb55c-7a31-4bfa-9c7d-42e1d3c96a05")

// DocumentID derives a stable document ID from the source and the
// document's original location. Re-syncing the same location yields the
// same ID, so an updated document replaces its previous version in the
// repository and the index instead of duplicating it.
func DocumentID(sourceID, uri string) string {
	return uuid.NewSHA1(documentNamespace, []byte(sourceID+"\x00"+uri)).String()
}
