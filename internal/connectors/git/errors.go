package git

import "errors"

// Git-specific errors.
var (
	// ErrMissingURL indicates the source config has no repository URL.
	ErrMissingURL = errors.New("git: repository url is required")

	// ErrBranchNotFound indicates the configured branch does not exist
	// on the remote.
	ErrBranchNotFound = errors.New("git: branch not found")

	// ErrDocsPathNotFound indicates the configured docs path does not
	// exist in the repository.
	ErrDocsPathNotFound = errors.New("git: docs path not found in repository")
)
